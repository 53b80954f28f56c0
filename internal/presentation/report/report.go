package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/sessionlog/claude-timeline/internal/core/pricing"
	"github.com/sessionlog/claude-timeline/internal/data/batch"
	"github.com/sessionlog/claude-timeline/internal/util"
)

// Assembler renders compiled session timelines into one markdown document.
type Assembler struct {
	pricing *pricing.Table
}

func NewAssembler(table *pricing.Table) *Assembler {
	if table == nil {
		table = pricing.NewDefaultTable()
	}
	return &Assembler{pricing: table}
}

// Write renders the report for the given results. Callers wanting
// chronological sections sort the results first.
func (a *Assembler) Write(w io.Writer, results []batch.SessionResult) error {
	fmt.Fprintf(w, "# Session Activity Report\n\n")
	fmt.Fprintf(w, "Generated %s · %d sessions\n\n", time.Now().Format("2006-01-02 15:04"), len(results))

	var total UsageSummary
	for _, result := range results {
		usage := SummarizeUsage(result.Logs, a.pricing)
		total.InputTokens += usage.InputTokens
		total.OutputTokens += usage.OutputTokens
		total.CacheCreation += usage.CacheCreation
		total.CacheRead += usage.CacheRead
		total.Cost += usage.Cost
		total.Messages += usage.Messages

		a.writeSession(w, result, usage)
	}

	fmt.Fprintf(w, "## Totals\n\n")
	fmt.Fprintf(w, "| Sessions | Messages | Input | Output | Cache W/R | Est. cost |\n")
	fmt.Fprintf(w, "|---|---|---|---|---|---|\n")
	fmt.Fprintf(w, "| %d | %d | %s | %s | %s/%s | %s |\n",
		len(results),
		total.Messages,
		util.FormatTokens(total.InputTokens),
		util.FormatTokens(total.OutputTokens),
		util.FormatTokens(total.CacheCreation),
		util.FormatTokens(total.CacheRead),
		util.FormatCost(total.Cost))

	return nil
}

func (a *Assembler) writeSession(w io.Writer, result batch.SessionResult, usage UsageSummary) {
	title := sessionTitle(result)
	fmt.Fprintf(w, "## %s\n\n", title)

	fmt.Fprintf(w, "| Messages | Input | Output | Est. cost | Duration |\n")
	fmt.Fprintf(w, "|---|---|---|---|---|\n")
	fmt.Fprintf(w, "| %d | %s | %s | %s | %s |\n\n",
		usage.Messages,
		util.FormatTokens(usage.InputTokens),
		util.FormatTokens(usage.OutputTokens),
		util.FormatCost(usage.Cost),
		util.FormatDurationCompact(usage.Duration))

	if len(result.Entries) == 0 {
		fmt.Fprintf(w, "_No timeline activity._\n\n")
		return
	}

	fmt.Fprintf(w, "```\n")
	for _, entry := range result.Entries {
		fmt.Fprintln(w, entry.Line())
	}
	fmt.Fprintf(w, "```\n\n")
}

func sessionTitle(result batch.SessionResult) string {
	project := filepath.Base(filepath.Dir(result.Path))
	name := strings.TrimSuffix(filepath.Base(result.Path), filepath.Ext(result.Path))
	if result.SessionId != "" {
		name = result.SessionId
	}
	if project == "." || project == "/" || project == "" {
		return name
	}
	return project + " / " + name
}

// WriteFile writes the report to a path, or to stdout when path is empty.
// Terminal output gets a width-fitted separator between report runs.
func (a *Assembler) WriteFile(path string, results []batch.SessionResult) error {
	if path == "" {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			width, _, err := term.GetSize(int(os.Stdout.Fd()))
			if err != nil || width <= 0 || width > 120 {
				width = 80
			}
			fmt.Println(strings.Repeat("─", width))
		}
		return a.Write(os.Stdout, results)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	if err := a.Write(file, results); err != nil {
		return err
	}
	util.LogInfof("Report written to %s", path)
	return nil
}
