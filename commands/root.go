package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sessionlog/claude-timeline/internal/agent"
	"github.com/sessionlog/claude-timeline/internal/core/pricing"
	"github.com/sessionlog/claude-timeline/internal/core/timeline"
	"github.com/sessionlog/claude-timeline/internal/data/batch"
	"github.com/sessionlog/claude-timeline/internal/data/scanner"
	"github.com/sessionlog/claude-timeline/internal/presentation/report"
	"github.com/sessionlog/claude-timeline/internal/util"
)

var (
	debug bool

	dataDir     string
	outputPath  string
	pricingFile string

	workers   int
	groupSize int

	runAgent    bool
	agentBinary string
	watchMode   bool

	rootCmd = &cobra.Command{
		Use:   "claude-timeline [flags]",
		Short: "Compile agent session logs into annotated timelines",
		Long: `claude-timeline reads per-session JSONL activity logs and compiles each into
a compact, human-readable timeline annotated with timing, size and token-cost
metadata, then assembles the timelines into one markdown report.

Examples:
  claude-timeline                                  # Compile under the default directory
  claude-timeline --dir ~/.claude/projects         # Compile a specific directory
  claude-timeline --report report.md               # Write the report to a file
  claude-timeline --workers 4 --group-size 16      # Tune batch parallelism
  claude-timeline --report report.md --agent       # Ask the agent to interpret the report
  claude-timeline --watch --report report.md       # Rebuild when session files change`,
		RunE: runCompile,
	}
)

const (
	defaultLogFile = "~/.claude-timeline/logs/app.log"
	defaultDataDir = "~/.claude/projects"
)

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "dir", defaultDataDir,
		"Session log directory path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug mode")

	rootCmd.Flags().StringVarP(&outputPath, "report", "o", "",
		"Report output path (default: stdout)")
	rootCmd.Flags().StringVar(&pricingFile, "pricing-file", "",
		"YAML pricing table override")

	rootCmd.Flags().IntVar(&workers, "workers", 0,
		"Compile worker pool size (0 = auto)")
	rootCmd.Flags().IntVar(&groupSize, "group-size", 0,
		"Files parsed per I/O group (0 = default)")

	rootCmd.Flags().BoolVar(&runAgent, "agent", false,
		"Invoke the conversational agent on the finished report")
	rootCmd.Flags().StringVar(&agentBinary, "agent-binary", "claude",
		"Agent binary used with --agent")
	rootCmd.Flags().BoolVarP(&watchMode, "watch", "w", false,
		"Watch the directory and rebuild on change")
}

func runCompile(cmd *cobra.Command, args []string) error {
	logLevel := "info"
	if debug {
		logLevel = "debug"
	}

	logFile := expandPath(defaultLogFile)
	if err := ensureDir(filepath.Dir(logFile)); err != nil {
		logFile = ""
	}
	util.InitLogger(logLevel, logFile, debug)

	dataDir = expandPath(dataDir)

	table, err := pricing.LoadTable(pricingFile)
	if err != nil {
		return err
	}

	pipeline := &pipeline{
		scanner:   scanner.NewFileScanner(dataDir),
		orch:      batch.NewOrchestrator(timeline.NewCompiler(table), batch.Config{Workers: workers, GroupSize: groupSize}),
		assembler: report.NewAssembler(table),
	}

	if err := pipeline.run(); err != nil {
		return err
	}

	if runAgent && outputPath != "" {
		interpretReport(cmd.Context())
	}

	if watchMode {
		return watchLoop(cmd.Context(), dataDir, pipeline)
	}
	return nil
}

// pipeline bundles the scan, compile and report steps so the watch loop can
// re-run them as one unit.
type pipeline struct {
	scanner   *scanner.FileScanner
	orch      *batch.Orchestrator
	assembler *report.Assembler
}

func (p *pipeline) run() error {
	files, err := p.scanner.Scan()
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", dataDir, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no session files found under %s", dataDir)
	}
	util.LogInfof("Found %d session files", len(files))

	results, err := p.orch.Run(files)
	if err != nil {
		return err
	}

	batch.SortByEarliest(results)
	return p.assembler.WriteFile(outputPath, results)
}

func interpretReport(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	interpreter := agent.NewInterpreter(agentBinary)
	summary, err := interpreter.Interpret(ctx, outputPath)
	if err != nil {
		util.LogWarnf("Skipping agent interpretation: %v", err)
		return
	}
	if summary != "" {
		fmt.Println(summary)
	}
}

func Execute() error {
	return rootCmd.Execute()
}

// Helper functions

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
