// Package agent invokes an external conversational agent on a finished
// report. The pipeline has no dependency on its availability: any failure is
// logged and swallowed.
package agent

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/sessionlog/claude-timeline/internal/util"
)

const defaultTimeout = 5 * time.Minute

// Interpreter runs the agent binary in non-interactive print mode.
type Interpreter struct {
	binary  string
	timeout time.Duration
}

func NewInterpreter(binary string) *Interpreter {
	if binary == "" {
		binary = "claude"
	}
	return &Interpreter{binary: binary, timeout: defaultTimeout}
}

// Interpret asks the agent for a short read of the report. The returned text
// is best-effort; an empty string with nil error means the agent produced
// nothing useful.
func (i *Interpreter) Interpret(ctx context.Context, reportPath string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	prompt := fmt.Sprintf(
		"Read the session activity report at %s and summarize the notable sessions, costs and slow spots in a few sentences.",
		reportPath)

	cmd := exec.CommandContext(ctx, i.binary, "-p", prompt)
	var out strings.Builder
	cmd.Stdout = &out
	cmd.Stderr = &out

	start := time.Now()
	err := cmd.Run()
	if err != nil {
		util.LogWarnf("Agent invocation failed after %v: %v", time.Since(start), err)
		return "", fmt.Errorf("agent invocation failed: %w", err)
	}

	return strings.TrimSpace(out.String()), nil
}
