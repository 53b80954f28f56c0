package timeline

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/sessionlog/claude-timeline/internal/core/model"
	"github.com/sessionlog/claude-timeline/internal/util"
)

// formatterFunc renders one display line body from a tool invocation and its
// correlated result (nil when none arrived).
type formatterFunc func(block *model.ContentItem, result *model.ContentItem) string

// formatters dispatches by tool kind. Read/Write/Edit never reach this table;
// they aggregate into file-operation runs instead.
var formatters = map[string]formatterFunc{
	model.ToolBash:        formatBash,
	model.ToolTask:        formatTask,
	model.ToolAskQuestion: formatAskQuestion,
	model.ToolWebFetch:    formatWebFetch,
	model.ToolWebSearch:   formatWebSearch,
}

// renderTool formats a tool invocation, falling through to the generic
// formatter for unknown kinds so coverage gaps stay visible in output.
func renderTool(block *model.ContentItem, result *model.ContentItem) string {
	if strings.HasPrefix(block.Name, model.MCPPrefix) {
		return formatMCP(block, result)
	}
	if fn, ok := formatters[block.Name]; ok {
		return fn(block, result)
	}
	return formatUnknown(block, result)
}

// heredocRe matches the start of a shell heredoc body.
var heredocRe = regexp.MustCompile(`<<-?\s*['"]?[A-Za-z_][A-Za-z0-9_]*`)

// formatBash shows the command with its input/output sizes. Heredoc bodies
// are never echoed: the whole command is replaced by a reference to the
// invocation that carried it.
func formatBash(block *model.ContentItem, result *model.ContentItem) string {
	command := block.Input.Str("command")
	commandSize := len(command)

	display := util.CollapseWhitespace(command)
	if heredocRe.MatchString(command) {
		display = fmt.Sprintf("(heredoc script, ref %s)", block.Id)
	}

	line := fmt.Sprintf("Bash %s [cmd:%s out:%s]",
		display, util.FormatBytes(commandSize), util.FormatBytes(ResultSize(result)))

	if result != nil && result.ExitCode != nil && *result.ExitCode != 0 {
		line += fmt.Sprintf(" exit=%d", *result.ExitCode)
	}
	return line
}

func formatTask(block *model.ContentItem, _ *model.ContentItem) string {
	line := fmt.Sprintf("Task %s", block.Input.Str("subagent_type"))
	if desc := block.Input.Str("description"); desc != "" {
		line += ": " + desc
	}
	return line
}

func formatAskQuestion(block *model.ContentItem, _ *model.ContentItem) string {
	question := firstQuestion(block.Input)
	return fmt.Sprintf("Ask %q", util.TruncateText(util.CollapseWhitespace(question), 60))
}

// firstQuestion digs the first question text out of the questions array.
func firstQuestion(input model.ToolInput) string {
	questions, ok := input["questions"].([]any)
	if !ok || len(questions) == 0 {
		return ""
	}
	if m, ok := questions[0].(map[string]any); ok {
		if q, ok := m["question"].(string); ok {
			return q
		}
	}
	return ""
}

func formatWebFetch(block *model.ContentItem, result *model.ContentItem) string {
	url := util.TruncateText(block.Input.Str("url"), 50)
	return fmt.Sprintf("WebFetch %s [in:%s out:%s]",
		url, util.FormatBytes(inputSize(block)), util.FormatBytes(ResultSize(result)))
}

func formatWebSearch(block *model.ContentItem, result *model.ContentItem) string {
	query := util.TruncateText(util.CollapseWhitespace(block.Input.Str("query")), 50)
	return fmt.Sprintf("WebSearch %q [out:%s]", query, util.FormatBytes(ResultSize(result)))
}

// formatMCP renders externally-namespaced tools: namespace-stripped display
// name plus the full, untruncated parameter list. Structured parameter values
// appear in serialized form.
func formatMCP(block *model.ContentItem, result *model.ContentItem) string {
	name := block.Name
	if idx := strings.LastIndex(name, "__"); idx >= 0 {
		name = name[idx+2:]
	}

	keys := make([]string, 0, len(block.Input))
	for k := range block.Input {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	params := make([]string, 0, len(keys))
	for _, k := range keys {
		params = append(params, fmt.Sprintf("%s=%s", k, paramValue(block.Input[k])))
	}

	line := fmt.Sprintf("%s(%s)", name, strings.Join(params, ", "))
	if result != nil {
		line += fmt.Sprintf(" [out:%s]", util.FormatBytes(ResultSize(result)))
	}
	return line
}

func paramValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	default:
		data, err := sonic.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	}
}

// formatUnknown surfaces formatter coverage gaps instead of hiding them.
func formatUnknown(block *model.ContentItem, result *model.ContentItem) string {
	return fmt.Sprintf("%s [in:%s out:%s] (needs formatter)",
		block.Name, util.FormatBytes(inputSize(block)), util.FormatBytes(ResultSize(result)))
}

// inputSize is the serialized byte size of a tool invocation's parameters.
func inputSize(block *model.ContentItem) int {
	if len(block.Input) == 0 {
		return 0
	}
	data, err := sonic.Marshal(block.Input)
	if err != nil {
		return 0
	}
	return len(data)
}
