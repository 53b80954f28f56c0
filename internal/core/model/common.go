package model

// Record roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Content block types
const (
	BlockText       = "text"
	BlockToolUse    = "tool_use"
	BlockToolResult = "tool_result"
	BlockThinking   = "thinking"
)

// Tool kind names
const (
	ToolRead        = "Read"
	ToolWrite       = "Write"
	ToolEdit        = "Edit"
	ToolBash        = "Bash"
	ToolTask        = "Task"
	ToolAskQuestion = "AskUserQuestion"
	ToolWebFetch    = "WebFetch"
	ToolWebSearch   = "WebSearch"
)

// MCPPrefix marks externally-namespaced tools (mcp__server__tool). Such tools
// are never filtered out, whatever their name.
const MCPPrefix = "mcp__"

// lowSignalTools lists tool kinds that add noise rather than signal to a
// timeline: search and navigation, task-list bookkeeping, mode switches and
// background process monitoring.
var lowSignalTools = map[string]struct{}{
	"Grep":         {},
	"Glob":         {},
	"LS":           {},
	"TodoWrite":    {},
	"TodoRead":     {},
	"ExitPlanMode": {},
	"BashOutput":   {},
	"KillShell":    {},
	"TaskOutput":   {},
}

// IsLowSignalTool reports whether a tool kind is filtered from timelines.
// Externally-namespaced tools always pass.
func IsLowSignalTool(name string) bool {
	if len(name) >= len(MCPPrefix) && name[:len(MCPPrefix)] == MCPPrefix {
		return false
	}
	_, ok := lowSignalTools[name]
	return ok
}
