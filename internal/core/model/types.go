package model

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// ConversationLog is one newline-delimited record of a session log file.
type ConversationLog struct {
	Cwd         string  `json:"cwd,omitempty"`
	GitBranch   string  `json:"gitBranch,omitempty"`
	IsMeta      bool    `json:"isMeta,omitempty"`
	IsSidechain bool    `json:"isSidechain,omitempty"`
	Message     Message `json:"message"`
	ParentUuid  *string `json:"parentUuid"`
	RequestId   string  `json:"requestId,omitempty"`
	SessionId   string  `json:"sessionId"`
	Timestamp   string  `json:"timestamp"`
	Type        string  `json:"type"`
	Uuid        string  `json:"uuid"`
	Version     string  `json:"version,omitempty"`
}

type Message struct {
	Content FlexibleContent `json:"content"`
	Id      string          `json:"id,omitempty"`
	Model   string          `json:"model,omitempty"`
	Role    string          `json:"role"`
	Type    string          `json:"type,omitempty"`
	Usage   Usage           `json:"usage,omitempty"`
}

// FlexibleContent accepts either a bare string or an array of content blocks.
type FlexibleContent []ContentItem

func (fc *FlexibleContent) UnmarshalJSON(data []byte) error {
	var items []ContentItem
	if err := sonic.Unmarshal(data, &items); err == nil {
		*fc = items
		return nil
	}

	var str string
	if err := sonic.Unmarshal(data, &str); err == nil {
		*fc = []ContentItem{{Type: BlockText, Text: str}}
		return nil
	}

	return fmt.Errorf("content must be either string or array of ContentItem")
}

// ContentItem is one content block: text, tool_use, tool_result or thinking.
type ContentItem struct {
	Content   any       `json:"content,omitempty"`
	ExitCode  *int      `json:"exit_code,omitempty"`
	Id        string    `json:"id,omitempty"`
	Input     ToolInput `json:"input,omitempty"`
	IsError   bool      `json:"is_error,omitempty"`
	Name      string    `json:"name,omitempty"`
	Text      string    `json:"text,omitempty"`
	Thinking  string    `json:"thinking,omitempty"`
	ToolUseId string    `json:"tool_use_id,omitempty"`
	Type      string    `json:"type"`
}

// ToolInput holds arbitrary tool parameters. Externally-namespaced tools carry
// parameter sets we cannot enumerate ahead of time, so the mapping stays open.
type ToolInput map[string]any

// Str returns the string value of a parameter, or "" when absent or non-string.
func (in ToolInput) Str(key string) string {
	if v, ok := in[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Int returns the integer value of a parameter. JSON numbers decode as
// float64, so both representations are accepted.
func (in ToolInput) Int(key string) int {
	switch v := in[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}

type Usage struct {
	CacheCreationInputTokens int    `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     int    `json:"cache_read_input_tokens,omitempty"`
	InputTokens              int    `json:"input_tokens"`
	OutputTokens             int    `json:"output_tokens"`
	ServiceTier              string `json:"service_tier,omitempty"`
}

// IsZero reports whether no token counts were recorded.
func (u Usage) IsZero() bool {
	return u.InputTokens == 0 && u.OutputTokens == 0 &&
		u.CacheCreationInputTokens == 0 && u.CacheReadInputTokens == 0
}
