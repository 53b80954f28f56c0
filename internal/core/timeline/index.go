package timeline

import (
	"strings"

	"github.com/bytedance/sonic"

	"github.com/sessionlog/claude-timeline/internal/core/model"
)

// ResultIndex maps a tool invocation id to its later-arriving tool_result
// block. Results for an id not present simply have no lookup hit; the
// compiler treats that as "no result available".
type ResultIndex map[string]*model.ContentItem

// BuildResultIndex collects every tool_result block from user-role records in
// one linear scan. At most one result per id is retained; a duplicate id
// overwrites the earlier entry.
func BuildResultIndex(logs []model.ConversationLog) ResultIndex {
	index := make(ResultIndex)
	for i := range logs {
		log := &logs[i]
		if log.Message.Role != model.RoleUser {
			continue
		}
		for j := range log.Message.Content {
			block := &log.Message.Content[j]
			if block.Type == model.BlockToolResult && block.ToolUseId != "" {
				index[block.ToolUseId] = block
			}
		}
	}
	return index
}

// ResultText flattens a tool_result payload to text. String payloads pass
// through; block-array payloads concatenate their text parts; anything else
// is rendered as its serialized form.
func ResultText(result *model.ContentItem) string {
	if result == nil {
		return ""
	}
	switch content := result.Content.(type) {
	case string:
		return content
	case []any:
		var sb strings.Builder
		for _, item := range content {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if text, ok := m["text"].(string); ok {
				sb.WriteString(text)
			}
		}
		return sb.String()
	case nil:
		return ""
	default:
		data, err := sonic.Marshal(content)
		if err != nil {
			return ""
		}
		return string(data)
	}
}

// ResultSize is the byte size of a flattened tool_result payload.
func ResultSize(result *model.ContentItem) int {
	return len(ResultText(result))
}
