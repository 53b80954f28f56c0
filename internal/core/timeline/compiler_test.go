package timeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sessionlog/claude-timeline/internal/core/model"
)

// Test fixtures

func userTextRecord(ts, text string) model.ConversationLog {
	return model.ConversationLog{
		Timestamp: ts,
		Message: model.Message{
			Role:    model.RoleUser,
			Content: model.FlexibleContent{{Type: model.BlockText, Text: text}},
		},
	}
}

func toolResultRecord(ts string, results ...model.ContentItem) model.ConversationLog {
	return model.ConversationLog{
		Timestamp: ts,
		Message: model.Message{
			Role:    model.RoleUser,
			Content: model.FlexibleContent(results),
		},
	}
}

func toolResult(id, content string) model.ContentItem {
	return model.ContentItem{Type: model.BlockToolResult, ToolUseId: id, Content: content}
}

func toolUse(id, name string, input model.ToolInput) model.ContentItem {
	return model.ContentItem{Type: model.BlockToolUse, Id: id, Name: name, Input: input}
}

func assistantRecord(ts string, usage model.Usage, blocks ...model.ContentItem) model.ConversationLog {
	return model.ConversationLog{
		Timestamp: ts,
		Message: model.Message{
			Role:    model.RoleAssistant,
			Model:   "claude-sonnet-4-20250514",
			Usage:   usage,
			Content: model.FlexibleContent(blocks),
		},
	}
}

func thinkingRecord(ts string, in, out int) model.ConversationLog {
	return assistantRecord(ts, model.Usage{InputTokens: in, OutputTokens: out},
		model.ContentItem{Type: model.BlockThinking, Thinking: "considering"})
}

func actionEntries(entries []TimelineEntry) []TimelineEntry {
	var actions []TimelineEntry
	for _, e := range entries {
		if e.Kind == KindAction {
			actions = append(actions, e)
		}
	}
	return actions
}

// Compiler tests

func TestCompileEmptyConversation(t *testing.T) {
	c := NewCompiler(nil)

	assert.Nil(t, c.Compile(nil))
	assert.Nil(t, c.Compile([]model.ConversationLog{}))
}

func TestCompileNoActionsReturnsNone(t *testing.T) {
	c := NewCompiler(nil)

	// User text alone never emits: the pending user message only surfaces
	// ahead of an action line.
	logs := []model.ConversationLog{
		userTextRecord("2025-01-15T10:00:00Z", "hello"),
	}
	assert.Nil(t, c.Compile(logs))
}

func TestCompileBlocklistedToolsProduceNothing(t *testing.T) {
	c := NewCompiler(nil)

	logs := []model.ConversationLog{
		assistantRecord("2025-01-15T10:00:00Z", model.Usage{InputTokens: 10, OutputTokens: 5},
			toolUse("toolu_01", "Grep", model.ToolInput{"pattern": "x"}),
			toolUse("toolu_02", "TodoWrite", model.ToolInput{})),
	}
	assert.Nil(t, c.Compile(logs))
}

func TestCompileSingleActionInlinesUsage(t *testing.T) {
	c := NewCompiler(nil)

	logs := []model.ConversationLog{
		assistantRecord("2025-01-15T10:00:00Z", model.Usage{InputTokens: 1200, OutputTokens: 300},
			toolUse("toolu_01", model.ToolBash, model.ToolInput{"command": "go vet ./..."})),
		toolResultRecord("2025-01-15T10:00:04Z", toolResult("toolu_01", "ok")),
	}

	entries := c.Compile(logs)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, KindAction, entry.Kind)
	assert.Equal(t, 1, entry.Seq)
	assert.Contains(t, entry.Text, "go vet ./...")
	assert.Contains(t, entry.Text, "in:1.2K")
	assert.Contains(t, entry.Text, "out:300")
	assert.Contains(t, entry.Text, "$")
}

func TestCompileReadRunCompression(t *testing.T) {
	c := NewCompiler(nil)
	bigContent := strings.Repeat("x", 3500)

	logs := []model.ConversationLog{
		assistantRecord("2025-01-15T10:00:00Z", model.Usage{},
			toolUse("toolu_r1", model.ToolRead, model.ToolInput{"file_path": "/src/main.go"})),
		assistantRecord("2025-01-15T10:00:10Z", model.Usage{},
			toolUse("toolu_r2", model.ToolRead, model.ToolInput{"file_path": "/src/main.go", "offset": 100})),
		assistantRecord("2025-01-15T10:00:20Z", model.Usage{},
			toolUse("toolu_r3", model.ToolRead, model.ToolInput{"file_path": "/src/main.go", "offset": 200})),
		toolResultRecord("2025-01-15T10:00:25Z",
			toolResult("toolu_r1", bigContent),
			toolResult("toolu_r2", bigContent),
			toolResult("toolu_r3", bigContent)),
	}

	entries := c.Compile(logs)

	actions := actionEntries(entries)
	require.Len(t, actions, 1, "three same-file reads compress into one action line")

	action := actions[0]
	assert.Equal(t, 1, action.Seq)
	assert.Contains(t, action.Text, "Read")
	assert.Contains(t, action.Text, "main.go (L1, L100, L200)")
	// 3 x 3500 bytes accumulated.
	assert.Contains(t, action.Text, "10.3KB")
}

func TestCompileSubThresholdReadInvisible(t *testing.T) {
	c := NewCompiler(nil)
	bigContent := strings.Repeat("x", 3500)
	smallContent := strings.Repeat("x", 500)

	logs := []model.ConversationLog{
		assistantRecord("2025-01-15T10:00:00Z", model.Usage{},
			toolUse("toolu_r1", model.ToolRead, model.ToolInput{"file_path": "/src/main.go"})),
		// Below the threshold: must neither break nor start a run.
		assistantRecord("2025-01-15T10:00:05Z", model.Usage{},
			toolUse("toolu_r2", model.ToolRead, model.ToolInput{"file_path": "/src/tiny.go"})),
		assistantRecord("2025-01-15T10:00:10Z", model.Usage{},
			toolUse("toolu_r3", model.ToolRead, model.ToolInput{"file_path": "/src/main.go", "offset": 50})),
		toolResultRecord("2025-01-15T10:00:15Z",
			toolResult("toolu_r1", bigContent),
			toolResult("toolu_r2", smallContent),
			toolResult("toolu_r3", bigContent)),
	}

	entries := c.Compile(logs)
	actions := actionEntries(entries)
	require.Len(t, actions, 1, "the interleaved small read must not split the run")

	assert.Contains(t, actions[0].Text, "main.go (L1, L50)")
	assert.NotContains(t, actions[0].Text, "tiny.go")
}

func TestCompileDifferingKindFlushesRun(t *testing.T) {
	c := NewCompiler(nil)
	bigContent := strings.Repeat("x", 3500)

	logs := []model.ConversationLog{
		assistantRecord("2025-01-15T10:00:00Z", model.Usage{},
			toolUse("toolu_r1", model.ToolRead, model.ToolInput{"file_path": "/src/a.go"})),
		assistantRecord("2025-01-15T10:00:05Z", model.Usage{},
			toolUse("toolu_w1", model.ToolWrite, model.ToolInput{
				"file_path": "/src/b.go",
				"content":   "package b\n\nfunc B() {}",
			})),
		toolResultRecord("2025-01-15T10:00:10Z", toolResult("toolu_r1", bigContent)),
	}

	entries := c.Compile(logs)
	actions := actionEntries(entries)
	require.Len(t, actions, 2)

	assert.Contains(t, actions[0].Text, "Read")
	assert.Contains(t, actions[0].Text, "a.go")
	assert.Equal(t, 1, actions[0].Seq)

	assert.Contains(t, actions[1].Text, "Write")
	assert.Contains(t, actions[1].Text, "b.go (L1-3)")
	assert.Equal(t, 2, actions[1].Seq)
}

func TestCompileEditRangeQuirk(t *testing.T) {
	c := NewCompiler(nil)

	// The edit span covers the replacement text from line 1, not the true
	// location in the original file.
	logs := []model.ConversationLog{
		assistantRecord("2025-01-15T10:00:00Z", model.Usage{},
			toolUse("toolu_e1", model.ToolEdit, model.ToolInput{
				"file_path":  "/src/deep/file.go",
				"old_string": "old",
				"new_string": "line one\nline two\nline three",
			})),
	}

	entries := c.Compile(logs)
	actions := actionEntries(entries)
	require.Len(t, actions, 1)
	assert.Contains(t, actions[0].Text, "file.go (L1-3)")
}

func TestCompileReasoningAccumulates(t *testing.T) {
	c := NewCompiler(nil)

	logs := []model.ConversationLog{
		assistantRecord("2025-01-15T10:00:00Z", model.Usage{},
			toolUse("toolu_01", model.ToolBash, model.ToolInput{"command": "ls"})),
		thinkingRecord("2025-01-15T10:00:10Z", 1000, 200),
		thinkingRecord("2025-01-15T10:00:20Z", 500, 100),
	}

	entries := c.Compile(logs)
	require.Len(t, entries, 2)

	marker := entries[1]
	assert.Equal(t, KindReasoning, marker.Kind)
	assert.Equal(t, 0, marker.Seq, "reasoning markers never consume a sequence number")
	assert.Contains(t, marker.Text, "thinking x2")
	assert.Contains(t, marker.Text, "in:1.5K")
	assert.Contains(t, marker.Text, "out:300")
}

func TestCompileReasoningSingleHidesCount(t *testing.T) {
	c := NewCompiler(nil)

	logs := []model.ConversationLog{
		assistantRecord("2025-01-15T10:00:00Z", model.Usage{},
			toolUse("toolu_01", model.ToolBash, model.ToolInput{"command": "ls"})),
		thinkingRecord("2025-01-15T10:00:10Z", 100, 50),
	}

	entries := c.Compile(logs)
	require.Len(t, entries, 2)
	assert.Contains(t, entries[1].Text, "thinking")
	assert.NotContains(t, entries[1].Text, "thinking x")
}

func TestCompileReasoningIdleGapDropped(t *testing.T) {
	c := NewCompiler(nil)

	logs := []model.ConversationLog{
		assistantRecord("2025-01-15T10:00:00Z", model.Usage{},
			toolUse("toolu_01", model.ToolBash, model.ToolInput{"command": "ls"})),
		// 90 seconds of silence: user idle time, not agent work.
		thinkingRecord("2025-01-15T10:01:30Z", 5000, 1000),
	}

	entries := c.Compile(logs)
	require.Len(t, entries, 1)
	assert.Equal(t, KindAction, entries[0].Kind)

	for _, e := range entries {
		assert.NotEqual(t, KindReasoning, e.Kind, "dropped reasoning must not appear")
	}
}

func TestCompileReasoningGapMeasuredFromLastEmission(t *testing.T) {
	c := NewCompiler(nil)

	// The idle-gap check measures from the last emitted entry, not from the
	// previous reasoning block, so a thinking chain can outlive the window
	// with no pause between its own blocks.
	logs := []model.ConversationLog{
		assistantRecord("2025-01-15T10:00:00Z", model.Usage{},
			toolUse("toolu_01", model.ToolBash, model.ToolInput{"command": "ls"})),
		thinkingRecord("2025-01-15T10:00:30Z", 100, 10),
		thinkingRecord("2025-01-15T10:00:50Z", 100, 10),
		thinkingRecord("2025-01-15T10:01:40Z", 100, 10),
	}

	entries := c.Compile(logs)
	require.Len(t, entries, 2)
	assert.Equal(t, KindReasoning, entries[1].Kind)
	assert.Contains(t, entries[1].Text, "thinking x2",
		"the block past the window since the last action is dropped")
}

func TestCompilePendingUserMessageInserted(t *testing.T) {
	c := NewCompiler(nil)

	logs := []model.ConversationLog{
		userTextRecord("2025-01-15T10:00:00Z", "please   fix\nthe bug"),
		assistantRecord("2025-01-15T10:00:05Z", model.Usage{},
			toolUse("toolu_01", model.ToolBash, model.ToolInput{"command": "go test"})),
	}

	entries := c.Compile(logs)
	require.Len(t, entries, 2)

	assert.Equal(t, KindUserMessage, entries[0].Kind)
	assert.Equal(t, 0, entries[0].Seq)
	assert.Equal(t, "please fix the bug", entries[0].Text, "whitespace collapses to single spaces")

	assert.Equal(t, KindAction, entries[1].Kind)
	assert.Equal(t, 1, entries[1].Seq)
}

func TestCompileUserMessageTruncated(t *testing.T) {
	c := NewCompiler(nil)
	long := strings.Repeat("word ", 50)

	logs := []model.ConversationLog{
		userTextRecord("2025-01-15T10:00:00Z", long),
		assistantRecord("2025-01-15T10:00:05Z", model.Usage{},
			toolUse("toolu_01", model.ToolBash, model.ToolInput{"command": "ls"})),
	}

	entries := c.Compile(logs)
	require.Len(t, entries, 2)
	assert.LessOrEqual(t, len(entries[0].Text), 100)
	assert.True(t, strings.HasSuffix(entries[0].Text, "..."))
}

func TestCompileMultiInvocationDefersUsage(t *testing.T) {
	c := NewCompiler(nil)

	logs := []model.ConversationLog{
		assistantRecord("2025-01-15T10:00:00Z", model.Usage{InputTokens: 2000, OutputTokens: 400},
			toolUse("toolu_01", model.ToolBash, model.ToolInput{"command": "make build"}),
			toolUse("toolu_02", model.ToolBash, model.ToolInput{"command": "make test"})),
	}

	entries := c.Compile(logs)
	require.Len(t, entries, 3)

	first, second, marker := entries[0], entries[1], entries[2]

	assert.Equal(t, KindAction, first.Kind)
	assert.Equal(t, 1, first.Seq)
	assert.NotContains(t, first.Text, "in:", "usage defers to the aggregate marker")

	assert.Equal(t, KindAction, second.Kind)
	assert.Equal(t, 2, second.Seq)
	assert.NotContains(t, second.Text, "in:")

	assert.Equal(t, KindMessageEnd, marker.Kind)
	assert.Equal(t, 0, marker.Seq, "aggregate markers never consume a sequence number")
	assert.Contains(t, marker.Text, "message end")
	assert.Contains(t, marker.Text, "in:2.0K")
	assert.Contains(t, marker.Text, "out:400")
}

func TestCompileSequenceOnlyOnActions(t *testing.T) {
	c := NewCompiler(nil)

	logs := []model.ConversationLog{
		userTextRecord("2025-01-15T10:00:00Z", "go"),
		assistantRecord("2025-01-15T10:00:05Z", model.Usage{},
			toolUse("toolu_01", model.ToolBash, model.ToolInput{"command": "ls"})),
		thinkingRecord("2025-01-15T10:00:10Z", 100, 20),
		assistantRecord("2025-01-15T10:00:15Z", model.Usage{},
			toolUse("toolu_02", model.ToolBash, model.ToolInput{"command": "pwd"})),
	}

	entries := c.Compile(logs)

	var seqs []int
	for _, e := range entries {
		if e.Kind == KindAction {
			seqs = append(seqs, e.Seq)
		} else {
			assert.Zero(t, e.Seq)
		}
	}
	assert.Equal(t, []int{1, 2}, seqs, "action sequence is contiguous from 1")
}

func TestCompileDurationAnnotation(t *testing.T) {
	c := NewCompiler(nil)

	logs := []model.ConversationLog{
		assistantRecord("2025-01-15T10:00:00Z", model.Usage{},
			toolUse("toolu_01", model.ToolBash, model.ToolInput{"command": "ls"})),
		assistantRecord("2025-01-15T10:01:30Z", model.Usage{},
			toolUse("toolu_02", model.ToolBash, model.ToolInput{"command": "pwd"})),
	}

	entries := c.Compile(logs)
	require.Len(t, entries, 2)
	assert.Contains(t, entries[1].Text, "(1m30s)")
}

func TestCompileDurationOmittedWhenUnreliable(t *testing.T) {
	c := NewCompiler(nil)

	tests := []struct {
		name   string
		second string
	}{
		{"gap over one hour", "2025-01-15T11:30:00Z"},
		{"sub-second gap", "2025-01-15T10:00:00.500Z"},
		{"negative gap", "2025-01-15T09:59:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := []model.ConversationLog{
				assistantRecord("2025-01-15T10:00:00Z", model.Usage{},
					toolUse("toolu_01", model.ToolBash, model.ToolInput{"command": "ls"})),
				assistantRecord(tt.second, model.Usage{},
					toolUse("toolu_02", model.ToolBash, model.ToolInput{"command": "pwd"})),
			}

			entries := c.Compile(logs)
			require.Len(t, entries, 2)
			assert.NotContains(t, entries[1].Text, "(", "no duration metadata expected")
		})
	}
}

func TestCompileMissingResultHandled(t *testing.T) {
	c := NewCompiler(nil)

	// No tool_result ever arrives for this invocation.
	logs := []model.ConversationLog{
		assistantRecord("2025-01-15T10:00:00Z", model.Usage{},
			toolUse("toolu_01", model.ToolBash, model.ToolInput{"command": "sleep 100"})),
	}

	entries := c.Compile(logs)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Text, "sleep 100")
	assert.Contains(t, entries[0].Text, "out:0B")
}

func TestCompileUnparseableTimestampDegrades(t *testing.T) {
	c := NewCompiler(nil)

	logs := []model.ConversationLog{
		assistantRecord("garbage", model.Usage{},
			toolUse("toolu_01", model.ToolBash, model.ToolInput{"command": "ls"})),
		assistantRecord("2025-01-15T10:00:00Z", model.Usage{},
			toolUse("toolu_02", model.ToolBash, model.ToolInput{"command": "pwd"})),
	}

	entries := c.Compile(logs)
	require.Len(t, entries, 2, "bad timestamps degrade to missing metadata, never a fault")
}
