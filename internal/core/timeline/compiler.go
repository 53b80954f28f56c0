package timeline

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sessionlog/claude-timeline/internal/core/model"
	"github.com/sessionlog/claude-timeline/internal/core/pricing"
	"github.com/sessionlog/claude-timeline/internal/util"
)

const (
	// readSizeThreshold hides small reads: a read whose content is below
	// this many bytes neither starts nor breaks a file-operation run.
	readSizeThreshold = 3000

	// reasoningIdleGap drops reasoning blocks that follow a long pause.
	// Past this gap the wall time belongs to the user, not the agent.
	reasoningIdleGap = 60 * time.Second

	// maxActionGap caps duration annotations; longer gaps are unreliable.
	maxActionGap = time.Hour

	userMessageLimit = 100
)

// Compiler turns one conversation's ordered records into a rendered timeline.
// A Compiler is stateless across conversations and safe for concurrent use;
// all per-pass state lives in a compileState value.
type Compiler struct {
	pricing *pricing.Table
}

func NewCompiler(table *pricing.Table) *Compiler {
	if table == nil {
		table = pricing.NewDefaultTable()
	}
	return &Compiler{pricing: table}
}

// compileState is the fold state of one pass: the accumulated entries, the
// sequence counter, the end timestamp of the last emission, the remembered
// user message and the single pending aggregation slot.
type compileState struct {
	entries     []TimelineEntry
	seq         int
	lastEnd     time.Time
	hasLast     bool
	pendingUser string
	pending     *pendingAction
}

// Compile runs the single forward pass. The result index is fully built
// before the first record is examined. A nil return means no entry was
// produced, distinct from entries with empty text.
func (c *Compiler) Compile(logs []model.ConversationLog) []TimelineEntry {
	index := BuildResultIndex(logs)
	st := &compileState{}

	for i := range logs {
		log := &logs[i]
		switch log.Message.Role {
		case model.RoleUser:
			c.handleUser(st, log)
		case model.RoleAssistant:
			c.handleAssistant(st, log, index)
		}
	}

	c.flush(st)
	return st.entries
}

// handleUser remembers the record's text as the pending user message. Nothing
// is emitted until an action line needs the context.
func (c *Compiler) handleUser(st *compileState, log *model.ConversationLog) {
	for i := range log.Message.Content {
		block := &log.Message.Content[i]
		if block.Type == model.BlockText && strings.TrimSpace(block.Text) != "" {
			st.pendingUser = util.TruncateText(
				util.CollapseWhitespace(block.Text), userMessageLimit)
			return
		}
	}
}

func (c *Compiler) handleAssistant(st *compileState, log *model.ConversationLog, index ResultIndex) {
	content := log.Message.Content
	if len(content) == 0 {
		return
	}

	hasToolUse := false
	for i := range content {
		if content[i].Type == model.BlockToolUse {
			hasToolUse = true
			break
		}
	}

	if hasToolUse {
		c.handleToolRecord(st, log, index)
		return
	}
	if content[0].Type == model.BlockThinking {
		c.handleReasoning(st, log)
	}
}

// handleReasoning folds a reasoning-only record into the current reasoning
// run, or drops it outright when it trails a long idle gap.
func (c *Compiler) handleReasoning(st *compileState, log *model.ConversationLog) {
	ts, tsOK := util.ParseTimestamp(log.Timestamp)

	if tsOK && st.hasLast && ts.Sub(st.lastEnd) > reasoningIdleGap {
		return
	}

	usage := log.Message.Usage
	cost := c.pricing.Estimate(usage.InputTokens, usage.OutputTokens, log.Message.Model)

	if st.pending != nil && st.pending.isReasoning() {
		p := st.pending
		p.count++
		p.inputTokens += usage.InputTokens
		p.outputTokens += usage.OutputTokens
		p.cost += cost
		if tsOK && ts.After(p.end) {
			p.end = ts
		}
		return
	}

	c.flush(st)
	p := newReasoningRun(ts, st.lastEnd, st.hasLast)
	p.inputTokens = usage.InputTokens
	p.outputTokens = usage.OutputTokens
	p.cost = cost
	st.pending = p
}

// handleToolRecord walks the record's tool_use blocks in order, routing each
// to the run aggregator or an immediate action line.
func (c *Compiler) handleToolRecord(st *compileState, log *model.ConversationLog, index ResultIndex) {
	ts, tsOK := util.ParseTimestamp(log.Timestamp)
	usage := log.Message.Usage
	recordCost := c.pricing.Estimate(usage.InputTokens, usage.OutputTokens, log.Message.Model)

	toolCount := 0
	for i := range log.Message.Content {
		if log.Message.Content[i].Type == model.BlockToolUse {
			toolCount++
		}
	}
	multi := toolCount > 1

	acted := false
	for i := range log.Message.Content {
		block := &log.Message.Content[i]
		if block.Type != model.BlockToolUse {
			continue
		}
		if model.IsLowSignalTool(block.Name) {
			continue
		}

		switch block.Name {
		case model.ToolRead, model.ToolWrite, model.ToolEdit:
			if c.handleFileOp(st, block, index, ts, multi, recordCost) {
				acted = true
			}
		default:
			c.emitAction(st, block, index, ts, tsOK, multi, usage, recordCost)
			acted = true
		}
	}

	if multi && acted {
		c.flush(st)
		c.emitMessageEnd(st, ts, tsOK, usage, recordCost)
	}
}

// handleFileOp folds a read/write/edit into the pending run of the same kind,
// starting a fresh run otherwise. Sub-threshold reads are invisible: they
// neither start nor break a run. Returns whether the invocation was visible.
func (c *Compiler) handleFileOp(st *compileState, block *model.ContentItem,
	index ResultIndex, ts time.Time, multi bool, recordCost float64) bool {

	filename, bytes, span := fileOpStats(block, index)

	if block.Name == model.ToolRead && bytes < readSizeThreshold {
		return false
	}

	c.insertPendingUser(st, ts)

	if st.pending != nil && st.pending.kind == block.Name {
		st.pending.addFile(filename, span, bytes, ts)
		if !multi {
			st.pending.cost += recordCost
		}
		return true
	}

	c.flush(st)
	p := newFileRun(block.Name, ts, st.lastEnd, st.hasLast)
	p.addFile(filename, span, bytes, ts)
	if !multi {
		p.cost = recordCost
	}
	st.pending = p
	return true
}

// emitAction flushes any pending run and renders one action line right away.
// Usage and cost inline only for single-invocation records; multi-invocation
// records defer them to the trailing message-end marker.
func (c *Compiler) emitAction(st *compileState, block *model.ContentItem,
	index ResultIndex, ts time.Time, tsOK bool, multi bool,
	usage model.Usage, recordCost float64) {

	c.insertPendingUser(st, ts)
	c.flush(st)

	body := renderTool(block, index[block.Id])

	if tsOK && st.hasLast {
		if suffix, ok := durationSuffix(ts.Sub(st.lastEnd)); ok {
			body += suffix
		}
	}
	if !multi && !usage.IsZero() {
		body += fmt.Sprintf(" [in:%s out:%s, %s]",
			util.FormatTokens(usage.InputTokens),
			util.FormatTokens(usage.OutputTokens),
			util.FormatCost(recordCost))
	}

	st.seq++
	st.entries = append(st.entries, TimelineEntry{
		Kind: KindAction,
		Seq:  st.seq,
		Text: body,
		Time: ts,
	})
	if tsOK {
		st.lastEnd = ts
		st.hasLast = true
	}
}

// emitMessageEnd closes a multi-invocation record with the un-numbered
// aggregate marker carrying the record's total usage and cost.
func (c *Compiler) emitMessageEnd(st *compileState, ts time.Time, tsOK bool,
	usage model.Usage, recordCost float64) {

	text := fmt.Sprintf("-- message end [in:%s out:%s, %s]",
		util.FormatTokens(usage.InputTokens),
		util.FormatTokens(usage.OutputTokens),
		util.FormatCost(recordCost))

	if tsOK && st.hasLast {
		if suffix, ok := durationSuffix(ts.Sub(st.lastEnd)); ok {
			text += suffix
		}
	}

	st.entries = append(st.entries, TimelineEntry{
		Kind: KindMessageEnd,
		Text: text,
		Time: ts,
	})
	if tsOK {
		st.lastEnd = ts
		st.hasLast = true
	}
}

// insertPendingUser emits the remembered user message as its own entry before
// the record's first visible action.
func (c *Compiler) insertPendingUser(st *compileState, ts time.Time) {
	if st.pendingUser == "" {
		return
	}
	st.entries = append(st.entries, TimelineEntry{
		Kind: KindUserMessage,
		Text: st.pendingUser,
		Time: ts,
	})
	st.pendingUser = ""
}

// flush drains the pending aggregation slot into its rendered entry. A
// file-operation run becomes a numbered action line; a reasoning run becomes
// an un-numbered marker.
func (c *Compiler) flush(st *compileState) {
	p := st.pending
	if p == nil {
		return
	}
	st.pending = nil

	if p.isReasoning() {
		st.entries = append(st.entries, TimelineEntry{
			Kind: KindReasoning,
			Text: p.renderReasoning(),
			Time: p.end,
		})
	} else {
		body := p.renderFileRun()
		if p.hasPrevEnd && !p.end.IsZero() {
			if suffix, ok := durationSuffix(p.end.Sub(p.prevEnd)); ok {
				body += suffix
			}
		}
		st.seq++
		st.entries = append(st.entries, TimelineEntry{
			Kind: KindAction,
			Seq:  st.seq,
			Text: body,
			Time: p.end,
		})
	}

	if !p.end.IsZero() {
		st.lastEnd = p.end
		st.hasLast = true
	}
}

// durationSuffix renders elapsed time since the previous emission. Negative
// gaps, gaps over an hour and sub-second gaps yield no metadata.
func durationSuffix(d time.Duration) (string, bool) {
	if d < time.Second || d > maxActionGap {
		return "", false
	}
	return fmt.Sprintf(" (%s)", util.FormatDurationCompact(d)), true
}

// fileOpStats derives display statistics for a read/write/edit invocation.
// The edit span covers only the replacement text counted from line 1, not the
// true location in the edited file.
func fileOpStats(block *model.ContentItem, index ResultIndex) (string, int, LineRange) {
	filename := filepath.Base(block.Input.Str("file_path"))
	if filename == "." || filename == "/" || filename == "" {
		filename = "(unknown)"
	}

	switch block.Name {
	case model.ToolWrite:
		content := block.Input.Str("content")
		return filename, len(content), spanFrom(1, countLines(content))
	case model.ToolEdit:
		replacement := block.Input.Str("new_string")
		return filename, len(replacement), spanFrom(1, countLines(replacement))
	default: // Read
		text := ResultText(index[block.Id])
		lines := countLines(text)
		if limit := block.Input.Int("limit"); limit > 0 && lines > limit {
			lines = limit
		}
		start := block.Input.Int("offset")
		if start <= 0 {
			start = 1
		}
		return filename, len(text), spanFrom(start, lines)
	}
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}

func spanFrom(start, lines int) LineRange {
	end := start
	if lines > 1 {
		end = start + lines - 1
	}
	return LineRange{Start: start, End: end}
}
