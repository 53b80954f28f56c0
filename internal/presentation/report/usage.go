package report

import (
	"time"

	"github.com/sessionlog/claude-timeline/internal/core/model"
	"github.com/sessionlog/claude-timeline/internal/core/pricing"
	"github.com/sessionlog/claude-timeline/internal/util"
)

// UsageSummary aggregates one conversation's model usage across all of its
// assistant records.
type UsageSummary struct {
	InputTokens   int
	OutputTokens  int
	CacheCreation int
	CacheRead     int
	Cost          float64
	Duration      time.Duration
	Messages      int
}

// SummarizeUsage folds raw records into a conversation-level summary.
// Streamed assistant records repeat a message id with identical usage, so
// each message id counts once. Wall duration spans the first to the last
// parseable timestamp.
func SummarizeUsage(logs []model.ConversationLog, table *pricing.Table) UsageSummary {
	var summary UsageSummary
	seen := make(map[string]struct{})

	var first, last time.Time
	haveTime := false

	for i := range logs {
		log := &logs[i]

		if t, ok := util.ParseTimestamp(log.Timestamp); ok {
			if !haveTime || t.Before(first) {
				first = t
			}
			if !haveTime || t.After(last) {
				last = t
			}
			haveTime = true
		}

		if log.Message.Role != model.RoleAssistant {
			continue
		}
		usage := log.Message.Usage
		if usage.IsZero() {
			continue
		}
		if id := log.Message.Id; id != "" {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
		}

		summary.Messages++
		summary.InputTokens += usage.InputTokens
		summary.OutputTokens += usage.OutputTokens
		summary.CacheCreation += usage.CacheCreationInputTokens
		summary.CacheRead += usage.CacheReadInputTokens
		summary.Cost += table.Estimate(usage.InputTokens, usage.OutputTokens, log.Message.Model)
	}

	if haveTime {
		summary.Duration = last.Sub(first)
	}
	return summary
}
