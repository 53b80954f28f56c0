package timeline

import (
	"fmt"
	"time"
)

// EntryKind distinguishes the rendered output units of one compiled timeline.
type EntryKind int

const (
	// KindAction is a sequence-numbered tool action line.
	KindAction EntryKind = iota
	// KindMessageEnd is the un-numbered aggregate marker closing a
	// multi-invocation assistant message.
	KindMessageEnd
	// KindReasoning is the un-numbered summary of a reasoning run.
	KindReasoning
	// KindUserMessage is an inserted user message line.
	KindUserMessage
)

// TimelineEntry is one rendered line of a conversation timeline. Seq is
// assigned only to action lines, monotonically from 1; it is zero for
// markers and user messages.
type TimelineEntry struct {
	Kind EntryKind
	Seq  int
	Text string
	Time time.Time
}

// Line renders the entry the way it appears in the plain-text timeline.
func (e TimelineEntry) Line() string {
	switch e.Kind {
	case KindAction:
		return fmt.Sprintf("%3d. %s", e.Seq, e.Text)
	case KindUserMessage:
		return fmt.Sprintf("     > %s", e.Text)
	default:
		return fmt.Sprintf("     %s", e.Text)
	}
}

// LineRange is an inclusive line span within one file.
type LineRange struct {
	Start int
	End   int
}

func (r LineRange) String() string {
	if r.Start == r.End {
		return fmt.Sprintf("L%d", r.Start)
	}
	return fmt.Sprintf("L%d-%d", r.Start, r.End)
}
