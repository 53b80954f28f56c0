package timeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/sessionlog/claude-timeline/internal/util"
)

// reasoningKind is the distinguished classification for reasoning runs; it
// can never collide with a tool kind name.
const reasoningKind = "\x00reasoning"

// pendingAction is the single-slot aggregation buffer threaded through one
// compiler pass. Its classification is fixed at creation: a differing action
// flushes the buffer and starts a new one, never reclassifies in place.
type pendingAction struct {
	kind  string
	start time.Time
	end   time.Time
	cost  float64

	// prevEnd captures the previous emission's end timestamp at creation
	// time, so the flushed line's duration spans back to it.
	prevEnd    time.Time
	hasPrevEnd bool

	// File-operation runs: per-file ordered ranges plus a byte total.
	files     map[string][]LineRange
	fileOrder []string
	bytes     int

	// Reasoning runs.
	count        int
	inputTokens  int
	outputTokens int
}

func newFileRun(kind string, at time.Time, prevEnd time.Time, hasPrev bool) *pendingAction {
	return &pendingAction{
		kind:       kind,
		start:      at,
		end:        at,
		prevEnd:    prevEnd,
		hasPrevEnd: hasPrev,
		files:      make(map[string][]LineRange),
	}
}

func newReasoningRun(at time.Time, prevEnd time.Time, hasPrev bool) *pendingAction {
	return &pendingAction{
		kind:       reasoningKind,
		start:      at,
		end:        at,
		prevEnd:    prevEnd,
		hasPrevEnd: hasPrev,
		count:      1,
	}
}

func (p *pendingAction) isReasoning() bool {
	return p.kind == reasoningKind
}

// addFile appends a range under a filename, creating the filename slot on
// first sight. Ranges accumulate in action order and are not coalesced, so a
// run of three reads of the same file lists three ranges.
func (p *pendingAction) addFile(filename string, r LineRange, bytes int, at time.Time) {
	if _, seen := p.files[filename]; !seen {
		p.fileOrder = append(p.fileOrder, filename)
	}
	p.files[filename] = append(p.files[filename], r)
	p.bytes += bytes
	if at.After(p.end) {
		p.end = at
	}
}

// renderFileRun produces the body of the flushed numbered action line.
func (p *pendingAction) renderFileRun() string {
	var parts []string
	for _, filename := range p.fileOrder {
		ranges := make([]string, 0, len(p.files[filename]))
		for _, r := range p.files[filename] {
			ranges = append(ranges, r.String())
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", filename, strings.Join(ranges, ", ")))
	}

	return fmt.Sprintf("%s %s [%s, %s]",
		p.kind,
		strings.Join(parts, ", "),
		util.FormatBytes(p.bytes),
		util.FormatCost(p.cost))
}

// renderReasoning produces the body of the flushed un-numbered reasoning
// marker. The repeat count shows only past the first block.
func (p *pendingAction) renderReasoning() string {
	label := "thinking"
	if p.count > 1 {
		label = fmt.Sprintf("thinking x%d", p.count)
	}
	return fmt.Sprintf("~ %s [in:%s out:%s, %s]",
		label,
		util.FormatTokens(p.inputTokens),
		util.FormatTokens(p.outputTokens),
		util.FormatCost(p.cost))
}
