package batch

import (
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/sessionlog/claude-timeline/internal/core/model"
	"github.com/sessionlog/claude-timeline/internal/core/timeline"
	"github.com/sessionlog/claude-timeline/internal/data/parser"
	"github.com/sessionlog/claude-timeline/internal/util"
)

const (
	// defaultGroupSize is how many files each I/O round reads and parses.
	// It is sized for I/O overlap, independent of CPU count.
	defaultGroupSize = 8

	// maxWorkers is the ceiling for the compile worker pool.
	maxWorkers = 10
)

// Config controls the orchestrator's two bounds. Zero values pick defaults.
type Config struct {
	Workers   int // compile pool size; default max(2, NumCPU-1), capped at maxWorkers
	GroupSize int // files per I/O group; default defaultGroupSize
}

// SessionResult is one compiled conversation. Logs carries the raw records so
// callers can compute conversation-level aggregates the compiler does not.
type SessionResult struct {
	Path      string
	SessionId string
	Entries   []timeline.TimelineEntry
	Logs      []model.ConversationLog
}

// UnitError tags a compile failure with the conversation it belongs to.
type UnitError struct {
	File string
	Err  error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("compile failed for %s: %v", e.File, e.Err)
}

func (e *UnitError) Unwrap() error { return e.Err }

// Orchestrator runs the timeline compiler over many independent session
// files: an outer loop parses files in fixed-size groups, an inner bounded
// worker pool compiles each parsed conversation in parallel. Each group joins
// completely before the next begins.
type Orchestrator struct {
	parser    *parser.Parser
	compiler  *timeline.Compiler
	workers   int
	groupSize int
}

func NewOrchestrator(compiler *timeline.Compiler, cfg Config) *Orchestrator {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU() - 1
		if workers < 2 {
			workers = 2
		}
		if workers > maxWorkers {
			workers = maxWorkers
		}
	}

	groupSize := cfg.GroupSize
	if groupSize <= 0 {
		groupSize = defaultGroupSize
	}

	return &Orchestrator{
		parser:    parser.NewParser(groupSize),
		compiler:  compiler,
		workers:   workers,
		groupSize: groupSize,
	}
}

// Run processes all files and collects one result per readable conversation,
// in no particular order. A file that fails to read contributes zero results
// and the batch continues. A compile failure aborts its enclosing group: the
// error is returned alongside the results completed so far. Callers wanting
// chronological output re-sort with SortByEarliest.
func (o *Orchestrator) Run(files []string) ([]SessionResult, error) {
	start := time.Now()
	var results []SessionResult

	for groupStart := 0; groupStart < len(files); groupStart += o.groupSize {
		groupEnd := groupStart + o.groupSize
		if groupEnd > len(files) {
			groupEnd = len(files)
		}
		group := files[groupStart:groupEnd]

		parsed := o.parseGroup(group)
		groupResults, err := o.compileGroup(parsed)
		results = append(results, groupResults...)
		if err != nil {
			return results, err
		}
	}

	util.LogDebugf("Compiled %d of %d sessions in %v", len(results), len(files), time.Since(start))
	return results, nil
}

// parseGroup reads one I/O group concurrently, dropping unreadable files.
func (o *Orchestrator) parseGroup(group []string) []parser.ParseResult {
	var parsed []parser.ParseResult
	for result := range o.parser.ParseFiles(group) {
		if result.Err != nil {
			util.LogWarnf("Skipping unreadable session file %s: %v", result.File, result.Err)
			continue
		}
		parsed = append(parsed, result)
	}
	return parsed
}

// compileGroup fans the group's conversations out to the worker pool and
// joins before returning. The first unit failure aborts the group.
func (o *Orchestrator) compileGroup(parsed []parser.ParseResult) ([]SessionResult, error) {
	type unit struct {
		result SessionResult
		err    error
	}

	jobs := make(chan parser.ParseResult, len(parsed))
	done := make(chan unit, len(parsed))

	var wg sync.WaitGroup
	for w := 0; w < o.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				entries, err := o.compileOne(job)
				done <- unit{
					result: SessionResult{
						Path:      job.File,
						SessionId: sessionIdOf(job),
						Entries:   entries,
						Logs:      job.Logs,
					},
					err: err,
				}
			}
		}()
	}

	for _, job := range parsed {
		jobs <- job
	}
	close(jobs)
	wg.Wait()
	close(done)

	var results []SessionResult
	var firstErr error
	for u := range done {
		if u.err != nil {
			if firstErr == nil {
				firstErr = u.err
			}
			continue
		}
		results = append(results, u.result)
	}
	return results, firstErr
}

// compileOne guards a single compile pass. The compiler has no error path of
// its own, so a failure surfaces as a recovered panic tagged with the file.
func (o *Orchestrator) compileOne(job parser.ParseResult) (entries []timeline.TimelineEntry, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &UnitError{File: job.File, Err: fmt.Errorf("%v", r)}
		}
	}()
	entries = o.compiler.Compile(job.Logs)
	return entries, nil
}

func sessionIdOf(job parser.ParseResult) string {
	for i := range job.Logs {
		if job.Logs[i].SessionId != "" {
			return job.Logs[i].SessionId
		}
	}
	return ""
}

// SortByEarliest orders results by each conversation's earliest parseable
// timestamp, ascending. Results with no parseable timestamp sort last. The
// sort is stable, so ties keep their collection order.
func SortByEarliest(results []SessionResult) {
	sort.SliceStable(results, func(i, j int) bool {
		ti, iOK := earliestTimestamp(results[i].Logs)
		tj, jOK := earliestTimestamp(results[j].Logs)
		if iOK != jOK {
			return iOK
		}
		return ti.Before(tj)
	})
}

func earliestTimestamp(logs []model.ConversationLog) (time.Time, bool) {
	var earliest time.Time
	found := false
	for i := range logs {
		t, ok := util.ParseTimestamp(logs[i].Timestamp)
		if !ok {
			continue
		}
		if !found || t.Before(earliest) {
			earliest = t
			found = true
		}
	}
	return earliest, found
}
