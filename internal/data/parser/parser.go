package parser

import (
	"bufio"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/sessionlog/claude-timeline/internal/core/model"
	"github.com/sessionlog/claude-timeline/internal/util"
)

// Parser reads session log files in newline-delimited JSON form.
type Parser struct {
	concurrency int
}

// ParseResult represents the result of parsing a single file.
type ParseResult struct {
	File string
	Logs []model.ConversationLog
	Err  error
}

// NewParser creates a Parser whose ParseFiles fans out across at most
// concurrency readers.
func NewParser(concurrency int) *Parser {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Parser{concurrency: concurrency}
}

// ParseFile parses one session log. A line that fails to decode is skipped on
// its own; it never invalidates the rest of the file.
func (p *Parser) ParseFile(filepath string) ([]model.ConversationLog, error) {
	util.LogDebug(fmt.Sprintf("Start parsing file: %s", filepath))

	file, err := os.Open(filepath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var logs []model.ConversationLog
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	lineCount := 0
	for scanner.Scan() {
		lineCount++
		var log model.ConversationLog
		if err := sonic.Unmarshal(scanner.Bytes(), &log); err != nil {
			util.LogDebug(fmt.Sprintf("Skip invalid JSON line %s:%d - %v", filepath, lineCount, err))
			continue
		}
		logs = append(logs, log)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return logs, nil
}

// ParseFiles parses a set of files concurrently and returns a channel of
// ParseResult, closed when every file has been handled. Result order follows
// completion, not input.
func (p *Parser) ParseFiles(files []string) <-chan ParseResult {
	start := time.Now()
	results := make(chan ParseResult, len(files))
	var wg sync.WaitGroup

	semaphore := make(chan struct{}, p.concurrency)

	for _, file := range files {
		wg.Add(1)
		go func(f string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			logs, err := p.ParseFile(f)
			results <- ParseResult{File: f, Logs: logs, Err: err}
		}(file)
	}

	go func() {
		wg.Wait()
		close(results)
		util.LogDebug(fmt.Sprintf("Parsed %d files in %v", len(files), time.Since(start)))
	}()

	return results
}
