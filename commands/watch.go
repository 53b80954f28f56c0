package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sessionlog/claude-timeline/internal/util"
)

// debounceWindow coalesces the bursts of writes an active session produces
// into a single rebuild.
const debounceWindow = 2 * time.Second

// watchLoop rebuilds the report whenever a session file under dir changes.
// It returns when the context is cancelled or the watcher fails.
func watchLoop(ctx context.Context, dir string, p *pipeline) error {
	if ctx == nil {
		ctx = context.Background()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := addRecursive(watcher, dir); err != nil {
		return err
	}
	util.LogInfof("Watching %s for session changes", dir)

	var timer *time.Timer
	rebuild := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watcher.Add(event.Name)
					continue
				}
			}
			if !strings.HasSuffix(strings.ToLower(event.Name), ".jsonl") {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceWindow, func() {
				select {
				case rebuild <- struct{}{}:
				default:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			util.LogWarnf("Watcher error: %v", err)

		case <-rebuild:
			util.LogInfo("Session files changed, rebuilding report")
			if err := p.run(); err != nil {
				util.LogErrorf("Rebuild failed: %v", err)
			}
		}
	}
}

// addRecursive watches dir and every subdirectory; fsnotify itself is not
// recursive.
func addRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := watcher.Add(path); err != nil {
				util.LogDebugf("Cannot watch %s: %v", path, err)
			}
		}
		return nil
	})
}
