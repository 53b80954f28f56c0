package scanner

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sessionlog/claude-timeline/internal/util"
)

// FileScanner discovers session log files under a base directory.
type FileScanner struct {
	baseDir string
}

// NewFileScanner creates a new FileScanner instance.
func NewFileScanner(baseDir string) *FileScanner {
	return &FileScanner{baseDir: baseDir}
}

// Scan walks the directory tree and returns every .jsonl file path, sorted
// for a deterministic batch order. Entries that cannot be read are skipped.
func (s *FileScanner) Scan() ([]string, error) {
	start := time.Now()
	var files []string

	err := filepath.WalkDir(s.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			util.LogDebug(fmt.Sprintf("Skip entry (error): %s - %v", path, err))
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(strings.ToLower(path), ".jsonl") {
			files = append(files, path)
		}
		return nil
	})

	sort.Strings(files)
	util.LogDebug(fmt.Sprintf("Scan of %s found %d session files in %v",
		s.baseDir, len(files), time.Since(start)))

	return files, err
}
