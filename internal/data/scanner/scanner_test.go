package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))
}

func TestScanFindsSessionFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "proj-a", "one.jsonl"))
	touch(t, filepath.Join(dir, "proj-a", "two.jsonl"))
	touch(t, filepath.Join(dir, "proj-b", "nested", "three.jsonl"))
	touch(t, filepath.Join(dir, "proj-b", "notes.txt"))
	touch(t, filepath.Join(dir, "UPPER.JSONL"))

	s := NewFileScanner(dir)
	files, err := s.Scan()
	require.NoError(t, err)

	require.Len(t, files, 4, "only .jsonl files, any case, any depth")
	assert.Contains(t, files, filepath.Join(dir, "UPPER.JSONL"))
	for _, f := range files {
		assert.NotContains(t, f, "notes.txt")
	}
}

func TestScanDeterministicOrder(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.jsonl"))
	touch(t, filepath.Join(dir, "a.jsonl"))
	touch(t, filepath.Join(dir, "c.jsonl"))

	s := NewFileScanner(dir)
	first, err := s.Scan()
	require.NoError(t, err)
	second, err := s.Scan()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.jsonl"),
		filepath.Join(dir, "b.jsonl"),
		filepath.Join(dir, "c.jsonl"),
	}, first)
}

func TestScanEmptyDir(t *testing.T) {
	s := NewFileScanner(t.TempDir())
	files, err := s.Scan()
	require.NoError(t, err)
	assert.Empty(t, files)
}
