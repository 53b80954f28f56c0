package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	expanded := expandPath("~/.claude/projects")
	assert.Equal(t, filepath.Join(home, ".claude", "projects"), expanded)
}

func TestExpandPathAbsolute(t *testing.T) {
	assert.Equal(t, "/var/log/sessions", expandPath("/var/log/sessions"))
}

func TestExpandPathRelative(t *testing.T) {
	expanded := expandPath("sessions")
	assert.True(t, filepath.IsAbs(expanded))
	assert.True(t, strings.HasSuffix(expanded, "sessions"))
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")
	require.NoError(t, ensureDir(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Idempotent for an existing directory.
	assert.NoError(t, ensureDir(dir))
}

func TestRootCommandFlags(t *testing.T) {
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("dir"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("debug"))
	for _, name := range []string{"report", "pricing-file", "workers", "group-size", "agent", "agent-binary", "watch"} {
		assert.NotNil(t, rootCmd.Flags().Lookup(name), "missing flag %s", name)
	}
	assert.Equal(t, "o", rootCmd.Flags().Lookup("report").Shorthand)
}
