package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	ts, ok := ParseTimestamp("2025-01-15T10:30:00Z")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC), ts.UTC())
}

func TestParseTimestampSubSecond(t *testing.T) {
	ts, ok := ParseTimestamp("2025-01-15T10:30:00.123Z")
	require.True(t, ok)
	assert.Equal(t, 123000000, ts.Nanosecond())
}

func TestParseTimestampInvalid(t *testing.T) {
	for _, input := range []string{"", "not a timestamp", "2025-13-45T99:00:00Z"} {
		_, ok := ParseTimestamp(input)
		assert.False(t, ok, "input %q must not parse", input)
	}
}
