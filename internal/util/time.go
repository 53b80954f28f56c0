package util

import (
	"time"
)

// ParseTimestamp parses a record timestamp. Session logs carry RFC3339 with
// varying sub-second precision. The boolean is false for anything
// unparseable; callers degrade to "no timing metadata" rather than failing.
func ParseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
