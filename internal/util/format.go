package util

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

// FormatBytes renders a byte count as a compact size label.
func FormatBytes(n int) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%dB", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1fKB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1fMB", float64(n)/(1024*1024))
	}
}

// FormatTokens renders a token count with K/M suffixes.
func FormatTokens(n int) string {
	switch {
	case n < 1000:
		return fmt.Sprintf("%d", n)
	case n < 1000000:
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	default:
		return fmt.Sprintf("%.1fM", float64(n)/1000000)
	}
}

// FormatCost renders an estimated dollar cost. Small amounts keep four
// decimals so per-action costs do not round to zero.
func FormatCost(amount float64) string {
	if amount < 0.01 {
		return fmt.Sprintf("$%.4f", amount)
	}
	return fmt.Sprintf("$%.2f", amount)
}

// FormatDurationCompact renders a duration as "XmYs" or "Ys".
func FormatDurationCompact(d time.Duration) string {
	total := int(d.Seconds())
	minutes := total / 60
	seconds := total % 60

	if minutes > 0 {
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}

// CollapseWhitespace folds runs of whitespace, newlines included, into single
// spaces and trims the ends.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TruncateText shortens a string to at most max display cells, appending an
// ellipsis marker when truncation happens. Width is measured per rune so
// wide characters do not overflow aligned output.
func TruncateText(s string, max int) string {
	if runewidth.StringWidth(s) <= max {
		return s
	}
	return runewidth.Truncate(s, max, "...")
}
