package format

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
)

// Elapsed formats the span between two RFC3339 timestamps as "Xm Ys" or
// "Ys". It returns "-" when either end is missing or unparsable.
func Elapsed(start, end string) string {
	s, err1 := time.Parse(time.RFC3339, start)
	e, err2 := time.Parse(time.RFC3339, end)
	if err1 != nil || err2 != nil || e.Before(s) {
		return "-"
	}
	return FmtDuration(e.Sub(s))
}

// FmtDuration formats a duration as "Xh Ym", "Xm Ys" or "Ys".
func FmtDuration(d time.Duration) string {
	s := int(d.Seconds())
	switch {
	case s >= 3600:
		return fmt.Sprintf("%dh %dm", s/3600, (s%3600)/60)
	case s >= 60:
		return fmt.Sprintf("%dm %ds", s/60, s%60)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// FileSize reports the size of a file, "dir" for directories and "-" when
// the path does not exist.
func FileSize(path string) string {
	info, err := os.Stat(path)
	switch {
	case err != nil:
		return "-"
	case info.IsDir():
		return "dir"
	default:
		return humanize.Bytes(uint64(info.Size()))
	}
}

// Truncate shortens s to maxLen runes, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
