package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/bamsammich/ddupe/internal/stats"
)

// FormatBytes wraps stats.FormatBytes for UI use.
func FormatBytes(b int64) string {
	return stats.FormatBytes(b)
}

// FormatRate formats a bytes-per-second rate using the same binary units
// as FormatBytes.
func FormatRate(bytesPerSec float64) string {
	if bytesPerSec <= 0 {
		return "0 B/s"
	}
	return FormatBytes(int64(bytesPerSec)) + "/s"
}

// FormatDuration formats elapsed time concisely.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// FormatETA formats a remaining-time estimate; unknown is "--".
func FormatETA(d time.Duration) string {
	if d <= 0 {
		return "--"
	}
	return FormatDuration(max(d, time.Second))
}

// FormatCount formats an integer with comma separators.
func FormatCount(n int64) string {
	if n < 0 {
		return "-" + FormatCount(-n)
	}
	s := fmt.Sprint(n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(s[:lead])
	for i := lead; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// Plural returns "1 file" or "3 files".
func Plural(n int64, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return FormatCount(n) + " " + noun + "s"
}

// ProgressBar renders a bar of the given width using ▪/□ characters.
func ProgressBar(pct float64, width int) string {
	if width <= 0 {
		return ""
	}
	pct = min(max(pct, 0), 1)
	filled := min(int(pct*float64(width)), width)
	return styleProgressFilled.Render(strings.Repeat("▪", filled)) +
		styleProgressEmpty.Render(strings.Repeat("□", width-filled))
}

// TruncPath shortens a path to at most maxLen bytes, keeping the tail
// where the file name lives.
func TruncPath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	if maxLen <= 3 {
		return path[len(path)-maxLen:]
	}
	return "..." + path[len(path)-maxLen+3:]
}

// StyledPath dims the directory part of path so the file name stands out.
func StyledPath(path string) string {
	dir, base := filepath.Split(path)
	if dir == "" {
		return stylePath.Render(base)
	}
	return styleMuted.Render(dir) + stylePath.Render(base)
}
