package format

import (
	"fmt"
	"time"
)

// FormatInterval formats a poll interval compactly, e.g. "2s", "1m" or "500ms".
func FormatInterval(d time.Duration) string {
	switch {
	case d >= time.Minute:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d >= time.Second:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d > 0:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return "0s"
	}
}

// FormatAge formats the time since an update, e.g. "just now", "12s ago", "3m ago".
// Negative ages (clock skew) are treated as zero.
func FormatAge(d time.Duration) string {
	switch {
	case d < time.Second:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
}

// FormatClock formats a wall-clock time as HH:MM:SS; the zero time renders as "--:--:--".
func FormatClock(t time.Time) string {
	if t.IsZero() {
		return "--:--:--"
	}
	return t.Format("15:04:05")
}

// FormatTemperature formats degrees Celsius with one decimal place.
// Example: 55.26 → "55.3°C".
func FormatTemperature(c float64) string {
	return fmt.Sprintf("%.1f°C", c)
}

// FormatPercent formats a percentage with one decimal place.
// Example: 34.5 → "34.5%".
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 {
		return ""
	}
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
