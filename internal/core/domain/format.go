package domain

import (
	"fmt"
	"math"
	"time"
)

const timestampLayout = "Jan 02, 2006 15:04:05"

// FormatDuration renders a duration in seconds for display:
// nil → "-", sub-millisecond → "<1ms", sub-second → whole milliseconds,
// sub-minute → two-decimal seconds, otherwise minutes + one-decimal seconds.
func FormatDuration(seconds *float64) string {
	if seconds == nil {
		return "-"
	}
	s := *seconds
	switch {
	case s < 0.001:
		return "<1ms"
	case s < 1:
		// Values just under a second can round up to 1000ms; promote those
		// to the seconds branch instead of showing four digits.
		if ms := int(math.Round(s * 1000)); ms < 1000 {
			return fmt.Sprintf("%dms", ms)
		}
		return fmt.Sprintf("%.2fs", s)
	case s < 60:
		return fmt.Sprintf("%.2fs", s)
	default:
		m := int(s / 60)
		return fmt.Sprintf("%dm %.1fs", m, s-float64(m)*60)
	}
}

// FormatTimestamp renders an ISO timestamp as a readable date+time string.
// Malformed input is returned unchanged, never an error.
func FormatTimestamp(iso string) string {
	t, err := time.Parse(time.RFC3339Nano, iso)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, iso); err != nil {
			return iso
		}
	}
	return t.Local().Format(timestampLayout)
}
