// Package timefmt holds the day-key and elapsed-time formatting shared by the
// timer, the stats ledger and the CLI.
package timefmt

import (
	"fmt"
	"math"
	"time"
)

// DayKeyLayout is the layout of ledger day keys.
const DayKeyLayout = "2006-01-02"

// DayKey returns the local calendar day of t as YYYY-MM-DD.
func DayKey(t time.Time) string {
	return t.In(time.Local).Format(DayKeyLayout)
}

// ParseDayKey parses a YYYY-MM-DD key as midnight local time.
func ParseDayKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation(DayKeyLayout, key, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day key %q: %w", key, err)
	}
	return t, nil
}

// StartOfDay returns local midnight of the day containing t.
func StartOfDay(t time.Time) time.Time {
	t = t.In(time.Local)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// FormatElapsed renders seconds as MM:SS, or H:MM:SS once an hour is reached.
// Fractional seconds are truncated.
func FormatElapsed(seconds float64) string {
	total := wholeSeconds(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// FormatHuman renders seconds for summary cards: "1h 05m", "12m" or "45s".
func FormatHuman(seconds float64) string {
	total := wholeSeconds(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%ds", total)
	}
}

func wholeSeconds(seconds float64) int64 {
	if seconds <= 0 || math.IsNaN(seconds) {
		return 0
	}
	if math.IsInf(seconds, 1) || seconds > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(seconds)
}
