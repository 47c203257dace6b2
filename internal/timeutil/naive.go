// Package timeutil handles the naive local timeline the whole system runs on.
//
// Every user-facing timestamp is stored and compared as naive local time with
// no zone attached. Inputs may carry a trailing 'Z'; it is stripped, never
// interpreted as a UTC offset, because clients send already-local values.
package timeutil

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout is the storage layout for calendar dates.
	DateLayout = "2006-01-02"
	// NaiveLayout is the storage layout for naive timestamps.
	NaiveLayout = "2006-01-02T15:04:05"
)

// naiveLayouts are the accepted input layouts, most specific first.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseNaive parses an ISO 8601 timestamp into a naive time.Time (UTC
// location, but the location carries no meaning). A single trailing 'Z' is
// stripped; numeric offsets are rejected.
func ParseNaive(s string) (time.Time, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimSuffix(cleaned, "Z")
	timePart := cleaned
	if i := strings.IndexAny(cleaned, "T "); i >= 0 {
		timePart = cleaned[i+1:]
	}
	if strings.ContainsAny(timePart, "+-") {
		return time.Time{}, fmt.Errorf("timestamp %q carries a UTC offset; send naive local time", s)
	}
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q (want YYYY-MM-DDTHH:MM[:SS])", s)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}

// FormatNaive renders a naive timestamp in the storage layout.
func FormatNaive(t time.Time) string {
	return t.Format(NaiveLayout)
}

// FormatDate renders a calendar date in the storage layout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// NowNaive returns the current wall-clock time re-homed onto the naive
// timeline: the local clock reading with the zone dropped.
func NowNaive() time.Time {
	return EnsureNaive(time.Now())
}

// EnsureNaive strips the location from a time.Time, keeping the wall-clock
// fields. A value already on the naive timeline passes through unchanged.
// Mixing zoned and naive values in one comparison is never safe; normalize
// both sides with this first.
func EnsureNaive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// DateOf truncates a naive timestamp to its calendar date.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
