package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WorkSession is one clocked interval of work on a calendar day. A nil
// EndTime means the session is active; at most one active session may exist
// across the whole store, and sessions on the same date never overlap.
type WorkSession struct {
	ID        string
	Date      time.Time
	StartTime time.Time
	EndTime   *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Active reports whether the session is still open.
func (s *WorkSession) Active() bool {
	return s.EndTime == nil
}

// DurationHours returns the completed duration in decimal hours.
// Active sessions contribute zero; their elapsed time only counts through
// ElapsedHours with an explicit reference instant.
func (s *WorkSession) DurationHours() decimal.Decimal {
	if s.EndTime == nil {
		return decimal.Zero
	}
	return HoursBetween(s.StartTime, *s.EndTime)
}

// ElapsedHours returns the hours between the session start and asOf, floored
// at zero. Only meaningful for active sessions.
func (s *WorkSession) ElapsedHours(asOf time.Time) decimal.Decimal {
	h := HoursBetween(s.StartTime, asOf)
	if h.IsNegative() {
		return decimal.Zero
	}
	return h
}

// Overlaps reports whether two sessions share any instant, using the
// half-open rule: [s1,e1) and [s2,e2) overlap iff s1 < e2 && e1 > s2, with a
// nil end treated as positive infinity.
func (s *WorkSession) Overlaps(other *WorkSession) bool {
	return IntervalsOverlap(s.StartTime, s.EndTime, other.StartTime, other.EndTime)
}

// IntervalsOverlap applies the half-open overlap rule to two raw intervals.
// A nil end extends the interval to positive infinity.
func IntervalsOverlap(s1 time.Time, e1 *time.Time, s2 time.Time, e2 *time.Time) bool {
	startsBeforeOtherEnds := e2 == nil || s1.Before(*e2)
	endsAfterOtherStarts := e1 == nil || e1.After(s2)
	return startsBeforeOtherEnds && endsAfterOtherStarts
}

// HoursBetween converts the span between two naive instants to decimal hours.
func HoursBetween(start, end time.Time) decimal.Decimal {
	seconds := end.Sub(start) / time.Second
	return decimal.New(int64(seconds), 0).Div(decimal.New(3600, 0))
}
