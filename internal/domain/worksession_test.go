package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 1, 5, hour, minute, 0, 0, time.UTC)
}

func atPtr(hour, minute int) *time.Time {
	t := at(hour, minute)
	return &t
}

func TestIntervalsOverlap(t *testing.T) {
	tests := []struct {
		name string
		s1   time.Time
		e1   *time.Time
		s2   time.Time
		e2   *time.Time
		want bool
	}{
		{"disjoint", at(9, 0), atPtr(10, 0), at(11, 0), atPtr(12, 0), false},
		{"touching endpoints do not overlap", at(9, 0), atPtr(10, 0), at(10, 0), atPtr(11, 0), false},
		{"partial overlap", at(9, 0), atPtr(11, 0), at(10, 0), atPtr(12, 0), true},
		{"containment", at(9, 0), atPtr(17, 0), at(10, 0), atPtr(11, 0), true},
		{"identical", at(9, 0), atPtr(10, 0), at(9, 0), atPtr(10, 0), true},
		{"open interval reaches forward", at(9, 0), nil, at(15, 0), atPtr(16, 0), true},
		{"open interval starts after closed one ends", at(10, 0), nil, at(8, 0), atPtr(9, 0), false},
		{"two open intervals always overlap", at(9, 0), nil, at(15, 0), nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IntervalsOverlap(tt.s1, tt.e1, tt.s2, tt.e2))
			// Overlap is symmetric.
			assert.Equal(t, tt.want, IntervalsOverlap(tt.s2, tt.e2, tt.s1, tt.e1))
		})
	}
}

func TestWorkSession_DurationHours(t *testing.T) {
	closed := &WorkSession{StartTime: at(9, 0), EndTime: atPtr(17, 30)}
	assert.Equal(t, "8.5", closed.DurationHours().String())

	active := &WorkSession{StartTime: at(9, 0)}
	assert.True(t, active.DurationHours().IsZero(), "active sessions contribute zero completed hours")
}

func TestWorkSession_ElapsedHours(t *testing.T) {
	active := &WorkSession{StartTime: at(9, 0)}

	assert.Equal(t, "2.25", active.ElapsedHours(at(11, 15)).String())
	assert.True(t, active.ElapsedHours(at(8, 0)).IsZero(), "reference before start floors at zero")
}

func TestWorkSession_FractionalSeconds(t *testing.T) {
	end := at(9, 0).Add(90 * time.Minute)
	s := &WorkSession{StartTime: at(9, 0), EndTime: &end}
	assert.Equal(t, "1.5", s.DurationHours().String())
}

func TestWorkSession_Active(t *testing.T) {
	assert.True(t, (&WorkSession{StartTime: at(9, 0)}).Active())
	assert.False(t, (&WorkSession{StartTime: at(9, 0), EndTime: atPtr(10, 0)}).Active())
}
