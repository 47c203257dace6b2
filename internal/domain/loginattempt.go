package domain

import "time"

// LoginAttempt is one row of the append-only authentication audit log. The
// access guard derives every rate-limit and lockout decision from these rows
// rather than in-memory counters, so its state survives restarts.
type LoginAttempt struct {
	ID          string
	IPAddress   string
	AttemptedAt time.Time
	Success     bool
}
