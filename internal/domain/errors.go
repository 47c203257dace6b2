package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidCredentials is returned when the supplied password does not match
// the configured credential hash.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ValidationError reports malformed or out-of-range input. These are
// recoverable: the message is safe to show to the caller verbatim.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ConflictError reports a business-rule violation: an already-active session,
// an overlapping interval, or any other state the write would corrupt.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return e.Reason
}

// BudgetExceededError rejects an allocation that would push a date's
// allocated hours past its clocked hours. Remaining is already rounded to two
// decimals for the caller.
type BudgetExceededError struct {
	Date      string
	Requested decimal.Decimal
	Remaining decimal.Decimal
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("cannot allocate %s hours on %s: only %s hours remaining",
		e.Requested.StringFixed(2), e.Date, e.Remaining.StringFixed(2))
}

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// RateLimitedError denies a login attempt that exceeds the sliding-window
// rate limit for its source address.
type RateLimitedError struct {
	AttemptsRemaining int
}

func (e *RateLimitedError) Error() string {
	return "too many login attempts, try again shortly"
}

// LockedOutError denies a login attempt from an address with too many recent
// failures. MinutesRemaining is rounded up to whole minutes.
type LockedOutError struct {
	MinutesRemaining int
}

func (e *LockedOutError) Error() string {
	return fmt.Sprintf("account locked, try again in %d minutes", e.MinutesRemaining)
}

// ConfigurationError reports missing or unusable configuration, such as an
// absent credential hash. It is fatal: callers surface it as an internal
// error rather than retrying.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return e.Reason
}
