package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nwidmer/stempel/internal/domain"
)

// TimesheetService owns work-session intervals: at most one active session
// store-wide, no overlapping intervals on a date.
type TimesheetService interface {
	// ClockIn opens a new active session. date defaults to startTime's
	// calendar day; startTime defaults to now.
	ClockIn(ctx context.Context, date, startTime *time.Time) (*domain.WorkSession, error)
	// ClockOut closes the active session. endTime defaults to now.
	ClockOut(ctx context.Context, endTime *time.Time) (*domain.WorkSession, error)
	CreateManual(ctx context.Context, date, startTime, endTime time.Time) (*domain.WorkSession, error)
	Update(ctx context.Context, id string, startTime, endTime *time.Time) (*domain.WorkSession, error)
	Delete(ctx context.Context, id string) error

	ListForDate(ctx context.Context, date time.Time) (*DaySessions, error)
	// CompletedHours sums closed-session durations on a date; active sessions
	// contribute zero.
	CompletedHours(ctx context.Context, date time.Time) (decimal.Decimal, error)
	// ClockedHours is CompletedHours plus the elapsed time of a same-date
	// active session as of the reference instant (defaults to now).
	ClockedHours(ctx context.Context, date time.Time, asOf *time.Time) (decimal.Decimal, error)
}

// DaySessions is the session listing for one date.
type DaySessions struct {
	Sessions      []*domain.WorkSession
	TotalHours    decimal.Decimal
	ActiveSession *domain.WorkSession
}

// AllocationService owns the ledger that books clocked hours onto projects,
// keeping each date's allocated total within its clocked total.
type AllocationService interface {
	ListForDate(ctx context.Context, date time.Time, asOf *time.Time) (*DayAllocations, error)
	Create(ctx context.Context, in CreateAllocationInput) (*domain.TimeAllocation, error)
	Update(ctx context.Context, id string, in UpdateAllocationInput) (*domain.TimeAllocation, error)
	Delete(ctx context.Context, id string) error
}

// CreateAllocationInput carries a new allocation. AsOf is the caller's
// reference instant for the budget check against an in-progress day; server
// time is used when absent.
type CreateAllocationInput struct {
	Date      time.Time
	ProjectID string
	Hours     decimal.Decimal
	Notes     string
	AsOf      *time.Time
}

// UpdateAllocationInput carries partial changes; nil fields keep the stored
// value.
type UpdateAllocationInput struct {
	Hours     *decimal.Decimal
	ProjectID *string
	Notes     *string
	AsOf      *time.Time
}

// DayAllocations is the allocation listing for one date with its budget
// aggregates.
type DayAllocations struct {
	Allocations    []*domain.TimeAllocation
	TotalAllocated decimal.Decimal
	TotalClocked   decimal.Decimal
	Unallocated    decimal.Decimal
}

// AuthService is the access guard in front of the single credential: a
// sliding-window rate limit per source address plus an escalating lockout on
// failures, both derived from the login-attempt audit log.
type AuthService interface {
	// Login runs the full gate sequence: lockout, rate limit, credential
	// verification, attempt recording, failure clearing on success.
	Login(ctx context.Context, ip, password string, now time.Time) error
	// CheckRateLimit returns the attempts remaining in the trailing window,
	// or a RateLimitedError once the window is exhausted.
	CheckRateLimit(ctx context.Context, ip string, now time.Time) (int, error)
	// CheckLockout returns a LockedOutError carrying the whole minutes left
	// when the address has too many recent failures.
	CheckLockout(ctx context.Context, ip string, now time.Time) error
	VerifyCredential(password string) error
	RecordAttempt(ctx context.Context, ip string, success bool, now time.Time) error
	ClearFailures(ctx context.Context, ip string) error
}

type ClientService interface {
	Create(ctx context.Context, c *domain.Client) error
	GetByID(ctx context.Context, id string) (*domain.Client, error)
	List(ctx context.Context, includeArchived bool) ([]*domain.Client, error)
	Update(ctx context.Context, c *domain.Client) error
	Delete(ctx context.Context, id string) error
	// HoursLogged totals allocated hours across the client's projects.
	HoursLogged(ctx context.Context, clientID string) (decimal.Decimal, error)
}

type ProjectService interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	List(ctx context.Context, includeArchived bool) ([]*domain.Project, error)
	ListByClient(ctx context.Context, clientID string) ([]*domain.Project, error)
	Update(ctx context.Context, p *domain.Project) error
	Delete(ctx context.Context, id string) error
	HoursLogged(ctx context.Context, projectID string) (decimal.Decimal, error)
}

// ReportService aggregates sessions and allocations into billing views.
type ReportService interface {
	Summary(ctx context.Context, from, to time.Time) (*SummaryReport, error)
	DailySummary(ctx context.Context, from, to time.Time) ([]DayTotals, error)
	Calendar(ctx context.Context, year int, month time.Month) ([]DayTotals, error)
}

// SummaryReport groups billable amounts under clients for a date range.
type SummaryReport struct {
	From    time.Time
	To      time.Time
	Clients []ClientSummary
	// Totals holds one grand total per billing currency; currencies are
	// never converted into each other.
	Totals map[domain.Currency]decimal.Decimal
}

type ClientSummary struct {
	Client   *domain.Client
	Projects []ProjectSummary
	Hours    decimal.Decimal
	Amount   decimal.Decimal
}

type ProjectSummary struct {
	Project *domain.Project
	Hours   decimal.Decimal
	Rate    decimal.Decimal
	Amount  decimal.Decimal
}

// DayTotals is one date's clocked vs allocated picture.
type DayTotals struct {
	Date        time.Time
	Clocked     decimal.Decimal
	Allocated   decimal.Decimal
	Unallocated decimal.Decimal
}
