package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nwidmer/stempel/internal/domain"
)

// ErrNotFound is returned when a requested row does not exist. Callers wrap
// it with the entity name via fmt.Errorf("...: %w", ErrNotFound).
var ErrNotFound = errors.New("not found")

type WorkSessionRepo interface {
	Create(ctx context.Context, s *domain.WorkSession) error
	GetByID(ctx context.Context, id string) (*domain.WorkSession, error)
	// GetActive returns the single open session, or nil when none exists.
	GetActive(ctx context.Context) (*domain.WorkSession, error)
	ListByDate(ctx context.Context, date time.Time) ([]*domain.WorkSession, error)
	ListByDateRange(ctx context.Context, from, to time.Time) ([]*domain.WorkSession, error)
	Update(ctx context.Context, s *domain.WorkSession) error
	Delete(ctx context.Context, id string) error
}

type AllocationRepo interface {
	Create(ctx context.Context, a *domain.TimeAllocation) error
	GetByID(ctx context.Context, id string) (*domain.TimeAllocation, error)
	ListByDate(ctx context.Context, date time.Time) ([]*domain.TimeAllocation, error)
	ListByDateRange(ctx context.Context, from, to time.Time) ([]*domain.TimeAllocation, error)
	SumHoursByDate(ctx context.Context, date time.Time) (decimal.Decimal, error)
	SumHoursByProject(ctx context.Context, projectID string) (decimal.Decimal, error)
	Update(ctx context.Context, a *domain.TimeAllocation) error
	Delete(ctx context.Context, id string) error
}

type LoginAttemptRepo interface {
	Create(ctx context.Context, a *domain.LoginAttempt) error
	// CountForIPSince counts all attempts, successful or not, for the address
	// at or after the given instant.
	CountForIPSince(ctx context.Context, ip string, since time.Time) (int, error)
	CountFailedForIPSince(ctx context.Context, ip string, since time.Time) (int, error)
	// OldestFailedForIPSince returns the earliest failed attempt in the
	// window, or nil when none qualifies.
	OldestFailedForIPSince(ctx context.Context, ip string, since time.Time) (*domain.LoginAttempt, error)
	DeleteFailedForIP(ctx context.Context, ip string) error
}

type ClientRepo interface {
	Create(ctx context.Context, c *domain.Client) error
	GetByID(ctx context.Context, id string) (*domain.Client, error)
	List(ctx context.Context, includeArchived bool) ([]*domain.Client, error)
	Update(ctx context.Context, c *domain.Client) error
	Delete(ctx context.Context, id string) error
}

type ProjectRepo interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	List(ctx context.Context, includeArchived bool) ([]*domain.Project, error)
	ListByClient(ctx context.Context, clientID string) ([]*domain.Project, error)
	Update(ctx context.Context, p *domain.Project) error
	Delete(ctx context.Context, id string) error
}
