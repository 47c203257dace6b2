package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nwidmer/stempel/internal/db"
	"github.com/nwidmer/stempel/internal/domain"
	"github.com/nwidmer/stempel/internal/repository"
	"github.com/nwidmer/stempel/internal/timeutil"
)

type allocationService struct {
	allocations repository.AllocationRepo
	sessions    repository.WorkSessionRepo
	projects    repository.ProjectRepo
	uow         db.UnitOfWork
	observer    UseCaseObserver
}

// NewAllocationService creates the allocation ledger. The budget check reads
// clocked hours and allocated hours inside the same transaction as the write,
// so a committed allocation can never exceed the date's clocked total.
func NewAllocationService(allocations repository.AllocationRepo, sessions repository.WorkSessionRepo, projects repository.ProjectRepo, uow db.UnitOfWork, observers ...UseCaseObserver) AllocationService {
	return &allocationService{
		allocations: allocations,
		sessions:    sessions,
		projects:    projects,
		uow:         uow,
		observer:    useCaseObserverOrNoop(observers),
	}
}

func (s *allocationService) ListForDate(ctx context.Context, date time.Time, asOf *time.Time) (*DayAllocations, error) {
	day := timeutil.DateOf(timeutil.EnsureNaive(date))

	allocations, err := s.allocations.ListByDate(ctx, day)
	if err != nil {
		return nil, err
	}
	clocked, err := clockedHours(ctx, s.sessions, day, asOf)
	if err != nil {
		return nil, err
	}

	allocated := domain.SumHours(allocations)
	return &DayAllocations{
		Allocations:    allocations,
		TotalAllocated: allocated,
		TotalClocked:   clocked,
		Unallocated:    clocked.Sub(allocated),
	}, nil
}

func (s *allocationService) Create(ctx context.Context, in CreateAllocationInput) (*domain.TimeAllocation, error) {
	startedAt := time.Now()

	if !in.Hours.IsPositive() {
		return nil, &domain.ValidationError{Field: "hours", Reason: "hours must be greater than zero"}
	}

	day := timeutil.DateOf(timeutil.EnsureNaive(in.Date))
	allocation := &domain.TimeAllocation{
		ID:        uuid.New().String(),
		Date:      day,
		ProjectID: in.ProjectID,
		Hours:     in.Hours,
		Notes:     in.Notes,
		CreatedAt: timeutil.NowNaive(),
		UpdatedAt: timeutil.NowNaive(),
	}

	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txAllocations := repository.NewSQLiteAllocationRepo(tx)
		txSessions := repository.NewSQLiteWorkSessionRepo(tx)
		txProjects := repository.NewSQLiteProjectRepo(tx)

		if _, err := txProjects.GetByID(ctx, in.ProjectID); err != nil {
			return err
		}
		if err := checkBudget(ctx, txAllocations, txSessions, day, in.Hours, decimal.Zero, in.AsOf); err != nil {
			return err
		}
		return txAllocations.Create(ctx, allocation)
	})
	observe(ctx, s.observer, "allocation.create", startedAt, err, map[string]any{
		"date":       timeutil.FormatDate(day),
		"project_id": in.ProjectID,
	})
	if err != nil {
		return nil, err
	}
	return allocation, nil
}

func (s *allocationService) Update(ctx context.Context, id string, in UpdateAllocationInput) (*domain.TimeAllocation, error) {
	startedAt := time.Now()

	if in.Hours != nil && !in.Hours.IsPositive() {
		return nil, &domain.ValidationError{Field: "hours", Reason: "hours must be greater than zero"}
	}

	var updated *domain.TimeAllocation
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txAllocations := repository.NewSQLiteAllocationRepo(tx)
		txSessions := repository.NewSQLiteWorkSessionRepo(tx)
		txProjects := repository.NewSQLiteProjectRepo(tx)

		allocation, err := txAllocations.GetByID(ctx, id)
		if err != nil {
			return err
		}

		oldHours := allocation.Hours
		if in.Hours != nil {
			allocation.Hours = *in.Hours
		}
		if in.ProjectID != nil {
			if _, err := txProjects.GetByID(ctx, *in.ProjectID); err != nil {
				return err
			}
			allocation.ProjectID = *in.ProjectID
		}
		if in.Notes != nil {
			allocation.Notes = *in.Notes
		}
		allocation.UpdatedAt = timeutil.NowNaive()

		// The would-be total replaces the old hours with the new ones; a
		// pure project or notes change leaves the sum untouched.
		if err := checkBudget(ctx, txAllocations, txSessions, allocation.Date, allocation.Hours, oldHours, in.AsOf); err != nil {
			return err
		}
		if err := txAllocations.Update(ctx, allocation); err != nil {
			return err
		}
		updated = allocation
		return nil
	})
	observe(ctx, s.observer, "allocation.update", startedAt, err, map[string]any{"allocation_id": id})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *allocationService) Delete(ctx context.Context, id string) error {
	startedAt := time.Now()
	// Deletion only shrinks the allocated sum, so no budget check applies.
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return repository.NewSQLiteAllocationRepo(tx).Delete(ctx, id)
	})
	observe(ctx, s.observer, "allocation.delete", startedAt, err, map[string]any{"allocation_id": id})
	return err
}

// checkBudget rejects the change if the date's allocated total, with oldHours
// swapped for newHours, would exceed the clocked total as of the reference
// instant. The error reports the remaining allocatable amount rounded to two
// decimals.
func checkBudget(ctx context.Context, allocations repository.AllocationRepo, sessions repository.WorkSessionRepo, date time.Time, newHours, oldHours decimal.Decimal, asOf *time.Time) error {
	allocated, err := allocations.SumHoursByDate(ctx, date)
	if err != nil {
		return err
	}
	clocked, err := clockedHours(ctx, sessions, date, asOf)
	if err != nil {
		return err
	}

	wouldBe := allocated.Sub(oldHours).Add(newHours)
	if wouldBe.GreaterThan(clocked) {
		return &domain.BudgetExceededError{
			Date:      timeutil.FormatDate(date),
			Requested: newHours,
			Remaining: clocked.Sub(allocated.Sub(oldHours)).Round(2),
		}
	}
	return nil
}
