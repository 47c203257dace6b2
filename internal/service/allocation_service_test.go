package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nwidmer/stempel/internal/domain"
	"github.com/nwidmer/stempel/internal/repository"
	"github.com/nwidmer/stempel/internal/testutil"
)

type allocationFixture struct {
	svc       AllocationService
	timesheet TimesheetService
	project   *domain.Project
	db        *sql.DB
}

func newAllocationFixture(t *testing.T) *allocationFixture {
	t.Helper()
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	client := testutil.NewTestClient("Acme")
	require.NoError(t, repository.NewSQLiteClientRepo(database).Create(ctx, client))
	project := testutil.NewTestProject(client.ID, "Website")
	require.NoError(t, repository.NewSQLiteProjectRepo(database).Create(ctx, project))

	sessions := repository.NewSQLiteWorkSessionRepo(database)
	allocations := repository.NewSQLiteAllocationRepo(database)
	projects := repository.NewSQLiteProjectRepo(database)
	uow := testutil.NewTestUoW(database)

	return &allocationFixture{
		svc:       NewAllocationService(allocations, sessions, projects, uow),
		timesheet: NewTimesheetService(sessions, uow),
		project:   project,
		db:        database,
	}
}

func (f *allocationFixture) clockSession(t *testing.T, start, end string) {
	t.Helper()
	date := testutil.MustDate(start[:10])
	_, err := f.timesheet.CreateManual(context.Background(), date,
		testutil.MustNaive(start), testutil.MustNaive(end))
	require.NoError(t, err)
}

func TestAllocationCreate_WithinBudget(t *testing.T) {
	f := newAllocationFixture(t)
	ctx := context.Background()
	f.clockSession(t, "2026-01-05T09:00:00", "2026-01-05T17:00:00")

	allocation, err := f.svc.Create(ctx, CreateAllocationInput{
		Date:      testutil.MustDate("2026-01-05"),
		ProjectID: f.project.ID,
		Hours:     testutil.MustDecimal("5"),
		Notes:     "backend",
	})
	require.NoError(t, err)
	assert.Equal(t, "5", allocation.Hours.String())
	assert.Equal(t, "backend", allocation.Notes)
}

// An 8-hour day with 5 hours already booked has 3 left; booking 4 more must
// fail and report exactly that remainder.
func TestAllocationCreate_BudgetExceeded(t *testing.T) {
	f := newAllocationFixture(t)
	ctx := context.Background()
	f.clockSession(t, "2026-01-05T09:00:00", "2026-01-05T17:00:00")

	_, err := f.svc.Create(ctx, CreateAllocationInput{
		Date:      testutil.MustDate("2026-01-05"),
		ProjectID: f.project.ID,
		Hours:     testutil.MustDecimal("5"),
	})
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, CreateAllocationInput{
		Date:      testutil.MustDate("2026-01-05"),
		ProjectID: f.project.ID,
		Hours:     testutil.MustDecimal("4"),
	})
	var budgetErr *domain.BudgetExceededError
	require.ErrorAs(t, err, &budgetErr)
	assert.Equal(t, "3.00", budgetErr.Remaining.StringFixed(2))
	assert.Equal(t, "cannot allocate 4.00 hours on 2026-01-05: only 3.00 hours remaining", budgetErr.Error())
}

func TestAllocationCreate_ExactBudgetAllowed(t *testing.T) {
	f := newAllocationFixture(t)
	ctx := context.Background()
	f.clockSession(t, "2026-01-05T09:00:00", "2026-01-05T17:00:00")

	_, err := f.svc.Create(ctx, CreateAllocationInput{
		Date:      testutil.MustDate("2026-01-05"),
		ProjectID: f.project.ID,
		Hours:     testutil.MustDecimal("8"),
	})
	assert.NoError(t, err, "allocating exactly the clocked total is allowed")
}

func TestAllocationCreate_NoSessionsMeansZeroBudget(t *testing.T) {
	f := newAllocationFixture(t)

	_, err := f.svc.Create(context.Background(), CreateAllocationInput{
		Date:      testutil.MustDate("2026-01-05"),
		ProjectID: f.project.ID,
		Hours:     testutil.MustDecimal("0.25"),
	})
	var budgetErr *domain.BudgetExceededError
	require.ErrorAs(t, err, &budgetErr)
	assert.Equal(t, "0.00", budgetErr.Remaining.StringFixed(2))
}

func TestAllocationCreate_RejectsNonPositiveHours(t *testing.T) {
	f := newAllocationFixture(t)

	for _, hours := range []string{"0", "-1"} {
		_, err := f.svc.Create(context.Background(), CreateAllocationInput{
			Date:      testutil.MustDate("2026-01-05"),
			ProjectID: f.project.ID,
			Hours:     testutil.MustDecimal(hours),
		})
		var validation *domain.ValidationError
		assert.ErrorAs(t, err, &validation, "hours %s", hours)
	}
}

func TestAllocationCreate_UnknownProject(t *testing.T) {
	f := newAllocationFixture(t)
	f.clockSession(t, "2026-01-05T09:00:00", "2026-01-05T17:00:00")

	_, err := f.svc.Create(context.Background(), CreateAllocationInput{
		Date:      testutil.MustDate("2026-01-05"),
		ProjectID: "no-such-project",
		Hours:     testutil.MustDecimal("1"),
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// Growing an allocation swaps its old hours out of the budget sum first:
// 5h of 8h clocked can grow to 8h even though only 3h are "free".
func TestAllocationUpdate_SwapsOldHours(t *testing.T) {
	f := newAllocationFixture(t)
	ctx := context.Background()
	f.clockSession(t, "2026-01-05T09:00:00", "2026-01-05T17:00:00")

	allocation, err := f.svc.Create(ctx, CreateAllocationInput{
		Date:      testutil.MustDate("2026-01-05"),
		ProjectID: f.project.ID,
		Hours:     testutil.MustDecimal("5"),
	})
	require.NoError(t, err)

	newHours := testutil.MustDecimal("8")
	updated, err := f.svc.Update(ctx, allocation.ID, UpdateAllocationInput{Hours: &newHours})
	require.NoError(t, err)
	assert.Equal(t, "8", updated.Hours.String())

	tooMany := testutil.MustDecimal("8.25")
	_, err = f.svc.Update(ctx, allocation.ID, UpdateAllocationInput{Hours: &tooMany})
	var budgetErr *domain.BudgetExceededError
	require.ErrorAs(t, err, &budgetErr)
	assert.Equal(t, "8.00", budgetErr.Remaining.StringFixed(2))
}

func TestAllocationUpdate_NotesOnlySkipsNothing(t *testing.T) {
	f := newAllocationFixture(t)
	ctx := context.Background()
	f.clockSession(t, "2026-01-05T09:00:00", "2026-01-05T17:00:00")

	allocation, err := f.svc.Create(ctx, CreateAllocationInput{
		Date:      testutil.MustDate("2026-01-05"),
		ProjectID: f.project.ID,
		Hours:     testutil.MustDecimal("8"),
	})
	require.NoError(t, err)

	// The day is fully booked, but a notes-only change keeps the sum constant
	// and must pass the budget check.
	notes := "rework"
	updated, err := f.svc.Update(ctx, allocation.ID, UpdateAllocationInput{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "rework", updated.Notes)
	assert.Equal(t, "8", updated.Hours.String())
}

func TestAllocationDelete_FreesBudget(t *testing.T) {
	f := newAllocationFixture(t)
	ctx := context.Background()
	f.clockSession(t, "2026-01-05T09:00:00", "2026-01-05T17:00:00")

	allocation, err := f.svc.Create(ctx, CreateAllocationInput{
		Date:      testutil.MustDate("2026-01-05"),
		ProjectID: f.project.ID,
		Hours:     testutil.MustDecimal("8"),
	})
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, allocation.ID))

	_, err = f.svc.Create(ctx, CreateAllocationInput{
		Date:      testutil.MustDate("2026-01-05"),
		ProjectID: f.project.ID,
		Hours:     testutil.MustDecimal("8"),
	})
	assert.NoError(t, err)
}

func TestAllocationListForDate_Aggregates(t *testing.T) {
	f := newAllocationFixture(t)
	ctx := context.Background()
	f.clockSession(t, "2026-01-05T09:00:00", "2026-01-05T17:00:00")

	_, err := f.svc.Create(ctx, CreateAllocationInput{
		Date:      testutil.MustDate("2026-01-05"),
		ProjectID: f.project.ID,
		Hours:     testutil.MustDecimal("2.5"),
	})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, CreateAllocationInput{
		Date:      testutil.MustDate("2026-01-05"),
		ProjectID: f.project.ID,
		Hours:     testutil.MustDecimal("1.25"),
	})
	require.NoError(t, err)

	day, err := f.svc.ListForDate(ctx, testutil.MustDate("2026-01-05"), nil)
	require.NoError(t, err)
	assert.Len(t, day.Allocations, 2)
	assert.Equal(t, "3.75", day.TotalAllocated.String())
	assert.Equal(t, "8", day.TotalClocked.String())
	assert.Equal(t, "4.25", day.Unallocated.String())
}

// With an active session, the budget grows with the asOf reference instant.
func TestAllocationCreate_ActiveSessionBudgetAsOf(t *testing.T) {
	f := newAllocationFixture(t)
	ctx := context.Background()

	_, err := f.timesheet.ClockIn(ctx, nil, naivePtr("2026-01-05T09:00:00"))
	require.NoError(t, err)

	asOf := testutil.MustNaive("2026-01-05T11:00:00")
	_, err = f.svc.Create(ctx, CreateAllocationInput{
		Date:      testutil.MustDate("2026-01-05"),
		ProjectID: f.project.ID,
		Hours:     testutil.MustDecimal("2"),
		AsOf:      &asOf,
	})
	assert.NoError(t, err, "2h elapsed as of 11:00 covers a 2h allocation")

	_, err = f.svc.Create(ctx, CreateAllocationInput{
		Date:      testutil.MustDate("2026-01-05"),
		ProjectID: f.project.ID,
		Hours:     testutil.MustDecimal("1"),
		AsOf:      &asOf,
	})
	var budgetErr *domain.BudgetExceededError
	assert.ErrorAs(t, err, &budgetErr)
}
