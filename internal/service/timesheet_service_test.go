package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nwidmer/stempel/internal/domain"
	"github.com/nwidmer/stempel/internal/repository"
	"github.com/nwidmer/stempel/internal/testutil"
)

func newTimesheetService(t *testing.T) (TimesheetService, repository.WorkSessionRepo) {
	t.Helper()
	database := testutil.NewTestDB(t)
	repo := repository.NewSQLiteWorkSessionRepo(database)
	return NewTimesheetService(repo, testutil.NewTestUoW(database)), repo
}

func naivePtr(s string) *time.Time {
	t := testutil.MustNaive(s)
	return &t
}

func datePtr(s string) *time.Time {
	d := testutil.MustDate(s)
	return &d
}

func TestClockIn_CreatesActiveSession(t *testing.T) {
	svc, repo := newTimesheetService(t)
	ctx := context.Background()

	session, err := svc.ClockIn(ctx, nil, naivePtr("2026-01-05T09:00:00"))
	require.NoError(t, err)
	assert.True(t, session.Active())
	assert.Equal(t, "2026-01-05", session.Date.Format("2006-01-02"), "date defaults to the start time's day")

	active, err := repo.GetActive(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, session.ID, active.ID)
}

func TestClockIn_SecondActiveSessionConflicts(t *testing.T) {
	svc, _ := newTimesheetService(t)
	ctx := context.Background()

	_, err := svc.ClockIn(ctx, nil, naivePtr("2026-01-05T09:00:00"))
	require.NoError(t, err)

	_, err = svc.ClockIn(ctx, nil, naivePtr("2026-01-05T10:00:00"))
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Contains(t, conflict.Reason, "already active since 2026-01-05T09:00:00")
}

func TestClockIn_ExplicitDateOverridesStartDay(t *testing.T) {
	svc, _ := newTimesheetService(t)

	session, err := svc.ClockIn(context.Background(), datePtr("2026-01-06"), naivePtr("2026-01-05T23:30:00"))
	require.NoError(t, err)
	assert.Equal(t, "2026-01-06", session.Date.Format("2006-01-02"))
}

func TestClockOut_ClosesActiveSession(t *testing.T) {
	svc, _ := newTimesheetService(t)
	ctx := context.Background()

	_, err := svc.ClockIn(ctx, nil, naivePtr("2026-01-05T09:00:00"))
	require.NoError(t, err)

	closed, err := svc.ClockOut(ctx, naivePtr("2026-01-05T17:00:00"))
	require.NoError(t, err)
	require.NotNil(t, closed.EndTime)
	assert.Equal(t, "8", closed.DurationHours().String())
}

func TestClockOut_WithoutActiveSessionConflicts(t *testing.T) {
	svc, _ := newTimesheetService(t)

	_, err := svc.ClockOut(context.Background(), naivePtr("2026-01-05T17:00:00"))
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "no active session to clock out of", conflict.Reason)
}

func TestClockOut_EndBeforeStartRejected(t *testing.T) {
	svc, repo := newTimesheetService(t)
	ctx := context.Background()

	_, err := svc.ClockIn(ctx, nil, naivePtr("2026-01-05T09:00:00"))
	require.NoError(t, err)

	_, err = svc.ClockOut(ctx, naivePtr("2026-01-05T08:00:00"))
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)

	// The session is still open after the rejected close.
	active, err := repo.GetActive(ctx)
	require.NoError(t, err)
	assert.NotNil(t, active)
}

func TestCreateManual_RejectsOverlap(t *testing.T) {
	svc, _ := newTimesheetService(t)
	ctx := context.Background()

	_, err := svc.CreateManual(ctx, testutil.MustDate("2026-01-05"),
		testutil.MustNaive("2026-01-05T09:00:00"), testutil.MustNaive("2026-01-05T12:00:00"))
	require.NoError(t, err)

	_, err = svc.CreateManual(ctx, testutil.MustDate("2026-01-05"),
		testutil.MustNaive("2026-01-05T11:00:00"), testutil.MustNaive("2026-01-05T13:00:00"))
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Contains(t, conflict.Reason, "overlaps existing session")
}

func TestCreateManual_TouchingIntervalsAllowed(t *testing.T) {
	svc, _ := newTimesheetService(t)
	ctx := context.Background()

	_, err := svc.CreateManual(ctx, testutil.MustDate("2026-01-05"),
		testutil.MustNaive("2026-01-05T09:00:00"), testutil.MustNaive("2026-01-05T12:00:00"))
	require.NoError(t, err)

	// [12:00,13:00) starts exactly where the first ends.
	_, err = svc.CreateManual(ctx, testutil.MustDate("2026-01-05"),
		testutil.MustNaive("2026-01-05T12:00:00"), testutil.MustNaive("2026-01-05T13:00:00"))
	assert.NoError(t, err)
}

func TestCreateManual_OverlapWithActiveSession(t *testing.T) {
	svc, _ := newTimesheetService(t)
	ctx := context.Background()

	_, err := svc.ClockIn(ctx, nil, naivePtr("2026-01-05T09:00:00"))
	require.NoError(t, err)

	// An active session extends to infinity; anything after its start collides.
	_, err = svc.CreateManual(ctx, testutil.MustDate("2026-01-05"),
		testutil.MustNaive("2026-01-05T15:00:00"), testutil.MustNaive("2026-01-05T16:00:00"))
	var conflict *domain.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestUpdate_MovesInterval(t *testing.T) {
	svc, _ := newTimesheetService(t)
	ctx := context.Background()

	session, err := svc.CreateManual(ctx, testutil.MustDate("2026-01-05"),
		testutil.MustNaive("2026-01-05T09:00:00"), testutil.MustNaive("2026-01-05T10:00:00"))
	require.NoError(t, err)

	// Shifting a session onto itself must not trip the overlap check.
	updated, err := svc.Update(ctx, session.ID, naivePtr("2026-01-05T09:30:00"), naivePtr("2026-01-05T10:30:00"))
	require.NoError(t, err)
	assert.Equal(t, "1", updated.DurationHours().String())
}

func TestUpdate_RejectsOverlapWithOtherSession(t *testing.T) {
	svc, _ := newTimesheetService(t)
	ctx := context.Background()

	_, err := svc.CreateManual(ctx, testutil.MustDate("2026-01-05"),
		testutil.MustNaive("2026-01-05T09:00:00"), testutil.MustNaive("2026-01-05T10:00:00"))
	require.NoError(t, err)
	second, err := svc.CreateManual(ctx, testutil.MustDate("2026-01-05"),
		testutil.MustNaive("2026-01-05T11:00:00"), testutil.MustNaive("2026-01-05T12:00:00"))
	require.NoError(t, err)

	_, err = svc.Update(ctx, second.ID, naivePtr("2026-01-05T09:30:00"), nil)
	var conflict *domain.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestDelete_ThenRecreateSameInterval(t *testing.T) {
	svc, _ := newTimesheetService(t)
	ctx := context.Background()

	session, err := svc.CreateManual(ctx, testutil.MustDate("2026-01-05"),
		testutil.MustNaive("2026-01-05T09:00:00"), testutil.MustNaive("2026-01-05T10:00:00"))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, session.ID))

	// A deleted interval frees its slot.
	_, err = svc.CreateManual(ctx, testutil.MustDate("2026-01-05"),
		testutil.MustNaive("2026-01-05T09:00:00"), testutil.MustNaive("2026-01-05T10:00:00"))
	assert.NoError(t, err)
}

func TestListForDate_TotalsAndActive(t *testing.T) {
	svc, _ := newTimesheetService(t)
	ctx := context.Background()

	_, err := svc.CreateManual(ctx, testutil.MustDate("2026-01-05"),
		testutil.MustNaive("2026-01-05T09:00:00"), testutil.MustNaive("2026-01-05T11:00:00"))
	require.NoError(t, err)
	_, err = svc.ClockIn(ctx, nil, naivePtr("2026-01-05T13:00:00"))
	require.NoError(t, err)

	day, err := svc.ListForDate(ctx, testutil.MustDate("2026-01-05"))
	require.NoError(t, err)
	assert.Len(t, day.Sessions, 2)
	assert.Equal(t, "2", day.TotalHours.String(), "active session contributes zero completed hours")
	require.NotNil(t, day.ActiveSession)
}

func TestClockedHours_IncludesActiveElapsed(t *testing.T) {
	svc, _ := newTimesheetService(t)
	ctx := context.Background()

	_, err := svc.CreateManual(ctx, testutil.MustDate("2026-01-05"),
		testutil.MustNaive("2026-01-05T09:00:00"), testutil.MustNaive("2026-01-05T11:00:00"))
	require.NoError(t, err)
	_, err = svc.ClockIn(ctx, nil, naivePtr("2026-01-05T13:00:00"))
	require.NoError(t, err)

	clocked, err := svc.ClockedHours(ctx, testutil.MustDate("2026-01-05"), naivePtr("2026-01-05T14:30:00"))
	require.NoError(t, err)
	assert.Equal(t, "3.5", clocked.String())

	completed, err := svc.CompletedHours(ctx, testutil.MustDate("2026-01-05"))
	require.NoError(t, err)
	assert.Equal(t, "2", completed.String())
}

func TestClockedHours_ActiveOnOtherDateIgnored(t *testing.T) {
	svc, _ := newTimesheetService(t)
	ctx := context.Background()

	_, err := svc.ClockIn(ctx, datePtr("2026-01-06"), naivePtr("2026-01-06T09:00:00"))
	require.NoError(t, err)

	clocked, err := svc.ClockedHours(ctx, testutil.MustDate("2026-01-05"), naivePtr("2026-01-06T12:00:00"))
	require.NoError(t, err)
	assert.True(t, clocked.IsZero())
}
