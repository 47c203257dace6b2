package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nwidmer/stempel/internal/db"
	"github.com/nwidmer/stempel/internal/domain"
	"github.com/nwidmer/stempel/internal/repository"
	"github.com/nwidmer/stempel/internal/timeutil"
)

type timesheetService struct {
	sessions repository.WorkSessionRepo
	uow      db.UnitOfWork
	observer UseCaseObserver
}

// NewTimesheetService creates the work-session service. Every mutation runs
// its invariant checks and its write inside one transaction.
func NewTimesheetService(sessions repository.WorkSessionRepo, uow db.UnitOfWork, observers ...UseCaseObserver) TimesheetService {
	return &timesheetService{
		sessions: sessions,
		uow:      uow,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *timesheetService) ClockIn(ctx context.Context, date, startTime *time.Time) (*domain.WorkSession, error) {
	startedAt := time.Now()

	start := timeutil.NowNaive()
	if startTime != nil {
		start = timeutil.EnsureNaive(*startTime)
	}
	day := timeutil.DateOf(start)
	if date != nil {
		day = timeutil.DateOf(timeutil.EnsureNaive(*date))
	}

	session := &domain.WorkSession{
		ID:        uuid.New().String(),
		Date:      day,
		StartTime: start,
		CreatedAt: timeutil.NowNaive(),
		UpdatedAt: timeutil.NowNaive(),
	}

	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txSessions := repository.NewSQLiteWorkSessionRepo(tx)

		active, err := txSessions.GetActive(ctx)
		if err != nil {
			return err
		}
		if active != nil {
			return &domain.ConflictError{
				Reason: fmt.Sprintf("a session is already active since %s", timeutil.FormatNaive(active.StartTime)),
			}
		}
		if err := checkNoOverlap(ctx, txSessions, session, ""); err != nil {
			return err
		}
		return txSessions.Create(ctx, session)
	})
	observe(ctx, s.observer, "timesheet.clock_in", startedAt, err, map[string]any{"date": timeutil.FormatDate(day)})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *timesheetService) ClockOut(ctx context.Context, endTime *time.Time) (*domain.WorkSession, error) {
	startedAt := time.Now()

	end := timeutil.NowNaive()
	if endTime != nil {
		end = timeutil.EnsureNaive(*endTime)
	}

	var closed *domain.WorkSession
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txSessions := repository.NewSQLiteWorkSessionRepo(tx)

		active, err := txSessions.GetActive(ctx)
		if err != nil {
			return err
		}
		if active == nil {
			return &domain.ConflictError{Reason: "no active session to clock out of"}
		}
		if !end.After(active.StartTime) {
			return &domain.ValidationError{
				Field:  "end_time",
				Reason: fmt.Sprintf("end time %s must be after start time %s", timeutil.FormatNaive(end), timeutil.FormatNaive(active.StartTime)),
			}
		}

		active.EndTime = &end
		active.UpdatedAt = timeutil.NowNaive()
		if err := checkNoOverlap(ctx, txSessions, active, active.ID); err != nil {
			return err
		}
		if err := txSessions.Update(ctx, active); err != nil {
			return err
		}
		closed = active
		return nil
	})
	observe(ctx, s.observer, "timesheet.clock_out", startedAt, err, nil)
	if err != nil {
		return nil, err
	}
	return closed, nil
}

func (s *timesheetService) CreateManual(ctx context.Context, date, startTime, endTime time.Time) (*domain.WorkSession, error) {
	startedAt := time.Now()

	start := timeutil.EnsureNaive(startTime)
	end := timeutil.EnsureNaive(endTime)
	if !end.After(start) {
		return nil, &domain.ValidationError{Field: "end_time", Reason: "end time must be after start time"}
	}

	session := &domain.WorkSession{
		ID:        uuid.New().String(),
		Date:      timeutil.DateOf(timeutil.EnsureNaive(date)),
		StartTime: start,
		EndTime:   &end,
		CreatedAt: timeutil.NowNaive(),
		UpdatedAt: timeutil.NowNaive(),
	}

	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txSessions := repository.NewSQLiteWorkSessionRepo(tx)
		if err := checkNoOverlap(ctx, txSessions, session, ""); err != nil {
			return err
		}
		return txSessions.Create(ctx, session)
	})
	observe(ctx, s.observer, "timesheet.create_manual", startedAt, err, map[string]any{"date": timeutil.FormatDate(session.Date)})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *timesheetService) Update(ctx context.Context, id string, startTime, endTime *time.Time) (*domain.WorkSession, error) {
	startedAt := time.Now()

	var updated *domain.WorkSession
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txSessions := repository.NewSQLiteWorkSessionRepo(tx)

		session, err := txSessions.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if startTime != nil {
			session.StartTime = timeutil.EnsureNaive(*startTime)
		}
		if endTime != nil {
			end := timeutil.EnsureNaive(*endTime)
			session.EndTime = &end
		}
		if session.EndTime != nil && !session.EndTime.After(session.StartTime) {
			return &domain.ValidationError{Field: "end_time", Reason: "end time must be after start time"}
		}
		session.UpdatedAt = timeutil.NowNaive()

		if err := checkNoOverlap(ctx, txSessions, session, session.ID); err != nil {
			return err
		}
		if err := txSessions.Update(ctx, session); err != nil {
			return err
		}
		updated = session
		return nil
	})
	observe(ctx, s.observer, "timesheet.update", startedAt, err, map[string]any{"session_id": id})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *timesheetService) Delete(ctx context.Context, id string) error {
	startedAt := time.Now()
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return repository.NewSQLiteWorkSessionRepo(tx).Delete(ctx, id)
	})
	observe(ctx, s.observer, "timesheet.delete", startedAt, err, map[string]any{"session_id": id})
	return err
}

func (s *timesheetService) ListForDate(ctx context.Context, date time.Time) (*DaySessions, error) {
	day := timeutil.DateOf(timeutil.EnsureNaive(date))
	sessions, err := s.sessions.ListByDate(ctx, day)
	if err != nil {
		return nil, err
	}

	out := &DaySessions{Sessions: sessions, TotalHours: decimal.Zero}
	for _, sess := range sessions {
		out.TotalHours = out.TotalHours.Add(sess.DurationHours())
		if sess.Active() {
			out.ActiveSession = sess
		}
	}
	return out, nil
}

func (s *timesheetService) CompletedHours(ctx context.Context, date time.Time) (decimal.Decimal, error) {
	return completedHours(ctx, s.sessions, timeutil.DateOf(timeutil.EnsureNaive(date)))
}

func (s *timesheetService) ClockedHours(ctx context.Context, date time.Time, asOf *time.Time) (decimal.Decimal, error) {
	return clockedHours(ctx, s.sessions, timeutil.DateOf(timeutil.EnsureNaive(date)), asOf)
}

// checkNoOverlap rejects candidate if its interval shares any instant with
// another session on the same date. excludeID skips the row being edited.
func checkNoOverlap(ctx context.Context, sessions repository.WorkSessionRepo, candidate *domain.WorkSession, excludeID string) error {
	existing, err := sessions.ListByDate(ctx, candidate.Date)
	if err != nil {
		return err
	}
	for _, other := range existing {
		if other.ID == excludeID {
			continue
		}
		if candidate.Overlaps(other) {
			return &domain.ConflictError{
				Reason: fmt.Sprintf("interval overlaps existing session %s–%s",
					timeutil.FormatNaive(other.StartTime), formatEnd(other.EndTime)),
			}
		}
	}
	return nil
}

func formatEnd(end *time.Time) string {
	if end == nil {
		return "now"
	}
	return timeutil.FormatNaive(*end)
}

// completedHours sums closed-session durations on a date.
func completedHours(ctx context.Context, sessions repository.WorkSessionRepo, date time.Time) (decimal.Decimal, error) {
	list, err := sessions.ListByDate(ctx, date)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, sess := range list {
		total = total.Add(sess.DurationHours())
	}
	return total, nil
}

// clockedHours is completedHours plus the elapsed time of a same-date active
// session as of the reference instant. The asOf value is normalized onto the
// naive timeline before any comparison with stored times.
func clockedHours(ctx context.Context, sessions repository.WorkSessionRepo, date time.Time, asOf *time.Time) (decimal.Decimal, error) {
	total, err := completedHours(ctx, sessions, date)
	if err != nil {
		return decimal.Zero, err
	}

	active, err := sessions.GetActive(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	if active != nil && active.Date.Equal(date) {
		ref := timeutil.NowNaive()
		if asOf != nil {
			ref = timeutil.EnsureNaive(*asOf)
		}
		total = total.Add(active.ElapsedHours(ref))
	}
	return total, nil
}
