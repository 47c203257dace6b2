package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nwidmer/stempel/internal/db"
	"github.com/nwidmer/stempel/internal/domain"
	"github.com/nwidmer/stempel/internal/timeutil"
)

const workSessionColumns = `id, date, start_time, end_time, created_at, updated_at`

// SQLiteWorkSessionRepo implements WorkSessionRepo over a SQLite database or
// transaction.
type SQLiteWorkSessionRepo struct {
	db db.DBTX
}

// NewSQLiteWorkSessionRepo creates a new SQLiteWorkSessionRepo.
func NewSQLiteWorkSessionRepo(dbtx db.DBTX) *SQLiteWorkSessionRepo {
	return &SQLiteWorkSessionRepo{db: dbtx}
}

func (r *SQLiteWorkSessionRepo) Create(ctx context.Context, s *domain.WorkSession) error {
	query := `INSERT INTO work_sessions (` + workSessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		timeutil.FormatDate(s.Date),
		timeutil.FormatNaive(s.StartTime),
		nullableNaiveToString(s.EndTime),
		timeutil.FormatNaive(s.CreatedAt),
		timeutil.FormatNaive(s.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting work session: %w", err)
	}
	return nil
}

func (r *SQLiteWorkSessionRepo) GetByID(ctx context.Context, id string) (*domain.WorkSession, error) {
	query := `SELECT ` + workSessionColumns + ` FROM work_sessions WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	return r.scanSession(row)
}

func (r *SQLiteWorkSessionRepo) GetActive(ctx context.Context) (*domain.WorkSession, error) {
	query := `SELECT ` + workSessionColumns + ` FROM work_sessions WHERE end_time IS NULL LIMIT 1`
	s, err := r.scanSession(r.db.QueryRowContext(ctx, query))
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

func (r *SQLiteWorkSessionRepo) ListByDate(ctx context.Context, date time.Time) ([]*domain.WorkSession, error) {
	query := `SELECT ` + workSessionColumns + ` FROM work_sessions WHERE date = ? ORDER BY start_time`
	rows, err := r.db.QueryContext(ctx, query, timeutil.FormatDate(date))
	if err != nil {
		return nil, fmt.Errorf("listing sessions by date: %w", err)
	}
	defer rows.Close()
	return r.scanSessions(rows)
}

func (r *SQLiteWorkSessionRepo) ListByDateRange(ctx context.Context, from, to time.Time) ([]*domain.WorkSession, error) {
	query := `SELECT ` + workSessionColumns + ` FROM work_sessions
		WHERE date >= ? AND date <= ? ORDER BY date, start_time`
	rows, err := r.db.QueryContext(ctx, query, timeutil.FormatDate(from), timeutil.FormatDate(to))
	if err != nil {
		return nil, fmt.Errorf("listing sessions by date range: %w", err)
	}
	defer rows.Close()
	return r.scanSessions(rows)
}

func (r *SQLiteWorkSessionRepo) Update(ctx context.Context, s *domain.WorkSession) error {
	query := `UPDATE work_sessions
		SET date = ?, start_time = ?, end_time = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		timeutil.FormatDate(s.Date),
		timeutil.FormatNaive(s.StartTime),
		nullableNaiveToString(s.EndTime),
		timeutil.FormatNaive(timeutil.NowNaive()),
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("updating work session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating work session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("work session %s: %w", s.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteWorkSessionRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM work_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting work session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting work session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("work session %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *SQLiteWorkSessionRepo) scanSession(row *sql.Row) (*domain.WorkSession, error) {
	var s domain.WorkSession
	var dateStr, startStr, createdStr, updatedStr string
	var endStr sql.NullString

	err := row.Scan(&s.ID, &dateStr, &startStr, &endStr, &createdStr, &updatedStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("work session: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning work session: %w", err)
	}
	return populateSession(&s, dateStr, startStr, endStr, createdStr, updatedStr)
}

func (r *SQLiteWorkSessionRepo) scanSessions(rows *sql.Rows) ([]*domain.WorkSession, error) {
	var sessions []*domain.WorkSession
	for rows.Next() {
		var s domain.WorkSession
		var dateStr, startStr, createdStr, updatedStr string
		var endStr sql.NullString

		if err := rows.Scan(&s.ID, &dateStr, &startStr, &endStr, &createdStr, &updatedStr); err != nil {
			return nil, fmt.Errorf("scanning work session row: %w", err)
		}
		session, err := populateSession(&s, dateStr, startStr, endStr, createdStr, updatedStr)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating work sessions: %w", err)
	}
	return sessions, nil
}

// populateSession fills in parsed fields on a WorkSession after scanning raw
// strings.
func populateSession(s *domain.WorkSession, dateStr, startStr string, endStr sql.NullString, createdStr, updatedStr string) (*domain.WorkSession, error) {
	var err error
	if s.Date, err = timeutil.ParseDate(dateStr); err != nil {
		return nil, fmt.Errorf("parsing date: %w", err)
	}
	if s.StartTime, err = timeutil.ParseNaive(startStr); err != nil {
		return nil, fmt.Errorf("parsing start_time: %w", err)
	}
	if s.EndTime, err = parseNullableNaive(endStr); err != nil {
		return nil, fmt.Errorf("parsing end_time: %w", err)
	}
	if s.CreatedAt, err = timeutil.ParseNaive(createdStr); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if s.UpdatedAt, err = timeutil.ParseNaive(updatedStr); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return s, nil
}
