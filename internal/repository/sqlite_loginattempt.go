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

// SQLiteLoginAttemptRepo implements LoginAttemptRepo over a SQLite database
// or transaction. The table is append-only except for DeleteFailedForIP,
// which runs after a successful authentication.
type SQLiteLoginAttemptRepo struct {
	db db.DBTX
}

// NewSQLiteLoginAttemptRepo creates a new SQLiteLoginAttemptRepo.
func NewSQLiteLoginAttemptRepo(dbtx db.DBTX) *SQLiteLoginAttemptRepo {
	return &SQLiteLoginAttemptRepo{db: dbtx}
}

func (r *SQLiteLoginAttemptRepo) Create(ctx context.Context, a *domain.LoginAttempt) error {
	query := `INSERT INTO login_attempts (id, ip_address, attempted_at, success)
		VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		a.ID,
		a.IPAddress,
		timeutil.FormatNaive(a.AttemptedAt),
		boolToInt(a.Success),
	)
	if err != nil {
		return fmt.Errorf("inserting login attempt: %w", err)
	}
	return nil
}

func (r *SQLiteLoginAttemptRepo) CountForIPSince(ctx context.Context, ip string, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM login_attempts
		WHERE ip_address = ? AND attempted_at >= ?`
	var count int
	err := r.db.QueryRowContext(ctx, query, ip, timeutil.FormatNaive(since)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting login attempts: %w", err)
	}
	return count, nil
}

func (r *SQLiteLoginAttemptRepo) CountFailedForIPSince(ctx context.Context, ip string, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM login_attempts
		WHERE ip_address = ? AND success = 0 AND attempted_at >= ?`
	var count int
	err := r.db.QueryRowContext(ctx, query, ip, timeutil.FormatNaive(since)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting failed login attempts: %w", err)
	}
	return count, nil
}

func (r *SQLiteLoginAttemptRepo) OldestFailedForIPSince(ctx context.Context, ip string, since time.Time) (*domain.LoginAttempt, error) {
	query := `SELECT id, ip_address, attempted_at, success FROM login_attempts
		WHERE ip_address = ? AND success = 0 AND attempted_at >= ?
		ORDER BY attempted_at ASC LIMIT 1`
	row := r.db.QueryRowContext(ctx, query, ip, timeutil.FormatNaive(since))

	var a domain.LoginAttempt
	var attemptedStr string
	var successInt int
	err := row.Scan(&a.ID, &a.IPAddress, &attemptedStr, &successInt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning login attempt: %w", err)
	}
	if a.AttemptedAt, err = timeutil.ParseNaive(attemptedStr); err != nil {
		return nil, fmt.Errorf("parsing attempted_at: %w", err)
	}
	a.Success = intToBool(successInt)
	return &a, nil
}

func (r *SQLiteLoginAttemptRepo) DeleteFailedForIP(ctx context.Context, ip string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM login_attempts WHERE ip_address = ? AND success = 0`, ip)
	if err != nil {
		return fmt.Errorf("clearing failed login attempts: %w", err)
	}
	return nil
}
