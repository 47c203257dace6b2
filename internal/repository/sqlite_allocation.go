package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nwidmer/stempel/internal/db"
	"github.com/nwidmer/stempel/internal/domain"
	"github.com/nwidmer/stempel/internal/timeutil"
)

const allocationColumns = `id, date, project_id, hours, notes, created_at, updated_at`

// SQLiteAllocationRepo implements AllocationRepo over a SQLite database or
// transaction.
type SQLiteAllocationRepo struct {
	db db.DBTX
}

// NewSQLiteAllocationRepo creates a new SQLiteAllocationRepo.
func NewSQLiteAllocationRepo(dbtx db.DBTX) *SQLiteAllocationRepo {
	return &SQLiteAllocationRepo{db: dbtx}
}

func (r *SQLiteAllocationRepo) Create(ctx context.Context, a *domain.TimeAllocation) error {
	query := `INSERT INTO time_allocations (` + allocationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		a.ID,
		timeutil.FormatDate(a.Date),
		a.ProjectID,
		a.Hours.String(),
		a.Notes,
		timeutil.FormatNaive(a.CreatedAt),
		timeutil.FormatNaive(a.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting time allocation: %w", err)
	}
	return nil
}

func (r *SQLiteAllocationRepo) GetByID(ctx context.Context, id string) (*domain.TimeAllocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM time_allocations WHERE id = ?`
	return r.scanAllocation(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteAllocationRepo) ListByDate(ctx context.Context, date time.Time) ([]*domain.TimeAllocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM time_allocations
		WHERE date = ? ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, timeutil.FormatDate(date))
	if err != nil {
		return nil, fmt.Errorf("listing allocations by date: %w", err)
	}
	defer rows.Close()
	return r.scanAllocations(rows)
}

func (r *SQLiteAllocationRepo) ListByDateRange(ctx context.Context, from, to time.Time) ([]*domain.TimeAllocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM time_allocations
		WHERE date >= ? AND date <= ? ORDER BY date, created_at, id`
	rows, err := r.db.QueryContext(ctx, query, timeutil.FormatDate(from), timeutil.FormatDate(to))
	if err != nil {
		return nil, fmt.Errorf("listing allocations by date range: %w", err)
	}
	defer rows.Close()
	return r.scanAllocations(rows)
}

// SumHoursByDate totals allocated hours for a date. The sum runs in Go over
// decimal values rather than SQL SUM so fixed-point semantics hold.
func (r *SQLiteAllocationRepo) SumHoursByDate(ctx context.Context, date time.Time) (decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT hours FROM time_allocations WHERE date = ?`, timeutil.FormatDate(date))
	if err != nil {
		return decimal.Zero, fmt.Errorf("summing allocations by date: %w", err)
	}
	defer rows.Close()
	return sumHourRows(rows)
}

func (r *SQLiteAllocationRepo) SumHoursByProject(ctx context.Context, projectID string) (decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT hours FROM time_allocations WHERE project_id = ?`, projectID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("summing allocations by project: %w", err)
	}
	defer rows.Close()
	return sumHourRows(rows)
}

func (r *SQLiteAllocationRepo) Update(ctx context.Context, a *domain.TimeAllocation) error {
	query := `UPDATE time_allocations
		SET date = ?, project_id = ?, hours = ?, notes = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		timeutil.FormatDate(a.Date),
		a.ProjectID,
		a.Hours.String(),
		a.Notes,
		timeutil.FormatNaive(timeutil.NowNaive()),
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("updating time allocation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating time allocation: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("time allocation %s: %w", a.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteAllocationRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM time_allocations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting time allocation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting time allocation: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("time allocation %s: %w", id, ErrNotFound)
	}
	return nil
}

func sumHourRows(rows *sql.Rows) (decimal.Decimal, error) {
	total := decimal.Zero
	for rows.Next() {
		var hoursStr string
		if err := rows.Scan(&hoursStr); err != nil {
			return decimal.Zero, fmt.Errorf("scanning hours: %w", err)
		}
		h, err := parseDecimal(hoursStr)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(h)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("iterating hours: %w", err)
	}
	return total, nil
}

func (r *SQLiteAllocationRepo) scanAllocation(row *sql.Row) (*domain.TimeAllocation, error) {
	var a domain.TimeAllocation
	var dateStr, hoursStr, createdStr, updatedStr string

	err := row.Scan(&a.ID, &dateStr, &a.ProjectID, &hoursStr, &a.Notes, &createdStr, &updatedStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("time allocation: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning time allocation: %w", err)
	}
	return populateAllocation(&a, dateStr, hoursStr, createdStr, updatedStr)
}

func (r *SQLiteAllocationRepo) scanAllocations(rows *sql.Rows) ([]*domain.TimeAllocation, error) {
	var allocations []*domain.TimeAllocation
	for rows.Next() {
		var a domain.TimeAllocation
		var dateStr, hoursStr, createdStr, updatedStr string

		if err := rows.Scan(&a.ID, &dateStr, &a.ProjectID, &hoursStr, &a.Notes, &createdStr, &updatedStr); err != nil {
			return nil, fmt.Errorf("scanning allocation row: %w", err)
		}
		allocation, err := populateAllocation(&a, dateStr, hoursStr, createdStr, updatedStr)
		if err != nil {
			return nil, err
		}
		allocations = append(allocations, allocation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating allocations: %w", err)
	}
	return allocations, nil
}

func populateAllocation(a *domain.TimeAllocation, dateStr, hoursStr, createdStr, updatedStr string) (*domain.TimeAllocation, error) {
	var err error
	if a.Date, err = timeutil.ParseDate(dateStr); err != nil {
		return nil, fmt.Errorf("parsing date: %w", err)
	}
	if a.Hours, err = parseDecimal(hoursStr); err != nil {
		return nil, fmt.Errorf("parsing hours: %w", err)
	}
	if a.CreatedAt, err = timeutil.ParseNaive(createdStr); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if a.UpdatedAt, err = timeutil.ParseNaive(updatedStr); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return a, nil
}
