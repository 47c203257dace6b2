package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nwidmer/stempel/internal/db"
	"github.com/nwidmer/stempel/internal/domain"
	"github.com/nwidmer/stempel/internal/timeutil"
)

const clientColumns = `id, name, currency, default_hourly_rate, hour_budget,
		is_active, is_archived, created_at, updated_at`

// SQLiteClientRepo implements ClientRepo over a SQLite database or transaction.
type SQLiteClientRepo struct {
	db db.DBTX
}

// NewSQLiteClientRepo creates a new SQLiteClientRepo.
func NewSQLiteClientRepo(dbtx db.DBTX) *SQLiteClientRepo {
	return &SQLiteClientRepo{db: dbtx}
}

func (r *SQLiteClientRepo) Create(ctx context.Context, c *domain.Client) error {
	query := `INSERT INTO clients (` + clientColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.Name,
		string(c.Currency),
		c.DefaultHourlyRate.String(),
		nullableDecimalToString(c.HourBudget),
		boolToInt(c.IsActive),
		boolToInt(c.IsArchived),
		timeutil.FormatNaive(c.CreatedAt),
		timeutil.FormatNaive(c.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting client: %w", err)
	}
	return nil
}

func (r *SQLiteClientRepo) GetByID(ctx context.Context, id string) (*domain.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = ?`
	return scanClient(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteClientRepo) List(ctx context.Context, includeArchived bool) ([]*domain.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients`
	if !includeArchived {
		query += ` WHERE is_archived = 0`
	}
	query += ` ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing clients: %w", err)
	}
	defer rows.Close()

	var clients []*domain.Client
	for rows.Next() {
		c, err := scanClientRow(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating clients: %w", err)
	}
	return clients, nil
}

func (r *SQLiteClientRepo) Update(ctx context.Context, c *domain.Client) error {
	query := `UPDATE clients
		SET name = ?, currency = ?, default_hourly_rate = ?, hour_budget = ?,
			is_active = ?, is_archived = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		c.Name,
		string(c.Currency),
		c.DefaultHourlyRate.String(),
		nullableDecimalToString(c.HourBudget),
		boolToInt(c.IsActive),
		boolToInt(c.IsArchived),
		timeutil.FormatNaive(timeutil.NowNaive()),
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("updating client: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating client: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("client %s: %w", c.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteClientRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting client: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting client: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("client %s: %w", id, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row *sql.Row) (*domain.Client, error) {
	c, err := scanClientFrom(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("client: %w", ErrNotFound)
	}
	return c, err
}

func scanClientRow(rows *sql.Rows) (*domain.Client, error) {
	return scanClientFrom(rows)
}

func scanClientFrom(s rowScanner) (*domain.Client, error) {
	var c domain.Client
	var currency, rateStr, createdStr, updatedStr string
	var budgetStr sql.NullString
	var activeInt, archivedInt int

	err := s.Scan(&c.ID, &c.Name, &currency, &rateStr, &budgetStr,
		&activeInt, &archivedInt, &createdStr, &updatedStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning client: %w", err)
	}

	c.Currency = domain.Currency(currency)
	if c.DefaultHourlyRate, err = parseDecimal(rateStr); err != nil {
		return nil, fmt.Errorf("parsing default_hourly_rate: %w", err)
	}
	if c.HourBudget, err = parseNullableDecimal(budgetStr); err != nil {
		return nil, fmt.Errorf("parsing hour_budget: %w", err)
	}
	c.IsActive = intToBool(activeInt)
	c.IsArchived = intToBool(archivedInt)
	if c.CreatedAt, err = timeutil.ParseNaive(createdStr); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if c.UpdatedAt, err = timeutil.ParseNaive(updatedStr); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &c, nil
}
