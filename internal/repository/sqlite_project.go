package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nwidmer/stempel/internal/db"
	"github.com/nwidmer/stempel/internal/domain"
	"github.com/nwidmer/stempel/internal/timeutil"
)

const projectColumns = `id, client_id, name, short_name, hourly_rate_override,
		hour_budget, is_active, is_archived, created_at, updated_at`

// SQLiteProjectRepo implements ProjectRepo over a SQLite database or
// transaction.
type SQLiteProjectRepo struct {
	db db.DBTX
}

// NewSQLiteProjectRepo creates a new SQLiteProjectRepo.
func NewSQLiteProjectRepo(dbtx db.DBTX) *SQLiteProjectRepo {
	return &SQLiteProjectRepo{db: dbtx}
}

func (r *SQLiteProjectRepo) Create(ctx context.Context, p *domain.Project) error {
	query := `INSERT INTO projects (` + projectColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.ClientID,
		p.Name,
		p.ShortName,
		nullableDecimalToString(p.HourlyRateOverride),
		nullableDecimalToString(p.HourBudget),
		boolToInt(p.IsActive),
		boolToInt(p.IsArchived),
		timeutil.FormatNaive(p.CreatedAt),
		timeutil.FormatNaive(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting project: %w", err)
	}
	return nil
}

func (r *SQLiteProjectRepo) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ?`
	p, err := scanProjectFrom(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("project: %w", ErrNotFound)
	}
	return p, err
}

func (r *SQLiteProjectRepo) List(ctx context.Context, includeArchived bool) ([]*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects`
	if !includeArchived {
		query += ` WHERE is_archived = 0`
	}
	query += ` ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()
	return collectProjects(rows)
}

func (r *SQLiteProjectRepo) ListByClient(ctx context.Context, clientID string) ([]*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE client_id = ? ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("listing projects by client: %w", err)
	}
	defer rows.Close()
	return collectProjects(rows)
}

func (r *SQLiteProjectRepo) Update(ctx context.Context, p *domain.Project) error {
	query := `UPDATE projects
		SET client_id = ?, name = ?, short_name = ?, hourly_rate_override = ?,
			hour_budget = ?, is_active = ?, is_archived = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		p.ClientID,
		p.Name,
		p.ShortName,
		nullableDecimalToString(p.HourlyRateOverride),
		nullableDecimalToString(p.HourBudget),
		boolToInt(p.IsActive),
		boolToInt(p.IsArchived),
		timeutil.FormatNaive(timeutil.NowNaive()),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating project: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("project %s: %w", p.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteProjectRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return nil
}

func collectProjects(rows *sql.Rows) ([]*domain.Project, error) {
	var projects []*domain.Project
	for rows.Next() {
		p, err := scanProjectFrom(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}
	return projects, nil
}

func scanProjectFrom(s rowScanner) (*domain.Project, error) {
	var p domain.Project
	var createdStr, updatedStr string
	var shortName, overrideStr, budgetStr sql.NullString
	var activeInt, archivedInt int

	err := s.Scan(&p.ID, &p.ClientID, &p.Name, &shortName, &overrideStr,
		&budgetStr, &activeInt, &archivedInt, &createdStr, &updatedStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning project: %w", err)
	}

	p.ShortName = shortName.String
	if p.HourlyRateOverride, err = parseNullableDecimal(overrideStr); err != nil {
		return nil, fmt.Errorf("parsing hourly_rate_override: %w", err)
	}
	if p.HourBudget, err = parseNullableDecimal(budgetStr); err != nil {
		return nil, fmt.Errorf("parsing hour_budget: %w", err)
	}
	p.IsActive = intToBool(activeInt)
	p.IsArchived = intToBool(archivedInt)
	if p.CreatedAt, err = timeutil.ParseNaive(createdStr); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if p.UpdatedAt, err = timeutil.ParseNaive(updatedStr); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &p, nil
}
