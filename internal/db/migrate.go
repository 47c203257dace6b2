package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// migrations is the ordered list of schema statements. The list is re-run on
// every startup; statements must therefore be idempotent (IF NOT EXISTS) or
// tolerate duplicates.
//
// Dates are stored as YYYY-MM-DD text; timestamps as naive local
// YYYY-MM-DDTHH:MM:SS text with no zone. Hours and rates are stored as text
// to round-trip fixed-point decimals without float drift.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS clients (
		id                  TEXT PRIMARY KEY,
		name                TEXT NOT NULL,
		currency            TEXT NOT NULL CHECK(currency IN ('CHF','EUR')),
		default_hourly_rate TEXT NOT NULL,
		hour_budget         TEXT,
		is_active           INTEGER NOT NULL DEFAULT 1,
		is_archived         INTEGER NOT NULL DEFAULT 0,
		created_at          TEXT NOT NULL,
		updated_at          TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_clients_active ON clients(is_active, is_archived)`,

	`CREATE TABLE IF NOT EXISTS projects (
		id                   TEXT PRIMARY KEY,
		client_id            TEXT NOT NULL REFERENCES clients(id),
		name                 TEXT NOT NULL,
		short_name           TEXT,
		hourly_rate_override TEXT,
		hour_budget          TEXT,
		is_active            INTEGER NOT NULL DEFAULT 1,
		is_archived          INTEGER NOT NULL DEFAULT 0,
		created_at           TEXT NOT NULL,
		updated_at           TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_projects_client ON projects(client_id)`,
	`CREATE INDEX IF NOT EXISTS idx_projects_active ON projects(is_active, is_archived)`,

	`CREATE TABLE IF NOT EXISTS work_sessions (
		id         TEXT PRIMARY KEY,
		date       TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time   TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_date ON work_sessions(date)`,

	`CREATE TABLE IF NOT EXISTS time_allocations (
		id         TEXT PRIMARY KEY,
		date       TEXT NOT NULL,
		project_id TEXT NOT NULL REFERENCES projects(id),
		hours      TEXT NOT NULL,
		notes      TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_allocations_date ON time_allocations(date)`,
	`CREATE INDEX IF NOT EXISTS idx_allocations_project ON time_allocations(project_id)`,

	`CREATE TABLE IF NOT EXISTS login_attempts (
		id           TEXT PRIMARY KEY,
		ip_address   TEXT NOT NULL,
		attempted_at TEXT NOT NULL,
		success      INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_login_attempts_ip_time ON login_attempts(ip_address, attempted_at)`,
}

// Migrate runs all schema migrations.
func Migrate(database *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := database.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
