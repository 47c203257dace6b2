package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nwidmer/stempel/internal/timeutil"
)

// parseNullableNaive parses a sql.NullString into a *time.Time on the naive
// timeline. Returns nil if the value is NULL or empty.
func parseNullableNaive(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := timeutil.ParseNaive(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// nullableNaiveToString converts a *time.Time to a value suitable for SQLite
// storage. Returns nil (SQL NULL) if the pointer is nil.
func nullableNaiveToString(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return timeutil.FormatNaive(*t)
}

// parseDecimal parses a stored text value into a fixed-point decimal.
func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing decimal %q: %w", s, err)
	}
	return d, nil
}

// parseNullableDecimal parses a sql.NullString into a *decimal.Decimal.
// Returns nil if the value is NULL or empty.
func parseNullableDecimal(s sql.NullString) (*decimal.Decimal, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	d, err := parseDecimal(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// nullableDecimalToString converts a *decimal.Decimal to a value suitable for
// SQLite storage. Returns nil (SQL NULL) if the pointer is nil.
func nullableDecimalToString(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

// isNotFound reports whether err wraps ErrNotFound.
func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// boolToInt converts a Go bool to an integer (0 or 1) for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// intToBool converts a SQLite integer (0 or 1) to a Go bool.
func intToBool(i int) bool {
	return i != 0
}
