package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimeAllocation assigns a number of clocked hours on a date to a project.
// Hours are fixed-point with two decimals; the sum allocated to a date never
// exceeds the hours clocked on that date.
type TimeAllocation struct {
	ID        string
	Date      time.Time
	ProjectID string
	Hours     decimal.Decimal
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SumHours totals the hours of a set of allocations.
func SumHours(allocations []*TimeAllocation) decimal.Decimal {
	total := decimal.Zero
	for _, a := range allocations {
		total = total.Add(a.Hours)
	}
	return total
}
