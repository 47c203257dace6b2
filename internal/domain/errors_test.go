package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBudgetExceededError_Message(t *testing.T) {
	err := &BudgetExceededError{
		Date:      "2026-01-05",
		Requested: decimal.RequireFromString("4"),
		Remaining: decimal.RequireFromString("3"),
	}
	assert.Equal(t, "cannot allocate 4.00 hours on 2026-01-05: only 3.00 hours remaining", err.Error())
}

func TestValidationError_Message(t *testing.T) {
	assert.Equal(t, "hours: must be positive", (&ValidationError{Field: "hours", Reason: "must be positive"}).Error())
	assert.Equal(t, "must be positive", (&ValidationError{Reason: "must be positive"}).Error())
}

func TestLockedOutError_Message(t *testing.T) {
	assert.Equal(t, "account locked, try again in 28 minutes", (&LockedOutError{MinutesRemaining: 28}).Error())
}

func TestSumHours(t *testing.T) {
	allocations := []*TimeAllocation{
		{Hours: decimal.RequireFromString("1.25")},
		{Hours: decimal.RequireFromString("2.5")},
	}
	assert.Equal(t, "3.75", SumHours(allocations).String())
	assert.True(t, SumHours(nil).IsZero())
}
