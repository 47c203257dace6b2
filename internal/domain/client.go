package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Currency string

const (
	CurrencyCHF Currency = "CHF"
	CurrencyEUR Currency = "EUR"
)

// ValidCurrencies is the canonical set of accepted billing currencies.
// Conversion between them is out of scope; each client bills in exactly one.
var ValidCurrencies = map[Currency]bool{
	CurrencyCHF: true,
	CurrencyEUR: true,
}

// Client is a billable customer. Rates and budgets are fixed-point decimals.
type Client struct {
	ID                string
	Name              string
	Currency          Currency
	DefaultHourlyRate decimal.Decimal
	HourBudget        *decimal.Decimal
	IsActive          bool
	IsArchived        bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Validate checks the fields a client must carry before persisting.
func (c *Client) Validate() error {
	if c.Name == "" {
		return &ValidationError{Field: "name", Reason: "name is required"}
	}
	if !ValidCurrencies[c.Currency] {
		return &ValidationError{Field: "currency", Reason: fmt.Sprintf("currency %q must be CHF or EUR", c.Currency)}
	}
	if c.DefaultHourlyRate.IsNegative() {
		return &ValidationError{Field: "default_hourly_rate", Reason: "hourly rate cannot be negative"}
	}
	return nil
}
