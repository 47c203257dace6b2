package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Project is a unit of billable work under a client. Its hourly rate falls
// back to the client's default unless overridden.
type Project struct {
	ID                 string
	ClientID           string
	Name               string
	ShortName          string
	HourlyRateOverride *decimal.Decimal
	HourBudget         *decimal.Decimal
	IsActive           bool
	IsArchived         bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Validate checks the fields a project must carry before persisting.
func (p *Project) Validate() error {
	if p.Name == "" {
		return &ValidationError{Field: "name", Reason: "name is required"}
	}
	if p.ClientID == "" {
		return &ValidationError{Field: "client_id", Reason: "client_id is required"}
	}
	if p.HourlyRateOverride != nil && p.HourlyRateOverride.IsNegative() {
		return &ValidationError{Field: "hourly_rate_override", Reason: "hourly rate cannot be negative"}
	}
	return nil
}

// EffectiveRate returns the project's billing rate: the override when set,
// otherwise the owning client's default.
func (p *Project) EffectiveRate(c *Client) decimal.Decimal {
	if p.HourlyRateOverride != nil {
		return *p.HourlyRateOverride
	}
	return c.DefaultHourlyRate
}
