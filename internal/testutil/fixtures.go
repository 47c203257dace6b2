package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nwidmer/stempel/internal/domain"
	"github.com/nwidmer/stempel/internal/timeutil"
)

// MustNaive parses a naive local timestamp, panicking on malformed input.
// Intended for test fixtures only.
func MustNaive(s string) time.Time {
	t, err := timeutil.ParseNaive(s)
	if err != nil {
		panic(err)
	}
	return t
}

// MustDate parses a YYYY-MM-DD date, panicking on malformed input.
func MustDate(s string) time.Time {
	d, err := timeutil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// MustDecimal parses a decimal literal, panicking on malformed input.
func MustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Client options
type ClientOption func(*domain.Client)

func WithCurrency(c domain.Currency) ClientOption {
	return func(cl *domain.Client) {
		cl.Currency = c
	}
}

func WithHourlyRate(rate string) ClientOption {
	return func(cl *domain.Client) {
		cl.DefaultHourlyRate = MustDecimal(rate)
	}
}

func WithClientBudget(hours string) ClientOption {
	return func(cl *domain.Client) {
		budget := MustDecimal(hours)
		cl.HourBudget = &budget
	}
}

func WithClientArchived() ClientOption {
	return func(cl *domain.Client) {
		cl.IsArchived = true
	}
}

func NewTestClient(name string, opts ...ClientOption) *domain.Client {
	now := timeutil.NowNaive()
	c := &domain.Client{
		ID:                uuid.New().String(),
		Name:              name,
		Currency:          domain.CurrencyCHF,
		DefaultHourlyRate: MustDecimal("100"),
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Project options
type ProjectOption func(*domain.Project)

func WithRateOverride(rate string) ProjectOption {
	return func(p *domain.Project) {
		override := MustDecimal(rate)
		p.HourlyRateOverride = &override
	}
}

func WithProjectBudget(hours string) ProjectOption {
	return func(p *domain.Project) {
		budget := MustDecimal(hours)
		p.HourBudget = &budget
	}
}

func WithShortName(short string) ProjectOption {
	return func(p *domain.Project) {
		p.ShortName = short
	}
}

func WithProjectArchived() ProjectOption {
	return func(p *domain.Project) {
		p.IsArchived = true
	}
}

func NewTestProject(clientID, name string, opts ...ProjectOption) *domain.Project {
	now := timeutil.NowNaive()
	p := &domain.Project{
		ID:        uuid.New().String(),
		ClientID:  clientID,
		Name:      name,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WorkSession options
type SessionOption func(*domain.WorkSession)

func WithSessionID(id string) SessionOption {
	return func(s *domain.WorkSession) {
		s.ID = id
	}
}

// NewTestSession builds a session on the given date. An empty end leaves the
// session active.
func NewTestSession(date, start, end string, opts ...SessionOption) *domain.WorkSession {
	now := timeutil.NowNaive()
	s := &domain.WorkSession{
		ID:        uuid.New().String(),
		Date:      MustDate(date),
		StartTime: MustNaive(start),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if end != "" {
		endTime := MustNaive(end)
		s.EndTime = &endTime
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TimeAllocation options
type AllocationOption func(*domain.TimeAllocation)

func WithNotes(notes string) AllocationOption {
	return func(a *domain.TimeAllocation) {
		a.Notes = notes
	}
}

func NewTestAllocation(date, projectID, hours string, opts ...AllocationOption) *domain.TimeAllocation {
	now := timeutil.NowNaive()
	a := &domain.TimeAllocation{
		ID:        uuid.New().String(),
		Date:      MustDate(date),
		ProjectID: projectID,
		Hours:     MustDecimal(hours),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewTestAttempt builds a login attempt record.
func NewTestAttempt(ip string, at time.Time, success bool) *domain.LoginAttempt {
	return &domain.LoginAttempt{
		ID:          uuid.New().String(),
		IPAddress:   ip,
		AttemptedAt: at,
		Success:     success,
	}
}
