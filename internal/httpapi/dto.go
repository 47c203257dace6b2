package httpapi

import (
	"github.com/shopspring/decimal"

	"github.com/nwidmer/stempel/internal/domain"
	"github.com/nwidmer/stempel/internal/service"
	"github.com/nwidmer/stempel/internal/timeutil"
)

type sessionView struct {
	ID            string `json:"id"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	EndTime       *string `json:"end_time"`
	DurationHours string `json:"duration_hours"`
	IsActive      bool   `json:"is_active"`
}

func toSessionView(s *domain.WorkSession) sessionView {
	v := sessionView{
		ID:            s.ID,
		Date:          timeutil.FormatDate(s.Date),
		StartTime:     timeutil.FormatNaive(s.StartTime),
		DurationHours: s.DurationHours().StringFixed(2),
		IsActive:      s.Active(),
	}
	if s.EndTime != nil {
		end := timeutil.FormatNaive(*s.EndTime)
		v.EndTime = &end
	}
	return v
}

type daySessionsView struct {
	Sessions      []sessionView `json:"sessions"`
	TotalHours    string        `json:"total_hours"`
	ActiveSession *sessionView  `json:"active_session"`
}

func toDaySessionsView(d *service.DaySessions) daySessionsView {
	v := daySessionsView{
		Sessions:   make([]sessionView, 0, len(d.Sessions)),
		TotalHours: d.TotalHours.StringFixed(2),
	}
	for _, s := range d.Sessions {
		v.Sessions = append(v.Sessions, toSessionView(s))
	}
	if d.ActiveSession != nil {
		active := toSessionView(d.ActiveSession)
		v.ActiveSession = &active
	}
	return v
}

type allocationView struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	ProjectID string `json:"project_id"`
	Hours     string `json:"hours"`
	Notes     string `json:"notes"`
	CreatedAt string `json:"created_at"`
}

func toAllocationView(a *domain.TimeAllocation) allocationView {
	return allocationView{
		ID:        a.ID,
		Date:      timeutil.FormatDate(a.Date),
		ProjectID: a.ProjectID,
		Hours:     a.Hours.String(),
		Notes:     a.Notes,
		CreatedAt: timeutil.FormatNaive(a.CreatedAt),
	}
}

type dayAllocationsView struct {
	Allocations    []allocationView `json:"allocations"`
	TotalAllocated string           `json:"total_allocated"`
	TotalClocked   string           `json:"total_clocked"`
	Unallocated    string           `json:"unallocated"`
}

func toDayAllocationsView(d *service.DayAllocations) dayAllocationsView {
	v := dayAllocationsView{
		Allocations:    make([]allocationView, 0, len(d.Allocations)),
		TotalAllocated: d.TotalAllocated.StringFixed(2),
		TotalClocked:   d.TotalClocked.StringFixed(2),
		Unallocated:    d.Unallocated.StringFixed(2),
	}
	for _, a := range d.Allocations {
		v.Allocations = append(v.Allocations, toAllocationView(a))
	}
	return v
}

type clientView struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Currency          string  `json:"currency"`
	DefaultHourlyRate string  `json:"default_hourly_rate"`
	HourBudget        *string `json:"hour_budget"`
	IsActive          bool    `json:"is_active"`
	IsArchived        bool    `json:"is_archived"`
}

func toClientView(c *domain.Client) clientView {
	v := clientView{
		ID:                c.ID,
		Name:              c.Name,
		Currency:          string(c.Currency),
		DefaultHourlyRate: c.DefaultHourlyRate.String(),
		IsActive:          c.IsActive,
		IsArchived:        c.IsArchived,
	}
	if c.HourBudget != nil {
		budget := c.HourBudget.String()
		v.HourBudget = &budget
	}
	return v
}

type projectView struct {
	ID                 string  `json:"id"`
	ClientID           string  `json:"client_id"`
	Name               string  `json:"name"`
	ShortName          string  `json:"short_name"`
	HourlyRateOverride *string `json:"hourly_rate_override"`
	HourBudget         *string `json:"hour_budget"`
	IsActive           bool    `json:"is_active"`
	IsArchived         bool    `json:"is_archived"`
}

func toProjectView(p *domain.Project) projectView {
	v := projectView{
		ID:         p.ID,
		ClientID:   p.ClientID,
		Name:       p.Name,
		ShortName:  p.ShortName,
		IsActive:   p.IsActive,
		IsArchived: p.IsArchived,
	}
	if p.HourlyRateOverride != nil {
		rate := p.HourlyRateOverride.String()
		v.HourlyRateOverride = &rate
	}
	if p.HourBudget != nil {
		budget := p.HourBudget.String()
		v.HourBudget = &budget
	}
	return v
}

type dayTotalsView struct {
	Date        string `json:"date"`
	Clocked     string `json:"clocked"`
	Allocated   string `json:"allocated"`
	Unallocated string `json:"unallocated"`
}

func toDayTotalsView(d service.DayTotals) dayTotalsView {
	return dayTotalsView{
		Date:        timeutil.FormatDate(d.Date),
		Clocked:     d.Clocked.StringFixed(2),
		Allocated:   d.Allocated.StringFixed(2),
		Unallocated: d.Unallocated.StringFixed(2),
	}
}

type projectSummaryView struct {
	Project projectView `json:"project"`
	Hours   string      `json:"hours"`
	Rate    string      `json:"rate"`
	Amount  string      `json:"amount"`
}

type clientSummaryView struct {
	Client   clientView           `json:"client"`
	Projects []projectSummaryView `json:"projects"`
	Hours    string               `json:"hours"`
	Amount   string               `json:"amount"`
}

type summaryView struct {
	From    string              `json:"from"`
	To      string              `json:"to"`
	Clients []clientSummaryView `json:"clients"`
	Totals  map[string]string   `json:"totals"`
}

func toSummaryView(r *service.SummaryReport) summaryView {
	v := summaryView{
		From:    timeutil.FormatDate(r.From),
		To:      timeutil.FormatDate(r.To),
		Clients: make([]clientSummaryView, 0, len(r.Clients)),
		Totals:  make(map[string]string, len(r.Totals)),
	}
	for _, c := range r.Clients {
		cs := clientSummaryView{
			Client:   toClientView(c.Client),
			Projects: make([]projectSummaryView, 0, len(c.Projects)),
			Hours:    c.Hours.StringFixed(2),
			Amount:   c.Amount.StringFixed(2),
		}
		for _, p := range c.Projects {
			cs.Projects = append(cs.Projects, projectSummaryView{
				Project: toProjectView(p.Project),
				Hours:   p.Hours.StringFixed(2),
				Rate:    p.Rate.String(),
				Amount:  p.Amount.StringFixed(2),
			})
		}
		v.Clients = append(v.Clients, cs)
	}
	for currency, total := range r.Totals {
		v.Totals[string(currency)] = total.StringFixed(2)
	}
	return v
}

// parseDecimalField parses a required decimal from a request body.
func parseDecimalField(raw, field string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &domain.ValidationError{Field: field, Reason: "must be a decimal number"}
	}
	return d, nil
}
