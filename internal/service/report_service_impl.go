package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nwidmer/stempel/internal/domain"
	"github.com/nwidmer/stempel/internal/repository"
	"github.com/nwidmer/stempel/internal/timeutil"
)

type reportService struct {
	sessions    repository.WorkSessionRepo
	allocations repository.AllocationRepo
	clients     repository.ClientRepo
	projects    repository.ProjectRepo
}

// NewReportService creates the read-only billing aggregator.
func NewReportService(sessions repository.WorkSessionRepo, allocations repository.AllocationRepo, clients repository.ClientRepo, projects repository.ProjectRepo) ReportService {
	return &reportService{
		sessions:    sessions,
		allocations: allocations,
		clients:     clients,
		projects:    projects,
	}
}

func (s *reportService) Summary(ctx context.Context, from, to time.Time) (*SummaryReport, error) {
	from = timeutil.DateOf(timeutil.EnsureNaive(from))
	to = timeutil.DateOf(timeutil.EnsureNaive(to))

	allocations, err := s.allocations.ListByDateRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	hoursByProject := make(map[string]decimal.Decimal)
	for _, a := range allocations {
		hoursByProject[a.ProjectID] = hoursByProject[a.ProjectID].Add(a.Hours)
	}

	clients, err := s.clients.List(ctx, true)
	if err != nil {
		return nil, err
	}

	report := &SummaryReport{
		From:   from,
		To:     to,
		Totals: make(map[domain.Currency]decimal.Decimal),
	}

	for _, client := range clients {
		projects, err := s.projects.ListByClient(ctx, client.ID)
		if err != nil {
			return nil, err
		}

		summary := ClientSummary{Client: client, Hours: decimal.Zero, Amount: decimal.Zero}
		for _, project := range projects {
			hours, ok := hoursByProject[project.ID]
			if !ok || hours.IsZero() {
				continue
			}
			rate := project.EffectiveRate(client)
			amount := hours.Mul(rate).Round(2)
			summary.Projects = append(summary.Projects, ProjectSummary{
				Project: project,
				Hours:   hours,
				Rate:    rate,
				Amount:  amount,
			})
			summary.Hours = summary.Hours.Add(hours)
			summary.Amount = summary.Amount.Add(amount)
		}
		if len(summary.Projects) == 0 {
			continue
		}
		report.Clients = append(report.Clients, summary)
		report.Totals[client.Currency] = report.Totals[client.Currency].Add(summary.Amount)
	}

	return report, nil
}

func (s *reportService) DailySummary(ctx context.Context, from, to time.Time) ([]DayTotals, error) {
	from = timeutil.DateOf(timeutil.EnsureNaive(from))
	to = timeutil.DateOf(timeutil.EnsureNaive(to))

	sessions, err := s.sessions.ListByDateRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	allocations, err := s.allocations.ListByDateRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	clockedByDate := make(map[string]decimal.Decimal)
	for _, sess := range sessions {
		key := timeutil.FormatDate(sess.Date)
		clockedByDate[key] = clockedByDate[key].Add(sess.DurationHours())
	}
	allocatedByDate := make(map[string]decimal.Decimal)
	for _, a := range allocations {
		key := timeutil.FormatDate(a.Date)
		allocatedByDate[key] = allocatedByDate[key].Add(a.Hours)
	}

	var days []DayTotals
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		key := timeutil.FormatDate(d)
		clocked := clockedByDate[key]
		allocated := allocatedByDate[key]
		if clocked.IsZero() && allocated.IsZero() {
			continue
		}
		days = append(days, DayTotals{
			Date:        d,
			Clocked:     clocked,
			Allocated:   allocated,
			Unallocated: clocked.Sub(allocated),
		})
	}
	return days, nil
}

func (s *reportService) Calendar(ctx context.Context, year int, month time.Month) ([]DayTotals, error) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	days, err := s.DailySummary(ctx, first, last)
	if err != nil {
		return nil, err
	}

	// The calendar view carries every day of the month, including empty ones.
	byDate := make(map[string]DayTotals, len(days))
	for _, d := range days {
		byDate[timeutil.FormatDate(d.Date)] = d
	}
	var out []DayTotals
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		if entry, ok := byDate[timeutil.FormatDate(d)]; ok {
			out = append(out, entry)
			continue
		}
		out = append(out, DayTotals{Date: d, Clocked: decimal.Zero, Allocated: decimal.Zero, Unallocated: decimal.Zero})
	}
	return out, nil
}
