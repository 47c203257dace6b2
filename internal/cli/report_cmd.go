package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/nwidmer/stempel/internal/cli/formatter"
	"github.com/nwidmer/stempel/internal/config"
	"github.com/nwidmer/stempel/internal/db"
	"github.com/nwidmer/stempel/internal/repository"
	"github.com/nwidmer/stempel/internal/service"
	"github.com/nwidmer/stempel/internal/timeutil"
)

func newReportCmd() *cobra.Command {
	var fromFlag, toFlag string
	var daily bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the billing summary for a date range",
		Long:  "Prints allocated hours and billable amounts per client and project.\nDefaults to the current calendar month.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, fromFlag, toFlag, daily)
		},
	}

	cmd.Flags().StringVar(&fromFlag, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&toFlag, "to", "", "end date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&daily, "daily", false, "show clocked vs allocated hours per day instead of billing totals")
	return cmd
}

func runReport(cmd *cobra.Command, fromFlag, toFlag string, daily bool) error {
	now := timeutil.NowNaive()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)

	if fromFlag != "" {
		parsed, err := timeutil.ParseDate(fromFlag)
		if err != nil {
			return fmt.Errorf("invalid --from: %w", err)
		}
		from = parsed
	}
	if toFlag != "" {
		parsed, err := timeutil.ParseDate(toFlag)
		if err != nil {
			return fmt.Errorf("invalid --to: %w", err)
		}
		to = parsed
	}
	if to.Before(from) {
		return fmt.Errorf("--to must not be before --from")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	reports := service.NewReportService(
		repository.NewSQLiteWorkSessionRepo(database),
		repository.NewSQLiteAllocationRepo(database),
		repository.NewSQLiteClientRepo(database),
		repository.NewSQLiteProjectRepo(database),
	)

	out := cmd.OutOrStdout()
	styled := isatty.IsTerminal(os.Stdout.Fd())

	if daily {
		days, err := reports.DailySummary(cmd.Context(), from, to)
		if err != nil {
			return err
		}
		return printDaily(out, from, to, days, styled)
	}

	report, err := reports.Summary(cmd.Context(), from, to)
	if err != nil {
		return err
	}

	title := fmt.Sprintf("Billing %s – %s", timeutil.FormatDate(from), timeutil.FormatDate(to))
	if styled {
		fmt.Fprintln(out, formatter.Header(title))
	} else {
		fmt.Fprintln(out, title)
	}
	fmt.Fprintln(out)

	if len(report.Clients) == 0 {
		fmt.Fprintln(out, "No allocations in range.")
		return nil
	}

	var rows [][]string
	for _, client := range report.Clients {
		for _, project := range client.Projects {
			rows = append(rows, []string{
				client.Client.Name,
				project.Project.Name,
				project.Hours.StringFixed(2),
				project.Rate.String(),
				project.Amount.StringFixed(2) + " " + string(client.Client.Currency),
			})
		}
		rows = append(rows, []string{
			client.Client.Name,
			formatter.Bold("total"),
			client.Hours.StringFixed(2),
			"",
			formatter.Bold(client.Amount.StringFixed(2) + " " + string(client.Client.Currency)),
		})
	}
	fmt.Fprintln(out, formatter.RenderTable(
		[]string{"Client", "Project", "Hours", "Rate", "Amount"},
		rows,
	))

	for currency, total := range report.Totals {
		fmt.Fprintf(out, "Total %s: %s\n", currency, total.StringFixed(2))
	}
	return nil
}

func printDaily(out io.Writer, from, to time.Time, days []service.DayTotals, styled bool) error {
	title := fmt.Sprintf("Hours %s – %s", timeutil.FormatDate(from), timeutil.FormatDate(to))
	if styled {
		fmt.Fprintln(out, formatter.Header(title))
	} else {
		fmt.Fprintln(out, title)
	}
	fmt.Fprintln(out)

	if len(days) == 0 {
		fmt.Fprintln(out, "No hours in range.")
		return nil
	}

	var rows [][]string
	for _, day := range days {
		unallocated := day.Unallocated.StringFixed(2)
		if styled {
			unallocated = formatter.BalanceStyle(day.Unallocated).Render(unallocated)
		}
		rows = append(rows, []string{
			timeutil.FormatDate(day.Date),
			day.Clocked.StringFixed(2),
			day.Allocated.StringFixed(2),
			unallocated,
		})
	}
	fmt.Fprintln(out, formatter.RenderTable(
		[]string{"Date", "Clocked", "Allocated", "Unallocated"},
		rows,
	))
	return nil
}
