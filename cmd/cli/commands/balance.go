package commands

import (
	"fmt"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jakechorley/duty-scheduler/pkg/core/scheduler"
	"github.com/jakechorley/duty-scheduler/pkg/core/services"
	"github.com/jakechorley/duty-scheduler/pkg/db"
)

// BalanceCmd creates the balance command
func BalanceCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "balance [start_month] [end_month]",
		Short: "Show per-employee duty totals, optionally limited to a month range",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var start, end string
			if len(args) > 0 {
				start = args[0]
			}
			if len(args) > 1 {
				end = args[1]
			}

			report, err := services.BalanceReport(app.Ctx, app.Database, app.Cfg, app.Logger, start, end)
			if err != nil {
				return err
			}

			duties, err := app.Database.ListDuties(app.Ctx)
			if err != nil {
				return fmt.Errorf("failed to fetch duties: %w", err)
			}
			slices.SortFunc(duties, func(a, b db.Duty) int { return a.ID - b.ID })

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprint(tw, "Employee\tTotal\tEffective\tWeekend\tOff-balance")
			for _, d := range duties {
				fmt.Fprintf(tw, "\t%s", d.Name)
			}
			fmt.Fprintln(tw)

			for _, row := range report.Rows {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d", row.Name, row.Total, row.EffectiveTotal, row.WeekendScore, row.OffBalance)
				for _, d := range duties {
					fmt.Fprintf(tw, "\t%d", row.DutyCounts[scheduler.DutyID(d.ID)])
				}
				fmt.Fprintln(tw)
			}
			return tw.Flush()
		},
	}
}
