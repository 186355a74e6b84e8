package commands

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jakechorley/duty-scheduler/pkg/core/scheduler"
	"github.com/jakechorley/duty-scheduler/pkg/core/services"
)

// GenerateCmd creates the generate command
func GenerateCmd(app *AppContext) *cobra.Command {
	var (
		seed    string
		dryRun  bool
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "generate <start_month> [end_month]",
		Short: "Generate and balance the schedule for whole months (YYYY-MM)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := services.GenerateRequest{StartMonth: args[0], DryRun: dryRun}
			if len(args) == 2 {
				req.EndMonth = args[1]
			}
			if seed != "" {
				v, err := strconv.ParseUint(seed, 10, 64)
				if err != nil {
					return fmt.Errorf("seed must be a non-negative number: %w", err)
				}
				req.Seed = &v
			}

			result, err := services.GenerateSchedule(app.Ctx, app.Database, app.Cfg, app.Metrics, app.Logger, req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if result.Saved {
				fmt.Fprintf(out, "\n✓ Schedule saved!\n\n")
			} else {
				fmt.Fprintf(out, "\nDry run, nothing saved.\n\n")
			}
			fmt.Fprintf(out, "Run ID:   %s\n", result.RunID)
			fmt.Fprintf(out, "Range:    %s to %s\n", result.Start, result.End)
			fmt.Fprintf(out, "Seed:     %d\n", result.Seed)
			fmt.Fprintf(out, "Assigned: %d\n", result.Stats.Assigned)
			fmt.Fprintf(out, "Unfilled: %d\n", result.Stats.Unfilled)
			for _, pass := range slices.Sorted(maps.Keys(result.Stats.Swaps)) {
				fmt.Fprintf(out, "Swaps (%s): %d\n", pass, result.Stats.Swaps[pass])
			}
			fmt.Fprintln(out)

			printLog(out, result.Log, verbose)
			return nil
		},
	}

	cmd.Flags().StringVar(&seed, "seed", "", "Seed for reproducible tie-breaks")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run the scheduler without saving")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print info lines of the run log as well as warnings")
	return cmd
}

func printLog(out io.Writer, entries []scheduler.LogEntry, verbose bool) {
	var warnings int
	for _, e := range entries {
		if e.Level == scheduler.LevelWarn {
			warnings++
		}
	}
	if warnings > 0 {
		fmt.Fprintf(out, "⚠️  %d warnings:\n", warnings)
	}
	for _, e := range entries {
		if e.Level != scheduler.LevelWarn && !verbose {
			continue
		}
		fmt.Fprintf(out, "  %s\n", e)
	}
	if warnings > 0 || verbose {
		fmt.Fprintln(out)
	}
}
