package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/duty-scheduler/pkg/core/services"
)

// PublishCmd creates the publish command
func PublishCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "publish <start_month> [end_month]",
		Short: "Write the stored schedule for whole months to the rota spreadsheet",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			end := ""
			if len(args) == 2 {
				end = args[1]
			}
			if app.NewPublisher == nil {
				return fmt.Errorf("publishing is not configured")
			}

			publisher, err := app.NewPublisher(app.Ctx)
			if err != nil {
				return fmt.Errorf("failed to connect to sheets: %w", err)
			}

			published, err := services.PublishSchedule(app.Ctx, app.Database, publisher, app.Cfg, app.Logger, args[0], end)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Schedule published!\n\nTab:     %s\nDays:    %d\nColumns: %d\n\n",
				published.TabTitle(), len(published.Rows), len(published.Columns))
			return nil
		},
	}
}
