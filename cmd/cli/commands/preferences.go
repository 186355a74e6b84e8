package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jakechorley/duty-scheduler/pkg/core/services"
)

// SetPreferenceCmd creates the setPreference command
func SetPreferenceCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "setPreference <employee_id> <true|false>",
		Short: "Set whether an employee prefers Saturday and Sunday of the same weekend together",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("employee_id must be a number: %w", err)
			}
			prefer, err := strconv.ParseBool(args[1])
			if err != nil {
				return fmt.Errorf("preference must be true or false: %w", err)
			}

			if err := services.SetDoubleDutyPreference(app.Ctx, app.Database, app.Logger, id, prefer); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Double duty preference for employee %d set to %t\n", id, prefer)
			return nil
		},
	}
}

// AddSpecialDateCmd creates the addSpecialDate command
func AddSpecialDateCmd(app *AppContext) *cobra.Command {
	var recurring bool

	cmd := &cobra.Command{
		Use:   "addSpecialDate <date> [description...]",
		Short: "Mark a date (YYYY-MM-DD) as a holiday",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			added, err := services.AddSpecialDate(app.Ctx, app.Database, app.Logger, args[0], strings.Join(args[1:], " "), recurring)
			if err != nil {
				return err
			}

			kind := "one-off"
			if added.Recurring {
				kind = "every year"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s added as a holiday (%s) %s\n", added.Date, kind, added.Description)
			return nil
		},
	}

	cmd.Flags().BoolVar(&recurring, "recurring", false, "Repeat on the same day and month every year")
	return cmd
}

// ListSpecialDatesCmd creates the listSpecialDates command
func ListSpecialDatesCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "listSpecialDates",
		Short: "List stored holidays",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dates, err := services.ListSpecialDates(app.Ctx, app.Database, app.Logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(dates) == 0 {
				fmt.Fprintln(out, "No special dates stored.")
				return nil
			}
			for _, d := range dates {
				date := d.Date
				if d.Recurring {
					date = "****" + date[4:]
				}
				fmt.Fprintf(out, "  %s  %s\n", date, d.Description)
			}
			return nil
		},
	}
}
