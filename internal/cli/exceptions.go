package cli

import (
	"sort"
	"time"

	"github.com/spf13/cobra"

	"school-schedule/internal/model"
	"school-schedule/internal/panel"
)

func newExceptionsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exceptions",
		Short: "Date-specific lists that replace the weekly schedule",
	}
	cmd.AddCommand(newExceptionsListCmd(app))
	cmd.AddCommand(newExceptionsSetCmd(app))
	cmd.AddCommand(newExceptionsRemoveCmd(app))
	return cmd
}

func newExceptionsListCmd(app *App) *cobra.Command {
	var child string
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List upcoming exceptions (today and later)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := snapshot(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			c, err := requireChild(snap, child)
			if err != nil {
				return writeErr(cmd, err)
			}
			if !all {
				return writeOut(cmd, app, exceptionRows(panel.UpcomingExceptions(snap, c.Name, time.Now())))
			}

			dates := make([]string, 0, len(c.Exceptions))
			for d := range c.Exceptions {
				dates = append(dates, d)
			}
			sort.Strings(dates)
			rows := make(exceptionRows, 0, len(dates))
			for _, d := range dates {
				t, err := model.ParseDate(d)
				if err != nil {
					continue
				}
				items, _ := panel.ItemsForDate(snap, c.Name, t)
				rows = append(rows, panel.UpcomingException{
					Date:    d,
					Weekday: model.WeekdayOf(t),
					Items:   items,
					DayOff:  len(c.Exceptions[d]) == 0,
				})
			}
			return writeOut(cmd, app, rows)
		},
	}
	cmd.Flags().StringVar(&child, "child", "", "Child name")
	cmd.Flags().BoolVar(&all, "all", false, "Include past exceptions")
	_ = cmd.MarkFlagRequired("child")
	return cmd
}

func newExceptionsSetCmd(app *App) *cobra.Command {
	var child, date string

	cmd := &cobra.Command{
		Use:   "set [item-id...]",
		Short: "Set the list for one date (no ids marks a day off)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return apply(cmd, app, model.AddException(child, date, args))
		},
	}
	cmd.Flags().StringVar(&child, "child", "", "Child name")
	cmd.Flags().StringVar(&date, "date", "", "Date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("child")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func newExceptionsRemoveCmd(app *App) *cobra.Command {
	var child, date string

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove the exception for one date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return apply(cmd, app, model.RemoveException(child, date))
		},
	}
	cmd.Flags().StringVar(&child, "child", "", "Child name")
	cmd.Flags().StringVar(&date, "date", "", "Date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("child")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}
