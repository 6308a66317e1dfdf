package cli

import (
	"github.com/spf13/cobra"

	"school-schedule/internal/model"
	"school-schedule/internal/panel"
)

func newScheduleCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Weekly schedule commands",
	}
	cmd.AddCommand(newScheduleShowCmd(app))
	cmd.AddCommand(newScheduleSetCmd(app))
	cmd.AddCommand(newScheduleEditCmd(app, "add", "Put an item on a day's list", appendID))
	cmd.AddCommand(newScheduleEditCmd(app, "remove", "Take an item off a day's list", dropID))
	return cmd
}

func newScheduleShowCmd(app *App) *cobra.Command {
	var child, day string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a child's weekly schedule (or one day with --day)",
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
			if day != "" {
				d, err := model.ParseWeekday(day)
				if err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, itemRows(panel.ScheduledForDay(snap, c.Name, d)))
			}
			rows := make(weekRows, 0, len(model.Weekdays))
			for _, d := range model.Weekdays {
				rows = append(rows, dayRow{Day: d, Items: panel.ScheduledForDay(snap, c.Name, d)})
			}
			return writeOut(cmd, app, rows)
		},
	}
	cmd.Flags().StringVar(&child, "child", "", "Child name")
	cmd.Flags().StringVar(&day, "day", "", "Weekday (monday..sunday)")
	_ = cmd.MarkFlagRequired("child")
	return cmd
}

func newScheduleSetCmd(app *App) *cobra.Command {
	var child, day string

	cmd := &cobra.Command{
		Use:   "set [item-id...]",
		Short: "Replace a day's list (no ids clears it)",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := model.ParseWeekday(day)
			if err != nil {
				return writeErr(cmd, err)
			}
			return apply(cmd, app, model.SetWeeklySchedule(child, d, args))
		},
	}
	cmd.Flags().StringVar(&child, "child", "", "Child name")
	cmd.Flags().StringVar(&day, "day", "", "Weekday (monday..sunday)")
	_ = cmd.MarkFlagRequired("child")
	_ = cmd.MarkFlagRequired("day")
	return cmd
}

func appendID(ids []string, id string) []string {
	for _, x := range ids {
		if x == id {
			return ids
		}
	}
	return append(append([]string{}, ids...), id)
}

func dropID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

// newScheduleEditCmd reads the day's current list, edits it and writes it back with
// set_weekly_schedule.
func newScheduleEditCmd(app *App, use, short string, edit func([]string, string) []string) *cobra.Command {
	var child, day string

	cmd := &cobra.Command{
		Use:   use + " <item-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := model.ParseWeekday(day)
			if err != nil {
				return writeErr(cmd, err)
			}
			snap, err := snapshot(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			c, err := requireChild(snap, child)
			if err != nil {
				return writeErr(cmd, err)
			}
			return apply(cmd, app, model.SetWeeklySchedule(c.Name, d, edit(c.WeeklySchedule[d], args[0])))
		},
	}
	cmd.Flags().StringVar(&child, "child", "", "Child name")
	cmd.Flags().StringVar(&day, "day", "", "Weekday (monday..sunday)")
	_ = cmd.MarkFlagRequired("child")
	_ = cmd.MarkFlagRequired("day")
	return cmd
}
