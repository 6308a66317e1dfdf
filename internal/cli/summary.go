package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"school-schedule/internal/format"
	"school-schedule/internal/model"
	"school-schedule/internal/panel"
)

// maxCalendarDays bounds calendar ranges.
const maxCalendarDays = 366

func newSummaryCmd(app *App) *cobra.Command {
	var date string
	var width int

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "What each child needs to bring (today, or tomorrow after the switchover time)",
		Example: `  school-schedule summary
  school-schedule summary --date 2025-03-12 --format md
  school-schedule summary --format table`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := snapshot(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			var s panel.Summary
			if date != "" {
				t, err := model.ParseDate(date)
				if err != nil {
					return writeErr(cmd, err)
				}
				s = panel.SummarizeDate(snap, t)
			} else {
				s = panel.Summarize(snap, time.Now())
			}

			if app.Format == "md" {
				out := format.RenderMarkdown(format.SummaryMarkdown(s), markdownStyle(), width)
				_, err := fmt.Fprintln(cmd.OutOrStdout(), out)
				return err
			}
			return writeOut(cmd, app, summaryOut(s))
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Date to summarize (YYYY-MM-DD, default: display date)")
	cmd.Flags().IntVar(&width, "width", 80, "Wrap width for --format md")
	return cmd
}

// markdownStyle picks a glamour style for stdout: plain when it is not a terminal.
func markdownStyle() string {
	if color.NoColor {
		return "notty"
	}
	if termenv.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

func newCalendarCmd(app *App) *cobra.Command {
	var child, from, to string

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Resolved lists for each day in a date range (days with nothing are skipped)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			if from != "" {
				t, err := model.ParseDate(from)
				if err != nil {
					return writeErr(cmd, err)
				}
				start = t
			}
			end := start.AddDate(0, 0, 6)
			if to != "" {
				t, err := model.ParseDate(to)
				if err != nil {
					return writeErr(cmd, err)
				}
				end = t
			}
			if end.Before(start) {
				return writeErr(cmd, errors.New("--to is before --from"))
			}
			if end.Sub(start) > maxCalendarDays*24*time.Hour {
				return writeErr(cmd, fmt.Errorf("range too long (max %d days)", maxCalendarDays))
			}

			snap, err := snapshot(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			c, err := requireChild(snap, child)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, calendarRows(panel.CalendarRange(snap, c.Name, start, end)))
		},
	}
	cmd.Flags().StringVar(&child, "child", "", "Child name")
	cmd.Flags().StringVar(&from, "from", "", "First date (YYYY-MM-DD, default: today)")
	cmd.Flags().StringVar(&to, "to", "", "Last date (YYYY-MM-DD, default: a week from --from)")
	_ = cmd.MarkFlagRequired("child")
	return cmd
}

type switchoverOut struct {
	SwitchoverTime string `json:"switchover_time"`
}

func (s switchoverOut) Table() ([]string, [][]string) {
	return []string{"SWITCHOVER"}, [][]string{{s.SwitchoverTime}}
}

func newSwitchoverCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "switchover",
		Short: "Time of day after which the summary shows tomorrow",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the switchover time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := snapshot(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			t := snap.SwitchoverTime
			if t == "" {
				t = model.DefaultSwitchoverTime
			}
			return writeOut(cmd, app, switchoverOut{SwitchoverTime: t})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <HH:MM>",
		Short: "Set the switchover time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return apply(cmd, app, model.Command{Op: model.OpSetSwitchoverTime, Time: args[0]})
		},
	})
	return cmd
}

func newLogCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Recent commands applied to the store, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.store()
			if err != nil {
				return writeErr(cmd, err)
			}
			entries, err := s.Log(ctxOf(cmd), limit)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, logRows(entries))
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "Max entries")
	return cmd
}
