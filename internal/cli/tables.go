package cli

import (
	"strconv"
	"strings"
	"time"

	"school-schedule/internal/model"
	"school-schedule/internal/mutate"
	"school-schedule/internal/panel"
	"school-schedule/internal/store"
)

// Payload types with a table form for --format table. Their JSON matches the
// underlying model types.

type resultOut mutate.Result

func (r resultOut) Table() ([]string, [][]string) {
	return []string{"OP", "CHILD", "RESULT"}, [][]string{{string(r.Op), r.Subject, r.Summary}}
}

type childRow struct {
	Name       string `json:"name"`
	Items      int    `json:"items"`
	Exceptions int    `json:"exceptions"`
}

type childRows []childRow

func (rs childRows) Table() ([]string, [][]string) {
	out := make([][]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, []string{r.Name, strconv.Itoa(r.Items), strconv.Itoa(r.Exceptions)})
	}
	return []string{"NAME", "ITEMS", "EXCEPTIONS"}, out
}

type itemRows []model.Item

func (rs itemRows) Table() ([]string, [][]string) {
	out := make([][]string, 0, len(rs))
	for _, it := range rs {
		out = append(out, []string{it.ID, it.Name, it.Image})
	}
	return []string{"ID", "NAME", "IMAGE"}, out
}

func itemNames(items []model.Item) string {
	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Name)
	}
	return strings.Join(names, ", ")
}

type dayRow struct {
	Day   model.Weekday `json:"day"`
	Items []model.Item  `json:"items"`
}

type weekRows []dayRow

func (rs weekRows) Table() ([]string, [][]string) {
	out := make([][]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, []string{r.Day.Title(), itemNames(r.Items)})
	}
	return []string{"DAY", "ITEMS"}, out
}

type exceptionRows []panel.UpcomingException

func (rs exceptionRows) Table() ([]string, [][]string) {
	out := make([][]string, 0, len(rs))
	for _, r := range rs {
		items := itemNames(r.Items)
		if r.DayOff {
			items = "(day off)"
		}
		out = append(out, []string{r.Date, r.Weekday.Title(), items})
	}
	return []string{"DATE", "DAY", "ITEMS"}, out
}

type calendarRows []panel.CalendarDay

func (rs calendarRows) Table() ([]string, [][]string) {
	out := make([][]string, 0, len(rs))
	for _, r := range rs {
		src := "weekly"
		if r.Exception {
			src = "exception"
		}
		out = append(out, []string{r.Date, r.Weekday.Title(), itemNames(r.Items), src})
	}
	return []string{"DATE", "DAY", "ITEMS", "FROM"}, out
}

type summaryOut panel.Summary

func (s summaryOut) Table() ([]string, [][]string) {
	out := make([][]string, 0, len(s.Children))
	for _, c := range s.Children {
		items := itemNames(c.Items)
		switch {
		case c.DayOff:
			items = "(day off)"
		case items == "":
			items = "(nothing)"
		}
		out = append(out, []string{c.Name, items})
	}
	return []string{"CHILD", s.Weekday.Title() + " " + s.Date}, out
}

type logRows []store.LogEntry

func (rs logRows) Table() ([]string, [][]string) {
	out := make([][]string, 0, len(rs))
	for _, e := range rs {
		out = append(out, []string{e.IssuedAt.Local().Format(time.DateTime), string(e.Op), e.Subject, e.Error})
	}
	return []string{"TIME", "OP", "CHILD", "ERROR"}, out
}
