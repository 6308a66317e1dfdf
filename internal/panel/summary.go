package panel

import (
	"time"

	"school-schedule/internal/model"
)

// Summary is the household checklist for one display date.
type Summary struct {
	Date           string         `json:"display_date"`
	Weekday        model.Weekday  `json:"weekday"`
	Tomorrow       bool           `json:"is_tomorrow"`
	SwitchoverTime string         `json:"switchover_time"`
	Children       []ChildSummary `json:"children"`
}

type ChildSummary struct {
	Name      string       `json:"name"`
	Items     []model.Item `json:"items"`
	Exception bool         `json:"exception"`
	DayOff    bool         `json:"day_off"`
}

// Summarize builds the summary shown at now, honoring the switchover time.
func Summarize(snap model.Snapshot, now time.Time) Summary {
	s := SummarizeDate(snap, DisplayDate(now, snap.SwitchoverTime))
	s.Tomorrow = ShowingTomorrow(now, snap.SwitchoverTime)
	return s
}

// SummarizeDate builds the summary for a fixed date.
func SummarizeDate(snap model.Snapshot, date time.Time) Summary {
	switchover := snap.SwitchoverTime
	if switchover == "" {
		switchover = model.DefaultSwitchoverTime
	}
	out := Summary{
		Date:           model.FormatDate(date),
		Weekday:        model.WeekdayOf(date),
		SwitchoverTime: switchover,
		Children:       make([]ChildSummary, 0, len(snap.Children)),
	}
	for _, c := range snap.Children {
		items, exc := ItemsForDate(snap, c.Name, date)
		out.Children = append(out.Children, ChildSummary{
			Name:      c.Name,
			Items:     items,
			Exception: exc,
			DayOff:    exc && len(c.Exceptions[out.Date]) == 0,
		})
	}
	return out
}
