package panel

import (
	"time"

	"school-schedule/internal/model"
)

// CombinedPool returns the child's own items followed by the shared library. For
// SharedPool or an unknown child it is just the library.
func CombinedPool(snap model.Snapshot, child string) []model.Item {
	out := make([]model.Item, 0, len(snap.ItemLibrary))
	if c, ok := snap.FindChild(child); ok {
		out = append(out, c.Items...)
	}
	return append(out, snap.ItemLibrary...)
}

// PoolItems returns the items owned by one pool: a child's items, or the library for
// SharedPool.
func PoolItems(snap model.Snapshot, owner string) []model.Item {
	if owner == SharedPool {
		return append([]model.Item{}, snap.ItemLibrary...)
	}
	c, ok := snap.FindChild(owner)
	if !ok {
		return []model.Item{}
	}
	return append([]model.Item{}, c.Items...)
}

// ExistingIDs returns the IDs already taken in one pool.
func ExistingIDs(snap model.Snapshot, owner string) []string {
	items := PoolItems(snap, owner)
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

// resolveIDs maps ids through pool, first match wins. Unknown ids are dropped and
// order is preserved.
func resolveIDs(pool []model.Item, ids []string) []model.Item {
	byID := make(map[string]model.Item, len(pool))
	for _, it := range pool {
		if _, ok := byID[it.ID]; !ok {
			byID[it.ID] = it
		}
	}
	out := make([]model.Item, 0, len(ids))
	for _, id := range ids {
		if it, ok := byID[id]; ok {
			out = append(out, it)
		}
	}
	return out
}

// liveIDs keeps the ids that still resolve in child's combined pool, in order. A list
// written back to the host goes through it so stale references are dropped rather
// than resent.
func liveIDs(snap model.Snapshot, child string, ids []string) []string {
	return itemIDs(resolveIDs(CombinedPool(snap, child), ids))
}

func itemIDs(items []model.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

// without returns the pool items whose IDs are not in ids, in pool order.
func without(pool []model.Item, ids []string) []model.Item {
	skip := make(map[string]bool, len(ids))
	for _, id := range ids {
		skip[id] = true
	}
	out := make([]model.Item, 0, len(pool))
	for _, it := range pool {
		if !skip[it.ID] {
			out = append(out, it)
		}
	}
	return out
}

func weeklyIDs(snap model.Snapshot, child string, day model.Weekday) []string {
	c, ok := snap.FindChild(child)
	if !ok {
		return nil
	}
	return c.WeeklySchedule[day]
}

// ScheduledForDay returns the items on the child's weekly list for day. IDs that no
// longer resolve to an item are skipped.
func ScheduledForDay(snap model.Snapshot, child string, day model.Weekday) []model.Item {
	return resolveIDs(CombinedPool(snap, child), weeklyIDs(snap, child, day))
}

// AvailableForDay returns the pool items not on the raw weekly list for day. A stale
// scheduled ID still counts as scheduled.
func AvailableForDay(snap model.Snapshot, child string, day model.Weekday) []model.Item {
	return without(CombinedPool(snap, child), weeklyIDs(snap, child, day))
}

type UpcomingException struct {
	Date    string        `json:"date"`
	Weekday model.Weekday `json:"weekday"`
	Items   []model.Item  `json:"items"`
	// DayOff is set when the committed list is empty.
	DayOff bool `json:"day_off"`
}

// UpcomingExceptions returns the child's exceptions dated today or later, ascending.
func UpcomingExceptions(snap model.Snapshot, child string, today time.Time) []UpcomingException {
	c, ok := snap.FindChild(child)
	if !ok {
		return []UpcomingException{}
	}
	cutoff := model.FormatDate(today)
	pool := CombinedPool(snap, child)

	out := []UpcomingException{}
	for _, date := range c.ExceptionDates() {
		if date < cutoff {
			continue
		}
		ids := c.Exceptions[date]
		ue := UpcomingException{
			Date:   date,
			Items:  resolveIDs(pool, ids),
			DayOff: len(ids) == 0,
		}
		if t, err := model.ParseDate(date); err == nil {
			ue.Weekday = model.WeekdayOf(t)
		}
		out = append(out, ue)
	}
	return out
}

// ItemsForDate resolves the child's list for one calendar day. An exception for the
// date replaces the weekly list; fromException reports which one applied.
func ItemsForDate(snap model.Snapshot, child string, date time.Time) (items []model.Item, fromException bool) {
	c, ok := snap.FindChild(child)
	if !ok {
		return []model.Item{}, false
	}
	pool := CombinedPool(snap, child)
	if ids, ok := c.Exceptions[model.FormatDate(date)]; ok {
		return resolveIDs(pool, ids), true
	}
	return resolveIDs(pool, c.WeeklySchedule[model.WeekdayOf(date)]), false
}

// ShowingTomorrow reports whether now is at or past the switchover time. An
// unparseable switchover falls back to the default.
func ShowingTomorrow(now time.Time, switchover string) bool {
	h, m, err := model.ParseSwitchover(switchover)
	if err != nil {
		h, m, _ = model.ParseSwitchover(model.DefaultSwitchoverTime)
	}
	return now.Hour()*60+now.Minute() >= h*60+m
}

// DisplayDate is the day a summary should show: today, or tomorrow once the
// switchover time has passed.
func DisplayDate(now time.Time, switchover string) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if ShowingTomorrow(now, switchover) {
		return day.AddDate(0, 0, 1)
	}
	return day
}

type CalendarDay struct {
	Date      string        `json:"date"`
	Weekday   model.Weekday `json:"weekday"`
	Items     []model.Item  `json:"items"`
	Exception bool          `json:"exception"`
}

// CalendarRange resolves every day in [from, to]. Days with nothing to bring are
// skipped.
func CalendarRange(snap model.Snapshot, child string, from, to time.Time) []CalendarDay {
	out := []CalendarDay{}
	if !snap.HasChild(child) {
		return out
	}
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, to.Location())
	for !day.After(end) {
		items, exc := ItemsForDate(snap, child, day)
		if len(items) > 0 {
			out = append(out, CalendarDay{
				Date:      model.FormatDate(day),
				Weekday:   model.WeekdayOf(day),
				Items:     items,
				Exception: exc,
			})
		}
		day = day.AddDate(0, 0, 1)
	}
	return out
}
