package panel

import (
	"strings"
	"time"

	"school-schedule/internal/model"
)

// View is the projection surfaces draw. The tab body is rebuilt on every
// reconciliation; the chrome fields (Flash, Confirm, Busy) are filled live by
// Controller.View.
type View struct {
	Tab      Tab
	Children []string
	Child    string
	Day      model.Weekday

	// Missing is set when the snapshot source is unavailable. No body is rendered.
	Missing string
	// Loading is set until the first snapshot arrives.
	Loading bool

	ChildrenBody   *ChildrenBody
	ItemsBody      *ItemsBody
	ScheduleBody   *ScheduleBody
	ExceptionsBody *ExceptionsBody

	Flash   *Flash
	Confirm *Confirm
	Busy    bool
}

type ChildRow struct {
	Name       string
	ItemCount  int
	Exceptions int
}

type ChildrenBody struct {
	Rows []ChildRow
}

type ItemsBody struct {
	// Owner is the selected pool: a child name or SharedPool.
	Owner  string
	Owners []string
	Items  []model.Item
}

type ScheduleBody struct {
	Child     string
	Day       model.Weekday
	Scheduled []model.Item
	Available []model.Item
}

type ExceptionsBody struct {
	Child    string
	Upcoming []UpcomingException
	Edit     *EditBody
}

type EditBody struct {
	Date      string
	Weekday   model.Weekday
	Committed bool
	Selected  []model.Item
	Available []model.Item
}

// PlaceholderImage stands in for items with no usable image reference.
const PlaceholderImage = "📦"

// ImageRef returns the item's image reference, or PlaceholderImage when it has none.
func ImageRef(it model.Item) string {
	if ref := strings.TrimSpace(it.Image); ref != "" {
		return ref
	}
	return PlaceholderImage
}

// Render projects the selection over snap for the current tab. sel must already be
// resolved against snap.
func Render(snap model.Snapshot, have bool, sel Selection, today time.Time) View {
	v := View{
		Tab:      sel.Tab,
		Children: snap.ChildNames(),
		Child:    sel.Child,
		Day:      sel.Day,
		Loading:  !have,
	}
	if !have {
		return v
	}

	switch sel.Tab {
	case TabItems:
		v.ItemsBody = &ItemsBody{
			Owner:  sel.Child,
			Owners: append([]string{SharedPool}, snap.ChildNames()...),
			Items:  PoolItems(snap, sel.Child),
		}
	case TabSchedule:
		body := &ScheduleBody{Child: sel.Child, Day: sel.Day, Scheduled: []model.Item{}, Available: []model.Item{}}
		if sel.Child != "" {
			body.Scheduled = ScheduledForDay(snap, sel.Child, sel.Day)
			body.Available = AvailableForDay(snap, sel.Child, sel.Day)
		}
		v.ScheduleBody = body
	case TabExceptions:
		body := &ExceptionsBody{Child: sel.Child, Upcoming: UpcomingExceptions(snap, sel.Child, today)}
		if e := sel.Edit; e != nil {
			eb := &EditBody{
				Date:      e.Date,
				Committed: e.Committed(snap),
				Selected:  e.Selected(snap),
				Available: e.Available(snap),
			}
			if t, err := model.ParseDate(e.Date); err == nil {
				eb.Weekday = model.WeekdayOf(t)
			}
			body.Edit = eb
		}
		v.ExceptionsBody = body
	default:
		rows := make([]ChildRow, 0, len(snap.Children))
		for _, c := range snap.Children {
			rows = append(rows, ChildRow{Name: c.Name, ItemCount: len(c.Items), Exceptions: len(c.Exceptions)})
		}
		v.ChildrenBody = &ChildrenBody{Rows: rows}
	}
	return v
}
