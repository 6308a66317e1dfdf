package panel

import (
	"strings"

	"school-schedule/internal/model"
)

// ExceptionEdit is an uncommitted working copy of one date's exception list. Methods
// return new values; the receiver is never mutated.
type ExceptionEdit struct {
	Child   string
	Date    string
	ItemIDs []string
}

// StartException opens an edit for child on date. The working copy is the committed
// exception when one exists (even an empty day off), otherwise the weekly list for the
// date's weekday.
func StartException(snap model.Snapshot, child, date string) (*ExceptionEdit, error) {
	if strings.TrimSpace(child) == "" || child == SharedPool {
		return nil, invalid("child", "select a child first")
	}
	c, ok := snap.FindChild(child)
	if !ok {
		return nil, invalid("child", "child not found: "+child)
	}
	date = strings.TrimSpace(date)
	t, err := model.ParseDate(date)
	if err != nil {
		return nil, invalid("date", err.Error())
	}
	return &ExceptionEdit{Child: child, Date: date, ItemIDs: seedIDs(*c, date, model.WeekdayOf(t))}, nil
}

func seedIDs(c model.Child, date string, day model.Weekday) []string {
	if ids, ok := c.Exceptions[date]; ok {
		return append([]string{}, ids...)
	}
	return append([]string{}, c.WeeklySchedule[day]...)
}

// ChangeDate re-seeds the edit for a new date. Unsaved changes are discarded.
func (e ExceptionEdit) ChangeDate(snap model.Snapshot, date string) (*ExceptionEdit, error) {
	return StartException(snap, e.Child, date)
}

// Add appends id unless it is already present.
func (e ExceptionEdit) Add(id string) *ExceptionEdit {
	e.ItemIDs = appendUnique(e.ItemIDs, id)
	return &e
}

// Remove drops id. Removing an absent id is a no-op.
func (e ExceptionEdit) Remove(id string) *ExceptionEdit {
	e.ItemIDs = removeID(e.ItemIDs, id)
	return &e
}

func (e ExceptionEdit) Has(id string) bool { return contains(e.ItemIDs, id) }

// Selected resolves the working IDs against the combined pool, dropping stale ones.
func (e ExceptionEdit) Selected(snap model.Snapshot) []model.Item {
	return resolveIDs(CombinedPool(snap, e.Child), e.ItemIDs)
}

// Available is the combined pool minus the working IDs, in pool order.
func (e ExceptionEdit) Available(snap model.Snapshot) []model.Item {
	return without(CombinedPool(snap, e.Child), e.ItemIDs)
}

// Committed reports whether the date already has a saved exception.
func (e ExceptionEdit) Committed(snap model.Snapshot) bool {
	c, ok := snap.FindChild(e.Child)
	return ok && c.HasException(e.Date)
}

// Command is the add_exception intent that saves the working copy. IDs that no longer
// resolve against snap are left out.
func (e ExceptionEdit) Command(snap model.Snapshot) model.Command {
	return model.AddException(e.Child, e.Date, liveIDs(snap, e.Child, e.ItemIDs))
}

func contains(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

// appendUnique appends id to ids unless present, without aliasing ids.
func appendUnique(ids []string, id string) []string {
	out := append([]string{}, ids...)
	if contains(out, id) {
		return out
	}
	return append(out, id)
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}
