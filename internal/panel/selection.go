package panel

import (
	"fmt"
	"strings"

	"school-schedule/internal/model"
)

type Tab string

const (
	TabChildren   Tab = "children"
	TabItems      Tab = "items"
	TabSchedule   Tab = "schedule"
	TabExceptions Tab = "exceptions"
)

// Tabs lists the panel tabs in display order.
var Tabs = []Tab{TabChildren, TabItems, TabSchedule, TabExceptions}

func ParseTab(s string) (Tab, error) {
	t := Tab(strings.ToLower(strings.TrimSpace(s)))
	for _, x := range Tabs {
		if x == t {
			return t, nil
		}
	}
	return "", fmt.Errorf("invalid tab %q", s)
}

// Title returns the tab label.
func (t Tab) Title() string {
	switch t {
	case TabChildren:
		return "Children"
	case TabItems:
		return "Items"
	case TabSchedule:
		return "Weekly Schedule"
	case TabExceptions:
		return "Exceptions"
	default:
		return string(t)
	}
}

// SharedPool is the pseudo-child that selects the shared item library.
const SharedPool = model.SharedPool

// Selection is the view state owned by one controller. It is never persisted.
//
// Child is a child name, SharedPool, or "" (unset). Edit is nil when no exception
// edit is open.
type Selection struct {
	Tab   Tab
	Child string
	Day   model.Weekday
	Edit  *ExceptionEdit
}

func NewSelection() Selection {
	return Selection{Tab: TabChildren, Day: model.Monday}
}

// WithTab switches tabs. Child and day carry over.
func (s Selection) WithTab(t Tab) Selection {
	s.Tab = t
	return s
}

// WithChild selects a child. An open exception edit for another child is discarded.
func (s Selection) WithChild(name string) Selection {
	s.Child = name
	if s.Edit != nil && s.Edit.Child != name {
		s.Edit = nil
	}
	return s
}

func (s Selection) WithDay(d model.Weekday) Selection {
	s.Day = d
	return s
}

func (s Selection) WithEdit(e *ExceptionEdit) Selection {
	s.Edit = e
	return s
}

// Editing reports whether an exception edit is open.
func (s Selection) Editing() bool { return s.Edit != nil }

// Resolve re-validates the selection against snap, substituting the defaults for the
// current tab when the selected child is not valid there.
func (s Selection) Resolve(snap model.Snapshot) Selection {
	if _, err := model.ParseWeekday(string(s.Day)); err != nil {
		s.Day = model.Monday
	}
	if _, err := ParseTab(string(s.Tab)); err != nil {
		s.Tab = TabChildren
	}

	switch s.Tab {
	case TabItems:
		if s.Child != SharedPool && !snap.HasChild(s.Child) {
			s.Child = SharedPool
		}
	case TabSchedule, TabExceptions:
		if s.Child == SharedPool || !snap.HasChild(s.Child) {
			s.Child = firstChild(snap)
		}
	default:
		if s.Child != "" && s.Child != SharedPool && !snap.HasChild(s.Child) {
			s.Child = ""
		}
	}

	if s.Edit != nil && (s.Edit.Child != s.Child || !snap.HasChild(s.Edit.Child)) {
		s.Edit = nil
	}
	return s
}

func firstChild(snap model.Snapshot) string {
	if len(snap.Children) == 0 {
		return ""
	}
	return snap.Children[0].Name
}
