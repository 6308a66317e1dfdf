package model

import (
	"sort"
	"strings"
)

// DefaultSwitchoverTime is the time of day after which summaries show tomorrow's items.
const DefaultSwitchoverTime = "12:00"

// SharedPool names the shared item library wherever a child name is expected. No
// child may use it.
const SharedPool = "Shared"

type Item struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// WeeklySchedule maps a weekday to the ordered item IDs needed that day.
type WeeklySchedule map[Weekday][]string

type Child struct {
	Name           string         `json:"name"`
	Items          []Item         `json:"items"`
	WeeklySchedule WeeklySchedule `json:"weekly_schedule"`

	// Exceptions maps an ISO date (YYYY-MM-DD) to the item IDs that replace the
	// weekly list for that date. A present key with an empty list is a day off;
	// an absent key means no exception.
	Exceptions map[string][]string `json:"exceptions"`
}

// Snapshot is the full household state at a point in time.
type Snapshot struct {
	Children       []Child `json:"children"`
	ItemLibrary    []Item  `json:"item_library"`
	SwitchoverTime string  `json:"switchover_time,omitempty"`
}

// Normalize replaces missing collections with empty ones so readers never have to
// nil-check. It does not drop or reorder data.
func (s *Snapshot) Normalize() {
	if s == nil {
		return
	}
	if s.Children == nil {
		s.Children = []Child{}
	}
	if s.ItemLibrary == nil {
		s.ItemLibrary = []Item{}
	}
	if strings.TrimSpace(s.SwitchoverTime) == "" {
		s.SwitchoverTime = DefaultSwitchoverTime
	}
	for i := range s.Children {
		c := &s.Children[i]
		if c.Items == nil {
			c.Items = []Item{}
		}
		if c.WeeklySchedule == nil {
			c.WeeklySchedule = WeeklySchedule{}
		}
		for _, d := range Weekdays {
			if c.WeeklySchedule[d] == nil {
				c.WeeklySchedule[d] = []string{}
			}
		}
		if c.Exceptions == nil {
			c.Exceptions = map[string][]string{}
		}
		for date, ids := range c.Exceptions {
			if ids == nil {
				c.Exceptions[date] = []string{}
			}
		}
	}
}

// FindChild returns the child with the given name.
func (s Snapshot) FindChild(name string) (*Child, bool) {
	for i := range s.Children {
		if s.Children[i].Name == name {
			return &s.Children[i], true
		}
	}
	return nil, false
}

func (s Snapshot) HasChild(name string) bool {
	_, ok := s.FindChild(name)
	return ok
}

// ChildNames returns child names in snapshot order.
func (s Snapshot) ChildNames() []string {
	out := make([]string, 0, len(s.Children))
	for _, c := range s.Children {
		out = append(out, c.Name)
	}
	return out
}

// FindLibraryItem returns the shared item with the given id.
func (s Snapshot) FindLibraryItem(id string) (*Item, bool) {
	for i := range s.ItemLibrary {
		if s.ItemLibrary[i].ID == id {
			return &s.ItemLibrary[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy so callers can mutate without aliasing the original.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Children:       make([]Child, len(s.Children)),
		ItemLibrary:    append([]Item{}, s.ItemLibrary...),
		SwitchoverTime: s.SwitchoverTime,
	}
	for i, c := range s.Children {
		out.Children[i] = c.Clone()
	}
	return out
}

func (c Child) Clone() Child {
	out := Child{
		Name:           c.Name,
		Items:          append([]Item{}, c.Items...),
		WeeklySchedule: WeeklySchedule{},
		Exceptions:     map[string][]string{},
	}
	for d, ids := range c.WeeklySchedule {
		out.WeeklySchedule[d] = append([]string{}, ids...)
	}
	for date, ids := range c.Exceptions {
		out.Exceptions[date] = append([]string{}, ids...)
	}
	return out
}

func (c Child) FindItem(id string) (*Item, bool) {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return &c.Items[i], true
		}
	}
	return nil, false
}

// HasException reports whether an exception exists for date, including day-off
// exceptions with no items.
func (c Child) HasException(date string) bool {
	_, ok := c.Exceptions[date]
	return ok
}

// ExceptionDates returns all exception dates in ascending order.
func (c Child) ExceptionDates() []string {
	out := make([]string, 0, len(c.Exceptions))
	for d := range c.Exceptions {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
