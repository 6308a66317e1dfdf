package panel

import (
	"time"

	"school-schedule/internal/model"
)

// fixtureSnapshot: Ada has her own items a/b, Bo owns an item whose ID collides with
// a library item. 2025-03-10 is a Monday.
func fixtureSnapshot() model.Snapshot {
	s := model.Snapshot{
		Children: []model.Child{
			{
				Name:  "Ada",
				Items: []model.Item{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}},
				WeeklySchedule: model.WeeklySchedule{
					model.Monday:  {"a", "b"},
					model.Tuesday: {"a", "ghost", "lib"},
				},
				Exceptions: map[string][]string{
					"2025-03-01": {"a"},
					"2025-03-12": {},
					"2025-03-14": {"lib", "ghost"},
				},
			},
			{
				Name:           "Bo",
				Items:          []model.Item{{ID: "lib", Name: "Bo's book"}},
				WeeklySchedule: model.WeeklySchedule{model.Monday: {"lib"}},
			},
		},
		ItemLibrary: []model.Item{
			{ID: "lib", Name: "Library Book"},
			{ID: "pe", Name: "PE Kit", Image: "/images/pe.png"},
		},
	}
	s.Normalize()
	return s
}

func day(s string) time.Time {
	t, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func itemNames(items []model.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}

type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }
