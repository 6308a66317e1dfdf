package panel

import (
	"reflect"
	"testing"
	"time"

	"school-schedule/internal/model"
)

func TestCombinedPool_ChildItemsThenLibrary(t *testing.T) {
	t.Parallel()

	snap := fixtureSnapshot()
	if got, want := itemIDs(CombinedPool(snap, "Ada")), []string{"a", "b", "lib", "pe"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Ada pool = %v; want %v", got, want)
	}
	if got, want := itemIDs(CombinedPool(snap, SharedPool)), []string{"lib", "pe"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("shared pool = %v; want %v", got, want)
	}
	if got, want := itemIDs(CombinedPool(snap, "Nobody")), []string{"lib", "pe"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("unknown child pool = %v; want %v", got, want)
	}
}

func TestScheduledForDay_DropsStaleAndPrefersChildItems(t *testing.T) {
	t.Parallel()

	snap := fixtureSnapshot()
	if got, want := itemNames(ScheduledForDay(snap, "Ada", model.Tuesday)), []string{"A", "Library Book"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Ada tuesday = %v; want %v", got, want)
	}
	if got, want := itemNames(ScheduledForDay(snap, "Bo", model.Monday)), []string{"Bo's book"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Bo monday = %v; want %v", got, want)
	}
	if got := ScheduledForDay(snap, "Ada", model.Sunday); len(got) != 0 {
		t.Fatalf("expected empty sunday; got %v", got)
	}

	// Display logic never touches the raw list.
	if raw := snap.Children[0].WeeklySchedule[model.Tuesday]; !reflect.DeepEqual(raw, []string{"a", "ghost", "lib"}) {
		t.Fatalf("raw schedule mutated: %v", raw)
	}
}

func TestAvailableForDay_UsesRawScheduledIDs(t *testing.T) {
	t.Parallel()

	snap := fixtureSnapshot()
	if got, want := itemIDs(AvailableForDay(snap, "Ada", model.Tuesday)), []string{"b", "pe"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Ada tuesday available = %v; want %v", got, want)
	}
	// Both pool entries with ID "lib" are scheduled by the single raw ID.
	if got, want := itemIDs(AvailableForDay(snap, "Bo", model.Monday)), []string{"pe"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Bo monday available = %v; want %v", got, want)
	}
}

func TestScheduledAndAvailable_PartitionPool(t *testing.T) {
	t.Parallel()

	snap := fixtureSnapshot()
	for _, child := range snap.ChildNames() {
		for _, d := range model.Weekdays {
			pool := map[string]bool{}
			for _, it := range CombinedPool(snap, child) {
				pool[it.ID] = true
			}
			sched := map[string]bool{}
			for _, it := range ScheduledForDay(snap, child, d) {
				sched[it.ID] = true
			}
			union := map[string]bool{}
			for id := range sched {
				union[id] = true
			}
			for _, it := range AvailableForDay(snap, child, d) {
				if sched[it.ID] {
					t.Fatalf("%s/%s: %q is both scheduled and available", child, d, it.ID)
				}
				union[it.ID] = true
			}
			if !reflect.DeepEqual(union, pool) {
				t.Fatalf("%s/%s: scheduled+available = %v; pool = %v", child, d, union, pool)
			}
		}
	}
}

func TestUpcomingExceptions_IncludesDayOffAndSkipsPast(t *testing.T) {
	t.Parallel()

	snap := fixtureSnapshot()
	got := UpcomingExceptions(snap, "Ada", day("2025-03-10"))
	if len(got) != 2 {
		t.Fatalf("expected 2 upcoming exceptions; got %#v", got)
	}
	if got[0].Date != "2025-03-12" || !got[0].DayOff || len(got[0].Items) != 0 || got[0].Weekday != model.Wednesday {
		t.Fatalf("unexpected day off entry: %#v", got[0])
	}
	if got[1].Date != "2025-03-14" || got[1].DayOff {
		t.Fatalf("unexpected second entry: %#v", got[1])
	}
	if names := itemNames(got[1].Items); !reflect.DeepEqual(names, []string{"Library Book"}) {
		t.Fatalf("expected stale id filtered; got %v", names)
	}

	// Today is inclusive.
	if got := UpcomingExceptions(snap, "Ada", day("2025-03-12")); len(got) != 2 || got[0].Date != "2025-03-12" {
		t.Fatalf("expected today's exception included; got %#v", got)
	}
	if got := UpcomingExceptions(snap, "Bo", day("2025-03-10")); len(got) != 0 {
		t.Fatalf("expected none for Bo; got %#v", got)
	}
}

func TestItemsForDate_ExceptionReplacesWeekly(t *testing.T) {
	t.Parallel()

	snap := fixtureSnapshot()
	items, exc := ItemsForDate(snap, "Ada", day("2025-03-12"))
	if !exc || len(items) != 0 {
		t.Fatalf("expected day off from exception; got exc=%v items=%v", exc, items)
	}
	items, exc = ItemsForDate(snap, "Ada", day("2025-03-17"))
	if exc || !reflect.DeepEqual(itemIDs(items), []string{"a", "b"}) {
		t.Fatalf("expected weekly monday list; got exc=%v items=%v", exc, itemIDs(items))
	}
}

func TestDisplayDate_Switchover(t *testing.T) {
	t.Parallel()

	before := time.Date(2025, 3, 10, 11, 59, 0, 0, time.UTC)
	at := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	if got := model.FormatDate(DisplayDate(before, "12:00")); got != "2025-03-10" {
		t.Fatalf("before switchover: got %s", got)
	}
	if got := model.FormatDate(DisplayDate(at, "12:00")); got != "2025-03-11" {
		t.Fatalf("at switchover: got %s", got)
	}
	if got := model.FormatDate(DisplayDate(at, "not a time")); got != "2025-03-11" {
		t.Fatalf("invalid switchover should use default: got %s", got)
	}
	if got := model.FormatDate(DisplayDate(at, "18:30")); got != "2025-03-10" {
		t.Fatalf("late switchover: got %s", got)
	}
}

func TestCalendarRange_SkipsEmptyDays(t *testing.T) {
	t.Parallel()

	snap := fixtureSnapshot()
	got := CalendarRange(snap, "Ada", day("2025-03-10"), day("2025-03-16"))
	var dates []string
	for _, d := range got {
		dates = append(dates, d.Date)
	}
	if want := []string{"2025-03-10", "2025-03-11", "2025-03-14"}; !reflect.DeepEqual(dates, want) {
		t.Fatalf("calendar dates = %v; want %v", dates, want)
	}
	if !got[2].Exception || got[0].Exception {
		t.Fatalf("unexpected exception flags: %#v", got)
	}
	if got := CalendarRange(snap, "Nobody", day("2025-03-10"), day("2025-03-16")); len(got) != 0 {
		t.Fatalf("expected empty calendar for unknown child; got %#v", got)
	}
}

func TestPoolItems_And_ExistingIDs(t *testing.T) {
	t.Parallel()

	snap := fixtureSnapshot()
	if got := ExistingIDs(snap, SharedPool); !reflect.DeepEqual(got, []string{"lib", "pe"}) {
		t.Fatalf("shared ids = %v", got)
	}
	if got := ExistingIDs(snap, "Bo"); !reflect.DeepEqual(got, []string{"lib"}) {
		t.Fatalf("Bo ids = %v", got)
	}
	if got := PoolItems(snap, "Nobody"); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil pool; got %#v", got)
	}
}
