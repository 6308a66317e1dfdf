package panel

import (
	"testing"

	"school-schedule/internal/model"
)

func TestNewSelection_Defaults(t *testing.T) {
	t.Parallel()

	s := NewSelection()
	if s.Tab != TabChildren || s.Day != model.Monday || s.Child != "" || s.Edit != nil {
		t.Fatalf("unexpected defaults: %#v", s)
	}
}

func TestSelection_TabSwitchKeepsChildAndDay(t *testing.T) {
	t.Parallel()

	snap := fixtureSnapshot()
	s := NewSelection().WithTab(TabSchedule).WithChild("Bo").WithDay(model.Thursday).Resolve(snap)
	s = s.WithTab(TabItems).Resolve(snap)
	if s.Child != "Bo" || s.Day != model.Thursday {
		t.Fatalf("expected child/day to carry over; got %#v", s)
	}
	s = s.WithTab(TabExceptions).Resolve(snap)
	if s.Child != "Bo" || s.Day != model.Thursday {
		t.Fatalf("expected child/day to carry over; got %#v", s)
	}
}

func TestSelection_Resolve_Fallbacks(t *testing.T) {
	t.Parallel()

	snap := fixtureSnapshot()
	cases := []struct {
		name  string
		tab   Tab
		child string
		want  string
	}{
		{"items unset", TabItems, "", SharedPool},
		{"items shared", TabItems, SharedPool, SharedPool},
		{"items child", TabItems, "Bo", "Bo"},
		{"items gone", TabItems, "Gone", SharedPool},
		{"schedule shared", TabSchedule, SharedPool, "Ada"},
		{"schedule unset", TabSchedule, "", "Ada"},
		{"schedule gone", TabSchedule, "Gone", "Ada"},
		{"exceptions child", TabExceptions, "Bo", "Bo"},
		{"children gone", TabChildren, "Gone", ""},
		{"children shared", TabChildren, SharedPool, SharedPool},
	}
	for _, tc := range cases {
		got := NewSelection().WithTab(tc.tab).WithChild(tc.child).Resolve(snap)
		if got.Child != tc.want {
			t.Fatalf("%s: child = %q; want %q", tc.name, got.Child, tc.want)
		}
	}
}

func TestSelection_Resolve_NoChildren(t *testing.T) {
	t.Parallel()

	var snap model.Snapshot
	snap.Normalize()
	got := NewSelection().WithTab(TabSchedule).WithChild(SharedPool).Resolve(snap)
	if got.Child != "" {
		t.Fatalf("expected unset child with no children; got %q", got.Child)
	}
}

func TestSelection_EditClosedWhenChildChangesOrDisappears(t *testing.T) {
	t.Parallel()

	snap := fixtureSnapshot()
	e, err := StartException(snap, "Ada", "2025-03-10")
	if err != nil {
		t.Fatalf("StartException: %v", err)
	}
	s := NewSelection().WithTab(TabExceptions).WithChild("Ada").WithEdit(e).Resolve(snap)
	if s.Edit == nil {
		t.Fatalf("expected edit to stay open")
	}
	if got := s.WithChild("Bo"); got.Edit != nil {
		t.Fatalf("expected edit discarded on child switch")
	}

	removed := snap.Clone()
	removed.Children = removed.Children[1:]
	got := s.Resolve(removed)
	if got.Edit != nil || got.Child != "Bo" {
		t.Fatalf("expected edit closed and child to fall back; got %#v", got)
	}
}

func TestSelection_Resolve_InvalidDayFallsBack(t *testing.T) {
	t.Parallel()

	s := NewSelection().WithDay("funday").Resolve(fixtureSnapshot())
	if s.Day != model.Monday {
		t.Fatalf("expected monday; got %q", s.Day)
	}
}
