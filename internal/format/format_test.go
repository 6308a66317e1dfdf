package format

import (
	"bytes"
	"strings"
	"testing"

	"school-schedule/internal/model"
	"school-schedule/internal/panel"
)

func TestWriteEDN_KeywordsAndStringKeys(t *testing.T) {
	t.Parallel()

	snap := model.Snapshot{
		Children: []model.Child{{
			Name:           "Ada",
			Items:          []model.Item{},
			WeeklySchedule: model.WeeklySchedule{},
			Exceptions:     map[string][]string{"2025-03-12": {}},
		}},
		ItemLibrary:    []model.Item{{ID: "pe", Name: "PE Kit"}},
		SwitchoverTime: "12:00",
	}
	var b bytes.Buffer
	if err := Write(&b, snap, "edn", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := b.String()
	for _, want := range []string{`:item-library [{:id "pe" :name "PE Kit"}]`, `:exceptions {"2025-03-12" []}`, `:switchover-time "12:00"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %s", want, out)
		}
	}
}

func TestWriteEDN_WeekOrderAndPretty(t *testing.T) {
	t.Parallel()

	ada := model.Child{
		Name:  "Ada",
		Items: []model.Item{},
		WeeklySchedule: model.WeeklySchedule{
			model.Friday: {"recorder"},
			model.Monday: {"swim_bag"},
			model.Sunday: {},
		},
		Exceptions: map[string][]string{"2025-04-01": {}, "2025-03-12": {"pe"}},
	}
	var b strings.Builder
	if err := Write(&b, ada, "edn", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := b.String()
	for _, want := range []string{
		`:weekly-schedule {:monday ["swim_bag"] :friday ["recorder"] :sunday []}`,
		`:exceptions {"2025-03-12" ["pe"] "2025-04-01" []}`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %s", want, out)
		}
	}

	b.Reset()
	if err := Write(&b, map[string]any{"ids": []string{"a", "b"}}, "edn", true); err != nil {
		t.Fatalf("Write pretty: %v", err)
	}
	if want := "{\n  :ids [\n    \"a\"\n    \"b\"\n  ]\n}\n"; b.String() != want {
		t.Fatalf("pretty output = %q; want %q", b.String(), want)
	}
}

type rows [][]string

func (r rows) Table() ([]string, [][]string) { return []string{"ID", "NAME"}, r }

func TestWrite_Table(t *testing.T) {
	t.Parallel()

	var b bytes.Buffer
	if err := Write(&b, rows{{"pe_kit", "PE Kit"}, {"recorder", "Recorder"}}, "table", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows; got %q", b.String())
	}
	if !strings.Contains(lines[1], "pe_kit") || !strings.Contains(lines[2], "Recorder") {
		t.Fatalf("unexpected table:\n%s", b.String())
	}

	if err := Write(&b, map[string]string{}, "table", false); err == nil {
		t.Fatalf("expected error for non-tabular value")
	}
	if err := Write(&b, rows{}, "yaml", false); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestSummaryMarkdown(t *testing.T) {
	t.Parallel()

	s := panel.Summary{
		Date:     "2025-03-12",
		Weekday:  model.Wednesday,
		Tomorrow: true,
		Children: []panel.ChildSummary{
			{Name: "Ada", Exception: true, DayOff: true},
			{Name: "Bo", Items: []model.Item{{ID: "pe", Name: "PE Kit"}}},
			{Name: "Cy"},
		},
	}
	md := SummaryMarkdown(s)
	for _, want := range []string{"# Tomorrow: Wednesday 2025-03-12", "## Ada\n\n_Day off._", "- [ ] PE Kit", "## Cy\n\n_Nothing to bring._"} {
		if !strings.Contains(md, want) {
			t.Fatalf("expected %q in:\n%s", want, md)
		}
	}

	out := RenderMarkdown(md, "notty", 60)
	if !strings.Contains(out, "PE Kit") || !strings.Contains(out, "Wednesday") {
		t.Fatalf("rendered output lost content:\n%s", out)
	}
}
