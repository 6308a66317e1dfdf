package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

// mustData runs args against dir and returns the envelope's data value.
func mustData(t *testing.T, dir string, args ...string) any {
	t.Helper()
	stdout, stderr, err := runCLI(t, append([]string{"--dir", dir}, args...))
	if err != nil {
		t.Fatalf("school-schedule %v: %v\nstderr:\n%s", args, err, stderr)
	}
	var env map[string]any
	if err := json.Unmarshal(stdout, &env); err != nil {
		t.Fatalf("unmarshal %v output: %v\n%s", args, err, stdout)
	}
	data, ok := env["data"]
	if !ok {
		t.Fatalf("expected data key; got %s", stdout)
	}
	return data
}

func isolateConfig(t *testing.T) string {
	t.Helper()
	t.Setenv("SCHOOL_SCHEDULE_CONFIG_DIR", t.TempDir())
	t.Setenv("SCHOOL_SCHEDULE_TOKEN_SECRET", "")
	t.Setenv("SCHOOL_SCHEDULE_LOG_PATH", "")
	return t.TempDir()
}

func TestCLI_ChildItemScheduleSummaryFlow(t *testing.T) {
	dir := isolateConfig(t)

	mustData(t, dir, "children", "add", "Ada")
	res := mustData(t, dir, "items", "add", "PE Kit", "--child", "Ada").(map[string]any)
	if res["op"] != "add_item" || res["subject"] != "Ada" {
		t.Fatalf("unexpected result: %#v", res)
	}

	items := mustData(t, dir, "items", "list", "--child", "Ada").([]any)
	if len(items) != 1 || items[0].(map[string]any)["id"] != "pe_kit" {
		t.Fatalf("items = %#v", items)
	}

	mustData(t, dir, "schedule", "add", "--child", "Ada", "--day", "monday", "pe_kit")
	mustData(t, dir, "schedule", "add", "--child", "Ada", "--day", "monday", "pe_kit")
	monday := mustData(t, dir, "schedule", "show", "--child", "Ada", "--day", "Monday").([]any)
	if len(monday) != 1 {
		t.Fatalf("expected one scheduled item (add is idempotent); got %#v", monday)
	}
	week := mustData(t, dir, "schedule", "show", "--child", "Ada").([]any)
	if len(week) != 7 || week[0].(map[string]any)["day"] != "monday" {
		t.Fatalf("week = %#v", week)
	}

	// 2025-03-10 is a Monday.
	sum := mustData(t, dir, "summary", "--date", "2025-03-10").(map[string]any)
	kids := sum["children"].([]any)
	ada := kids[0].(map[string]any)
	if sum["display_date"] != "2025-03-10" || len(ada["items"].([]any)) != 1 {
		t.Fatalf("summary = %#v", sum)
	}

	mustData(t, dir, "exceptions", "set", "--child", "Ada", "--date", "2025-03-10")
	sum = mustData(t, dir, "summary", "--date", "2025-03-10").(map[string]any)
	ada = sum["children"].([]any)[0].(map[string]any)
	if ada["day_off"] != true || ada["exception"] != true {
		t.Fatalf("expected day off; got %#v", ada)
	}
	all := mustData(t, dir, "exceptions", "list", "--child", "Ada", "--all").([]any)
	if len(all) != 1 || all[0].(map[string]any)["date"] != "2025-03-10" {
		t.Fatalf("exceptions = %#v", all)
	}

	cal := mustData(t, dir, "calendar", "--child", "Ada", "--from", "2025-03-10", "--to", "2025-03-17").([]any)
	if len(cal) != 1 || cal[0].(map[string]any)["date"] != "2025-03-17" {
		t.Fatalf("calendar = %#v", cal)
	}

	mustData(t, dir, "schedule", "remove", "--child", "Ada", "--day", "monday", "pe_kit")
	if got := mustData(t, dir, "schedule", "show", "--child", "Ada", "--day", "monday").([]any); len(got) != 0 {
		t.Fatalf("expected empty monday; got %#v", got)
	}

	log := mustData(t, dir, "log", "--limit", "3").([]any)
	if len(log) != 3 || log[0].(map[string]any)["op"] != "set_weekly_schedule" {
		t.Fatalf("log = %#v", log)
	}
}

func TestCLI_SharedLibraryAndImages(t *testing.T) {
	dir := isolateConfig(t)

	src := filepath.Join(t.TempDir(), "Hat.png")
	if err := os.WriteFile(src, []byte("png"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	mustData(t, dir, "children", "add", "Bo")
	mustData(t, dir, "items", "add", "Sun Hat", "--image", src)
	lib := mustData(t, dir, "items", "list", "--shared").([]any)
	hat := lib[0].(map[string]any)
	if hat["id"] != "sun_hat" || hat["image"] != "/images/Hat.png" {
		t.Fatalf("library = %#v", lib)
	}
	if _, err := os.Stat(filepath.Join(dir, "images", "Hat.png")); err != nil {
		t.Fatalf("expected uploaded image on disk: %v", err)
	}

	mustData(t, dir, "items", "update", "sun_hat", "--name", "Summer Hat")
	mustData(t, dir, "items", "assign", "sun_hat", "--child", "Bo")
	own := mustData(t, dir, "items", "list", "--child", "Bo").([]any)
	if len(own) != 1 || own[0].(map[string]any)["name"] != "Summer Hat" {
		t.Fatalf("Bo's items = %#v", own)
	}

	if _, _, err := runCLI(t, []string{"--dir", dir, "items", "list", "--child", "Bo", "--shared"}); err == nil {
		t.Fatalf("expected --child with --shared to fail")
	}
}

func TestCLI_ErrorsGoToStderr(t *testing.T) {
	dir := isolateConfig(t)

	stdout, stderr, err := runCLI(t, []string{"--dir", dir, "children", "remove", "Nobody"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(stdout) != 0 || !strings.Contains(string(stderr), "not found") {
		t.Fatalf("stdout=%q stderr=%q", stdout, stderr)
	}

	_, stderr, err = runCLI(t, []string{"--dir", dir, "switchover", "set", "25:00"})
	if err == nil || len(stderr) == 0 {
		t.Fatalf("expected invalid switchover to fail; err=%v", err)
	}
	mustData(t, dir, "switchover", "set", "7:30")
	if got := mustData(t, dir, "switchover", "show").(map[string]any); got["switchover_time"] != "07:30" {
		t.Fatalf("switchover = %#v", got)
	}
}

func TestCLI_OutputFormats(t *testing.T) {
	dir := isolateConfig(t)
	mustData(t, dir, "children", "add", "Ada")
	mustData(t, dir, "items", "add", "Library Book", "--child", "Ada")
	mustData(t, dir, "exceptions", "set", "--child", "Ada", "--date", "2025-03-12", "library_book")

	out, _, err := runCLI(t, []string{"--dir", dir, "--format", "table", "children", "list"})
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	if !strings.Contains(string(out), "NAME") || !strings.Contains(string(out), "Ada") {
		t.Fatalf("table output:\n%s", out)
	}

	out, _, err = runCLI(t, []string{"--dir", dir, "--format", "edn", "children", "list"})
	if err != nil {
		t.Fatalf("edn: %v", err)
	}
	if !strings.HasPrefix(string(out), "{:data [") {
		t.Fatalf("edn output:\n%s", out)
	}

	out, _, err = runCLI(t, []string{"--dir", dir, "--format", "md", "summary", "--date", "2025-03-12"})
	if err != nil {
		t.Fatalf("md: %v", err)
	}
	if !strings.Contains(string(out), "Book") || !strings.Contains(string(out), "Wednesday") {
		t.Fatalf("markdown output:\n%s", out)
	}
}

func TestCLI_WebToken(t *testing.T) {
	dir := isolateConfig(t)

	if _, _, err := runCLI(t, []string{"--dir", dir, "web", "token"}); err == nil {
		t.Fatalf("expected error without a token secret")
	}

	t.Setenv("SCHOOL_SCHEDULE_TOKEN_SECRET", "s3cret")
	tok := mustData(t, dir, "web", "token", "--subject", "kitchen-tablet").(map[string]any)
	if s, _ := tok["token"].(string); strings.Count(s, ".") != 2 || tok["subject"] != "kitchen-tablet" {
		t.Fatalf("token = %#v", tok)
	}
}

func TestCLI_Docs(t *testing.T) {
	dir := isolateConfig(t)

	topics := mustData(t, dir, "docs").(map[string]any)["topics"].([]any)
	if len(topics) == 0 || topics[0] != "config" {
		t.Fatalf("topics = %#v", topics)
	}

	out, _, err := runCLI(t, []string{"--dir", dir, "docs", "summary", "--raw"})
	if err != nil {
		t.Fatalf("docs --raw: %v", err)
	}
	if !strings.HasPrefix(string(out), "# Summary") {
		t.Fatalf("raw output:\n%s", out)
	}

	if _, stderr, err := runCLI(t, []string{"--dir", dir, "docs", "nope"}); err == nil || !strings.Contains(string(stderr), "unknown docs topic") {
		t.Fatalf("expected unknown topic error; err=%v stderr=%s", err, stderr)
	}
}

func TestCLI_BackupRestore(t *testing.T) {
	dir := isolateConfig(t)
	mustData(t, dir, "children", "add", "Ada")
	mustData(t, dir, "items", "add", "Recorder", "--child", "Ada")
	mustData(t, dir, "schedule", "set", "--child", "Ada", "--day", "friday", "recorder")

	file := filepath.Join(t.TempDir(), "household.json")
	out := mustData(t, dir, "backup", file).(map[string]any)
	if out["children"] != float64(1) || out["path"] != file {
		t.Fatalf("backup = %#v", out)
	}

	other := t.TempDir()
	mustData(t, other, "children", "add", "Bo")
	mustData(t, other, "restore", file)
	kids := mustData(t, other, "children", "list").([]any)
	if len(kids) != 1 || kids[0].(map[string]any)["name"] != "Ada" {
		t.Fatalf("children after restore = %#v", kids)
	}
	friday := mustData(t, other, "schedule", "show", "--child", "Ada", "--day", "friday").([]any)
	if len(friday) != 1 {
		t.Fatalf("friday after restore = %#v", friday)
	}

	stdout, _, err := runCLI(t, []string{"--dir", dir, "backup"})
	if err != nil || !strings.Contains(string(stdout), `"version": 1`) {
		t.Fatalf("backup to stdout: err=%v\n%s", err, stdout)
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte(`{"version": 9}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := runCLI(t, []string{"--dir", other, "restore", bad}); err == nil {
		t.Fatalf("expected bad backup to be rejected")
	}
}
