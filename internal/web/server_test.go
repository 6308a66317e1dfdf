package web

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"school-schedule/internal/host"
	"school-schedule/internal/images"
	"school-schedule/internal/model"
	"school-schedule/internal/store"
)

func newTestServer(t *testing.T, secret string) (*Server, *host.Host) {
	t.Helper()
	dir := t.TempDir()
	h := host.New(store.Store{Dir: dir}, nil)
	if _, err := h.Snapshot(context.Background()); err != nil {
		t.Fatalf("create store: %v", err)
	}
	img := images.New(filepath.Join(dir, "images"), 1024)
	srv, err := NewServer(ServerConfig{
		Addr:        "127.0.0.1:0",
		TokenSecret: secret,
		Now:         func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) },
	}, h, img, nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv, h
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func postCommand(t *testing.T, h http.Handler, cmd model.Command) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(cmd)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/commands", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return do(t, h, req)
}

func TestCommands_ApplyAndMapErrors(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, "")
	h := srv.Handler()

	rec := postCommand(t, h, model.AddChild("Ada"))
	if rec.Code != http.StatusOK {
		t.Fatalf("add child: %d %s", rec.Code, rec.Body.String())
	}
	var resp commandResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || !resp.Snapshot.HasChild("Ada") || resp.Result.Op != model.OpAddChild {
		t.Fatalf("unexpected response: %#v", resp)
	}

	cases := []struct {
		cmd  model.Command
		want int
	}{
		{model.AddChild("Ada"), http.StatusConflict},
		{model.RemoveChild("Nobody"), http.StatusNotFound},
		{model.AddException("Ada", "2025-13-40", nil), http.StatusBadRequest},
	}
	for _, tc := range cases {
		if rec := postCommand(t, h, tc.cmd); rec.Code != tc.want {
			t.Fatalf("%s: status %d; want %d (%s)", tc.cmd.Op, rec.Code, tc.want, rec.Body.String())
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/commands", strings.NewReader(`{"op":"add_child","nmae":"x"}`))
	if rec := do(t, h, req); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown field: status %d", rec.Code)
	}
}

func TestCommands_AcceptsDatastarSignals(t *testing.T) {
	t.Parallel()

	srv, hst := newTestServer(t, "")
	body := `{"command":{"op":"add_library_item","item_id":"pe_kit","item_name":"PE Kit"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/commands", strings.NewReader(body))
	req.Header.Set("Datastar-Request", "true")
	req.Header.Set("Content-Type", "application/json")
	if rec := do(t, srv.Handler(), req); rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	snap, err := hst.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if _, ok := snap.FindLibraryItem("pe_kit"); !ok {
		t.Fatalf("expected library item; got %#v", snap.ItemLibrary)
	}
}

func TestAuth_RequiresBearerTokenExceptHealth(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, "s3cret")
	h := srv.Handler()

	if rec := do(t, h, httptest.NewRequest(http.MethodGet, "/health", nil)); rec.Code != http.StatusOK {
		t.Fatalf("health: %d", rec.Code)
	}
	if rec := do(t, h, httptest.NewRequest(http.MethodGet, "/api/snapshot", nil)); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token; got %d", rec.Code)
	}

	bad, err := IssueToken("other", "kitchen-tablet", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/snapshot", nil)
	req.Header.Set("Authorization", "Bearer "+bad)
	if rec := do(t, h, req); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for foreign token; got %d", rec.Code)
	}

	good, err := IssueToken("s3cret", "kitchen-tablet", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/api/snapshot", nil)
	req.Header.Set("Authorization", "Bearer "+good)
	if rec := do(t, h, req); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token; got %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, h, httptest.NewRequest(http.MethodGet, "/api/snapshot?token="+good, nil)); rec.Code != http.StatusOK {
		t.Fatalf("expected query token to work; got %d", rec.Code)
	}

	if _, err := IssueToken("", "x", time.Hour); err == nil {
		t.Fatalf("expected error without secret")
	}
}

func upload(t *testing.T, h http.Handler, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		_, _ = fw.Write(content)
	}
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return do(t, h, req)
}

func TestUpload_SavesAndServesImages(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, "")
	h := srv.Handler()

	rec := upload(t, h, "Gym Bag.PNG", []byte("png-bytes"))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload: %d %s", rec.Code, rec.Body.String())
	}
	var got struct {
		Success  bool   `json:"success"`
		Path     string `json:"path"`
		Filename string `json:"filename"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Success || got.Path != "/images/Gym_Bag.png" || got.Filename != "Gym_Bag.png" {
		t.Fatalf("unexpected upload response: %#v", got)
	}

	img := do(t, h, httptest.NewRequest(http.MethodGet, got.Path, nil))
	if img.Code != http.StatusOK || img.Body.String() != "png-bytes" {
		t.Fatalf("serve image: %d %q", img.Code, img.Body.String())
	}
	if ct := img.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type = %q", ct)
	}

	if rec := upload(t, h, "notes.txt", []byte("x")); rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "Invalid file type") {
		t.Fatalf("bad type: %d %s", rec.Code, rec.Body.String())
	}
	if rec := upload(t, h, "", nil); rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "No file provided") {
		t.Fatalf("no file: %d %s", rec.Code, rec.Body.String())
	}
	if rec := upload(t, h, "big.png", make([]byte, 2048)); rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "File too large") {
		t.Fatalf("too large: %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, h, httptest.NewRequest(http.MethodGet, "/images/missing.png", nil)); rec.Code != http.StatusNotFound {
		t.Fatalf("missing image: %d", rec.Code)
	}
}

func TestSummaryAndCalendar(t *testing.T) {
	t.Parallel()

	srv, hst := newTestServer(t, "")
	ctx := context.Background()
	for _, cmd := range []model.Command{
		model.AddChild("Ada"),
		model.AddItem("Ada", "recorder", "Recorder", ""),
		model.SetWeeklySchedule("Ada", model.Monday, []string{"recorder"}),
		model.AddException("Ada", "2025-03-17", nil),
	} {
		if err := hst.Dispatch(ctx, cmd); err != nil {
			t.Fatalf("Dispatch %s: %v", cmd.Op, err)
		}
	}
	h := srv.Handler()

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/api/summary", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: %d %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"display_date":"2025-03-10"`) || !strings.Contains(rec.Body.String(), "Recorder") {
		t.Fatalf("unexpected summary: %s", rec.Body.String())
	}

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/api/summary?date=2025-03-17&format=md", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "_Day off._") {
		t.Fatalf("markdown summary: %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, h, httptest.NewRequest(http.MethodGet, "/api/summary?date=tomorrow", nil)); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad date: %d", rec.Code)
	}

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/api/calendar?child=Ada&from=2025-03-10&to=2025-03-23", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("calendar: %d %s", rec.Code, rec.Body.String())
	}
	var days []struct {
		Date string `json:"date"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &days); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(days) != 1 || days[0].Date != "2025-03-10" {
		t.Fatalf("expected only 2025-03-10 (2025-03-17 is a day off); got %#v", days)
	}
	if rec := do(t, h, httptest.NewRequest(http.MethodGet, "/api/calendar?child=Nobody&from=2025-03-10&to=2025-03-11", nil)); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown child: %d", rec.Code)
	}

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `id="summary"`) || !strings.Contains(rec.Body.String(), "Recorder") {
		t.Fatalf("index: %d %s", rec.Code, rec.Body.String())
	}
}

func TestEvents_StreamsSnapshotSignals(t *testing.T) {
	t.Parallel()

	srv, hst := newTestServer(t, "")
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/events", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /events: %v", err)
	}
	defer resp.Body.Close()

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	waitFor := func(needle string) {
		t.Helper()
		for {
			select {
			case l, ok := <-lines:
				if !ok {
					t.Fatalf("stream ended before %q", needle)
				}
				if strings.Contains(l, needle) {
					return
				}
			case <-ctx.Done():
				t.Fatalf("timed out waiting for %q", needle)
			}
		}
	}

	waitFor(`"snapshot"`)
	if err := hst.Dispatch(context.Background(), model.AddChild("Ada")); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	waitFor(`"Ada"`)
}

func TestReads_MissingStoreIsReportedNotCreated(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	srv, err := NewServer(ServerConfig{Addr: "127.0.0.1:0"}, host.New(store.Store{Dir: dir}, nil), images.New(filepath.Join(dir, "images"), 1024), nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	if rec := do(t, srv.Handler(), httptest.NewRequest(http.MethodGet, "/api/snapshot", nil)); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("snapshot: expected 503; got %d", rec.Code)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/events", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /events: %v", err)
	}
	defer resp.Body.Close()

	sc := bufio.NewScanner(resp.Body)
	found := false
	for sc.Scan() {
		if strings.Contains(sc.Text(), store.ErrMissing.Error()) {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("expected first patch to report the missing store")
	}
	if _, err := os.Stat(filepath.Join(dir, "schedule.sqlite")); !os.IsNotExist(err) {
		t.Fatalf("expected no database to be created; stat err = %v", err)
	}
}
