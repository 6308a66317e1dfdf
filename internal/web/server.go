package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/starfederation/datastar-go/datastar"

	"school-schedule/internal/format"
	"school-schedule/internal/host"
	"school-schedule/internal/images"
	"school-schedule/internal/model"
	"school-schedule/internal/mutate"
	"school-schedule/internal/panel"
	"school-schedule/internal/store"
)

//go:embed templates/*.html
var assetsFS embed.FS

type ServerConfig struct {
	Addr string

	// TokenSecret enables bearer-token auth on every route except /health.
	TokenSecret string

	Now func() time.Time
}

type Server struct {
	cfg    ServerConfig
	host   *host.Host
	images *images.Store
	tmpl   *template.Template
	log    *slog.Logger
}

func NewServer(cfg ServerConfig, h *host.Host, img *images.Store, log *slog.Logger) (*Server, error) {
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	cfg.TokenSecret = strings.TrimSpace(cfg.TokenSecret)
	if cfg.Addr == "" {
		return nil, errors.New("web: addr is empty")
	}
	if h == nil || img == nil {
		return nil, errors.New("web: host and image store are required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	tmpl, err := template.ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Server{cfg: cfg, host: h, images: img, tmpl: tmpl, log: log}, nil
}

func (s *Server) Addr() string { return s.cfg.Addr }

func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /{$}", s.handleIndex)
	api.HandleFunc("GET /events", s.handleEvents)
	api.HandleFunc("GET /images/{name}", s.handleImage)
	api.HandleFunc("GET /api/snapshot", s.handleSnapshot)
	api.HandleFunc("POST /api/commands", s.handleCommand)
	api.HandleFunc("POST /api/upload", s.handleUpload)
	api.HandleFunc("GET /api/summary", s.handleSummary)
	api.HandleFunc("GET /api/calendar", s.handleCalendar)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("/", s.requireAuth(api))
	return s.logRequests(mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("http_request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

// statusFor maps host errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrExists):
		return http.StatusConflict
	case errors.Is(err, store.ErrMissing):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.host.Existing(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type commandResponse struct {
	Success  bool           `json:"success"`
	Result   mutate.Result  `json:"result"`
	Snapshot model.Snapshot `json:"snapshot"`
}

// handleCommand accepts either a bare JSON command or datastar signals carrying it
// under "command".
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var cmd model.Command
	if r.Header.Get("Datastar-Request") == "true" {
		var sig struct {
			Command model.Command `json:"command"`
		}
		if err := datastar.ReadSignals(r, &sig); err != nil {
			writeError(w, http.StatusBadRequest, "invalid signals: "+err.Error())
			return
		}
		cmd = sig.Command
	} else {
		dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cmd); err != nil {
			writeError(w, http.StatusBadRequest, "invalid command: "+err.Error())
			return
		}
	}

	snap, res, err := s.host.Apply(r.Context(), cmd)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, commandResponse{Success: true, Result: res, Snapshot: snap})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	limit := s.images.MaxBytes()
	// Leave room for multipart framing; the image store enforces the exact limit.
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	f, hdr, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusBadRequest, "File too large (max "+sizeLabel(limit)+")")
			return
		}
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer f.Close()

	saved, err := s.images.Save(hdr.Filename, f)
	switch {
	case errors.Is(err, images.ErrNoFile):
		writeError(w, http.StatusBadRequest, "No file provided")
	case errors.Is(err, images.ErrType):
		writeError(w, http.StatusBadRequest, "Invalid file type. Allowed: "+strings.Join(images.Allowed, ", "))
	case errors.Is(err, images.ErrTooLarge):
		writeError(w, http.StatusBadRequest, "File too large (max "+sizeLabel(limit)+")")
	case err != nil:
		s.log.Error("image_upload_failed", "file", hdr.Filename, "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		s.log.Info("image_uploaded", "path", saved.Path)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "path": saved.Path, "filename": saved.Filename})
	}
}

func sizeLabel(n int64) string {
	if n >= 1<<20 && n%(1<<20) == 0 {
		return fmt.Sprintf("%dMB", n>>20)
	}
	return fmt.Sprintf("%d bytes", n)
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	rc, err := s.images.Open(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer rc.Close()
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = io.Copy(w, rc)
}

func (s *Server) summary(snap model.Snapshot, dateParam string) (panel.Summary, error) {
	dateParam = strings.TrimSpace(dateParam)
	if dateParam == "" {
		return panel.Summarize(snap, s.cfg.Now()), nil
	}
	d, err := model.ParseDate(dateParam)
	if err != nil {
		return panel.Summary{}, err
	}
	return panel.SummarizeDate(snap, d), nil
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	snap, err := s.host.Existing(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	sum, err := s.summary(snap, r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if r.URL.Query().Get("format") == "md" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = io.WriteString(w, format.SummaryMarkdown(sum))
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	child := strings.TrimSpace(q.Get("child"))
	from, err := model.ParseDate(q.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "from: "+err.Error())
		return
	}
	to, err := model.ParseDate(q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "to: "+err.Error())
		return
	}
	if to.Sub(from) > 366*24*time.Hour {
		writeError(w, http.StatusBadRequest, "range too long (max one year)")
		return
	}
	snap, err := s.host.Existing(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if !snap.HasChild(child) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("child not found: %s", child))
		return
	}
	writeJSON(w, http.StatusOK, panel.CalendarRange(snap, child, from, to))
}

type indexVM struct {
	StreamURL string
	Body      template.HTML
}

func (s *Server) streamURL(r *http.Request) string {
	u := "/events?view=summary"
	if tok := r.URL.Query().Get("token"); tok != "" {
		u += "&token=" + tok
	}
	return u
}

func (s *Server) renderSummaryHTML(snap model.Snapshot) (string, error) {
	var b strings.Builder
	vm := indexVM{Body: renderMarkdownHTML(format.SummaryMarkdown(panel.Summarize(snap, s.cfg.Now())))}
	if err := s.tmpl.ExecuteTemplate(&b, "summary", vm); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap, err := s.host.Existing(r.Context())
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	vm := indexVM{
		StreamURL: s.streamURL(r),
		Body:      renderMarkdownHTML(format.SummaryMarkdown(panel.Summarize(snap, s.cfg.Now()))),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "index.html", vm); err != nil {
		s.log.Error("render_index_failed", "err", err)
	}
}

// handleEvents streams host updates over SSE. The default view patches the
// "snapshot" signal; view=summary patches the rendered #summary element.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	view := strings.TrimSpace(r.URL.Query().Get("view"))
	if view != "" && view != "summary" {
		http.Error(w, "invalid view (expected summary or none)", http.StatusBadRequest)
		return
	}

	ch, cancel := s.host.Subscribe()
	defer cancel()

	sse := datastar.NewSSE(w, r)

	// Initial state, so a client never waits for the first change.
	if snap, err := s.host.Existing(r.Context()); err == nil {
		s.patch(sse, view, host.Update{Snapshot: snap})
	} else {
		s.patch(sse, view, host.Update{Err: err})
	}

	keepAlive := time.NewTicker(25 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-sse.Context().Done():
			return
		case <-keepAlive.C:
			_ = sse.PatchSignals([]byte(`{}`))
		case u, ok := <-ch:
			if !ok {
				return
			}
			s.patch(sse, view, u)
		}
	}
}

func (s *Server) patch(sse *datastar.ServerSentEventGenerator, view string, u host.Update) {
	errText := ""
	if u.Err != nil {
		errText = u.Err.Error()
	}
	if view == "summary" {
		if u.Err != nil {
			_ = sse.PatchElements(`<main id="summary"><p>`+template.HTMLEscapeString(errText)+`</p></main>`,
				datastar.WithSelector("#summary"), datastar.WithMode(datastar.ElementPatchModeOuter))
			return
		}
		html, err := s.renderSummaryHTML(u.Snapshot)
		if err != nil {
			_ = sse.ExecuteScript(fmt.Sprintf(`console.error(%q)`, err.Error()))
			return
		}
		_ = sse.PatchElements(html, datastar.WithSelector("#summary"), datastar.WithMode(datastar.ElementPatchModeOuter))
		return
	}
	sig := map[string]any{"error": errText}
	if u.Err == nil {
		sig["snapshot"] = u.Snapshot
	}
	_ = sse.MarshalAndPatchSignals(sig)
}
