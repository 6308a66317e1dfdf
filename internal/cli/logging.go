package cli

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"school-schedule/internal/store"
)

// newLogger builds the process logger: JSON lines appended to cfg.LogPath when set,
// else text on stderr when given, else nothing.
func newLogger(cfg store.Config, stderr io.Writer) (*slog.Logger, func() error, error) {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}
	noop := func() error { return nil }

	if p := strings.TrimSpace(cfg.LogPath); p != "" {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		return slog.New(slog.NewJSONHandler(f, opts)), f.Close, nil
	}
	if stderr != nil {
		return slog.New(slog.NewTextHandler(stderr, opts)), noop, nil
	}
	return slog.New(slog.DiscardHandler), noop, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
