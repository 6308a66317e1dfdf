package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"school-schedule/internal/mutate"

	_ "modernc.org/sqlite"
)

const dbFileName = "schedule.sqlite"

var (
	ErrNotFound = mutate.ErrNotFound
	ErrExists   = mutate.ErrExists
	ErrInvalid  = mutate.ErrInvalid

	// ErrMissing means the schedule database does not exist (yet, or any more).
	ErrMissing = errors.New("schedule store not found")
)

// applyMu serializes Apply within the process. SQLite's write lock covers other
// processes.
var applyMu sync.Mutex

// Store is the SQLite-backed home of one household's schedule.
type Store struct {
	Dir string
}

func (s Store) Ensure() error {
	return os.MkdirAll(s.Dir, 0o755)
}

func (s Store) sqlitePath() string {
	return filepath.Join(s.Dir, dbFileName)
}

// Exists reports whether the database file is present.
func (s Store) Exists() bool {
	st, err := os.Stat(s.sqlitePath())
	return err == nil && !st.IsDir()
}

func (s Store) openSQLite(ctx context.Context) (*sql.DB, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", s.sqlitePath())
	if err != nil {
		return nil, err
	}
	// WAL lets the CLI write while a TUI or web host is reading.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS children (
			name TEXT PRIMARY KEY,
			position INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS items (
			owner TEXT NOT NULL,
			id TEXT NOT NULL,
			name TEXT NOT NULL,
			image TEXT NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (owner, id)
		);`,
		`CREATE TABLE IF NOT EXISTS weekly_schedule (
			child TEXT NOT NULL,
			day TEXT NOT NULL,
			position INTEGER NOT NULL,
			item_id TEXT NOT NULL,
			PRIMARY KEY (child, day, position)
		);`,
		`CREATE TABLE IF NOT EXISTS exceptions (
			child TEXT NOT NULL,
			date TEXT NOT NULL,
			PRIMARY KEY (child, date)
		);`,
		`CREATE TABLE IF NOT EXISTS exception_items (
			child TEXT NOT NULL,
			date TEXT NOT NULL,
			position INTEGER NOT NULL,
			item_id TEXT NOT NULL,
			PRIMARY KEY (child, date, position)
		);`,
		`CREATE TABLE IF NOT EXISTS command_log (
			id TEXT PRIMARY KEY,
			issued_at_unixms INTEGER NOT NULL,
			op TEXT NOT NULL,
			subject TEXT NOT NULL,
			payload_json TEXT NOT NULL,
			error TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_command_log_issued ON command_log(issued_at_unixms);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
