package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"school-schedule/internal/model"
	"school-schedule/internal/mutate"
)

// LogEntry is one row of the command log. Rejected commands are logged too, with
// Error set.
type LogEntry struct {
	ID       string        `json:"id"`
	IssuedAt time.Time     `json:"issued_at"`
	Op       model.Op      `json:"op"`
	Subject  string        `json:"subject,omitempty"`
	Command  model.Command `json:"command"`
	Error    string        `json:"error,omitempty"`
}

// Apply runs one command atomically: load, mutate, replace-all save and log, all in a
// single transaction. It returns the snapshot after the command.
func (s Store) Apply(ctx context.Context, cmd model.Command) (model.Snapshot, mutate.Result, error) {
	applyMu.Lock()
	defer applyMu.Unlock()

	if strings.TrimSpace(cmd.ID) == "" {
		cmd.ID = uuid.NewString()
	}

	db, err := s.openSQLite(ctx)
	if err != nil {
		return model.Snapshot{}, mutate.Result{}, err
	}
	defer db.Close()

	snap, res, applyErr := applyTx(ctx, db, cmd)
	if applyErr != nil {
		// Best-effort: a rejected command still leaves a trace.
		_ = appendLog(ctx, db, cmd, applyErr)
		return model.Snapshot{}, mutate.Result{}, applyErr
	}
	return snap, res, nil
}

func applyTx(ctx context.Context, db *sql.DB, cmd model.Command) (model.Snapshot, mutate.Result, error) {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return model.Snapshot{}, mutate.Result{}, err
	}
	defer func() { _ = tx.Rollback() }()

	// Write first so the transaction holds the write lock before it reads.
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO meta(k, v) VALUES('last_command_id', ?)`, cmd.ID); err != nil {
		return model.Snapshot{}, mutate.Result{}, err
	}

	cur, err := loadSnapshot(ctx, tx)
	if err != nil {
		return model.Snapshot{}, mutate.Result{}, err
	}
	next := cur.Clone()
	res, err := mutate.Apply(&next, cmd)
	if err != nil {
		return model.Snapshot{}, mutate.Result{}, err
	}
	if err := saveSnapshot(ctx, tx, next); err != nil {
		return model.Snapshot{}, mutate.Result{}, err
	}
	if err := appendLog(ctx, tx, cmd, nil); err != nil {
		return model.Snapshot{}, mutate.Result{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Snapshot{}, mutate.Result{}, err
	}
	next.Normalize()
	return next, res, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func appendLog(ctx context.Context, x execer, cmd model.Command, cmdErr error) error {
	raw, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	msg := ""
	if cmdErr != nil {
		msg = cmdErr.Error()
	}
	_, err = x.ExecContext(ctx, `INSERT OR REPLACE INTO command_log(id, issued_at_unixms, op, subject, payload_json, error) VALUES(?, ?, ?, ?, ?, ?)`,
		cmd.ID, time.Now().UTC().UnixMilli(), string(cmd.Op), cmd.Subject(), string(raw), msg)
	return err
}

// Log returns the most recent commands, newest first. limit <= 0 means 50.
func (s Store) Log(ctx context.Context, limit int) ([]LogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT id, issued_at_unixms, op, subject, payload_json, error
		FROM command_log ORDER BY issued_at_unixms DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []LogEntry{}
	for rows.Next() {
		var (
			e       LogEntry
			ms      int64
			op      string
			payload string
		)
		if err := rows.Scan(&e.ID, &ms, &op, &e.Subject, &payload, &e.Error); err != nil {
			return nil, err
		}
		e.Op = model.Op(op)
		e.IssuedAt = time.UnixMilli(ms).UTC()
		if err := json.Unmarshal([]byte(payload), &e.Command); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
