package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"school-schedule/internal/model"
	"school-schedule/internal/mutate"
)

const backupVersion = 1

// opRestore is logged for a restore. It is never sent to the host.
const opRestore model.Op = "restore"

// Backup is the portable form of a household: the whole snapshot plus when it was taken.
type Backup struct {
	Version    int            `json:"version"`
	ExportedAt time.Time      `json:"exported_at"`
	Snapshot   model.Snapshot `json:"snapshot"`
}

// WriteBackup writes the current state as indented JSON.
func (s Store) WriteBackup(ctx context.Context, w io.Writer) (Backup, error) {
	snap, err := s.LoadExisting(ctx)
	if err != nil {
		return Backup{}, err
	}
	b := Backup{Version: backupVersion, ExportedAt: time.Now().UTC(), Snapshot: snap}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return Backup{}, err
	}
	return b, nil
}

// ReadBackup decodes and checks a backup. Unknown fields are rejected.
func ReadBackup(r io.Reader) (Backup, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var b Backup
	if err := dec.Decode(&b); err != nil {
		return Backup{}, fmt.Errorf("parse backup: %w", err)
	}
	if b.Version != backupVersion {
		return Backup{}, mutate.InvalidError{Msg: fmt.Sprintf("unsupported backup version %d", b.Version)}
	}
	if err := checkSnapshot(b.Snapshot); err != nil {
		return Backup{}, err
	}
	b.Snapshot.Normalize()
	return b, nil
}

// Restore replaces the stored state with b and logs it. Watchers see it like any
// other write.
func (s Store) Restore(ctx context.Context, b Backup) error {
	if err := checkSnapshot(b.Snapshot); err != nil {
		return err
	}

	applyMu.Lock()
	defer applyMu.Unlock()

	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := saveSnapshot(ctx, tx, b.Snapshot); err != nil {
		return err
	}
	if err := appendLog(ctx, tx, model.Command{ID: uuid.NewString(), Op: opRestore}, nil); err != nil {
		return err
	}
	return tx.Commit()
}

// checkSnapshot enforces what the tables' keys need and what readers assume. Dangling
// item IDs in schedules are allowed, as after removing a library item.
func checkSnapshot(snap model.Snapshot) error {
	bad := func(format string, args ...any) error {
		return mutate.InvalidError{Msg: "backup: " + fmt.Sprintf(format, args...)}
	}

	if t := strings.TrimSpace(snap.SwitchoverTime); t != "" {
		if _, err := model.NormalizeSwitchover(t); err != nil {
			return bad("%v", err)
		}
	}
	if err := uniqueItems(snap.ItemLibrary); err != nil {
		return bad("library: %v", err)
	}

	names := map[string]bool{}
	for _, c := range snap.Children {
		name := strings.TrimSpace(c.Name)
		switch {
		case name == "" || name != c.Name:
			return bad("invalid child name %q", c.Name)
		case name == model.SharedPool:
			return bad("%q is reserved", name)
		case names[name]:
			return bad("duplicate child %q", name)
		}
		names[name] = true

		if err := uniqueItems(c.Items); err != nil {
			return bad("%s: %v", name, err)
		}
		for day := range c.WeeklySchedule {
			if d, err := model.ParseWeekday(string(day)); err != nil || d != day {
				return bad("%s: invalid weekday %q", name, day)
			}
		}
		for date := range c.Exceptions {
			if t, err := model.ParseDate(date); err != nil || model.FormatDate(t) != date {
				return bad("%s: invalid date %q", name, date)
			}
		}
	}
	return nil
}

func uniqueItems(items []model.Item) error {
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.ID) == "" {
			return fmt.Errorf("item %q has no id", it.Name)
		}
		if seen[it.ID] {
			return fmt.Errorf("duplicate item id %q", it.ID)
		}
		seen[it.ID] = true
	}
	return nil
}
