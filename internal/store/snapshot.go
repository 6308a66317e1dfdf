package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"school-schedule/internal/model"
)

// sharedOwner marks library rows in the items table.
const sharedOwner = ""

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Load returns the stored snapshot, creating an empty database on first use.
func (s Store) Load(ctx context.Context) (model.Snapshot, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return model.Snapshot{}, err
	}
	defer db.Close()
	return loadSnapshot(ctx, db)
}

// LoadExisting is Load without the create: it returns ErrMissing when the database
// file is absent.
func (s Store) LoadExisting(ctx context.Context) (model.Snapshot, error) {
	if !s.Exists() {
		return model.Snapshot{}, fmt.Errorf("%w: %s", ErrMissing, s.sqlitePath())
	}
	return s.Load(ctx)
}

// Save replaces the whole stored state with snap.
func (s Store) Save(ctx context.Context, snap model.Snapshot) error {
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

	if err := saveSnapshot(ctx, tx, snap); err != nil {
		return err
	}
	return tx.Commit()
}

func loadSnapshot(ctx context.Context, q queryer) (model.Snapshot, error) {
	var snap model.Snapshot

	var switchover string
	err := q.QueryRowContext(ctx, `SELECT v FROM meta WHERE k = 'switchover_time'`).Scan(&switchover)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return model.Snapshot{}, err
	}
	snap.SwitchoverTime = switchover

	index := map[string]int{}
	rows, err := q.QueryContext(ctx, `SELECT name FROM children ORDER BY position`)
	if err != nil {
		return model.Snapshot{}, err
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return model.Snapshot{}, err
		}
		index[name] = len(snap.Children)
		snap.Children = append(snap.Children, model.Child{Name: name})
	}
	if err := closeRows(rows); err != nil {
		return model.Snapshot{}, err
	}

	rows, err = q.QueryContext(ctx, `SELECT owner, id, name, image FROM items ORDER BY owner, position`)
	if err != nil {
		return model.Snapshot{}, err
	}
	for rows.Next() {
		var owner string
		var it model.Item
		if err := rows.Scan(&owner, &it.ID, &it.Name, &it.Image); err != nil {
			rows.Close()
			return model.Snapshot{}, err
		}
		if owner == sharedOwner {
			snap.ItemLibrary = append(snap.ItemLibrary, it)
			continue
		}
		if i, ok := index[owner]; ok {
			snap.Children[i].Items = append(snap.Children[i].Items, it)
		}
	}
	if err := closeRows(rows); err != nil {
		return model.Snapshot{}, err
	}

	snap.Normalize()

	rows, err = q.QueryContext(ctx, `SELECT child, day, item_id FROM weekly_schedule ORDER BY child, day, position`)
	if err != nil {
		return model.Snapshot{}, err
	}
	for rows.Next() {
		var child, day, id string
		if err := rows.Scan(&child, &day, &id); err != nil {
			rows.Close()
			return model.Snapshot{}, err
		}
		if i, ok := index[child]; ok {
			c := &snap.Children[i]
			c.WeeklySchedule[model.Weekday(day)] = append(c.WeeklySchedule[model.Weekday(day)], id)
		}
	}
	if err := closeRows(rows); err != nil {
		return model.Snapshot{}, err
	}

	// Exceptions and their items are stored separately so a day off (no items)
	// survives the round trip.
	rows, err = q.QueryContext(ctx, `SELECT child, date FROM exceptions`)
	if err != nil {
		return model.Snapshot{}, err
	}
	for rows.Next() {
		var child, date string
		if err := rows.Scan(&child, &date); err != nil {
			rows.Close()
			return model.Snapshot{}, err
		}
		if i, ok := index[child]; ok {
			snap.Children[i].Exceptions[date] = []string{}
		}
	}
	if err := closeRows(rows); err != nil {
		return model.Snapshot{}, err
	}

	rows, err = q.QueryContext(ctx, `SELECT child, date, item_id FROM exception_items ORDER BY child, date, position`)
	if err != nil {
		return model.Snapshot{}, err
	}
	for rows.Next() {
		var child, date, id string
		if err := rows.Scan(&child, &date, &id); err != nil {
			rows.Close()
			return model.Snapshot{}, err
		}
		if i, ok := index[child]; ok {
			c := &snap.Children[i]
			if ids, ok := c.Exceptions[date]; ok {
				c.Exceptions[date] = append(ids, id)
			}
		}
	}
	if err := closeRows(rows); err != nil {
		return model.Snapshot{}, err
	}

	return snap, nil
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	return rows.Close()
}

func saveSnapshot(ctx context.Context, tx *sql.Tx, snap model.Snapshot) error {
	snap.Normalize()

	// Replace-all keeps ordering simple; the data set is one household.
	for _, t := range []string{"children", "items", "weekly_schedule", "exceptions", "exception_items"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+t); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO meta(k, v) VALUES('switchover_time', ?)`, strings.TrimSpace(snap.SwitchoverTime)); err != nil {
		return err
	}

	for pos, it := range snap.ItemLibrary {
		if _, err := tx.ExecContext(ctx, `INSERT INTO items(owner, id, name, image, position) VALUES(?, ?, ?, ?, ?)`,
			sharedOwner, it.ID, it.Name, it.Image, pos); err != nil {
			return err
		}
	}
	for cpos, c := range snap.Children {
		if _, err := tx.ExecContext(ctx, `INSERT INTO children(name, position) VALUES(?, ?)`, c.Name, cpos); err != nil {
			return err
		}
		for pos, it := range c.Items {
			if _, err := tx.ExecContext(ctx, `INSERT INTO items(owner, id, name, image, position) VALUES(?, ?, ?, ?, ?)`,
				c.Name, it.ID, it.Name, it.Image, pos); err != nil {
				return err
			}
		}
		for day, ids := range c.WeeklySchedule {
			for pos, id := range ids {
				if _, err := tx.ExecContext(ctx, `INSERT INTO weekly_schedule(child, day, position, item_id) VALUES(?, ?, ?, ?)`,
					c.Name, string(day), pos, id); err != nil {
					return err
				}
			}
		}
		for date, ids := range c.Exceptions {
			if _, err := tx.ExecContext(ctx, `INSERT INTO exceptions(child, date) VALUES(?, ?)`, c.Name, date); err != nil {
				return err
			}
			for pos, id := range ids {
				if _, err := tx.ExecContext(ctx, `INSERT INTO exception_items(child, date, position, item_id) VALUES(?, ?, ?, ?)`,
					c.Name, date, pos, id); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
