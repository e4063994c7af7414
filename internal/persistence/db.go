package persistence

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/tribesim/internal/engine"
)

// DB is the SQLite journal.
type DB struct {
	conn *sqlx.DB
}

// OpenSQLite opens or creates a SQLite journal at the given path.
func OpenSQLite(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		params_json TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		day INTEGER NOT NULL,
		kind TEXT NOT NULL,
		category TEXT NOT NULL,
		description TEXT NOT NULL,
		meta_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS snapshots (
		run_id TEXT NOT NULL,
		day INTEGER NOT NULL,
		humans INTEGER NOT NULL,
		animals INTEGER NOT NULL,
		plants INTEGER NOT NULL,
		rainfall INTEGER NOT NULL,
		food_storage REAL NOT NULL,
		PRIMARY KEY (run_id, day)
	);

	CREATE INDEX IF NOT EXISTS idx_events_run_day ON events(run_id, day);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// StartRun records a new run and returns its id.
func (db *DB) StartRun(ctx context.Context, seed int64, params engine.Params) (string, error) {
	paramsJSON, err := encodeParams(params)
	if err != nil {
		return "", err
	}
	id := newRunID()
	if _, err := db.conn.ExecContext(ctx,
		"INSERT INTO runs (id, seed, params_json) VALUES (?, ?, ?)",
		id, seed, paramsJSON,
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// SaveEvents appends events in one transaction.
func (db *DB) SaveEvents(ctx context.Context, runID string, events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `INSERT INTO events
		(run_id, day, kind, category, description, meta_json)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.ExecContext(ctx, runID, e.Day, e.Kind, e.Category, e.Description, encodeMeta(e.Meta)); err != nil {
			return fmt.Errorf("insert event %s day %d: %w", e.Kind, e.Day, err)
		}
	}

	return tx.Commit()
}

// SaveSnapshot stores one day's snapshot, replacing an existing row.
func (db *DB) SaveSnapshot(ctx context.Context, runID string, snap engine.DaySnapshot) error {
	_, err := db.conn.ExecContext(ctx, `INSERT OR REPLACE INTO snapshots
		(run_id, day, humans, animals, plants, rainfall, food_storage)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, snap.Day, snap.Humans, snap.Animals, snap.Plants, snap.Rainfall, snap.FoodStorage,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot day %d: %w", snap.Day, err)
	}
	return nil
}

type eventRow struct {
	Day         int    `db:"day"`
	Kind        string `db:"kind"`
	Category    string `db:"category"`
	Description string `db:"description"`
	MetaJSON    string `db:"meta_json"`
}

// RecentEvents returns the most recent N events of a run, oldest first.
func (db *DB) RecentEvents(ctx context.Context, runID string, limit int) ([]engine.Event, error) {
	var rows []eventRow
	err := db.conn.SelectContext(ctx, &rows,
		"SELECT day, kind, category, description, meta_json FROM events WHERE run_id = ? ORDER BY id DESC LIMIT ?",
		runID, limit,
	)
	if err != nil {
		return nil, err
	}

	events := make([]engine.Event, 0, len(rows))
	for _, r := range rows {
		events = append(events, engine.Event{
			Day:         r.Day,
			Kind:        r.Kind,
			Category:    r.Category,
			Description: r.Description,
			Meta:        decodeMeta(r.MetaJSON),
		})
	}
	reverse(events)
	return events, nil
}

// History returns every snapshot of a run in day order.
func (db *DB) History(ctx context.Context, runID string) ([]engine.DaySnapshot, error) {
	var snaps []engine.DaySnapshot
	err := db.conn.SelectContext(ctx, &snaps,
		"SELECT day, humans, animals, plants, rainfall, food_storage FROM snapshots WHERE run_id = ? ORDER BY day",
		runID,
	)
	return snaps, err
}
