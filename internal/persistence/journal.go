// Package persistence journals simulation runs: one row per run, every
// emitted event and every daily snapshot. The journal is a reporting sink;
// simulations are never restored from it.
package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/tribesim/internal/engine"
)

// Journal records runs for later reporting.
type Journal interface {
	StartRun(ctx context.Context, seed int64, params engine.Params) (string, error)
	SaveEvents(ctx context.Context, runID string, events []engine.Event) error
	SaveSnapshot(ctx context.Context, runID string, snap engine.DaySnapshot) error
	RecentEvents(ctx context.Context, runID string, limit int) ([]engine.Event, error)
	History(ctx context.Context, runID string) ([]engine.DaySnapshot, error)
	Close() error
}

// Open picks a backend from the DSN: postgres:// and postgresql:// URLs go
// to Postgres, anything else is treated as a SQLite path.
func Open(dsn string) (Journal, error) {
	if isPostgres(dsn) {
		j, err := OpenPostgres(dsn)
		if err != nil {
			return nil, err
		}
		return j, nil
	}
	db, err := OpenSQLite(dsn)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func newRunID() string {
	return uuid.NewString()
}

func encodeMeta(meta map[string]any) string {
	if len(meta) == 0 {
		return "{}"
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func decodeMeta(raw string) map[string]any {
	if raw == "" || raw == "{}" {
		return nil
	}
	var meta map[string]any
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil
	}
	return meta
}

func encodeParams(p engine.Params) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode params: %w", err)
	}
	return string(b), nil
}

// reverse flips newest-first query results into emission order.
func reverse(events []engine.Event) {
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
}

// Recorder writes each simulated day into a journal. Failures are logged
// and do not stop the simulation.
type Recorder struct {
	journal Journal
	runID   string
	timeout time.Duration
}

// NewRecorder starts a run in j and returns a recorder bound to it.
func NewRecorder(ctx context.Context, j Journal, seed int64, params engine.Params) (*Recorder, error) {
	id, err := j.StartRun(ctx, seed, params)
	if err != nil {
		return nil, fmt.Errorf("start run: %w", err)
	}
	slog.Info("journal run started", "run_id", id, "seed", seed)
	return &Recorder{journal: j, runID: id, timeout: 5 * time.Second}, nil
}

// RunID returns the journal id of the current run.
func (r *Recorder) RunID() string {
	return r.runID
}

// Record journals one day's events and snapshot.
func (r *Recorder) Record(res engine.DayResult) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.journal.SaveEvents(ctx, r.runID, res.Events); err != nil {
		slog.Error("journal events failed", "day", res.Snapshot.Day, "error", err)
	}
	if err := r.journal.SaveSnapshot(ctx, r.runID, res.Snapshot); err != nil {
		slog.Error("journal snapshot failed", "day", res.Snapshot.Day, "error", err)
	}
}

// RecordEvents journals events produced outside a day, such as overrides.
func (r *Recorder) RecordEvents(events []engine.Event) {
	if len(events) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.journal.SaveEvents(ctx, r.runID, events); err != nil {
		slog.Error("journal events failed", "error", err)
	}
}

// Events reads the run's latest events back from the journal, oldest first.
func (r *Recorder) Events(ctx context.Context, limit int) ([]engine.Event, error) {
	return r.journal.RecentEvents(ctx, r.runID, limit)
}

// History reads the run's daily snapshots back from the journal.
func (r *Recorder) History(ctx context.Context) ([]engine.DaySnapshot, error) {
	return r.journal.History(ctx, r.runID)
}
