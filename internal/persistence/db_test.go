package persistence

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/talgya/tribesim/internal/engine"
	"github.com/talgya/tribesim/internal/entropy"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleEvents() []engine.Event {
	return []engine.Event{
		{Day: 1, Kind: "season_changed", Category: engine.CategorySeason, Description: "The season has turned to Summer", Meta: map[string]any{"season": "Summer"}},
		{Day: 1, Kind: "plague_deaths", Category: engine.CategoryDivine, Description: "2 humans died from the plague", Meta: map[string]any{"deaths": 2}},
		{Day: 2, Kind: "event_ended", Category: engine.CategoryDivine, Description: "The plague has subsided"},
	}
}

func exerciseJournal(t *testing.T, j Journal) {
	t.Helper()
	ctx := context.Background()

	runID, err := j.StartRun(ctx, 42, engine.DefaultParams())
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if _, err := uuid.Parse(runID); err != nil {
		t.Fatalf("run id %q is not a uuid: %v", runID, err)
	}

	if err := j.SaveEvents(ctx, runID, sampleEvents()); err != nil {
		t.Fatalf("SaveEvents: %v", err)
	}
	if err := j.SaveEvents(ctx, runID, nil); err != nil {
		t.Fatalf("SaveEvents(nil): %v", err)
	}

	got, err := j.RecentEvents(ctx, runID, 2)
	if err != nil {
		t.Fatalf("RecentEvents: %v", err)
	}
	if len(got) != 2 || got[0].Kind != "plague_deaths" || got[1].Kind != "event_ended" {
		t.Fatalf("recent events=%+v want last two in emission order", got)
	}
	if deaths, ok := got[0].Meta["deaths"].(float64); !ok || deaths != 2 {
		t.Fatalf("meta not restored: %+v", got[0].Meta)
	}
	if got[1].Meta != nil {
		t.Fatalf("empty meta should decode to nil, got %+v", got[1].Meta)
	}

	snaps := []engine.DaySnapshot{
		{Day: 1, Humans: 10, Animals: 52, Plants: 120, Rainfall: 55, FoodStorage: 9.5},
		{Day: 2, Humans: 11, Animals: 54, Plants: 131, Rainfall: 48, FoodStorage: 8},
	}
	for _, s := range snaps {
		if err := j.SaveSnapshot(ctx, runID, s); err != nil {
			t.Fatalf("SaveSnapshot: %v", err)
		}
	}
	if err := j.SaveSnapshot(ctx, runID, snaps[1]); err != nil {
		t.Fatalf("SaveSnapshot replace: %v", err)
	}

	history, err := j.History(ctx, runID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if diff := cmp.Diff(snaps, history); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}

	other, err := j.StartRun(ctx, 43, engine.DefaultParams())
	if err != nil {
		t.Fatalf("StartRun second: %v", err)
	}
	if events, _ := j.RecentEvents(ctx, other, 10); len(events) != 0 {
		t.Fatalf("runs must be isolated, got %d events", len(events))
	}
}

func TestSQLiteJournal(t *testing.T) {
	exerciseJournal(t, openTestDB(t))
}

func TestPostgresJournal(t *testing.T) {
	dsn := os.Getenv("TRIBESIM_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TRIBESIM_TEST_PG_DSN is required for postgres journal test")
	}
	j, err := OpenPostgres(dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	defer j.Close()
	exerciseJournal(t, j)
}

func TestOpenPicksBackend(t *testing.T) {
	if !isPostgres("postgres://user@localhost/db") || !isPostgres("postgresql://localhost/db") {
		t.Fatal("postgres URLs not recognised")
	}
	if isPostgres("journal.db") {
		t.Fatal("plain path treated as postgres")
	}

	j, err := Open(filepath.Join(t.TempDir(), "open.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer j.Close()
	if _, ok := j.(*DB); !ok {
		t.Fatalf("expected sqlite journal, got %T", j)
	}
}

func TestRecorderJournalsSimulatedDays(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	sim := engine.NewSimulation(engine.DefaultParams(), entropy.NewSeeded(5))
	rec, err := NewRecorder(ctx, db, 5, sim.Params())
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	eng := engine.NewEngine(sim)
	eng.OnDay = rec.Record
	rec.RecordEvents(sim.TriggerEvent(engine.DivinePlague, 3))
	eng.Advance(10)

	history, err := db.History(ctx, rec.RunID())
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if diff := cmp.Diff(sim.History(), history); diff != "" {
		t.Fatalf("journaled history mismatch (-sim +db):\n%s", diff)
	}

	events, err := db.RecentEvents(ctx, rec.RunID(), 1000)
	if err != nil {
		t.Fatalf("RecentEvents: %v", err)
	}
	if len(events) != len(sim.Events()) {
		t.Fatalf("journaled %d events, simulation emitted %d", len(events), len(sim.Events()))
	}
	if events[0].Kind != "event_triggered" {
		t.Fatalf("first journaled event=%q want event_triggered", events[0].Kind)
	}
}
