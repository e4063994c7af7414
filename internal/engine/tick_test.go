package engine

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestEngineAdvanceCallsCallbacks(t *testing.T) {
	e := NewEngine(newTestSim(3))

	days := 0
	var seasons []uint8
	e.OnDay = func(r DayResult) { days++ }
	e.OnSeason = func(season uint8, day int) { seasons = append(seasons, season) }

	results := e.Advance(65)
	if len(results) != 65 || days != 65 {
		t.Fatalf("results=%d callbacks=%d want 65", len(results), days)
	}
	if len(seasons) != 2 || seasons[0] != SeasonSummer || seasons[1] != SeasonFall {
		t.Fatalf("season callbacks=%v want [summer fall]", seasons)
	}
	for i, r := range results {
		if r.Snapshot.Day != i+1 {
			t.Fatalf("result %d has snapshot day %d", i, r.Snapshot.Day)
		}
	}
}

func TestEngineAdvanceSeasons(t *testing.T) {
	e := NewEngine(newTestSim(8))
	results := e.AdvanceSeasons(2)
	if len(results) != 60 {
		t.Fatalf("two seasons took %d days, want 60", len(results))
	}
	if !results[len(results)-1].SeasonChanged {
		t.Fatal("last day should cross the season boundary")
	}
}

func TestEngineWithSerializesAccess(t *testing.T) {
	e := NewEngine(newTestSim(1))
	done := make(chan struct{})
	go func() {
		e.Advance(20)
		close(done)
	}()
	for i := 0; i < 20; i++ {
		e.With(func(sim *Simulation) {
			st := sim.State()
			if len(st.History) != st.Day {
				t.Errorf("observed torn state: day=%d history=%d", st.Day, len(st.History))
			}
		})
	}
	<-done
}

func TestEngineRunStopsOnCancel(t *testing.T) {
	e := NewEngine(newTestSim(1))
	e.Interval = time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if err := e.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run err=%v want deadline exceeded", err)
	}
	var day int
	e.With(func(sim *Simulation) { day = sim.State().Day })
	if day == 0 {
		t.Fatal("live run advanced no days")
	}
}

func TestEngineRunStopsOnStop(t *testing.T) {
	e := NewEngine(newTestSim(1))
	e.Interval = time.Millisecond
	e.Stop()
	e.Stop()

	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run after Stop err=%v", err)
	}
}

func TestEngineRunEndsOnExtinction(t *testing.T) {
	sim := newTestSim(1)
	sim.SetPopulation(SpeciesHumans, 0)
	e := NewEngine(sim)
	e.Interval = time.Millisecond

	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run err=%v", err)
	}
}
