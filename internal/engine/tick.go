package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DayResult is the outcome of one simulated day.
type DayResult struct {
	Snapshot      DaySnapshot `json:"snapshot"`
	Season        uint8       `json:"season"`
	SeasonChanged bool        `json:"season_changed"`
	Events        []Event     `json:"events"`
}

// Engine serializes access to one Simulation and drives it forward, either
// on demand or on a real-time interval.
type Engine struct {
	mu  sync.Mutex
	sim *Simulation

	Speed    float64       // Multiplier: 1.0 = one day per Interval, 0 = paused
	Interval time.Duration // Base day interval in live mode

	// Callbacks run after each day, outside the engine lock.
	OnDay    func(DayResult)
	OnSeason func(season uint8, day int)

	stopOnce sync.Once
	stop     chan struct{}
}

// NewEngine wraps sim with default live-mode settings.
func NewEngine(sim *Simulation) *Engine {
	return &Engine{
		sim:      sim,
		Speed:    1.0,
		Interval: time.Second,
		stop:     make(chan struct{}),
	}
}

// With runs fn while holding the engine lock. fn must not retain sim.
func (e *Engine) With(fn func(sim *Simulation)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.sim)
}

// Step advances one day. It does nothing once humans are extinct.
func (e *Engine) Step() (DayResult, bool) {
	results := e.Advance(1)
	if len(results) == 0 {
		return DayResult{}, false
	}
	return results[0], true
}

// Advance simulates up to days days, stopping early on extinction.
func (e *Engine) Advance(days int) []DayResult {
	e.mu.Lock()
	var results []DayResult
	for i := 0; i < days && !e.sim.Extinct(); i++ {
		results = append(results, e.advanceLocked())
	}
	e.mu.Unlock()

	e.notify(results)
	return results
}

// AdvanceSeasons simulates until n season boundaries have been crossed or
// humans go extinct.
func (e *Engine) AdvanceSeasons(n int) []DayResult {
	e.mu.Lock()
	var results []DayResult
	for crossed := 0; crossed < n && !e.sim.Extinct(); {
		r := e.advanceLocked()
		if r.SeasonChanged {
			crossed++
		}
		results = append(results, r)
	}
	e.mu.Unlock()

	e.notify(results)
	return results
}

func (e *Engine) advanceLocked() DayResult {
	changed, events := e.sim.AdvanceDay()
	h := e.sim.state.History
	return DayResult{
		Snapshot:      h[len(h)-1],
		Season:        e.sim.state.Season,
		SeasonChanged: changed,
		Events:        events,
	}
}

func (e *Engine) notify(results []DayResult) {
	for _, r := range results {
		if e.OnDay != nil {
			e.OnDay(r)
		}
		if r.SeasonChanged && e.OnSeason != nil {
			e.OnSeason(r.Season, r.Snapshot.Day)
		}
	}
}

// Run advances one day per interval until ctx is cancelled, Stop is
// called, or humans go extinct.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("simulation engine started", "speed", e.Speed, "interval", e.Interval)
	defer slog.Info("simulation engine stopped")

	for {
		if e.Speed <= 0 {
			// Paused.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-e.stop:
				return nil
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}

		start := time.Now()
		if _, ok := e.Step(); !ok {
			slog.Info("simulation ended", "reason", "human extinction")
			return nil
		}

		wait := time.Duration(float64(e.Interval)/e.Speed) - time.Since(start)
		if wait < 0 {
			wait = 0
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.stop:
			return nil
		case <-time.After(wait):
		}
	}
}

// Stop halts Run. Safe to call more than once.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stop) })
}
