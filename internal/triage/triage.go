// Package triage derives a crisis level from recent daily snapshots.
// Deterministic and cheap; safe to run on every status request.
package triage

import (
	"fmt"

	"github.com/talgya/tribesim/internal/engine"
)

// Level is the overall crisis classification.
type Level string

const (
	Healthy  Level = "HEALTHY"
	Watch    Level = "WATCH"
	Warning  Level = "WARNING"
	Critical Level = "CRITICAL"
)

// DefaultWindow is one season of history.
const DefaultWindow = 30

// Health holds diagnostic signals computed from history.
type Health struct {
	Days        int      `json:"days"`         // snapshots considered
	HumanTrend  []int    `json:"human_trend"`  // oldest first
	DeclineRate float64  `json:"decline_rate"` // fractional human loss over the window; negative is growth
	FoodPerHead float64  `json:"food_per_head"`
	AnimalRatio float64  `json:"animal_ratio"` // animals per human
	Level       Level    `json:"level"`
	Reasons     []string `json:"reasons,omitempty"`
}

// Assess looks at the last window snapshots of history (oldest first).
func Assess(history []engine.DaySnapshot, window int) Health {
	if window <= 0 {
		window = DefaultWindow
	}
	if len(history) > window {
		history = history[len(history)-window:]
	}

	h := Health{Days: len(history), Level: Healthy}
	if len(history) == 0 {
		return h
	}
	for _, s := range history {
		h.HumanTrend = append(h.HumanTrend, s.Humans)
	}

	oldest, newest := history[0], history[len(history)-1]
	if oldest.Humans > 0 {
		h.DeclineRate = float64(oldest.Humans-newest.Humans) / float64(oldest.Humans)
	}
	if newest.Humans > 0 {
		h.FoodPerHead = newest.FoodStorage / float64(newest.Humans)
		h.AnimalRatio = float64(newest.Animals) / float64(newest.Humans)
	}

	raise := func(l Level, reason string) {
		if rank(l) > rank(h.Level) {
			h.Level = l
		}
		h.Reasons = append(h.Reasons, reason)
	}

	switch {
	case newest.Humans == 0:
		raise(Critical, "the tribe has died out")
	case newest.Humans <= 3:
		raise(Critical, fmt.Sprintf("only %d humans remain", newest.Humans))
	case h.DeclineRate > 0.3:
		raise(Critical, fmt.Sprintf("humans declined %.0f%% over %d days", h.DeclineRate*100, h.Days))
	case h.DeclineRate > 0.1:
		raise(Warning, fmt.Sprintf("humans declined %.0f%% over %d days", h.DeclineRate*100, h.Days))
	case h.DeclineRate > 0:
		raise(Watch, fmt.Sprintf("humans declined %.0f%% over %d days", h.DeclineRate*100, h.Days))
	}

	if newest.Animals < 10 {
		raise(Warning, fmt.Sprintf("animals down to %d", newest.Animals))
	}
	if newest.Plants < 30 {
		raise(Warning, fmt.Sprintf("plants down to %d", newest.Plants))
	}
	if newest.Humans > 0 && newest.FoodStorage == 0 {
		raise(Watch, "food storage is empty")
	}
	return h
}

func rank(l Level) int {
	switch l {
	case Watch:
		return 1
	case Warning:
		return 2
	case Critical:
		return 3
	default:
		return 0
	}
}
