// Package engine advances the hunter-gatherer ecosystem one day at a time.
//
// A Simulation owns the State and composes the environment, divine event,
// resource, adaptation and migration sub-models in a fixed order. It performs
// no locking; Engine serializes access when a Simulation is shared.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/tribesim/internal/entropy"
	"github.com/talgya/tribesim/internal/weather"
)

// maxRecentEvents bounds the in-memory event ring.
const maxRecentEvents = 1000

// Event is a notable occurrence emitted while computing the next state.
type Event struct {
	Day         int            `json:"day"`
	Kind        string         `json:"kind"`
	Category    string         `json:"category"`
	Description string         `json:"description"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// Event categories.
const (
	CategorySeason       = "season"
	CategoryWeather      = "weather"
	CategoryDivine       = "divine"
	CategoryNature       = "nature"
	CategoryAdaptation   = "adaptation"
	CategoryConservation = "conservation"
	CategoryAdvancement  = "advancement"
	CategoryPopulation   = "population"
	CategoryMigration    = "migration"
	CategoryNetwork      = "network"
	CategoryIntervention = "intervention"
)

// Simulation holds the ecosystem state and the random stream that drives it.
type Simulation struct {
	state  State
	params Params
	rng    entropy.Source
	cycle  *weather.Cycle

	// activeToday is the set of divine events in force for the day being
	// computed, captured before durations tick down.
	activeToday [divineEventCount]bool
	inDay       bool

	pending         []Event
	recent          []Event
	extinctReported bool
}

// NewSimulation creates the initial ecosystem from p, drawing all
// randomness from src.
func NewSimulation(p Params, src entropy.Source) *Simulation {
	s := &Simulation{
		params: p,
		rng:    src,
		state: State{
			Humans:            p.InitialHumans,
			Animals:           p.InitialAnimals,
			Plants:            p.InitialPlants,
			Rainfall:          p.InitialRainfall,
			PlantReserves:     p.MinPlantReserves,
			FarmingEfficiency: 1.0,
			ToolsQuality:      1.0,
			FoodStorage:       p.InitialFoodStorage,
			MaxFoodStorage:    p.InitialMaxFoodStorage,
		},
		cycle: weather.NewCycle(p.Climate.CycleSeed, p.Climate.CycleAmplitude, p.Climate.CyclePeriod),
	}
	s.enforceInvariants()
	return s
}

// AdvanceDay computes the next day's state. It reports whether a season
// boundary was crossed and returns the day's events in emission order.
func (s *Simulation) AdvanceDay() (bool, []Event) {
	s.inDay = true
	defer func() { s.inDay = false }()

	seasonChanged := s.advanceSeasonClock()
	s.updateRainfall()
	s.processActiveEvents()

	d := &dayContext{
		growthModifier: s.growthModifier(s.activeToday[DivineBlessing], s.activeToday[DivinePlantBlight]),
		animalModifier: s.params.SeasonAnimalModifiers[s.state.Season%4],
	}

	d.conservation = s.runConservation()
	s.state.ConservationActive = d.conservation

	s.graze(d)
	s.prepareGathering(d)
	s.reproduce(d)
	s.gather(d)
	s.hunt(d)
	s.settleResources(d)

	s.bankSurplus(d)
	s.state.SurvivalKnowledge += 0.002
	s.drawStorage(d)
	s.tradeIfShort(d)
	s.updateHumanPopulation(d)

	s.triggerMigration()
	s.sisterSettlementInteraction()

	s.enforceInvariants()
	s.recordHistory()
	s.state.Day++

	if s.state.Humans == 0 && !s.extinctReported {
		s.extinctReported = true
		s.emit("extinction", CategoryPopulation, "The human population has died out", nil)
		slog.Info("human extinction", "day", s.state.Day)
	}

	slog.Debug("day advanced",
		"day", s.state.Day,
		"season", SeasonName(s.state.Season),
		"humans", s.state.Humans,
		"animals", s.state.Animals,
		"plants", s.state.Plants,
		"rainfall", s.state.Rainfall,
		"food_storage", fmt.Sprintf("%.1f", s.state.FoodStorage),
	)

	return seasonChanged, s.flush()
}

// State returns a copy of the current state, history included.
func (s *Simulation) State() State {
	out := s.state
	out.History = append([]DaySnapshot(nil), s.state.History...)
	return out
}

// History returns a copy of the daily snapshots recorded so far.
func (s *Simulation) History() []DaySnapshot {
	return append([]DaySnapshot(nil), s.state.History...)
}

// Params returns the parameters the simulation was created with.
func (s *Simulation) Params() Params {
	return s.params
}

// Extinct reports the terminal condition: no humans remain.
func (s *Simulation) Extinct() bool {
	return s.state.Humans == 0
}

// GrowthModifier returns the plant-growth modifier for the current state.
func (s *Simulation) GrowthModifier() float64 {
	return s.growthModifier(s.state.EventActive(DivineBlessing), s.state.EventActive(DivinePlantBlight))
}

func (s *Simulation) growthModifier(blessing, blight bool) float64 {
	return s.params.Climate.GrowthModifier(s.state.Season, s.state.Rainfall, blessing, blight)
}

// Events returns every retained event, oldest first.
func (s *Simulation) Events() []Event {
	return s.RecentEvents(0)
}

// RecentEvents returns up to limit of the most recent events, oldest first.
// A non-positive limit returns everything retained.
func (s *Simulation) RecentEvents(limit int) []Event {
	start := 0
	if limit > 0 && len(s.recent) > limit {
		start = len(s.recent) - limit
	}
	return append([]Event(nil), s.recent[start:]...)
}

// emit records an event stamped with the day being computed.
func (s *Simulation) emit(kind, category, description string, meta map[string]any) {
	day := s.state.Day
	if s.inDay {
		day++
	}
	s.pending = append(s.pending, Event{
		Day:         day,
		Kind:        kind,
		Category:    category,
		Description: description,
		Meta:        meta,
	})
}

// flush hands pending events to the caller and keeps them in the recent ring.
func (s *Simulation) flush() []Event {
	out := s.pending
	s.pending = nil
	s.recent = append(s.recent, out...)
	if len(s.recent) > maxRecentEvents {
		s.recent = append([]Event(nil), s.recent[len(s.recent)-maxRecentEvents:]...)
	}
	return out
}

// enforceInvariants applies the carrying capacities and reserve floors.
func (s *Simulation) enforceInvariants() {
	st := &s.state
	p := s.params

	st.PlantReserves = clamp(st.PlantReserves, 0, p.MaxPlants)
	st.Plants = clamp(st.Plants, st.PlantReserves, p.MaxPlants)
	st.Animals = clamp(st.Animals, 0, p.MaxAnimals)
	if st.AnimalReserves > st.Animals {
		st.AnimalReserves = st.Animals
	}
	st.Humans = clamp(st.Humans, 0, p.MaxHumans)
	st.Rainfall = clamp(st.Rainfall, 0, 100)
	st.FoodStorage = clampFloat(st.FoodStorage, 0, float64(st.MaxFoodStorage))
}

func (s *Simulation) recordHistory() {
	s.state.History = append(s.state.History, DaySnapshot{
		Day:         s.state.Day + 1,
		Humans:      s.state.Humans,
		Animals:     s.state.Animals,
		Plants:      s.state.Plants,
		Rainfall:    s.state.Rainfall,
		FoodStorage: s.state.FoodStorage,
	})
}

// addFood banks food up to the storage capacity.
func (s *Simulation) addFood(amount float64) {
	s.state.FoodStorage = minFloat(float64(s.state.MaxFoodStorage), s.state.FoodStorage+amount)
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

func clampFloat(n, lo, hi float64) float64 {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
