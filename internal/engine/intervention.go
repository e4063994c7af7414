package engine

import (
	"fmt"
	"log/slog"
)

// Operator overrides. Every input is clamped into range rather than
// rejected; each call returns the events it produced.

// TriggerEvent starts kind for duration days, replacing any remaining
// duration. A non-positive duration cancels the kind without a shock.
func (s *Simulation) TriggerEvent(kind DivineEvent, duration int) []Event {
	if kind >= divineEventCount {
		return nil
	}
	st := &s.state

	if duration <= 0 {
		wasActive := st.EventActive(kind)
		st.ActiveEvents[kind] = 0
		if wasActive {
			s.endEvent(kind)
		}
		slog.Info("event cancelled intervention", "event", kind.String())
		return s.flush()
	}

	st.ActiveEvents[kind] = duration
	s.emit("event_triggered", CategoryIntervention,
		fmt.Sprintf("A %s has been triggered for %d days", kind.Title(), duration),
		map[string]any{"event": kind.String(), "duration": duration})
	s.applyTriggerShock(kind)
	s.enforceInvariants()

	slog.Info("divine event intervention", "event", kind.String(), "duration", duration)
	return s.flush()
}

// CancelAllEvents ends every active divine event immediately.
func (s *Simulation) CancelAllEvents() []Event {
	st := &s.state
	cancelled := 0
	for _, k := range DivineEvents() {
		if st.ActiveEvents[k] > 0 {
			st.ActiveEvents[k] = 0
			s.endEvent(k)
			cancelled++
		}
	}
	s.intervention("cancel_events",
		fmt.Sprintf("%d active events have been cancelled", cancelled),
		map[string]any{"cancelled": cancelled})
	return s.flush()
}

// SetPopulation sets a population directly. Plants never go below the
// reserve floor.
func (s *Simulation) SetPopulation(species Species, value int) []Event {
	st := &s.state
	var target *int
	lo, hi := 0, 0
	switch species {
	case SpeciesHumans:
		target, hi = &st.Humans, s.params.MaxHumans
	case SpeciesAnimals:
		target, hi = &st.Animals, s.params.MaxAnimals
	case SpeciesPlants:
		target, lo, hi = &st.Plants, st.PlantReserves, s.params.MaxPlants
	default:
		return nil
	}
	before := *target
	*target = clamp(value, lo, hi)
	s.enforceInvariants()
	after := *target

	if st.Humans > 0 {
		s.extinctReported = false
	}
	s.intervention("set_population",
		fmt.Sprintf("%s population changed from %d to %d", species, before, after),
		map[string]any{"species": species.String(), "from": before, "to": after})
	return s.flush()
}

// SetRainfall sets rainfall, clamped to [0, 100].
func (s *Simulation) SetRainfall(value int) []Event {
	before := s.state.Rainfall
	s.state.Rainfall = clamp(value, 0, 100)
	s.intervention("set_rainfall",
		fmt.Sprintf("Rainfall changed from %d to %d", before, s.state.Rainfall),
		map[string]any{"from": before, "to": s.state.Rainfall})
	return s.flush()
}

// SetSeason jumps to the start of season (taken modulo 4). No rollover
// effects are applied.
func (s *Simulation) SetSeason(season uint8) []Event {
	before := s.state.Season
	s.state.Season = season % 4
	s.state.DayInSeason = 0
	s.intervention("set_season",
		fmt.Sprintf("Season changed from %s to %s", SeasonName(before), SeasonName(s.state.Season)),
		map[string]any{"from": SeasonName(before), "to": SeasonName(s.state.Season)})
	return s.flush()
}

// AddFood adds food to storage up to capacity. Negative amounts add nothing.
func (s *Simulation) AddFood(amount float64) []Event {
	amount = maxFloat(0, amount)
	s.addFood(amount)
	s.intervention("add_food",
		fmt.Sprintf("%.0f units of food added to storage (%.0f/%d)", amount, s.state.FoodStorage, s.state.MaxFoodStorage),
		map[string]any{"amount": amount, "storage": s.state.FoodStorage})
	return s.flush()
}

// BoostKnowledge raises survival knowledge. Negative amounts add nothing.
func (s *Simulation) BoostKnowledge(amount float64) []Event {
	amount = maxFloat(0, amount)
	before := s.state.SurvivalKnowledge
	s.state.SurvivalKnowledge += amount
	s.intervention("boost_knowledge",
		fmt.Sprintf("Knowledge increased from %.2f to %.2f", before, s.state.SurvivalKnowledge),
		map[string]any{"from": before, "to": s.state.SurvivalKnowledge})
	return s.flush()
}

// BoostFarming raises the farming level and resets efficiency to match.
func (s *Simulation) BoostFarming(levels int) []Event {
	levels = max(0, levels)
	before := s.state.FarmingLevel
	s.state.FarmingLevel += levels
	s.state.FarmingEfficiency = farmingEfficiency(s.state.FarmingLevel)
	s.intervention("boost_farming",
		fmt.Sprintf("Farming level increased from %d to %d (efficiency %.1fx)", before, s.state.FarmingLevel, s.state.FarmingEfficiency),
		map[string]any{"from": before, "to": s.state.FarmingLevel})
	return s.flush()
}

// TriggerFlood spikes rainfall immediately.
func (s *Simulation) TriggerFlood() []Event {
	before := s.state.Rainfall
	s.state.Rainfall = min(100, s.state.Rainfall+s.rng.IntRange(30, 50))
	s.intervention("flood",
		fmt.Sprintf("A flood spiked rainfall from %d to %d", before, s.state.Rainfall),
		map[string]any{"from": before, "to": s.state.Rainfall})
	return s.flush()
}

func (s *Simulation) intervention(action, desc string, meta map[string]any) {
	if meta == nil {
		meta = map[string]any{}
	}
	meta["action"] = action
	s.emit("intervention", CategoryIntervention, desc, meta)
	slog.Info("operator intervention", "action", action, "description", desc)
}
