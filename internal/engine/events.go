package engine

import (
	"fmt"
	"log/slog"
)

// DefaultDuration is the duration an operator gets when none is given.
func (k DivineEvent) DefaultDuration() int {
	switch k {
	case DivinePlague:
		return 5
	case DivineDrought:
		return 10
	case DivinePlantBlight:
		return 8
	default:
		return 7
	}
}

// processActiveEvents applies today's per-day event effects and ticks every
// active duration down by one. Rate modifiers later in the day read
// activeToday, so an event started with duration D shapes exactly D days.
func (s *Simulation) processActiveEvents() {
	st := &s.state
	for _, k := range DivineEvents() {
		s.activeToday[k] = st.ActiveEvents[k] > 0
		if !s.activeToday[k] {
			continue
		}

		switch k {
		case DivinePlague:
			deaths := max(1, int(float64(st.Humans)*s.rng.Uniform(0.02, 0.08)))
			deaths = min(deaths, st.Humans)
			st.Humans -= deaths
			if deaths > 0 {
				s.emit("plague_deaths", CategoryDivine,
					fmt.Sprintf("%d humans died from the plague", deaths),
					map[string]any{"deaths": deaths})
			}
		case DivineAnimalDisease:
			lost := max(1, int(float64(st.Animals)*s.rng.Uniform(0.05, 0.12)))
			lost = min(lost, st.Animals)
			st.Animals -= lost
			if lost > 0 {
				s.emit("animal_disease_deaths", CategoryDivine,
					fmt.Sprintf("%d animals perished from disease", lost),
					map[string]any{"deaths": lost})
			}
		}

		st.ActiveEvents[k]--
		if st.ActiveEvents[k] == 0 {
			s.endEvent(k)
		}
	}
}

// endEvent emits the expiry notice and undoes temporary damage.
func (s *Simulation) endEvent(k DivineEvent) {
	if k == DivinePlantBlight {
		s.state.FarmingEfficiency = farmingEfficiency(s.state.FarmingLevel)
	}
	s.emit("event_ended", CategoryDivine,
		fmt.Sprintf("The %s has subsided", k.Title()),
		map[string]any{"event": k.String()})
}

// applyTriggerShock performs the immediate effect of starting an event.
func (s *Simulation) applyTriggerShock(k DivineEvent) {
	st := &s.state
	switch k {
	case DivineDrought:
		before := st.Rainfall
		st.Rainfall = max(5, st.Rainfall-s.rng.IntRange(20, 40))
		s.emit("drought_shock", CategoryDivine,
			fmt.Sprintf("Rainfall dropped from %d to %d", before, st.Rainfall),
			map[string]any{"from": before, "to": st.Rainfall})

	case DivineBlessing:
		before := st.Rainfall
		st.Rainfall = min(70, st.Rainfall+s.rng.IntRange(10, 20))
		food := s.rng.IntRange(5, 15)
		s.addFood(float64(food))
		s.emit("blessing_shock", CategoryDivine,
			fmt.Sprintf("Rainfall improved from %d to %d and %d units of food appeared", before, st.Rainfall, food),
			map[string]any{"from": before, "to": st.Rainfall, "food": food})

	case DivinePlantBlight:
		s.blightShock()
	}
}

func (s *Simulation) blightShock() {
	st := &s.state

	share := s.rng.Uniform(0.3, 0.5)
	loss := min(int(float64(st.Plants)*share), st.Plants-st.PlantReserves)
	if loss > 0 {
		st.Plants -= loss
		s.emit("blight_damage", CategoryDivine,
			fmt.Sprintf("%d plants withered from the blight", loss),
			map[string]any{"plants": loss, "share": share, "catastrophic": share > 0.4})

		if st.FarmingLevel > 0 && s.rng.Float() < 0.7 {
			before := st.FarmingEfficiency
			reduction := s.rng.Uniform(0.2, 0.4)
			st.FarmingEfficiency = maxFloat(0.5, st.FarmingEfficiency*(1-reduction))
			s.emit("farming_setback", CategoryDivine,
				fmt.Sprintf("Farming efficiency fell from %.1fx to %.1fx until the blight ends", before, st.FarmingEfficiency),
				map[string]any{"from": before, "to": st.FarmingEfficiency})
		}
	}

	if s.rng.Float() < 0.4 && st.Animals > 20 {
		sick := min(int(float64(st.Animals)*0.15), st.Animals-10)
		if sick > 0 {
			st.Animals -= sick
			s.emit("blight_sickness", CategoryDivine,
				fmt.Sprintf("%d animals sickened after eating blighted plants", sick),
				map[string]any{"animals": sick})
			slog.Debug("blight spread to animals", "animals", sick)
		}
	}
}
