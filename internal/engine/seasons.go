// Season clock, rainfall and the once-per-season advancement rolls.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/tribesim/internal/weather"
)

// Season constants.
const (
	SeasonSpring uint8 = 0
	SeasonSummer uint8 = 1
	SeasonFall   uint8 = 2
	SeasonWinter uint8 = 3
)

// SeasonName returns a human-readable season name.
func SeasonName(season uint8) string {
	switch season {
	case SeasonSpring:
		return "Spring"
	case SeasonSummer:
		return "Summer"
	case SeasonFall:
		return "Fall"
	case SeasonWinter:
		return "Winter"
	default:
		return "Unknown"
	}
}

// advanceSeasonClock moves the day-in-season counter and applies the
// rollover effects when a season ends.
func (s *Simulation) advanceSeasonClock() bool {
	st := &s.state
	st.DayInSeason++
	if st.DayInSeason < s.params.SeasonLength {
		return false
	}

	st.Season = (st.Season + 1) % 4
	st.DayInSeason = 0
	s.emit("season_changed", CategorySeason,
		fmt.Sprintf("The season has turned to %s", SeasonName(st.Season)),
		map[string]any{"season": SeasonName(st.Season)})
	slog.Info("season changed", "season", SeasonName(st.Season), "day", st.Day+1)

	s.seasonalNature()
	s.seasonalAdvancement()
	return true
}

// seasonalNature applies seed dispersal, herd migration and fall stockpiling.
func (s *Simulation) seasonalNature() {
	st := &s.state

	if st.Plants < 30 {
		seeds := s.rng.IntRange(5, 15)
		st.Plants += seeds
		s.emit("seed_dispersal", CategoryNature,
			fmt.Sprintf("%d new plants sprouted from dormant seeds", seeds),
			map[string]any{"plants": seeds})
	}

	if s.rng.Float() < 0.3 {
		change := s.rng.IntRange(-10, 20)
		before := st.Animals
		st.Animals = clamp(st.Animals+change, 10, s.params.MaxAnimals)
		s.emit("animal_migration", CategoryNature,
			fmt.Sprintf("Animal population changed from %d to %d", before, st.Animals),
			map[string]any{"from": before, "to": st.Animals})
	}

	if st.Season == SeasonFall && st.Humans >= 5 && s.rng.Float() < 0.8 {
		extra := s.rng.IntRange(5, 10)
		s.addFood(float64(extra))
		s.emit("winter_preparation", CategoryAdaptation,
			fmt.Sprintf("Humans gathered an extra %d food for winter storage", extra),
			map[string]any{"food": extra})
	}
}

// seasonalAdvancement rolls the day-gated capability improvements.
func (s *Simulation) seasonalAdvancement() {
	st := &s.state

	if st.Day > 60 && s.rng.Float() < 0.2 {
		st.FarmingLevel++
		st.FarmingEfficiency = farmingEfficiency(st.FarmingLevel)
		s.emit("farming_advance", CategoryAdvancement,
			fmt.Sprintf("Humans improved their farming methods (level %d, efficiency %.1fx)", st.FarmingLevel, st.FarmingEfficiency),
			map[string]any{"level": st.FarmingLevel, "efficiency": st.FarmingEfficiency})
	}

	if st.Day > 30 && s.rng.Float() < 0.15 {
		st.ToolsQuality += 0.1
		s.emit("tool_advance", CategoryAdvancement,
			fmt.Sprintf("Humans improved their tools (quality %.1fx)", st.ToolsQuality),
			map[string]any{"quality": st.ToolsQuality})
	}

	st.SurvivalKnowledge += 0.05

	if st.Day > 45 && s.rng.Float() < 0.25 {
		if s.rng.Float() < 0.5 {
			st.AnimalConservationLevel++
			s.emit("conservation_advance", CategoryAdvancement,
				fmt.Sprintf("Humans improved their animal husbandry skills (level %d)", st.AnimalConservationLevel),
				map[string]any{"species": SpeciesAnimals.String(), "level": st.AnimalConservationLevel})
		} else {
			st.PlantConservationLevel++
			s.emit("conservation_advance", CategoryAdvancement,
				fmt.Sprintf("Humans improved their plant cultivation skills (level %d)", st.PlantConservationLevel),
				map[string]any{"species": SpeciesPlants.String(), "level": st.PlantConservationLevel})
		}
	}

	if st.Day > 120 && s.rng.Float() < 0.3 {
		increase := s.rng.IntRange(5, 10)
		before := st.MaxFoodStorage
		st.MaxFoodStorage += increase
		s.emit("storage_expansion", CategoryAdvancement,
			fmt.Sprintf("Food storage capacity increased from %d to %d", before, st.MaxFoodStorage),
			map[string]any{"from": before, "to": st.MaxFoodStorage})
	}
}

// updateRainfall advances the rainfall walk and reports extreme weather.
func (s *Simulation) updateRainfall() {
	st := &s.state
	climate := s.params.Climate.WithTargetShift(s.cycle.Shift(st.Day))
	rain, extreme := climate.NextRainfall(s.rng, st.Season, st.Rainfall,
		st.EventActive(DivineDrought), st.AnyEventActive())
	st.Rainfall = rain

	var desc string
	switch extreme {
	case weather.ExtremeNone:
		return
	case weather.ExtremeDrought:
		desc = "A severe drought has struck the region"
	case weather.ExtremeFlood:
		desc = "Heavy rains have flooded the region"
	default:
		desc = "Perfect growing conditions have emerged"
	}
	s.emit("extreme_weather", CategoryWeather, desc,
		map[string]any{"extreme": extreme.Name(), "rainfall": rain})
}

// farmingEfficiency is the unblighted efficiency for a farming level.
func farmingEfficiency(level int) float64 {
	return 1.0 + float64(level)*0.15
}
