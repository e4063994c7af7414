package engine

import "strings"

// DivineEvent is an operator-triggered, time-bounded modifier.
type DivineEvent uint8

const (
	DivinePlague DivineEvent = iota
	DivineDrought
	DivineBlessing
	DivineAnimalDisease
	DivinePlantBlight

	divineEventCount
)

var divineEventNames = [divineEventCount]string{"plague", "drought", "blessing", "animal_disease", "plant_blight"}

// String returns the snake_case identifier used by commands and the API.
func (k DivineEvent) String() string {
	if k >= divineEventCount {
		return "unknown"
	}
	return divineEventNames[k]
}

// Title returns the display form ("animal disease").
func (k DivineEvent) Title() string {
	if k == DivineBlessing {
		return "divine blessing"
	}
	return strings.ReplaceAll(k.String(), "_", " ")
}

// DivineEvents lists every kind in registry order.
func DivineEvents() []DivineEvent {
	return []DivineEvent{DivinePlague, DivineDrought, DivineBlessing, DivineAnimalDisease, DivinePlantBlight}
}

// ParseDivineEvent maps an identifier such as "plant_blight" to its kind.
func ParseDivineEvent(name string) (DivineEvent, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "bless" {
		return DivineBlessing, true
	}
	for i, n := range divineEventNames {
		if n == name {
			return DivineEvent(i), true
		}
	}
	return 0, false
}

// Species selects a population for overrides.
type Species uint8

const (
	SpeciesHumans Species = iota
	SpeciesAnimals
	SpeciesPlants
)

func (s Species) String() string {
	switch s {
	case SpeciesHumans:
		return "humans"
	case SpeciesAnimals:
		return "animals"
	case SpeciesPlants:
		return "plants"
	default:
		return "unknown"
	}
}

// ParseSpecies maps "humans", "animals" or "plants" to a Species.
func ParseSpecies(name string) (Species, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "humans", "human":
		return SpeciesHumans, true
	case "animals", "animal":
		return SpeciesAnimals, true
	case "plants", "plant":
		return SpeciesPlants, true
	default:
		return 0, false
	}
}

// State is the complete ecosystem. A Simulation owns exactly one and mutates
// it in place once per day.
type State struct {
	// Populations.
	Humans  int `json:"humans"`
	Animals int `json:"animals"`
	Plants  int `json:"plants"`

	// Environment.
	Season      uint8 `json:"season"`
	DayInSeason int   `json:"day_in_season"`
	Rainfall    int   `json:"rainfall"`
	Day         int   `json:"day"`

	// Protected floors.
	PlantReserves  int `json:"plant_reserves"`
	AnimalReserves int `json:"animal_reserves"`

	// Capabilities.
	FarmingLevel            int     `json:"farming_level"`
	FarmingEfficiency       float64 `json:"farming_efficiency"` // dips under blight
	ToolsQuality            float64 `json:"tools_quality"`
	SurvivalKnowledge       float64 `json:"survival_knowledge"`
	AnimalConservationLevel int     `json:"animal_conservation_level"`
	PlantConservationLevel  int     `json:"plant_conservation_level"`
	ConservationActive      bool    `json:"conservation_active"`

	// Storage.
	FoodStorage    float64 `json:"food_storage"`
	MaxFoodStorage int     `json:"max_food_storage"`

	// Social.
	TradingCooldown   int `json:"trading_cooldown"`
	TotalMigrations   int `json:"total_migrations"`
	SisterSettlements int `json:"sister_settlements"`

	// Remaining days per divine event, indexed by DivineEvent. 0 = inactive.
	ActiveEvents [divineEventCount]int `json:"-"`

	History []DaySnapshot `json:"-"`
}

// DaySnapshot is the write-once record of one simulated day.
type DaySnapshot struct {
	Day         int     `json:"day" db:"day"`
	Humans      int     `json:"humans" db:"humans"`
	Animals     int     `json:"animals" db:"animals"`
	Plants      int     `json:"plants" db:"plants"`
	Rainfall    int     `json:"rainfall" db:"rainfall"`
	FoodStorage float64 `json:"food_storage" db:"food_storage"`
}

// EventActive reports whether a divine event has days remaining.
func (s State) EventActive(k DivineEvent) bool {
	return s.ActiveEvents[k] > 0
}

// AnyEventActive reports whether any divine event has days remaining.
func (s State) AnyEventActive() bool {
	for _, d := range s.ActiveEvents {
		if d > 0 {
			return true
		}
	}
	return false
}

// EventDurations returns the remaining days of every divine event by name.
func (s State) EventDurations() map[string]int {
	out := make(map[string]int, divineEventCount)
	for _, k := range DivineEvents() {
		out[k.String()] = s.ActiveEvents[k]
	}
	return out
}
