package engine

// Range is the observed minimum and maximum of a population.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Summary condenses a run for end-of-run reporting.
type Summary struct {
	Day     int `json:"day"`
	Months  int `json:"months"`
	Years   int `json:"years"`
	Humans  int `json:"humans"`
	Animals int `json:"animals"`
	Plants  int `json:"plants"`

	InitialHumans  int `json:"initial_humans"`
	InitialAnimals int `json:"initial_animals"`
	InitialPlants  int `json:"initial_plants"`

	// Ranges are nil until at least one day has been simulated.
	HumanRange  *Range `json:"human_range,omitempty"`
	AnimalRange *Range `json:"animal_range,omitempty"`
	PlantRange  *Range `json:"plant_range,omitempty"`

	SurvivalKnowledge       float64 `json:"survival_knowledge"`
	FarmingLevel            int     `json:"farming_level"`
	AnimalConservationLevel int     `json:"animal_conservation_level"`
	PlantConservationLevel  int     `json:"plant_conservation_level"`
	ToolsQuality            float64 `json:"tools_quality"`
	MaxFoodStorage          int     `json:"max_food_storage"`

	TotalMigrations   int `json:"total_migrations"`
	SisterSettlements int `json:"sister_settlements"`
	// Current humans plus everyone who emigrated.
	TheoreticalPopulation int `json:"theoretical_population"`
}

// Summary reports the run so far.
func (s *Simulation) Summary() Summary {
	st := s.state
	months := st.Day / s.params.SeasonLength
	out := Summary{
		Day:     st.Day,
		Months:  months,
		Years:   months / 12,
		Humans:  st.Humans,
		Animals: st.Animals,
		Plants:  st.Plants,

		InitialHumans:  s.params.InitialHumans,
		InitialAnimals: s.params.InitialAnimals,
		InitialPlants:  s.params.InitialPlants,

		SurvivalKnowledge:       st.SurvivalKnowledge,
		FarmingLevel:            st.FarmingLevel,
		AnimalConservationLevel: st.AnimalConservationLevel,
		PlantConservationLevel:  st.PlantConservationLevel,
		ToolsQuality:            st.ToolsQuality,
		MaxFoodStorage:          st.MaxFoodStorage,

		TotalMigrations:       st.TotalMigrations,
		SisterSettlements:     st.SisterSettlements,
		TheoreticalPopulation: st.Humans + st.TotalMigrations,
	}

	if len(st.History) == 0 {
		return out
	}
	first := st.History[0]
	h := Range{first.Humans, first.Humans}
	a := Range{first.Animals, first.Animals}
	p := Range{first.Plants, first.Plants}
	for _, snap := range st.History[1:] {
		h.Min, h.Max = min(h.Min, snap.Humans), max(h.Max, snap.Humans)
		a.Min, a.Max = min(a.Min, snap.Animals), max(a.Max, snap.Animals)
		p.Min, p.Max = min(p.Min, snap.Plants), max(p.Max, snap.Plants)
	}
	out.HumanRange, out.AnimalRange, out.PlantRange = &h, &a, &p
	return out
}
