package engine

import "fmt"

// dayContext carries the intermediate quantities of one day's update
// between the resource and adaptation steps.
type dayContext struct {
	growthModifier float64
	animalModifier float64
	conservation   bool

	// Plants above the reserve floor before grazing.
	availablePlants int
	grazed          int
	newAnimals      int

	farmingBoost float64
	plantNeed    float64 // adjusted per-capita plant consumption

	gathered int
	hunted   int
	drawn    float64
	traded   float64
}

// graze applies plant growth and animal grazing. Growth is computed on the
// pre-consumption stock.
func (s *Simulation) graze(d *dayContext) {
	st := &s.state
	p := s.params

	d.availablePlants = max(0, st.Plants-st.PlantReserves)
	newPlants := int(float64(st.Plants) * p.PlantGrowthRate * d.growthModifier)

	demand := float64(st.Animals) * p.AnimalPlantConsumption
	consumed := min(int(demand), d.availablePlants)

	if float64(d.availablePlants) < demand {
		supplyRatio := float64(d.availablePlants) / demand
		consumed = int(float64(consumed) * (0.7 + 0.3*supplyRatio))

		if consumed > 0 && st.Animals > 10 {
			loss := s.rng.IntRange(1, max(1, int(float64(st.Animals)*0.1)))
			st.Animals -= loss
			s.emit("animal_scarcity_migration", CategoryNature,
				fmt.Sprintf("%d animals migrated away due to food scarcity", loss),
				map[string]any{"animals": loss})
		}
	}

	st.Plants = st.Plants - consumed + newPlants
	d.grazed = consumed
}

// reproduce computes the day's animal births from grazing success.
func (s *Simulation) reproduce(d *dayContext) {
	st := &s.state
	p := s.params

	desired := max(1, int(float64(st.Animals)*p.AnimalPlantConsumption))
	foodRatio := minFloat(1.0, float64(d.grazed)/float64(desired))
	rate := p.AnimalReproductionRate * d.animalModifier

	if st.Animals < 30 && st.AnimalConservationLevel > 0 {
		boost := 1.0 + float64(st.AnimalConservationLevel)*0.15
		rate *= boost
		foodRatio = maxFloat(foodRatio, 0.5)
		s.emit("breeding_assist", CategoryConservation,
			fmt.Sprintf("Humans are assisting animal breeding (boost %.1fx)", boost),
			map[string]any{"boost": boost})
	}

	if s.activeToday[DivineAnimalDisease] {
		rate *= 0.3
	}

	d.newAnimals = int(float64(st.Animals) * rate * foodRatio)
}

// hunt computes the day's catch, never touching the animal reserve.
func (s *Simulation) hunt(d *dayContext) {
	st := &s.state

	availableAnimals := max(0, st.Animals-st.AnimalReserves)
	efficiency := minFloat(1.0, float64(st.Animals)/30.0) * st.ToolsQuality * (1.0 + st.SurvivalKnowledge*0.1)

	if st.Animals < 25 && st.AnimalConservationLevel > 0 {
		reduction := 0.5 - float64(st.AnimalConservationLevel)*0.08
		efficiency *= maxFloat(0.1, reduction)
		s.emit("hunting_limited", CategoryConservation,
			"Humans are limiting hunting to protect endangered animals", nil)
	}

	switch st.Season {
	case SeasonWinter:
		efficiency *= 0.6
	case SeasonFall:
		efficiency *= 1.3
	}

	d.hunted = min(int(float64(st.Humans)*s.params.HumanAnimalConsumption*efficiency), availableAnimals)
}

// settleResources applies the harvest and births, then restores the floors.
func (s *Simulation) settleResources(d *dayContext) {
	st := &s.state

	st.Plants -= d.gathered
	st.Animals = st.Animals - d.hunted + d.newAnimals

	if st.AnimalReserves > 0 && st.Animals < st.AnimalReserves {
		st.AnimalReserves = max(0, st.Animals)
		s.emit("reserves_reduced", CategoryConservation,
			fmt.Sprintf("Animal reserves reduced to %d due to population decline", st.AnimalReserves),
			map[string]any{"reserves": st.AnimalReserves})
	}

	if st.Plants < 20 && s.rng.Float() < 0.3 {
		growth := s.rng.IntRange(3, 10)
		st.Plants += growth
		s.emit("dormant_seeds", CategoryNature,
			fmt.Sprintf("%d new plants emerged from dormant seeds", growth),
			map[string]any{"plants": growth})
	}

	if st.Plants < st.PlantReserves {
		st.Plants = st.PlantReserves
		s.emit("plant_reserve_floor", CategoryNature,
			"Plant reserves are ensuring survival of the species",
			map[string]any{"reserves": st.PlantReserves})
	}
}
