package engine

import "fmt"

// runConservation attempts both conservation programs. Either may succeed
// independently; the result reports whether any did.
func (s *Simulation) runConservation() bool {
	active := false
	if s.state.Animals < 20 && s.conserveAnimals() {
		active = true
	}
	if s.state.Plants < 40 && s.conservePlants() {
		active = true
	}
	return active
}

func (s *Simulation) conserveAnimals() bool {
	st := &s.state
	if st.Humans < 3 {
		return false
	}

	power := 1.0 + float64(st.AnimalConservationLevel)*0.2 + (st.ToolsQuality-1.0)*0.3
	if st.Season == SeasonSpring || st.Season == SeasonSummer {
		power *= 1.3
	}

	committed := min(int(float64(st.Humans)*0.3), max(2, st.Humans/5))
	boost := int(float64(committed) * power)
	chance := 0.3 + float64(st.AnimalConservationLevel)*0.1

	if s.rng.Float() >= chance {
		return false
	}

	raised := max(1, boost)
	st.Animals += raised
	st.AnimalReserves = min(15, max(st.AnimalReserves, 3+st.AnimalConservationLevel))
	s.emit("animal_conservation", CategoryConservation,
		fmt.Sprintf("Humans protected and raised %d animals", raised),
		map[string]any{"animals": raised, "reserves": st.AnimalReserves})
	return true
}

func (s *Simulation) conservePlants() bool {
	st := &s.state
	if st.Humans < 2 {
		return false
	}

	power := 1.0 + float64(st.PlantConservationLevel)*0.25 + float64(st.FarmingLevel)*0.15 + (st.ToolsQuality-1.0)*0.2
	if st.Season == SeasonSpring || st.Season == SeasonFall {
		power *= 1.4
	}

	committed := min(int(float64(st.Humans)*0.25), max(1, st.Humans/6))
	boost := int(float64(committed) * power * 2)
	chance := 0.4 + float64(st.PlantConservationLevel)*0.1

	if s.rng.Float() >= chance {
		return false
	}

	planted := max(3, boost)
	st.Plants += planted
	st.PlantReserves = max(st.PlantReserves, 20+st.PlantConservationLevel*2)
	s.emit("plant_conservation", CategoryConservation,
		fmt.Sprintf("Humans planted and protected %d plants", planted),
		map[string]any{"plants": planted, "reserves": st.PlantReserves})
	return true
}

// prepareGathering sets the farming boost and the scarcity-adjusted need.
func (s *Simulation) prepareGathering(d *dayContext) {
	st := &s.state

	d.farmingBoost = 1.0
	if st.Day > 60 {
		boost := st.FarmingEfficiency * (1.0 + st.SurvivalKnowledge*0.1) * st.ToolsQuality
		if st.Season == SeasonSpring || st.Season == SeasonSummer {
			boost *= 1.2
		}
		if st.Season == SeasonWinter && st.FarmingLevel >= 2 {
			boost = maxFloat(0.5, boost*0.4)
		}
		d.farmingBoost = boost
	}

	d.plantNeed = s.params.HumanPlantConsumption
	if d.availablePlants < 30 {
		d.plantNeed *= 0.7
		s.emit("plant_scarcity_adaptation", CategoryAdaptation,
			"Humans are conserving plant resources", nil)
	}
}

// gather harvests plants above the reserve floor.
func (s *Simulation) gather(d *dayContext) {
	want := int(float64(s.state.Humans) * d.plantNeed * d.farmingBoost)
	d.gathered = min(want, d.availablePlants)
}

// bankSurplus stores part of a generous summer or fall harvest.
func (s *Simulation) bankSurplus(d *dayContext) {
	st := &s.state
	if st.Season != SeasonSummer && st.Season != SeasonFall {
		return
	}

	threshold := float64(st.Humans) * d.plantNeed * 0.6
	if float64(d.gathered) <= threshold {
		return
	}

	efficiency := 1.0 + st.SurvivalKnowledge*0.2
	amount := int((float64(d.gathered) - threshold) * 0.6 * efficiency)
	if amount <= 0 {
		return
	}
	s.addFood(float64(amount))
	s.emit("food_stored", CategoryAdaptation,
		fmt.Sprintf("Humans stored %d units of food (%.0f/%d)", amount, st.FoodStorage, st.MaxFoodStorage),
		map[string]any{"food": amount, "storage": st.FoodStorage})
}

// drawStorage covers part of the unmet need from storage, more in winter.
func (s *Simulation) drawStorage(d *dayContext) {
	st := &s.state
	if st.FoodStorage <= 0 {
		return
	}

	factor := 0.3
	if st.Season == SeasonWinter {
		factor = 0.7
	}
	needed := maxFloat(0, float64(st.Humans)*d.plantNeed*factor-float64(d.gathered))
	d.drawn = minFloat(needed, st.FoodStorage)
	st.FoodStorage -= d.drawn

	if d.drawn > 0 {
		s.emit("food_drawn", CategoryAdaptation,
			fmt.Sprintf("Humans used %.1f units of stored food (%.1f remaining)", d.drawn, st.FoodStorage),
			map[string]any{"food": d.drawn, "storage": st.FoodStorage})
	}
}

// tradeIfShort attempts emergency trading with neighbours. The cooldown
// counts down one per day whether or not food is short.
func (s *Simulation) tradeIfShort(d *dayContext) {
	st := &s.state
	if st.TradingCooldown > 0 {
		st.TradingCooldown--
		return
	}

	if float64(d.gathered)+d.drawn >= float64(st.Humans)*d.plantNeed*0.5 {
		return
	}
	if st.Humans < 3 {
		return
	}

	chance := 0.4 + st.SurvivalKnowledge*0.1
	if st.Season == SeasonWinter {
		chance *= 0.7
	}
	if s.rng.Float() >= chance {
		return
	}

	food := s.rng.IntRange(5, 10+int(st.SurvivalKnowledge*5))
	s.addFood(float64(food))
	st.TradingCooldown = s.rng.IntRange(5, 15)
	d.traded = float64(food)
	s.emit("trade", CategoryAdaptation,
		fmt.Sprintf("Humans traded with neighbouring groups for %d units of food", food),
		map[string]any{"food": food, "cooldown": st.TradingCooldown})
}

// updateHumanPopulation turns the day's food into growth or decline.
func (s *Simulation) updateHumanPopulation(d *dayContext) {
	st := &s.state
	p := s.params
	if st.Humans == 0 {
		return
	}

	h := float64(st.Humans)
	plantFood := float64(d.gathered) + d.drawn + d.traded
	satisfaction := plantFood/(h*d.plantNeed)*0.6 +
		float64(d.hunted)/maxFloat(1, h*p.HumanAnimalConsumption)*0.4

	if d.conservation {
		satisfaction *= 0.95
	}

	if st.Season == SeasonWinter {
		adaptation := 0.1 + st.SurvivalKnowledge*0.05 + (st.ToolsQuality-1.0)*0.1
		penalty := minFloat(0.9, 0.7+adaptation)
		satisfaction *= penalty
		s.emit("winter_adaptation", CategoryAdaptation,
			fmt.Sprintf("Winter survival efficiency is %.2f", penalty),
			map[string]any{"efficiency": penalty})
	}

	if satisfaction < 0.3 && st.Humans > 5 && s.rng.Float() < 0.4 {
		found := s.rng.IntRange(1, 5)
		satisfaction += float64(found) / (h * d.plantNeed) * 0.2
		s.emit("emergency_food", CategoryAdaptation,
			fmt.Sprintf("Humans found %d extra units of emergency food", found),
			map[string]any{"food": found})
	}

	plague := s.activeToday[DivinePlague]
	if plague {
		satisfaction *= 0.7
	}
	if s.activeToday[DivineBlessing] {
		satisfaction *= 1.3
	}

	switch {
	case satisfaction >= 0.65 && !plague:
		s.growHumans()
	case satisfaction < 0.25:
		decline := max(1, int(h*0.08))
		decline = max(1, int(float64(decline)*(1.0-st.SurvivalKnowledge*0.2)))
		decline = min(decline, st.Humans)
		st.Humans -= decline
		s.emit("human_decline", CategoryPopulation,
			fmt.Sprintf("%d humans died due to food shortage", decline),
			map[string]any{"deaths": decline, "satisfaction": satisfaction})
	}
}

// growHumans adds births; newborns beyond the hard cap leave at once.
func (s *Simulation) growHumans() {
	st := &s.state
	growth := max(1, int(float64(st.Humans)*s.params.HumanReproductionRate*1.5))
	remaining := s.params.MaxHumans - st.Humans

	if remaining >= growth {
		st.Humans += growth
		s.emit("human_growth", CategoryPopulation,
			fmt.Sprintf("%d new humans born due to abundant food", growth),
			map[string]any{"births": growth})
		return
	}

	staying := max(0, remaining)
	leaving := growth - staying
	st.Humans += staying
	st.TotalMigrations += leaving
	if leaving >= 5 {
		st.SisterSettlements++
	}
	s.emit("human_growth", CategoryPopulation,
		fmt.Sprintf("%d new humans born due to abundant food", growth),
		map[string]any{"births": growth})
	s.emit("newborn_emigration", CategoryMigration,
		fmt.Sprintf("%d young adults left to establish new settlements", leaving),
		map[string]any{"migrants": leaving, "settlement_founded": leaving >= 5})
}
