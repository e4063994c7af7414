package engine

import (
	"errors"
	"fmt"

	"github.com/talgya/tribesim/internal/weather"
)

// Params holds every tunable rate, cap and initial value of the ecosystem.
// Season-indexed arrays follow Spring, Summer, Fall, Winter.
type Params struct {
	SeasonLength int `yaml:"season_length"`

	// Carrying capacities.
	MaxHumans    int `yaml:"max_humans"`
	MaxAnimals   int `yaml:"max_animals"`
	MaxPlants    int `yaml:"max_plants"`
	HumanSoftCap int `yaml:"human_soft_cap"` // emigration starts above this

	// Initial state.
	InitialHumans         int     `yaml:"initial_humans"`
	InitialAnimals        int     `yaml:"initial_animals"`
	InitialPlants         int     `yaml:"initial_plants"`
	InitialRainfall       int     `yaml:"initial_rainfall"`
	InitialFoodStorage    float64 `yaml:"initial_food_storage"`
	InitialMaxFoodStorage int     `yaml:"initial_max_food_storage"`
	MinPlantReserves      int     `yaml:"min_plant_reserves"`

	// Base rates.
	PlantGrowthRate        float64 `yaml:"plant_growth_rate"`
	AnimalReproductionRate float64 `yaml:"animal_reproduction_rate"`
	HumanReproductionRate  float64 `yaml:"human_reproduction_rate"`

	// Per-capita daily consumption.
	HumanPlantConsumption  float64 `yaml:"human_plant_consumption"`
	HumanAnimalConsumption float64 `yaml:"human_animal_consumption"`
	AnimalPlantConsumption float64 `yaml:"animal_plant_consumption"`

	SeasonAnimalModifiers [4]float64 `yaml:"season_animal_modifiers"`

	Climate weather.Climate `yaml:"climate"`
}

// DefaultParams returns the baseline ecosystem.
func DefaultParams() Params {
	return Params{
		SeasonLength: 30,

		MaxHumans:    100,
		MaxAnimals:   200,
		MaxPlants:    500,
		HumanSoftCap: 85,

		InitialHumans:         10,
		InitialAnimals:        50,
		InitialPlants:         100,
		InitialRainfall:       50,
		InitialFoodStorage:    10,
		InitialMaxFoodStorage: 50,
		MinPlantReserves:      20,

		PlantGrowthRate:        0.2,
		AnimalReproductionRate: 0.1,
		HumanReproductionRate:  0.06,

		HumanPlantConsumption:  0.35,
		HumanAnimalConsumption: 0.06,
		AnimalPlantConsumption: 0.08,

		SeasonAnimalModifiers: [4]float64{2.0, 1.3, 0.5, 0.15},

		Climate: weather.DefaultClimate(),
	}
}

// Validate rejects parameter sets the engine cannot run with.
func (p Params) Validate() error {
	var errs []error
	if p.SeasonLength <= 0 {
		errs = append(errs, fmt.Errorf("season_length must be positive, got %d", p.SeasonLength))
	}
	if p.MaxHumans <= 0 || p.MaxAnimals <= 0 || p.MaxPlants <= 0 {
		errs = append(errs, errors.New("population caps must be positive"))
	}
	if p.HumanSoftCap <= 0 || p.HumanSoftCap >= p.MaxHumans {
		errs = append(errs, fmt.Errorf("human_soft_cap must be in (0, %d), got %d", p.MaxHumans, p.HumanSoftCap))
	}
	if p.MinPlantReserves < 0 || p.MinPlantReserves > p.MaxPlants {
		errs = append(errs, fmt.Errorf("min_plant_reserves must be in [0, %d], got %d", p.MaxPlants, p.MinPlantReserves))
	}
	if p.InitialMaxFoodStorage < 0 {
		errs = append(errs, errors.New("initial_max_food_storage must not be negative"))
	}
	for _, r := range []struct {
		name string
		v    float64
	}{
		{"plant_growth_rate", p.PlantGrowthRate},
		{"animal_reproduction_rate", p.AnimalReproductionRate},
		{"human_reproduction_rate", p.HumanReproductionRate},
		{"human_plant_consumption", p.HumanPlantConsumption},
		{"human_animal_consumption", p.HumanAnimalConsumption},
		{"animal_plant_consumption", p.AnimalPlantConsumption},
	} {
		if !(r.v > 0) {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", r.name, r.v))
		}
	}
	c := p.Climate
	if c.DroughtThreshold <= 0 || c.FloodThreshold >= 100 || c.DroughtThreshold >= c.FloodThreshold {
		errs = append(errs, fmt.Errorf("climate thresholds must satisfy 0 < drought (%d) < flood (%d) < 100", c.DroughtThreshold, c.FloodThreshold))
	}
	if c.ExtremeChance < 0 || c.ExtremeChance > 1 {
		errs = append(errs, fmt.Errorf("climate extreme_chance must be a probability, got %v", c.ExtremeChance))
	}
	if c.CycleAmplitude < 0 || c.CycleAmplitude > 50 {
		errs = append(errs, fmt.Errorf("climate cycle_amplitude must be within 0..50, got %d", c.CycleAmplitude))
	}
	return errors.Join(errs...)
}
