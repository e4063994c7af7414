// Package weather models the rainfall process and how rainfall and season
// combine into a plant-growth modifier.
package weather

import (
	"math"

	"github.com/talgya/tribesim/internal/entropy"
)

// Extreme identifies a sudden weather event that overrides the daily walk.
type Extreme uint8

const (
	ExtremeNone Extreme = iota
	ExtremeDrought
	ExtremeFlood
	ExtremeIdeal
)

// Name returns a human-readable extreme-weather name.
func (e Extreme) Name() string {
	switch e {
	case ExtremeDrought:
		return "drought"
	case ExtremeFlood:
		return "flood"
	case ExtremeIdeal:
		return "ideal"
	default:
		return "none"
	}
}

// Climate holds the tunable rainfall and growth-response parameters.
// Season-indexed arrays follow Spring, Summer, Fall, Winter.
type Climate struct {
	DroughtThreshold int `yaml:"drought_threshold"`
	FloodThreshold   int `yaml:"flood_threshold"`
	OptimalRainfall  int `yaml:"optimal_rainfall"`

	SeasonPlantModifiers  [4]float64 `yaml:"season_plant_modifiers"`
	SeasonRainfallTargets [4]int     `yaml:"season_rainfall_targets"`

	DriftStep     int     `yaml:"drift_step"`     // max step toward the seasonal target
	Variance      int     `yaml:"variance"`       // symmetric daily noise
	ExtremeChance float64 `yaml:"extreme_chance"` // daily chance of extreme weather
	ExtremeShift  int     `yaml:"extreme_shift"`  // rainfall swing of a drought or flood

	// Multi-year wet/dry cycle; zero amplitude turns it off.
	CycleAmplitude int   `yaml:"cycle_amplitude"`
	CyclePeriod    int   `yaml:"cycle_period"` // days
	CycleSeed      int64 `yaml:"cycle_seed"`
}

// DefaultClimate returns the baseline climate.
func DefaultClimate() Climate {
	return Climate{
		DroughtThreshold:      30,
		FloodThreshold:        80,
		OptimalRainfall:       60,
		SeasonPlantModifiers:  [4]float64{2.5, 1.5, 0.6, 0.25},
		SeasonRainfallTargets: [4]int{65, 40, 60, 30},
		DriftStep:             15,
		Variance:              25,
		ExtremeChance:         0.08,
		ExtremeShift:          40,
		CyclePeriod:           360,
	}
}

// RainfallResponse maps rainfall onto a growth multiplier with three regimes:
// drought-penalized, flood-penalized and a peak around the optimum.
func (c Climate) RainfallResponse(rainfall int) float64 {
	r := float64(rainfall)
	switch {
	case rainfall < c.DroughtThreshold:
		return 0.3 + r/float64(c.DroughtThreshold)*0.5
	case rainfall > c.FloodThreshold:
		severity := (r - float64(c.FloodThreshold)) / float64(100-c.FloodThreshold)
		return 1.3 - severity*0.8
	default:
		deviation := math.Abs(r-float64(c.OptimalRainfall)) / 30
		return 1.2 - deviation*0.5
	}
}

// GrowthModifier combines the season table with the rainfall response.
// A blessing is checked before blight, so blessing wins when both are active.
func (c Climate) GrowthModifier(season uint8, rainfall int, blessing, blight bool) float64 {
	mod := c.SeasonPlantModifiers[season%4] * c.RainfallResponse(rainfall)
	if blessing {
		return mod * 1.5
	}
	if blight {
		return mod * 0.4
	}
	return mod
}

// NextRainfall advances rainfall by one day. A divine drought replaces the
// walk with a pure downward drift. Extreme weather is only rolled when no
// divine event is active.
func (c Climate) NextRainfall(src entropy.Source, season uint8, rainfall int, droughtActive, anyEventActive bool) (int, Extreme) {
	if droughtActive {
		return clampRain(rainfall - src.IntRange(3, 8)), ExtremeNone
	}

	target := c.SeasonRainfallTargets[season%4]
	if rainfall < target {
		rainfall += src.IntRange(0, c.DriftStep)
	} else {
		rainfall -= src.IntRange(0, c.DriftStep)
	}
	rainfall += src.IntRange(-c.Variance, c.Variance)
	rainfall = clampRain(rainfall)

	if anyEventActive || src.Float() >= c.ExtremeChance {
		return rainfall, ExtremeNone
	}

	switch Extreme(src.IntRange(1, 3)) {
	case ExtremeDrought:
		return clampRain(rainfall - c.ExtremeShift), ExtremeDrought
	case ExtremeFlood:
		return clampRain(rainfall + c.ExtremeShift), ExtremeFlood
	default:
		return c.OptimalRainfall, ExtremeIdeal
	}
}

// Condition describes rainfall in the terms used by status reports.
func (c Climate) Condition(rainfall int) string {
	switch {
	case rainfall < c.DroughtThreshold:
		return "severe drought"
	case rainfall > c.FloodThreshold:
		return "flooding"
	default:
		return "normal"
	}
}

func clampRain(r int) int {
	if r < 0 {
		return 0
	}
	if r > 100 {
		return 100
	}
	return r
}
