package weather

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Cycle is a slow wet/dry oscillation laid over the seasonal rainfall
// targets. It is sampled from simplex noise so runs with the same seed
// repeat the same sequence of wet and dry years.
type Cycle struct {
	noise     opensimplex.Noise
	amplitude int
	period    float64
}

// NewCycle returns nil when amplitude is not positive, which disables the cycle.
func NewCycle(seed int64, amplitude, periodDays int) *Cycle {
	if amplitude <= 0 {
		return nil
	}
	if periodDays <= 0 {
		periodDays = 360
	}
	return &Cycle{
		noise:     opensimplex.NewNormalized(seed),
		amplitude: amplitude,
		period:    float64(periodDays),
	}
}

// Shift returns the target offset for day, within [-amplitude, amplitude].
// A nil Cycle always returns 0.
func (c *Cycle) Shift(day int) int {
	if c == nil {
		return 0
	}
	v := c.noise.Eval2(float64(day)/c.period, 0)*2 - 1
	return int(math.Round(v * float64(c.amplitude)))
}

// WithTargetShift returns a copy of c whose seasonal rainfall targets are
// moved by shift and kept within 0..100.
func (c Climate) WithTargetShift(shift int) Climate {
	if shift == 0 {
		return c
	}
	for i, t := range c.SeasonRainfallTargets {
		c.SeasonRainfallTargets[i] = clampRain(t + shift)
	}
	return c
}
