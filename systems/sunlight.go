package systems

import "math"

// Sunlight returns the light intensity in [0,1] for a tick.
// Day length swings ±20% sinusoidally across a season; within a day the
// intensity ramps linearly from dawn to a midday peak and back down.
func Sunlight(tick, dayLength, seasonLength int) float64 {
	seasonal := tick % seasonLength
	dayLen := float64(dayLength) * (1.0 + 0.2*math.Sin(2*math.Pi*float64(seasonal)/float64(seasonLength)))
	// Seasonal modulation can push a one-tick day below a single tick;
	// floor the period so the modulo stays defined.
	period := max(int(dayLen), 1)
	tmod := float64(tick % period)
	v := 1.0 - math.Abs(tmod/dayLen*2-1)
	return min(max(v, 0), 1)
}
