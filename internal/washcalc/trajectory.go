package washcalc

import (
	"fmt"

	"engine-wash-analytics/internal/models"
)

// Policy labels used in trajectory output.
const (
	PolicyNoWash    = "No wash"
	PolicyTwiceYear = "2 washes/year"
	PolicyOptimized = "Optimized"
)

// Trajectories produces the per-flight efficiency series for the three
// comparison policies: never washed, washed twice a year, and washed at
// the optimized interval. All series share the flight-index axis so they
// can be plotted side by side.
func Trajectories(m models.EfficiencyModel, flightsPerYear, optimizedInterval int) []models.Trajectory {
	twice := flightsPerYear / 2
	if twice < 1 {
		twice = 1
	}
	return []models.Trajectory{
		{
			Policy:     PolicyNoWash,
			Interval:   NoWash,
			Efficiency: EfficiencySeries(m.DegradationRate, m.RecoveryFactor, NoWash, flightsPerYear),
		},
		{
			Policy:     PolicyTwiceYear,
			Interval:   twice,
			Efficiency: EfficiencySeries(m.DegradationRate, m.RecoveryFactor, twice, flightsPerYear),
		},
		{
			Policy:     fmt.Sprintf("%s (%d flights)", PolicyOptimized, optimizedInterval),
			Interval:   optimizedInterval,
			Efficiency: EfficiencySeries(m.DegradationRate, m.RecoveryFactor, optimizedInterval, flightsPerYear),
		},
	}
}
