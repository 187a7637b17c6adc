package washcalc

import (
	"fmt"

	"engine-wash-analytics/internal/models"
)

// fuelCost converts a cumulative burn multiplier into yearly fuel spend.
func (c Config) fuelCost(p models.OperationalParameters, burn float64) float64 {
	fuelKg := c.BaseFuelFlow * p.FlightDuration * 3600.0 * burn
	return fuelKg * p.FuelPrice
}

// BaselineCost is the yearly fuel cost if the engine is never washed.
func (c Config) BaselineCost(p models.OperationalParameters, m models.EfficiencyModel) float64 {
	return c.fuelCost(p, CumulativeBurn(m.DegradationRate, m.RecoveryFactor, NoWash, p.FlightsPerYear))
}

// Optimize sweeps every candidate wash interval, prices one year of flights
// under each, and returns the interval with the maximum net saving together
// with the full evaluation table. The sweep is ascending and the comparison
// strict, so exact ties keep the smaller interval.
func (c Config) Optimize(p models.OperationalParameters, m models.EfficiencyModel) (models.OptimizationResult, []models.IntervalEvaluation, error) {
	if err := c.Validate(); err != nil {
		return models.OptimizationResult{}, nil, err
	}
	if err := ValidateModel(p, m); err != nil {
		return models.OptimizationResult{}, nil, err
	}

	baseline := c.BaselineCost(p, m)
	intervals := c.Intervals()
	evals := make([]models.IntervalEvaluation, 0, len(intervals))

	best := models.OptimizationResult{Interval: intervals[0]}
	first := true
	for _, iv := range intervals {
		burn := CumulativeBurn(m.DegradationRate, m.RecoveryFactor, iv, p.FlightsPerYear)
		fuelCost := c.fuelCost(p, burn)
		washes := p.FlightsPerYear / iv
		washCost := float64(washes) * p.WashCost
		net := baseline - (fuelCost + washCost)

		evals = append(evals, models.IntervalEvaluation{
			Interval:      iv,
			FuelCost:      fuelCost,
			TotalWashCost: washCost,
			NetSaving:     net,
		})
		if first || net > best.NetSaving {
			best = models.OptimizationResult{Interval: iv, NetSaving: net, Washes: washes}
			first = false
		}
	}
	return best, evals, nil
}

// ValidateModel checks the invariants the simulator relies on.
func ValidateModel(p models.OperationalParameters, m models.EfficiencyModel) error {
	if p.FlightsPerYear <= 0 {
		return fmt.Errorf("flights per year must be positive, got %d", p.FlightsPerYear)
	}
	if p.FlightDuration <= 0 {
		return fmt.Errorf("flight duration must be positive, got %g", p.FlightDuration)
	}
	if m.DegradationRate < 0 {
		return fmt.Errorf("degradation rate cannot be negative, got %g", m.DegradationRate)
	}
	if m.RecoveryFactor < 0 || m.RecoveryFactor > 1 {
		return fmt.Errorf("recovery factor must be in [0,1], got %g", m.RecoveryFactor)
	}
	return nil
}
