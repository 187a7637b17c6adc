package washcalc

import "engine-wash-analytics/internal/models"

// KPIs computes the headline scalars: fuel saved per flight from the ΔSFC
// improvement, the annual CO₂ reduction in tonnes, and the annual fuel
// cost reduction.
func (c Config) KPIs(p models.OperationalParameters, m models.EfficiencyModel) models.KPISet {
	fuelSaved := c.BaseFuelFlow * (m.DeltaSFC / 100.0) * p.FlightDuration * 3600.0
	co2Flight := fuelSaved * c.CO2PerKgFuel
	return models.KPISet{
		DeltaSFC:        m.DeltaSFC,
		FuelSavedFlight: fuelSaved,
		CO2SavedAnnual:  co2Flight * float64(p.FlightsPerYear) / 1000.0,
		CostSavedAnnual: fuelSaved * float64(p.FlightsPerYear) * p.FuelPrice,
	}
}
