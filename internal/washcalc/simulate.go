package washcalc

// NoWash is the interval value meaning the engine is never washed.
const NoWash = 0

// CumulativeBurn runs the sawtooth degradation model over one year of
// flights and returns the total excess-fuel-burn multiplier. Each flight
// burns (1 + deg/100) relative to a pristine engine; degradation accrues
// after the flight, and a wash at the end of flight i+1 restores a
// fraction of the accumulated loss. interval = NoWash never triggers a
// wash; the same loop serves the baseline, the fixed policies, and the
// optimizer sweep.
func CumulativeBurn(degRate, recovery float64, interval, flights int) float64 {
	deg := 0.0
	burn := 0.0
	for i := 0; i < flights; i++ {
		burn += 1.0 + deg/100.0
		deg += degRate
		if interval != NoWash && (i+1)%interval == 0 {
			deg *= 1.0 - recovery
		}
	}
	return burn
}

// BurnTrajectory is CumulativeBurn with the running total captured after
// every flight.
func BurnTrajectory(degRate, recovery float64, interval, flights int) []float64 {
	out := make([]float64, flights)
	deg := 0.0
	burn := 0.0
	for i := 0; i < flights; i++ {
		burn += 1.0 + deg/100.0
		out[i] = burn
		deg += degRate
		if interval != NoWash && (i+1)%interval == 0 {
			deg *= 1.0 - recovery
		}
	}
	return out
}

// EfficiencySeries returns the per-flight efficiency percentage under one
// wash policy. The value at index c is the state entering flight c, so
// index 0 is always 100.
func EfficiencySeries(degRate, recovery float64, interval, flights int) []float64 {
	out := make([]float64, flights)
	deg := 0.0
	for c := 0; c < flights; c++ {
		out[c] = 100.0 - deg
		deg += degRate
		if interval != NoWash && (c+1)%interval == 0 {
			deg *= 1.0 - recovery
		}
	}
	return out
}
