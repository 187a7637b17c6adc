package washcalc

import "fmt"

// Config carries the physical constants and sweep bounds used by the
// computation core. Everything is explicit so the core can be exercised
// without any CLI or HTTP layer loaded.
type Config struct {
	BaseFuelFlow    float64 // kg/s, cruise fuel flow of the reference engine
	CO2PerKgFuel    float64 // kg CO₂ emitted per kg of Jet-A1 burned
	EGTCoeff        float64 // % ΔSFC per °C of EGT margin recovered
	MinInterval     int     // first candidate wash interval (flights)
	IntervalStep    int     // sweep step (flights)
	MaxInterval     int     // last candidate wash interval (flights)
	DefaultDegRate  float64 // percentage points lost per flight
	DefaultRecovery float64 // fraction of loss restored per wash
}

// DefaultConfig returns the standard constants for a mid-size bizjet engine.
func DefaultConfig() Config {
	return Config{
		BaseFuelFlow:    0.521,
		CO2PerKgFuel:    3.16,
		EGTCoeff:        0.08,
		MinInterval:     20,
		IntervalStep:    10,
		MaxInterval:     120,
		DefaultDegRate:  0.013,
		DefaultRecovery: 1.00,
	}
}

// Validate rejects configurations that would produce an empty or malformed
// candidate sweep.
func (c Config) Validate() error {
	if c.BaseFuelFlow <= 0 {
		return fmt.Errorf("base fuel flow must be positive, got %g", c.BaseFuelFlow)
	}
	if c.MinInterval <= 0 {
		return fmt.Errorf("minimum wash interval must be positive, got %d", c.MinInterval)
	}
	if c.IntervalStep <= 0 {
		return fmt.Errorf("interval step must be positive, got %d", c.IntervalStep)
	}
	if c.MaxInterval < c.MinInterval {
		return fmt.Errorf("max wash interval %d is below the minimum %d: empty sweep", c.MaxInterval, c.MinInterval)
	}
	return nil
}

// Intervals returns the ascending candidate sweep. Validate must have
// passed; the result is never empty.
func (c Config) Intervals() []int {
	var out []int
	for iv := c.MinInterval; iv <= c.MaxInterval; iv += c.IntervalStep {
		out = append(out, iv)
	}
	return out
}
