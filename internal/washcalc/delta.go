package washcalc

import (
	"fmt"

	"engine-wash-analytics/internal/models"
)

// DeltaSFCFromFlows derives the percentage fuel-flow reduction from mean
// pre-wash and post-wash fuel flows. A non-positive pre-wash flow is
// rejected rather than propagated as Inf/NaN.
func DeltaSFCFromFlows(pre, post float64) (float64, error) {
	if pre <= 0 {
		return 0, fmt.Errorf("pre-wash fuel flow must be positive, got %g", pre)
	}
	return (pre - post) / pre * 100.0, nil
}

// DeltaSFCFromEGT estimates ΔSFC from the EGT drop across a wash. A
// negative result means the wash regressed performance; it is passed
// through, not clamped.
func (c Config) DeltaSFCFromEGT(before, after float64) float64 {
	return c.EGTCoeff * (before - after)
}

// DeltaSFCFromRecords computes the mean per-row ΔSFC across a QAR dataset.
// Rows missing either fuel-flow column are excluded from the mean. A row
// that has both columns but a non-positive pre-wash flow fails the whole
// derivation, since it signals corrupt data rather than a gap.
func DeltaSFCFromRecords(records []models.WashRecord) (float64, error) {
	var sum float64
	var n int
	for i, r := range records {
		if !r.HasPre || !r.HasPost {
			continue
		}
		d, err := DeltaSFCFromFlows(r.FuelFlowPre, r.FuelFlowPost)
		if err != nil {
			return 0, fmt.Errorf("record %d: %w", i, err)
		}
		sum += d
		n++
	}
	if n == 0 {
		return 0, fmt.Errorf("no records with both Fuel_Flow_Pre and Fuel_Flow_Post")
	}
	return sum / float64(n), nil
}
