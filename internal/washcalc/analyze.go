package washcalc

import "engine-wash-analytics/internal/models"

// Analyze runs the full pipeline for one parameter snapshot: KPIs, the
// optimizer sweep, and the comparison trajectories. It is a pure function
// of its inputs; identical inputs produce bit-identical results. The
// caller stamps ComputedAt.
func (c Config) Analyze(p models.OperationalParameters, m models.EfficiencyModel) (*models.AnalysisResult, error) {
	optimal, evals, err := c.Optimize(p, m)
	if err != nil {
		return nil, err
	}
	return &models.AnalysisResult{
		Parameters:   p,
		Model:        m,
		KPIs:         c.KPIs(p, m),
		BaselineCost: c.BaselineCost(p, m),
		Evaluations:  evals,
		Optimal:      optimal,
		Trajectories: Trajectories(m, p.FlightsPerYear, optimal.Interval),
	}, nil
}
