package washcalc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"engine-wash-analytics/internal/models"
)

func testParams() models.OperationalParameters {
	return models.OperationalParameters{
		EGTBefore:      630,
		EGTAfter:       620,
		FlightDuration: 2.5,
		FlightsPerYear: 600,
		FuelPrice:      0.8,
		WashCost:       4000,
		AircraftLabel:  "NetJets Citation",
	}
}

func testModel() models.EfficiencyModel {
	return models.EfficiencyModel{
		DegradationRate: 0.012,
		RecoveryFactor:  0.92,
		DeltaSFC:        1.6,
	}
}

func TestDeltaSFCFromFlows(t *testing.T) {
	d, err := DeltaSFCFromFlows(1250, 1230)
	require.NoError(t, err)
	assert.Equal(t, 1.6, d)
}

func TestDeltaSFCFromFlows_ZeroPre(t *testing.T) {
	_, err := DeltaSFCFromFlows(0, 1230)
	require.Error(t, err)
	_, err = DeltaSFCFromFlows(-100, 1230)
	require.Error(t, err)
}

func TestDeltaSFCFromFlows_NegativePassesThrough(t *testing.T) {
	// Post-wash flow higher than pre-wash: a regression, not an error.
	d, err := DeltaSFCFromFlows(1000, 1010)
	require.NoError(t, err)
	assert.Equal(t, -1.0, d)
}

func TestDeltaSFCFromEGT(t *testing.T) {
	cfg := DefaultConfig()
	assert.InDelta(t, 0.8, cfg.DeltaSFCFromEGT(630, 620), 1e-12)
	// Negative EGT delta must not be clamped.
	assert.InDelta(t, -0.8, cfg.DeltaSFCFromEGT(620, 630), 1e-12)
}

func TestDeltaSFCFromRecords(t *testing.T) {
	records := []models.WashRecord{
		{FuelFlowPre: 1250, FuelFlowPost: 1230, HasPre: true, HasPost: true},
		{FuelFlowPre: 1000, FuelFlowPost: 990, HasPre: true, HasPost: true},
		{FuelFlowPre: 1100, HasPre: true}, // missing post, excluded
		{},                                // missing both, excluded
	}
	d, err := DeltaSFCFromRecords(records)
	require.NoError(t, err)
	assert.InDelta(t, (1.6+1.0)/2, d, 1e-12)
}

func TestDeltaSFCFromRecords_AllMissing(t *testing.T) {
	_, err := DeltaSFCFromRecords([]models.WashRecord{{HasPre: true}, {HasPost: true}})
	require.Error(t, err)
}

func TestDeltaSFCFromRecords_CorruptRow(t *testing.T) {
	records := []models.WashRecord{
		{FuelFlowPre: 0, FuelFlowPost: 990, HasPre: true, HasPost: true},
	}
	_, err := DeltaSFCFromRecords(records)
	require.Error(t, err)
}

func TestCumulativeBurn_NoWashMonotonic(t *testing.T) {
	traj := BurnTrajectory(0.012, 0.92, NoWash, 600)
	require.Len(t, traj, 600)
	for i := 1; i < len(traj); i++ {
		// Each flight burns at least one pristine-flight unit.
		assert.GreaterOrEqual(t, traj[i]-traj[i-1], 1.0)
	}
}

func TestCumulativeBurn_WashReducesBurn(t *testing.T) {
	washed := CumulativeBurn(0.012, 0.92, 60, 600)
	unwashed := CumulativeBurn(0.012, 0.92, NoWash, 600)
	assert.Less(t, washed, unwashed)
}

func TestCumulativeBurn_ZeroDegradation(t *testing.T) {
	// With no degradation every flight burns exactly 1 unit.
	assert.Equal(t, 600.0, CumulativeBurn(0, 1, 50, 600))
}

func TestEfficiencySeries_StartsPristine(t *testing.T) {
	for _, iv := range []int{NoWash, 1, 60, 300} {
		s := EfficiencySeries(0.012, 0.92, iv, 600)
		require.Len(t, s, 600)
		assert.Equal(t, 100.0, s[0])
	}
}

func TestEfficiencySeries_SawtoothRecovers(t *testing.T) {
	s := EfficiencySeries(0.1, 1.0, 10, 30)
	// Full recovery at flight 10 means flight index 10 re-enters pristine.
	assert.InDelta(t, 100.0, s[10], 1e-9)
	assert.Less(t, s[9], 100.0)
}

func TestOptimize_ConcreteScenario(t *testing.T) {
	cfg := DefaultConfig()
	best, evals, err := cfg.Optimize(testParams(), testModel())
	require.NoError(t, err)

	// Sweep 20..120 step 10 = 11 candidates.
	require.Len(t, evals, 11)
	assert.Equal(t, 20, evals[0].Interval)
	assert.Equal(t, 120, evals[10].Interval)

	// Selected interval carries the maximum net saving, exactly.
	for _, e := range evals {
		assert.GreaterOrEqual(t, best.NetSaving, e.NetSaving)
	}
	assert.Equal(t, 600/best.Interval, best.Washes)
}

func TestOptimize_NetSavingIdentity(t *testing.T) {
	cfg := DefaultConfig()
	p, m := testParams(), testModel()
	_, evals, err := cfg.Optimize(p, m)
	require.NoError(t, err)

	baseline := cfg.BaselineCost(p, m)
	for _, e := range evals {
		washes := p.FlightsPerYear / e.Interval
		want := baseline - e.FuelCost - float64(washes)*p.WashCost
		assert.Equal(t, want, e.NetSaving, "interval %d", e.Interval)
	}
}

func TestOptimize_TieKeepsSmallerInterval(t *testing.T) {
	// Zero degradation makes every interval's fuel cost identical; with a
	// free wash every candidate nets zero and the first candidate wins.
	cfg := DefaultConfig()
	p := testParams()
	p.WashCost = 0
	m := models.EfficiencyModel{DegradationRate: 0, RecoveryFactor: 1}
	best, _, err := cfg.Optimize(p, m)
	require.NoError(t, err)
	assert.Equal(t, cfg.MinInterval, best.Interval)
}

func TestOptimize_RejectsEmptySweep(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxInterval = 10
	_, _, err := cfg.Optimize(testParams(), testModel())
	require.Error(t, err)
}

func TestOptimize_RejectsBadModel(t *testing.T) {
	cfg := DefaultConfig()
	p := testParams()

	m := testModel()
	m.DegradationRate = -0.01
	_, _, err := cfg.Optimize(p, m)
	require.Error(t, err)

	m = testModel()
	m.RecoveryFactor = 1.5
	_, _, err = cfg.Optimize(p, m)
	require.Error(t, err)

	p.FlightsPerYear = 0
	_, _, err = cfg.Optimize(p, testModel())
	require.Error(t, err)
}

func TestTrajectories(t *testing.T) {
	trajs := Trajectories(testModel(), 600, 70)
	require.Len(t, trajs, 3)
	for _, tr := range trajs {
		assert.Len(t, tr.Efficiency, 600)
		assert.Equal(t, 100.0, tr.Efficiency[0], "policy %s", tr.Policy)
	}
	assert.Equal(t, NoWash, trajs[0].Interval)
	assert.Equal(t, 300, trajs[1].Interval)
	assert.Equal(t, 70, trajs[2].Interval)
}

func TestTrajectories_TwicePerYearClampedToOne(t *testing.T) {
	trajs := Trajectories(testModel(), 1, 20)
	assert.Equal(t, 1, trajs[1].Interval)
}

func TestKPIs(t *testing.T) {
	cfg := DefaultConfig()
	p, m := testParams(), testModel()
	k := cfg.KPIs(p, m)

	fuelSaved := 0.521 * (1.6 / 100.0) * 2.5 * 3600.0
	assert.Equal(t, 1.6, k.DeltaSFC)
	assert.InDelta(t, fuelSaved, k.FuelSavedFlight, 1e-9)
	assert.InDelta(t, fuelSaved*3.16*600/1000.0, k.CO2SavedAnnual, 1e-9)
	assert.InDelta(t, fuelSaved*600*0.8, k.CostSavedAnnual, 1e-9)
}

func TestAnalyze_Deterministic(t *testing.T) {
	cfg := DefaultConfig()
	p, m := testParams(), testModel()

	a, err := cfg.Analyze(p, m)
	require.NoError(t, err)
	b, err := cfg.Analyze(p, m)
	require.NoError(t, err)

	// Bit-identical, not approximately equal.
	assert.Equal(t, a, b)
}

func TestAnalyze_Shape(t *testing.T) {
	cfg := DefaultConfig()
	res, err := cfg.Analyze(testParams(), testModel())
	require.NoError(t, err)
	assert.Len(t, res.Evaluations, 11)
	assert.Len(t, res.Trajectories, 3)
	assert.Equal(t, res.Optimal.Interval, res.Trajectories[2].Interval)
	assert.Greater(t, res.BaselineCost, 0.0)
}
