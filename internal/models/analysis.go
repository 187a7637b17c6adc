package models

import "time"

// OperationalParameters holds the per-analysis operator inputs. Captured
// once at the start of a computation pass and never mutated afterwards.
type OperationalParameters struct {
	EGTBefore      float64 `json:"egt_before"`       // °C
	EGTAfter       float64 `json:"egt_after"`        // °C
	FlightDuration float64 `json:"flight_duration"`  // hours
	FlightsPerYear int     `json:"flights_per_year"`
	FuelPrice      float64 `json:"fuel_price"`       // currency per kg
	WashCost       float64 `json:"wash_cost"`        // currency per wash
	AircraftLabel  string  `json:"aircraft_label"`
}

// EfficiencyModel describes how an engine loses and regains efficiency.
type EfficiencyModel struct {
	DegradationRate float64 `json:"degradation_rate"` // percentage points lost per flight
	RecoveryFactor  float64 `json:"recovery_factor"`  // fraction of loss restored per wash, 0..1
	DeltaSFC        float64 `json:"delta_sfc"`        // % fuel-flow reduction from washing
}

// WashRecord is a single pre/post wash fuel-flow observation, typically one
// row of an uploaded QAR export.
type WashRecord struct {
	ID           int64     `json:"id"`
	AircraftID   string    `json:"aircraft_id"`
	RecordedAt   time.Time `json:"recorded_at"`
	FuelFlowPre  float64   `json:"fuel_flow_pre"`  // kg/hr
	FuelFlowPost float64   `json:"fuel_flow_post"` // kg/hr
	HasPre       bool      `json:"has_pre"`
	HasPost      bool      `json:"has_post"`
}

// FleetRecord is one aircraft-month observation from a fleet dataset.
// DeltaSFC is either read directly from the file or derived from the
// fuel-flow pair; HasDeltaSFC is false when neither was available.
type FleetRecord struct {
	AircraftID  string    `json:"aircraft_id"`
	Month       time.Time `json:"month"`
	DeltaSFC    float64   `json:"delta_sfc"`
	HasDeltaSFC bool      `json:"has_delta_sfc"`
}

// IntervalEvaluation is one row of the optimizer's sweep table.
type IntervalEvaluation struct {
	Interval      int     `json:"interval"` // flights between washes
	FuelCost      float64 `json:"fuel_cost"`
	TotalWashCost float64 `json:"total_wash_cost"`
	NetSaving     float64 `json:"net_saving"`
}

// OptimizationResult identifies the interval with the maximum net saving.
type OptimizationResult struct {
	Interval  int     `json:"interval"`
	NetSaving float64 `json:"net_saving"`
	Washes    int     `json:"washes_per_year"`
}

// Trajectory is a per-flight efficiency series (100 = pristine) for one
// named wash policy. All trajectories of one analysis share the same
// flight-index axis.
type Trajectory struct {
	Policy     string    `json:"policy"`
	Interval   int       `json:"interval"` // 0 = never washed
	Efficiency []float64 `json:"efficiency"`
}

// KPISet holds the headline scalar results shown on the dashboard.
type KPISet struct {
	DeltaSFC        float64 `json:"delta_sfc"`          // %
	FuelSavedFlight float64 `json:"fuel_saved_flight"`  // kg
	CO2SavedAnnual  float64 `json:"co2_saved_annual"`   // tonnes
	CostSavedAnnual float64 `json:"cost_saved_annual"`
}

// AnalysisResult is the full output of one computation pass.
type AnalysisResult struct {
	Parameters   OperationalParameters `json:"parameters"`
	Model        EfficiencyModel       `json:"model"`
	KPIs         KPISet                `json:"kpis"`
	BaselineCost float64               `json:"baseline_cost"`
	Evaluations  []IntervalEvaluation  `json:"evaluations"`
	Optimal      OptimizationResult    `json:"optimal"`
	Trajectories []Trajectory          `json:"trajectories"`
	ComputedAt   time.Time             `json:"computed_at"`
}

// HeatmapPivot is the fleet view's Aircraft × Month grid of mean ΔSFC.
// Cells without data are nil so exporters can leave them blank and JSON
// renders them as null.
type HeatmapPivot struct {
	Aircraft []string     `json:"aircraft"`
	Months   []string     `json:"months"` // chronological, "Jan 06" style labels
	Cells    [][]*float64 `json:"cells"`  // [aircraft][month]
}

// FleetCell names one aircraft-month aggregate.
type FleetCell struct {
	AircraftID string  `json:"aircraft_id"`
	Month      string  `json:"month"`
	DeltaSFC   float64 `json:"delta_sfc"`
}

// FleetSummary provides fleet-wide aggregates plus threshold alerts.
type FleetSummary struct {
	FleetAvgDeltaSFC float64     `json:"fleet_avg_delta_sfc"`
	Best             FleetCell   `json:"best"`  // lowest ΔSFC
	Worst            FleetCell   `json:"worst"` // highest ΔSFC
	AlertThreshold   float64     `json:"alert_threshold"`
	Alerts           []FleetCell `json:"alerts"`
}

// AnalysisRun is a persisted summary of a completed analysis.
type AnalysisRun struct {
	ID              int64     `json:"id"`
	AircraftLabel   string    `json:"aircraft_label"`
	DeltaSFC        float64   `json:"delta_sfc"`
	OptimalInterval int       `json:"optimal_interval"`
	NetSaving       float64   `json:"net_saving"`
	CO2SavedAnnual  float64   `json:"co2_saved_annual"`
	CreatedAt       time.Time `json:"created_at"`
}
