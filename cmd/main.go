package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	"engine-wash-analytics/internal/api"
	"engine-wash-analytics/internal/db"
	"engine-wash-analytics/internal/fleet"
	"engine-wash-analytics/internal/models"
	"engine-wash-analytics/internal/parser"
	"engine-wash-analytics/internal/washcalc"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	dbPath   string
	database *db.Database
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "washanalytics",
		Short: "Engine Wash Analytics - compressor wash economics for jet engines",
		Long: `A CLI tool for analyzing jet-engine compressor-wash economics.
Ingests QAR fuel-flow data or manual simulation parameters, finds the
cost-minimizing wash interval, and quantifies fuel, cost and CO₂ savings,
with SQLite storage and REST API access.`,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "engine_wash.db", "Path to SQLite database")

	// Add commands
	rootCmd.AddCommand(serverCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(optimizeCmd())
	rootCmd.AddCommand(trajectoryCmd())
	rootCmd.AddCommand(fleetCmd())
	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(statsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initDB initializes database connection
func initDB() error {
	var err error
	database, err = db.New(dbPath)
	return err
}

// paramOptions collects the operator inputs shared by the analysis commands.
type paramOptions struct {
	egtBefore   float64
	egtAfter    float64
	duration    float64
	flights     int
	fuelPrice   float64
	washCost    float64
	aircraft    string
	degRate     float64
	recovery    float64
	maxInterval int
	qarFile     string
	flowPre     float64
	flowPost    float64
}

func addParamFlags(cmd *cobra.Command, o *paramOptions) {
	cmd.Flags().Float64Var(&o.egtBefore, "egt-before", 630, "EGT before wash (°C)")
	cmd.Flags().Float64Var(&o.egtAfter, "egt-after", 620, "EGT after wash (°C)")
	cmd.Flags().Float64Var(&o.duration, "duration", 2.5, "Average flight duration (hours)")
	cmd.Flags().IntVar(&o.flights, "flights", 600, "Flights per year")
	cmd.Flags().Float64Var(&o.fuelPrice, "fuel-price", 0.8, "Jet-A1 price per kg")
	cmd.Flags().Float64Var(&o.washCost, "wash-cost", 4000, "Cost per compressor wash")
	cmd.Flags().StringVar(&o.aircraft, "aircraft", "NetJets Citation", "Aircraft ID / client label")
	cmd.Flags().Float64Var(&o.degRate, "deg-rate", 0.012, "Degradation rate (percentage points per flight)")
	cmd.Flags().Float64Var(&o.recovery, "recovery", 0.92, "Efficiency recovery per wash (0..1)")
	cmd.Flags().IntVar(&o.maxInterval, "max-interval", 120, "Max wash interval in the sweep (flights)")
	cmd.Flags().StringVar(&o.qarFile, "qar", "", "QAR export (.csv or .dat) to derive ΔSFC from")
	cmd.Flags().Float64Var(&o.flowPre, "pre", 0, "Mean pre-wash fuel flow (kg/hr), overrides the EGT heuristic")
	cmd.Flags().Float64Var(&o.flowPost, "post", 0, "Mean post-wash fuel flow (kg/hr)")
}

// buildInputs turns the flag set into one immutable parameter snapshot.
// ΔSFC source preference: QAR file, then manual fuel flows, then the EGT
// heuristic.
func buildInputs(o *paramOptions) (washcalc.Config, models.OperationalParameters, models.EfficiencyModel, error) {
	cfg := washcalc.DefaultConfig()
	cfg.MaxInterval = o.maxInterval

	p := models.OperationalParameters{
		EGTBefore:      o.egtBefore,
		EGTAfter:       o.egtAfter,
		FlightDuration: o.duration,
		FlightsPerYear: o.flights,
		FuelPrice:      o.fuelPrice,
		WashCost:       o.washCost,
		AircraftLabel:  o.aircraft,
	}
	if errs := parser.ValidateParameters(&p); len(errs) > 0 {
		return cfg, p, models.EfficiencyModel{}, fmt.Errorf("%s", errs[0])
	}

	m := models.EfficiencyModel{
		DegradationRate: o.degRate,
		RecoveryFactor:  o.recovery,
	}

	switch {
	case o.qarFile != "":
		records, err := parser.NewParser("").ParseQARFile(o.qarFile)
		if err != nil {
			return cfg, p, m, err
		}
		m.DeltaSFC, err = washcalc.DeltaSFCFromRecords(records)
		if err != nil {
			return cfg, p, m, err
		}
		fmt.Printf("ΔSFC derived from %d QAR records\n", len(records))
	case o.flowPre != 0 || o.flowPost != 0:
		d, err := washcalc.DeltaSFCFromFlows(o.flowPre, o.flowPost)
		if err != nil {
			return cfg, p, m, err
		}
		m.DeltaSFC = d
	default:
		m.DeltaSFC = cfg.DeltaSFCFromEGT(p.EGTBefore, p.EGTAfter)
	}
	return cfg, p, m, nil
}

// serverCmd starts the REST API server
func serverCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initDB(); err != nil {
				return fmt.Errorf("database error: %w", err)
			}
			defer database.Close()

			server := api.NewServer(database, washcalc.DefaultConfig())
			addr := fmt.Sprintf(":%d", port)

			fmt.Printf("🚀 Engine Wash Analytics API Server\n")
			fmt.Printf("   Listening on http://localhost%s\n", addr)
			fmt.Printf("   Database: %s\n\n", dbPath)
			fmt.Println("Available endpoints:")
			fmt.Println("  GET  /health")
			fmt.Println("  POST /api/v1/analyze")
			fmt.Println("  POST /api/v1/optimize")
			fmt.Println("  POST /api/v1/trajectories")
			fmt.Println("  POST /api/v1/fleet/heatmap")
			fmt.Println("  GET  /api/v1/records")
			fmt.Println("  POST /api/v1/records/batch")
			fmt.Println("  GET  /api/v1/runs")
			fmt.Println("  GET  /api/v1/stats")
			fmt.Println()

			return http.ListenAndServe(addr, server.Router())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Server port")
	return cmd
}

// analyzeCmd runs the full pipeline: KPIs, optimizer sweep, trajectories
func analyzeCmd() *cobra.Command {
	var o paramOptions
	var output string
	var save bool

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the full wash-economics analysis",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, p, m, err := buildInputs(&o)
			if err != nil {
				return err
			}

			result, err := cfg.Analyze(p, m)
			if err != nil {
				return err
			}
			result.ComputedAt = time.Now().UTC()

			fmt.Printf("📊 Wash Economics — %s\n", p.AircraftLabel)
			fmt.Println("=====================================")
			fmt.Printf("  ΔSFC:               %.2f %%\n", result.KPIs.DeltaSFC)
			fmt.Printf("  Fuel Saved/Flight:  %.1f kg\n", result.KPIs.FuelSavedFlight)
			fmt.Printf("  Annual CO₂ Saved:   %.1f t\n", result.KPIs.CO2SavedAnnual)
			fmt.Printf("  Annual Cost Saved:  %.2f\n", result.KPIs.CostSavedAnnual)
			fmt.Println()
			fmt.Printf("  Optimal wash interval: %d flights (%d washes/yr) → net saving %.0f\n",
				result.Optimal.Interval, result.Optimal.Washes, result.Optimal.NetSaving)

			if output != "" {
				if err := writeEvaluationCSV(output, result.Evaluations); err != nil {
					return err
				}
				fmt.Printf("  Evaluation table written to %s\n", output)
			}

			if save {
				if err := initDB(); err != nil {
					return fmt.Errorf("database error: %w", err)
				}
				defer database.Close()
				id, err := database.InsertAnalysisRun(result)
				if err != nil {
					return fmt.Errorf("failed to save run: %w", err)
				}
				fmt.Printf("  Saved as run #%d\n", id)
			}

			return nil
		},
	}

	addParamFlags(cmd, &o)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the evaluation table as CSV")
	cmd.Flags().BoolVar(&save, "save", false, "Persist the run summary to the database")
	return cmd
}

// optimizeCmd prints the interval-evaluation sweep
func optimizeCmd() *cobra.Command {
	var o paramOptions
	var output string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Sweep candidate wash intervals and pick the best",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, p, m, err := buildInputs(&o)
			if err != nil {
				return err
			}

			optimal, evals, err := cfg.Optimize(p, m)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]interface{}{
					"optimal":     optimal,
					"evaluations": evals,
				})
			}

			fmt.Printf("%-20s %-16s %-16s %-16s\n", "Interval (flights)", "Fuel cost", "Wash cost", "Net saving")
			for _, e := range evals {
				marker := "  "
				if e.Interval == optimal.Interval {
					marker = "* "
				}
				fmt.Printf("%s%-18d %-16.0f %-16.0f %-16.0f\n", marker, e.Interval, e.FuelCost, e.TotalWashCost, e.NetSaving)
			}
			fmt.Printf("\nOptimal: every %d flights (%d washes/yr), net saving %.0f\n",
				optimal.Interval, optimal.Washes, optimal.NetSaving)

			if output != "" {
				if err := writeEvaluationCSV(output, evals); err != nil {
					return err
				}
				fmt.Printf("Evaluation table written to %s\n", output)
			}
			return nil
		},
	}

	addParamFlags(cmd, &o)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the evaluation table as CSV")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

// trajectoryCmd produces the per-flight efficiency curves
func trajectoryCmd() *cobra.Command {
	var o paramOptions
	var output string

	cmd := &cobra.Command{
		Use:   "trajectory",
		Short: "Generate the per-flight efficiency curves for each wash policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, p, m, err := buildInputs(&o)
			if err != nil {
				return err
			}

			optimal, _, err := cfg.Optimize(p, m)
			if err != nil {
				return err
			}
			trajectories := washcalc.Trajectories(m, p.FlightsPerYear, optimal.Interval)

			for _, tr := range trajectories {
				last := tr.Efficiency[len(tr.Efficiency)-1]
				fmt.Printf("%-28s interval=%-4d end-of-year efficiency %.3f %%\n", tr.Policy, tr.Interval, last)
			}

			if output != "" {
				if err := writeTrajectoryCSV(output, trajectories); err != nil {
					return err
				}
				fmt.Printf("Trajectories written to %s\n", output)
			}
			return nil
		},
	}

	addParamFlags(cmd, &o)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the curves as CSV")
	return cmd
}

// fleetCmd builds the fleet heatmap pivot from a fleet dataset
func fleetCmd() *cobra.Command {
	var threshold float64
	var output string

	cmd := &cobra.Command{
		Use:   "fleet [dataset]",
		Short: "Aggregate a fleet dataset into the ΔSFC heatmap pivot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := parser.NewParser("").ParseFleetFile(args[0])
			if err != nil {
				return err
			}

			pivot, err := fleet.BuildPivot(records)
			if err != nil {
				return err
			}
			summary := fleet.Summarize(pivot, threshold)

			fmt.Printf("🌡️  Fleet ΔSFC Heatmap (%d aircraft × %d months)\n", len(pivot.Aircraft), len(pivot.Months))
			fmt.Println("==========================================")
			fmt.Printf("%-12s", "Aircraft")
			for _, mo := range pivot.Months {
				fmt.Printf(" %-8s", mo)
			}
			fmt.Println()
			for i, a := range pivot.Aircraft {
				fmt.Printf("%-12s", a)
				for _, v := range pivot.Cells[i] {
					if v == nil {
						fmt.Printf(" %-8s", "-")
					} else {
						fmt.Printf(" %-8.2f", *v)
					}
				}
				fmt.Println()
			}

			fmt.Println()
			fmt.Printf("  Fleet Avg ΔSFC:  %.2f %%\n", summary.FleetAvgDeltaSFC)
			fmt.Printf("  Best:            %s • %s • %.2f %%\n", summary.Best.AircraftID, summary.Best.Month, summary.Best.DeltaSFC)
			fmt.Printf("  Worst:           %s • %s • %.2f %%\n", summary.Worst.AircraftID, summary.Worst.Month, summary.Worst.DeltaSFC)
			if len(summary.Alerts) > 0 {
				fmt.Printf("  ⚠️  %d aircraft-month cells exceed ΔSFC > %.1f %% — consider scheduling washes\n", len(summary.Alerts), threshold)
			} else {
				fmt.Printf("  ✓ No cells exceed the %.1f %% alert threshold\n", threshold)
			}

			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("error creating output file: %w", err)
				}
				defer f.Close()
				if err := fleet.WriteCSV(f, pivot); err != nil {
					return err
				}
				fmt.Printf("  Heatmap data written to %s\n", output)
			}
			return nil
		},
	}

	cmd.Flags().Float64VarP(&threshold, "threshold", "t", 2.0, "Alert threshold for abnormal ΔSFC (%)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the pivot as CSV")
	return cmd
}

// ingestCmd ingests QAR exports into the database
func ingestCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "ingest [file...]",
		Short: "Ingest QAR fuel-flow exports into the database",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initDB(); err != nil {
				return fmt.Errorf("database error: %w", err)
			}
			defer database.Close()

			p := parser.NewParser(format)
			totalRecords := 0

			for _, file := range args {
				fmt.Printf("Processing %s...\n", file)
				records, err := p.ParseQARFile(file)
				if err != nil {
					fmt.Printf("  Error: %v\n", err)
					continue
				}

				bar := progressbar.Default(int64(len(records)))
				batchSize := 500
				var inserted int64
				for i := 0; i < len(records); i += batchSize {
					end := i + batchSize
					if end > len(records) {
						end = len(records)
					}
					n, err := database.InsertWashRecordBatch(records[i:end])
					inserted += n
					if err != nil {
						return fmt.Errorf("database error: %w", err)
					}
					_ = bar.Add(end - i)
				}

				fmt.Printf("  ✓ Inserted %d records\n", inserted)
				totalRecords += int(inserted)
			}

			fmt.Printf("\nTotal: %d records ingested\n", totalRecords)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "File format (csv, dat); default detects from extension")
	return cmd
}

// generateCmd generates sample QAR and fleet datasets
func generateCmd() *cobra.Command {
	var count int
	var aircraftCount int
	var qarOut string
	var fleetOut string
	var seed int64

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate sample QAR and fleet datasets",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initDB(); err != nil {
				return fmt.Errorf("database error: %w", err)
			}
			defer database.Close()

			rng := rand.New(rand.NewSource(seed))

			var records []models.WashRecord
			baseTime := time.Now().Add(-365 * 24 * time.Hour)
			for i := 0; i < count; i++ {
				pre := 1100 + rng.Float64()*400
				// ΔSFC mostly in the 0.5–2.5% band
				post := pre * (1 - (0.005 + rng.Float64()*0.02))
				records = append(records, models.WashRecord{
					AircraftID:   fmt.Sprintf("AC-%03d", 1+rng.Intn(aircraftCount)),
					RecordedAt:   baseTime.Add(time.Duration(i) * time.Hour),
					FuelFlowPre:  pre,
					FuelFlowPost: post,
					HasPre:       true,
					HasPost:      true,
				})
			}

			bar := progressbar.Default(int64(len(records)))
			batchSize := 500
			var inserted int64
			for i := 0; i < len(records); i += batchSize {
				end := i + batchSize
				if end > len(records) {
					end = len(records)
				}
				n, err := database.InsertWashRecordBatch(records[i:end])
				inserted += n
				if err != nil {
					return fmt.Errorf("database error: %w", err)
				}
				_ = bar.Add(end - i)
			}
			fmt.Printf("✓ Generated %d wash records across %d aircraft\n", inserted, aircraftCount)

			if qarOut != "" {
				if err := writeQARCSV(qarOut, records); err != nil {
					return err
				}
				fmt.Printf("QAR dataset written to %s\n", qarOut)
			}

			if fleetOut != "" {
				if err := writeFleetCSV(fleetOut, records); err != nil {
					return err
				}
				fmt.Printf("Fleet dataset written to %s\n", fleetOut)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "c", 1000, "Number of wash records to generate")
	cmd.Flags().IntVarP(&aircraftCount, "aircraft", "n", 8, "Number of aircraft")
	cmd.Flags().StringVar(&qarOut, "qar-out", "", "Also write the QAR dataset to a CSV file")
	cmd.Flags().StringVar(&fleetOut, "fleet-out", "", "Also write a fleet dataset (Aircraft_ID, Month, ΔSFC) to a CSV file")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "Random seed")
	return cmd
}

// statsCmd shows database statistics
func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show database statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initDB(); err != nil {
				return fmt.Errorf("database error: %w", err)
			}
			defer database.Close()

			stats, err := database.GetStats()
			if err != nil {
				return fmt.Errorf("error getting stats: %w", err)
			}

			fmt.Println("📊 Engine Wash Analytics Statistics")
			fmt.Println("=====================================")
			fmt.Printf("  Wash Records:      %v\n", stats["total_wash_records"])
			fmt.Printf("  Analysis Runs:     %v\n", stats["total_analysis_runs"])
			fmt.Printf("  Distinct Aircraft: %v\n", stats["distinct_aircraft"])
			fmt.Printf("  Database:          %s\n", dbPath)

			return nil
		},
	}
}

func writeEvaluationCSV(path string, evals []models.IntervalEvaluation) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Interval", "Fuel_Cost", "Wash_Cost", "Net_Saving"}); err != nil {
		return err
	}
	for _, e := range evals {
		row := []string{
			strconv.Itoa(e.Interval),
			strconv.FormatFloat(e.FuelCost, 'f', 2, 64),
			strconv.FormatFloat(e.TotalWashCost, 'f', 2, 64),
			strconv.FormatFloat(e.NetSaving, 'f', 2, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeTrajectoryCSV(path string, trajectories []models.Trajectory) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"Flight"}
	for _, tr := range trajectories {
		header = append(header, tr.Policy)
	}
	if err := w.Write(header); err != nil {
		return err
	}
	flights := len(trajectories[0].Efficiency)
	for i := 0; i < flights; i++ {
		row := []string{strconv.Itoa(i)}
		for _, tr := range trajectories {
			row = append(row, strconv.FormatFloat(tr.Efficiency[i], 'f', 5, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeQARCSV(path string, records []models.WashRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Aircraft_ID", "Fuel_Flow_Pre", "Fuel_Flow_Post"}); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.AircraftID,
			strconv.FormatFloat(r.FuelFlowPre, 'f', 1, 64),
			strconv.FormatFloat(r.FuelFlowPost, 'f', 1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// writeFleetCSV rolls generated wash records up into a monthly fleet
// dataset with per-row ΔSFC.
func writeFleetCSV(path string, records []models.WashRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Aircraft_ID", "Month", "Delta_SFC"}); err != nil {
		return err
	}
	for _, r := range records {
		d, err := washcalc.DeltaSFCFromFlows(r.FuelFlowPre, r.FuelFlowPost)
		if err != nil {
			continue
		}
		row := []string{
			r.AircraftID,
			parser.FormatMonth(r.RecordedAt),
			strconv.FormatFloat(d, 'f', 4, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
