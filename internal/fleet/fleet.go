package fleet

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"engine-wash-analytics/internal/models"
	"engine-wash-analytics/internal/parser"
)

// BuildPivot aggregates fleet records into the Aircraft × Month grid of
// mean ΔSFC. Records without a ΔSFC value are excluded from the means.
// Aircraft are sorted alphabetically, months chronologically; cells with
// no observations stay nil.
func BuildPivot(records []models.FleetRecord) (*models.HeatmapPivot, error) {
	type key struct {
		aircraft string
		month    time.Time
	}
	sums := make(map[key]float64)
	counts := make(map[key]int)
	aircraftSet := make(map[string]bool)
	monthSet := make(map[time.Time]bool)

	for _, r := range records {
		if !r.HasDeltaSFC {
			continue
		}
		k := key{r.AircraftID, r.Month}
		sums[k] += r.DeltaSFC
		counts[k]++
		aircraftSet[r.AircraftID] = true
		monthSet[r.Month] = true
	}
	if len(counts) == 0 {
		return nil, fmt.Errorf("no records with ΔSFC values")
	}

	aircraft := make([]string, 0, len(aircraftSet))
	for a := range aircraftSet {
		aircraft = append(aircraft, a)
	}
	sort.Strings(aircraft)

	months := make([]time.Time, 0, len(monthSet))
	for m := range monthSet {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	labels := make([]string, len(months))
	for i, m := range months {
		labels[i] = parser.FormatMonth(m)
	}

	cells := make([][]*float64, len(aircraft))
	for i, a := range aircraft {
		cells[i] = make([]*float64, len(months))
		for j, m := range months {
			k := key{a, m}
			if n := counts[k]; n > 0 {
				mean := sums[k] / float64(n)
				cells[i][j] = &mean
			}
		}
	}

	return &models.HeatmapPivot{Aircraft: aircraft, Months: labels, Cells: cells}, nil
}

// Cells flattens the pivot into its populated aircraft-month aggregates,
// aircraft-major so the order is deterministic.
func Cells(pivot *models.HeatmapPivot) []models.FleetCell {
	var out []models.FleetCell
	for i, a := range pivot.Aircraft {
		for j, m := range pivot.Months {
			v := pivot.Cells[i][j]
			if v == nil {
				continue
			}
			out = append(out, models.FleetCell{AircraftID: a, Month: m, DeltaSFC: *v})
		}
	}
	return out
}

// Summarize computes fleet-wide aggregates and flags cells whose mean ΔSFC
// exceeds the alert threshold. Lower ΔSFC is better: the "best" cell is
// the minimum.
func Summarize(pivot *models.HeatmapPivot, threshold float64) *models.FleetSummary {
	cells := Cells(pivot)
	s := &models.FleetSummary{AlertThreshold: threshold}
	if len(cells) == 0 {
		return s
	}

	var sum float64
	best, worst := cells[0], cells[0]
	for _, c := range cells {
		sum += c.DeltaSFC
		if c.DeltaSFC < best.DeltaSFC {
			best = c
		}
		if c.DeltaSFC > worst.DeltaSFC {
			worst = c
		}
		if c.DeltaSFC > threshold {
			s.Alerts = append(s.Alerts, c)
		}
	}
	s.FleetAvgDeltaSFC = sum / float64(len(cells))
	s.Best = best
	s.Worst = worst
	return s
}

// WriteCSV renders the pivot as exportable CSV, one row per aircraft with
// empty fields for months without data.
func WriteCSV(w io.Writer, pivot *models.HeatmapPivot) error {
	cw := csv.NewWriter(w)

	header := append([]string{"Aircraft_ID"}, pivot.Months...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, a := range pivot.Aircraft {
		row := make([]string, 0, len(pivot.Months)+1)
		row = append(row, a)
		for _, v := range pivot.Cells[i] {
			if v == nil {
				row = append(row, "")
			} else {
				row = append(row, strconv.FormatFloat(*v, 'f', 4, 64))
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
