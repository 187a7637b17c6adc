package parser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"engine-wash-analytics/internal/models"
)

// Parser reads QAR exports in CSV or whitespace-delimited .dat form.
type Parser struct {
	format string
}

// NewParser creates a parser for the given format ("csv" or "dat").
// An empty format means detect from the file extension.
func NewParser(format string) *Parser {
	return &Parser{format: strings.ToLower(format)}
}

func (p *Parser) formatFor(filename string) string {
	if p.format != "" {
		return p.format
	}
	if strings.EqualFold(filepath.Ext(filename), ".dat") {
		return "dat"
	}
	return "csv"
}

// readTable reads the file into a header row plus data rows.
func (p *Parser) readTable(filename string) ([]string, [][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	switch p.formatFor(filename) {
	case "csv":
		return readCSV(file)
	case "dat":
		return readWhitespace(file)
	default:
		return nil, nil, fmt.Errorf("unsupported format: %s", p.format)
	}
}

func readCSV(r io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // allow ragged rows

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("csv read error at row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, record)
	}
	return header, rows, nil
}

// readWhitespace parses the .dat flavour of QAR exports: one header line
// then whitespace-separated columns.
func readWhitespace(r io.Reader) ([]string, [][]string, error) {
	scanner := bufio.NewScanner(r)

	var header []string
	var rows [][]string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if header == nil {
			header = fields
			continue
		}
		rows = append(rows, fields)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	if header == nil {
		return nil, nil, fmt.Errorf("file is empty")
	}
	return header, rows, nil
}

// columnIndex maps normalized header names to positions. ΔSFC headers are
// normalized to "delta_sfc" so both spellings resolve.
func columnIndex(header []string) map[string]int {
	indices := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if key == "δsfc" || key == "deltasfc" || key == "delta_sfc" {
			key = "delta_sfc"
		}
		indices[key] = i
	}
	return indices
}

func cell(record []string, indices map[string]int, key string) (string, bool) {
	idx, ok := indices[key]
	if !ok || idx >= len(record) {
		return "", false
	}
	v := strings.TrimSpace(record[idx])
	return v, v != ""
}

// ParseQARFile reads a single-aircraft QAR export into wash records. The
// recognized columns are Fuel_Flow_Pre and Fuel_Flow_Post plus an optional
// Aircraft_ID; rows with a missing or unparseable value keep the
// corresponding Has flag false rather than substituting zero.
func (p *Parser) ParseQARFile(filename string) ([]models.WashRecord, error) {
	header, rows, err := p.readTable(filename)
	if err != nil {
		return nil, err
	}

	indices := columnIndex(header)
	if _, ok := indices["fuel_flow_pre"]; !ok {
		if _, ok := indices["fuel_flow_post"]; !ok {
			return nil, fmt.Errorf("dataset has neither Fuel_Flow_Pre nor Fuel_Flow_Post column")
		}
	}

	records := make([]models.WashRecord, 0, len(rows))
	for i, row := range rows {
		var r models.WashRecord
		if id, ok := cell(row, indices, "aircraft_id"); ok {
			r.AircraftID = id
		}
		if v, ok := cell(row, indices, "fuel_flow_pre"); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: bad Fuel_Flow_Pre %q: %w", i+2, v, err)
			}
			r.FuelFlowPre = f
			r.HasPre = true
		}
		if v, ok := cell(row, indices, "fuel_flow_post"); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: bad Fuel_Flow_Post %q: %w", i+2, v, err)
			}
			r.FuelFlowPost = f
			r.HasPost = true
		}
		records = append(records, r)
	}
	return records, nil
}

// ParseFleetFile reads a fleet dataset into aircraft-month records. The
// file must carry Aircraft_ID and Month columns and either a ΔSFC column
// or the Fuel_Flow_Pre/Post pair to derive it from.
func (p *Parser) ParseFleetFile(filename string) ([]models.FleetRecord, error) {
	header, rows, err := p.readTable(filename)
	if err != nil {
		return nil, err
	}

	indices := columnIndex(header)
	for _, required := range []string{"aircraft_id", "month"} {
		if _, ok := indices[required]; !ok {
			return nil, fmt.Errorf("fleet dataset must include Aircraft_ID and Month columns")
		}
	}
	_, hasDelta := indices["delta_sfc"]
	_, hasPre := indices["fuel_flow_pre"]
	_, hasPost := indices["fuel_flow_post"]
	if !hasDelta && !(hasPre && hasPost) {
		return nil, fmt.Errorf("fleet dataset must include ΔSFC or both Fuel_Flow_Pre and Fuel_Flow_Post")
	}

	records := make([]models.FleetRecord, 0, len(rows))
	for i, row := range rows {
		var r models.FleetRecord
		id, ok := cell(row, indices, "aircraft_id")
		if !ok {
			return nil, fmt.Errorf("row %d: missing Aircraft_ID", i+2)
		}
		r.AircraftID = id

		monthStr, ok := cell(row, indices, "month")
		if !ok {
			return nil, fmt.Errorf("row %d: missing Month", i+2)
		}
		r.Month, err = ParseMonth(monthStr)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}

		if v, ok := cell(row, indices, "delta_sfc"); ok {
			d, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: bad ΔSFC %q: %w", i+2, v, err)
			}
			r.DeltaSFC = d
			r.HasDeltaSFC = true
		} else if pre, okPre := cell(row, indices, "fuel_flow_pre"); okPre {
			if post, okPost := cell(row, indices, "fuel_flow_post"); okPost {
				preF, err := strconv.ParseFloat(pre, 64)
				if err != nil {
					return nil, fmt.Errorf("row %d: bad Fuel_Flow_Pre %q: %w", i+2, pre, err)
				}
				postF, err := strconv.ParseFloat(post, 64)
				if err != nil {
					return nil, fmt.Errorf("row %d: bad Fuel_Flow_Post %q: %w", i+2, post, err)
				}
				if preF <= 0 {
					return nil, fmt.Errorf("row %d: pre-wash fuel flow must be positive, got %g", i+2, preF)
				}
				r.DeltaSFC = (preF - postF) / preF * 100.0
				r.HasDeltaSFC = true
			}
		}
		// Rows without ΔSFC inputs stay in the set with HasDeltaSFC false;
		// the aggregator excludes them from means.
		records = append(records, r)
	}
	return records, nil
}

// ParseMonth tries the month formats seen in fleet exports, "Jan 25" first.
func ParseMonth(s string) (time.Time, error) {
	formats := []string{
		"Jan 06",
		"Jan 2006",
		"2006-01",
		"01/2006",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse month %q: expected a format like \"Jan 25\"", s)
}

// FormatMonth renders a month the way fleet exports label it.
func FormatMonth(t time.Time) string {
	return t.Format("Jan 06")
}

// ValidateParameters checks operator inputs against the ranges the
// dashboard accepts. Returns one message per violation.
func ValidateParameters(p *models.OperationalParameters) []string {
	var errors []string

	if p.EGTBefore < 400 || p.EGTBefore > 800 {
		errors = append(errors, "EGT before wash must be between 400 and 800 °C")
	}
	if p.EGTAfter < 400 || p.EGTAfter > 800 {
		errors = append(errors, "EGT after wash must be between 400 and 800 °C")
	}
	if p.FlightDuration < 0.5 || p.FlightDuration > 10 {
		errors = append(errors, "flight duration must be between 0.5 and 10 hours")
	}
	if p.FlightsPerYear < 50 || p.FlightsPerYear > 2000 {
		errors = append(errors, "flights per year must be between 50 and 2000")
	}
	if p.FuelPrice < 0.1 || p.FuelPrice > 3.0 {
		errors = append(errors, "fuel price must be between 0.1 and 3.0 per kg")
	}
	if p.WashCost < 1000 || p.WashCost > 20000 {
		errors = append(errors, "wash cost must be between 1000 and 20000")
	}

	return errors
}
