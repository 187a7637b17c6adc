package db

import (
	"database/sql"
	"fmt"
	"time"

	"engine-wash-analytics/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

// Database wraps the SQLite connection
type Database struct {
	conn *sql.DB
}

// New creates a new database connection
func New(dbPath string) (*Database, error) {
	// Enable WAL mode and other optimizations via connection string
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000", dbPath)

	conn, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	db := &Database{conn: conn}

	if err := db.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return db, nil
}

// initialize creates tables and indexes
func (db *Database) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS wash_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		aircraft_id TEXT NOT NULL DEFAULT '',
		recorded_at DATETIME,
		fuel_flow_pre REAL,
		fuel_flow_post REAL
	);

	CREATE TABLE IF NOT EXISTS analysis_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		aircraft_label TEXT NOT NULL,
		delta_sfc REAL NOT NULL,
		optimal_interval INTEGER NOT NULL,
		net_saving REAL NOT NULL,
		co2_saved_annual REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_wash_records_aircraft ON wash_records(aircraft_id);
	CREATE INDEX IF NOT EXISTS idx_analysis_runs_created ON analysis_runs(created_at);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.conn.Close()
}

// InsertWashRecord adds a single QAR observation. Missing fuel flows are
// stored as NULL, never zero.
func (db *Database) InsertWashRecord(r *models.WashRecord) error {
	query := `INSERT INTO wash_records (aircraft_id, recorded_at, fuel_flow_pre, fuel_flow_post) VALUES (?, ?, ?, ?)`
	result, err := db.conn.Exec(query, r.AircraftID, nullTime(r.RecordedAt), nullFloat(r.FuelFlowPre, r.HasPre), nullFloat(r.FuelFlowPost, r.HasPost))
	if err != nil {
		return err
	}
	id, _ := result.LastInsertId()
	r.ID = id
	return nil
}

// InsertWashRecordBatch efficiently inserts multiple QAR observations
func (db *Database) InsertWashRecordBatch(records []models.WashRecord) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO wash_records (aircraft_id, recorded_at, fuel_flow_pre, fuel_flow_post) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	var count int64
	for _, r := range records {
		_, err := stmt.Exec(r.AircraftID, nullTime(r.RecordedAt), nullFloat(r.FuelFlowPre, r.HasPre), nullFloat(r.FuelFlowPost, r.HasPost))
		if err != nil {
			return count, err
		}
		count++
	}

	return count, tx.Commit()
}

// ListWashRecords returns stored QAR observations, newest first, optionally
// filtered by aircraft
func (db *Database) ListWashRecords(aircraftID string, limit int) ([]models.WashRecord, error) {
	query := `SELECT id, aircraft_id, recorded_at, fuel_flow_pre, fuel_flow_post FROM wash_records`
	var args []interface{}
	if aircraftID != "" {
		query += " WHERE aircraft_id = ?"
		args = append(args, aircraftID)
	}
	query += " ORDER BY id DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.WashRecord
	for rows.Next() {
		var r models.WashRecord
		var recordedAt sql.NullTime
		var pre, post sql.NullFloat64

		if err := rows.Scan(&r.ID, &r.AircraftID, &recordedAt, &pre, &post); err != nil {
			return nil, err
		}
		if recordedAt.Valid {
			r.RecordedAt = recordedAt.Time
		}
		if pre.Valid {
			r.FuelFlowPre = pre.Float64
			r.HasPre = true
		}
		if post.Valid {
			r.FuelFlowPost = post.Float64
			r.HasPost = true
		}
		results = append(results, r)
	}

	return results, rows.Err()
}

// InsertAnalysisRun records the headline results of a completed analysis
func (db *Database) InsertAnalysisRun(result *models.AnalysisResult) (int64, error) {
	query := `
		INSERT INTO analysis_runs (aircraft_label, delta_sfc, optimal_interval, net_saving, co2_saved_annual, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	createdAt := result.ComputedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	res, err := db.conn.Exec(query,
		result.Parameters.AircraftLabel, result.Model.DeltaSFC,
		result.Optimal.Interval, result.Optimal.NetSaving,
		result.KPIs.CO2SavedAnnual, createdAt,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListAnalysisRuns returns run history, newest first
func (db *Database) ListAnalysisRuns(limit int) ([]models.AnalysisRun, error) {
	query := `
		SELECT id, aircraft_label, delta_sfc, optimal_interval, net_saving, co2_saved_annual, created_at
		FROM analysis_runs
		ORDER BY created_at DESC, id DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.AnalysisRun
	for rows.Next() {
		var r models.AnalysisRun
		if err := rows.Scan(&r.ID, &r.AircraftLabel, &r.DeltaSFC, &r.OptimalInterval, &r.NetSaving, &r.CO2SavedAnnual, &r.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// GetStats returns database statistics
func (db *Database) GetStats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var totalRecords int64
	db.conn.QueryRow("SELECT COUNT(*) FROM wash_records").Scan(&totalRecords)
	stats["total_wash_records"] = totalRecords

	var totalRuns int64
	db.conn.QueryRow("SELECT COUNT(*) FROM analysis_runs").Scan(&totalRuns)
	stats["total_analysis_runs"] = totalRuns

	var aircraftCount int64
	db.conn.QueryRow("SELECT COUNT(DISTINCT aircraft_id) FROM wash_records WHERE aircraft_id != ''").Scan(&aircraftCount)
	stats["distinct_aircraft"] = aircraftCount

	return stats, nil
}

func nullFloat(v float64, ok bool) interface{} {
	if !ok {
		return nil
	}
	return v
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
