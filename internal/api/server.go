package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"engine-wash-analytics/internal/db"
	"engine-wash-analytics/internal/fleet"
	"engine-wash-analytics/internal/models"
	"engine-wash-analytics/internal/parser"
	"engine-wash-analytics/internal/washcalc"

	"github.com/gorilla/mux"
)

// Server represents the API server
type Server struct {
	db     *db.Database
	cfg    washcalc.Config
	router *mux.Router
}

// NewServer creates a new API server
func NewServer(database *db.Database, cfg washcalc.Config) *Server {
	s := &Server{
		db:     database,
		cfg:    cfg,
		router: mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	// Health check
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Analysis endpoints
	s.router.HandleFunc("/api/v1/analyze", s.handleAnalyze).Methods("POST")
	s.router.HandleFunc("/api/v1/optimize", s.handleOptimize).Methods("POST")
	s.router.HandleFunc("/api/v1/trajectories", s.handleTrajectories).Methods("POST")

	// Fleet endpoints
	s.router.HandleFunc("/api/v1/fleet/heatmap", s.handleFleetHeatmap).Methods("POST")

	// Storage endpoints
	s.router.HandleFunc("/api/v1/records", s.handleListRecords).Methods("GET")
	s.router.HandleFunc("/api/v1/records/batch", s.handleBatchRecords).Methods("POST")
	s.router.HandleFunc("/api/v1/runs", s.handleListRuns).Methods("GET")

	// Stats endpoint
	s.router.HandleFunc("/api/v1/stats", s.handleStats).Methods("GET")

	// Add middleware
	s.router.Use(loggingMiddleware)
	s.router.Use(jsonMiddleware)
}

// Router returns the configured router
func (s *Server) Router() *mux.Router {
	return s.router
}

// Middleware
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}

func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Response helpers
type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiResponse{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiResponse{Success: false, Error: message})
}

// analyzeRequest carries one immutable parameter snapshot. Optional fields
// are pointers so that an omitted value falls back to the configured
// default while an explicit zero is still an input.
type analyzeRequest struct {
	Parameters      models.OperationalParameters `json:"parameters"`
	DegradationRate *float64                     `json:"degradation_rate,omitempty"`
	RecoveryFactor  *float64                     `json:"recovery_factor,omitempty"`
	FuelFlowPre     *float64                     `json:"fuel_flow_pre,omitempty"`
	FuelFlowPost    *float64                     `json:"fuel_flow_post,omitempty"`
	MaxInterval     int                          `json:"max_interval,omitempty"`
}

// resolve builds the config and efficiency model for one request. ΔSFC
// comes from the fuel-flow pair when supplied, otherwise from the EGT
// heuristic.
func (s *Server) resolve(req *analyzeRequest) (washcalc.Config, models.EfficiencyModel, error) {
	cfg := s.cfg
	if req.MaxInterval > 0 {
		cfg.MaxInterval = req.MaxInterval
	}

	m := models.EfficiencyModel{
		DegradationRate: cfg.DefaultDegRate,
		RecoveryFactor:  cfg.DefaultRecovery,
	}
	if req.DegradationRate != nil {
		m.DegradationRate = *req.DegradationRate
	}
	if req.RecoveryFactor != nil {
		m.RecoveryFactor = *req.RecoveryFactor
	}

	if req.FuelFlowPre != nil && req.FuelFlowPost != nil {
		d, err := washcalc.DeltaSFCFromFlows(*req.FuelFlowPre, *req.FuelFlowPost)
		if err != nil {
			return cfg, m, err
		}
		m.DeltaSFC = d
	} else {
		m.DeltaSFC = cfg.DeltaSFCFromEGT(req.Parameters.EGTBefore, req.Parameters.EGTAfter)
	}
	return cfg, m, nil
}

func decodeAnalyzeRequest(w http.ResponseWriter, r *http.Request) (*analyzeRequest, bool) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return nil, false
	}
	if errs := parser.ValidateParameters(&req.Parameters); len(errs) > 0 {
		respondError(w, http.StatusBadRequest, errs[0])
		return nil, false
	}
	return &req, true
}

// Handlers
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAnalyzeRequest(w, r)
	if !ok {
		return
	}

	cfg, m, err := s.resolve(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := cfg.Analyze(req.Parameters, m)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	result.ComputedAt = time.Now().UTC()

	if s.db != nil {
		if _, err := s.db.InsertAnalysisRun(result); err != nil {
			log.Printf("failed to persist analysis run: %v", err)
		}
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAnalyzeRequest(w, r)
	if !ok {
		return
	}

	cfg, m, err := s.resolve(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	optimal, evals, err := cfg.Optimize(req.Parameters, m)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"optimal":     optimal,
		"evaluations": evals,
	})
}

func (s *Server) handleTrajectories(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAnalyzeRequest(w, r)
	if !ok {
		return
	}

	cfg, m, err := s.resolve(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	optimal, _, err := cfg.Optimize(req.Parameters, m)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, washcalc.Trajectories(m, req.Parameters.FlightsPerYear, optimal.Interval))
}

// fleetRequest is a fleet dataset posted as JSON rows. Month is a string
// so API clients use the same labels as the file formats.
type fleetRequest struct {
	Records []struct {
		AircraftID   string   `json:"aircraft_id"`
		Month        string   `json:"month"`
		DeltaSFC     *float64 `json:"delta_sfc,omitempty"`
		FuelFlowPre  *float64 `json:"fuel_flow_pre,omitempty"`
		FuelFlowPost *float64 `json:"fuel_flow_post,omitempty"`
	} `json:"records"`
	AlertThreshold float64 `json:"alert_threshold,omitempty"`
}

func (s *Server) handleFleetHeatmap(w http.ResponseWriter, r *http.Request) {
	var req fleetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.Records) == 0 {
		respondError(w, http.StatusBadRequest, "no records supplied")
		return
	}

	records := make([]models.FleetRecord, 0, len(req.Records))
	for i, in := range req.Records {
		if in.AircraftID == "" {
			respondError(w, http.StatusBadRequest, "record "+strconv.Itoa(i)+": aircraft_id is required")
			return
		}
		month, err := parser.ParseMonth(in.Month)
		if err != nil {
			respondError(w, http.StatusBadRequest, "record "+strconv.Itoa(i)+": "+err.Error())
			return
		}

		rec := models.FleetRecord{AircraftID: in.AircraftID, Month: month}
		switch {
		case in.DeltaSFC != nil:
			rec.DeltaSFC = *in.DeltaSFC
			rec.HasDeltaSFC = true
		case in.FuelFlowPre != nil && in.FuelFlowPost != nil:
			d, err := washcalc.DeltaSFCFromFlows(*in.FuelFlowPre, *in.FuelFlowPost)
			if err != nil {
				respondError(w, http.StatusBadRequest, "record "+strconv.Itoa(i)+": "+err.Error())
				return
			}
			rec.DeltaSFC = d
			rec.HasDeltaSFC = true
		}
		records = append(records, rec)
	}

	pivot, err := fleet.BuildPivot(records)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	threshold := req.AlertThreshold
	if threshold == 0 {
		threshold = 2.0
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		if err := fleet.WriteCSV(w, pivot); err != nil {
			log.Printf("csv write error: %v", err)
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"pivot":   pivot,
		"summary": fleet.Summarize(pivot, threshold),
	})
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		respondError(w, http.StatusServiceUnavailable, "no database configured")
		return
	}

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	records, err := s.db.ListWashRecords(r.URL.Query().Get("aircraft_id"), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, records)
}

func (s *Server) handleBatchRecords(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		respondError(w, http.StatusServiceUnavailable, "no database configured")
		return
	}

	var records []models.WashRecord
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON array")
		return
	}
	if len(records) == 0 {
		respondError(w, http.StatusBadRequest, "empty array")
		return
	}

	count, err := s.db.InsertWashRecordBatch(records)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"inserted": count})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		respondError(w, http.StatusServiceUnavailable, "no database configured")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	runs, err := s.db.ListAnalysisRuns(limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, runs)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		respondError(w, http.StatusServiceUnavailable, "no database configured")
		return
	}

	stats, err := s.db.GetStats()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
