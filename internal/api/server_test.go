package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"engine-wash-analytics/internal/db"
	"engine-wash-analytics/internal/models"
	"engine-wash-analytics/internal/washcalc"
)

func newTestServer(t *testing.T, withDB bool) *Server {
	t.Helper()
	var database *db.Database
	if withDB {
		var err error
		database, err = db.New(filepath.Join(t.TempDir(), "test.db"))
		require.NoError(t, err)
		t.Cleanup(func() { database.Close() })
	}
	return NewServer(database, washcalc.DefaultConfig())
}

func doJSON(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func validAnalyzeBody() map[string]interface{} {
	return map[string]interface{}{
		"parameters": models.OperationalParameters{
			EGTBefore:      630,
			EGTAfter:       620,
			FlightDuration: 2.5,
			FlightsPerYear: 600,
			FuelPrice:      0.8,
			WashCost:       4000,
			AircraftLabel:  "NetJets Citation",
		},
		"degradation_rate": 0.012,
		"recovery_factor":  0.92,
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, false)
	rec := doJSON(t, s, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAnalyze(t *testing.T) {
	s := newTestServer(t, false)
	rec := doJSON(t, s, "POST", "/api/v1/analyze", validAnalyzeBody())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Success bool                  `json:"success"`
		Data    models.AnalysisResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	// EGT heuristic: 0.08 × (630 − 620) = 0.8.
	assert.InDelta(t, 0.8, resp.Data.Model.DeltaSFC, 1e-12)
	assert.Len(t, resp.Data.Evaluations, 11)
	assert.Len(t, resp.Data.Trajectories, 3)
	for _, tr := range resp.Data.Trajectories {
		assert.Len(t, tr.Efficiency, 600)
		assert.Equal(t, 100.0, tr.Efficiency[0])
	}
}

func TestAnalyze_FuelFlowsOverrideEGT(t *testing.T) {
	s := newTestServer(t, false)
	body := validAnalyzeBody()
	body["fuel_flow_pre"] = 1250.0
	body["fuel_flow_post"] = 1230.0

	rec := doJSON(t, s, "POST", "/api/v1/analyze", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data models.AnalysisResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.InDelta(t, 1.6, resp.Data.Model.DeltaSFC, 1e-12)
}

func TestAnalyze_RejectsOutOfRangeParameters(t *testing.T) {
	s := newTestServer(t, false)
	body := validAnalyzeBody()
	params := body["parameters"].(models.OperationalParameters)
	params.FlightsPerYear = 5
	body["parameters"] = params

	rec := doJSON(t, s, "POST", "/api/v1/analyze", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyze_RejectsZeroPreFlow(t *testing.T) {
	s := newTestServer(t, false)
	body := validAnalyzeBody()
	body["fuel_flow_pre"] = 0.0
	body["fuel_flow_post"] = 1230.0

	rec := doJSON(t, s, "POST", "/api/v1/analyze", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOptimize_Deterministic(t *testing.T) {
	s := newTestServer(t, false)
	a := doJSON(t, s, "POST", "/api/v1/optimize", validAnalyzeBody())
	b := doJSON(t, s, "POST", "/api/v1/optimize", validAnalyzeBody())
	require.Equal(t, http.StatusOK, a.Code)
	assert.Equal(t, a.Body.String(), b.Body.String())
}

func TestFleetHeatmap(t *testing.T) {
	s := newTestServer(t, false)
	body := map[string]interface{}{
		"records": []map[string]interface{}{
			{"aircraft_id": "AC-1", "month": "Jan 25", "delta_sfc": 1.2},
			{"aircraft_id": "AC-1", "month": "Feb 25", "delta_sfc": 2.6},
			{"aircraft_id": "AC-2", "month": "Jan 25", "fuel_flow_pre": 1250.0, "fuel_flow_post": 1230.0},
		},
		"alert_threshold": 2.0,
	}

	rec := doJSON(t, s, "POST", "/api/v1/fleet/heatmap", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data struct {
			Pivot   models.HeatmapPivot `json:"pivot"`
			Summary models.FleetSummary `json:"summary"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"AC-1", "AC-2"}, resp.Data.Pivot.Aircraft)
	assert.Equal(t, []string{"Jan 25", "Feb 25"}, resp.Data.Pivot.Months)
	require.Len(t, resp.Data.Summary.Alerts, 1)
	assert.Equal(t, "AC-1", resp.Data.Summary.Alerts[0].AircraftID)
}

func TestFleetHeatmap_CSVExport(t *testing.T) {
	s := newTestServer(t, false)
	body := map[string]interface{}{
		"records": []map[string]interface{}{
			{"aircraft_id": "AC-1", "month": "Jan 25", "delta_sfc": 1.2},
		},
	}

	rec := doJSON(t, s, "POST", "/api/v1/fleet/heatmap?format=csv", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Aircraft_ID,Jan 25")
}

func TestFleetHeatmap_BadMonth(t *testing.T) {
	s := newTestServer(t, false)
	body := map[string]interface{}{
		"records": []map[string]interface{}{
			{"aircraft_id": "AC-1", "month": "Floréal", "delta_sfc": 1.2},
		},
	}
	rec := doJSON(t, s, "POST", "/api/v1/fleet/heatmap", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordsRoundTrip(t *testing.T) {
	s := newTestServer(t, true)

	records := []models.WashRecord{
		{AircraftID: "AC-1", FuelFlowPre: 1250, FuelFlowPost: 1230, HasPre: true, HasPost: true},
		{AircraftID: "AC-1", FuelFlowPre: 1100, HasPre: true},
	}
	rec := doJSON(t, s, "POST", "/api/v1/records/batch", records)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, s, "GET", "/api/v1/records?aircraft_id=AC-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []models.WashRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	// Newest first; the partial record keeps its missing flow missing.
	assert.False(t, resp.Data[0].HasPost)
	assert.True(t, resp.Data[1].HasPost)
}

func TestAnalyzePersistsRun(t *testing.T) {
	s := newTestServer(t, true)
	rec := doJSON(t, s, "POST", "/api/v1/analyze", validAnalyzeBody())
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, "GET", "/api/v1/runs", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []models.AnalysisRun `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "NetJets Citation", resp.Data[0].AircraftLabel)
	assert.InDelta(t, 0.8, resp.Data[0].DeltaSFC, 1e-12)
}

func TestStatsWithoutDatabase(t *testing.T) {
	s := newTestServer(t, false)
	rec := doJSON(t, s, "GET", "/api/v1/stats", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
