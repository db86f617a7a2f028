package monitor

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/track.pilot/internal/follower"
)

func newTestServer(t *testing.T) (*WebServer, *follower.Controller, *DecisionRing) {
	t.Helper()
	ctrl := follower.NewController(nil, follower.DefaultTuning())
	ring := NewDecisionRing(64)
	ws := NewWebServer(WebServerConfig{
		Address:    "127.0.0.1:0",
		Controller: ctrl,
		Decisions:  ring,
		RunID:      "run-test",
	})
	return ws, ctrl, ring
}

func testScan() follower.RangeScan {
	ranges := make([]float64, 200)
	for i := range ranges {
		ranges[i] = 10
	}
	return follower.RangeScan{
		Ranges:         ranges,
		RangeMin:       0.1,
		RangeMax:       20,
		AngleIncrement: math.Pi / 200,
	}
}

func TestHandleHealth(t *testing.T) {
	ws, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	ws.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "run-test", body["run_id"])
}

func TestHandleState(t *testing.T) {
	ws, ctrl, _ := newTestServer(t)
	ctrl.OnScan(testScan())

	rec := httptest.NewRecorder()
	ws.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var snap follower.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, 100, snap.LastKept)
	assert.Equal(t, follower.SpeedMultDefault, snap.State.SpeedMult)
}

func TestHandleParamsGet(t *testing.T) {
	ws, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	ws.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/params", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var params follower.Tuning
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &params))
	assert.Equal(t, follower.DefaultTuning(), params)
}

func TestHandleParamsPost(t *testing.T) {
	ws, ctrl, _ := newTestServer(t)

	body := `{"r_squared_threshold": 0.8, "speed_mult_step": 0.05}`
	rec := httptest.NewRecorder()
	ws.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/params", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := ctrl.Snapshot().Params
	assert.Equal(t, 0.8, got.RSquaredThreshold)
	assert.Equal(t, 0.05, got.SpeedMultStep)
	// Omitted fields fall back to defaults.
	assert.Equal(t, follower.DefaultTuning().ShieldVertical, got.ShieldVertical)
}

func TestHandleParamsPostRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown field", `{"bogus": 1}`},
		{"malformed json", `{"r_squared_threshold":`},
		{"out of range", `{"r_squared_threshold": 2.0}`},
		{"inverted mult bounds", `{"speed_mult_min": 1.4, "speed_mult_max": 0.6}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws, ctrl, _ := newTestServer(t)
			before := ctrl.Snapshot().Params

			rec := httptest.NewRecorder()
			ws.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/params", strings.NewReader(tt.body)))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, before, ctrl.Snapshot().Params, "params must not change on rejected input")
		})
	}
}

func TestHandleParamsMethodNotAllowed(t *testing.T) {
	ws, _, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	ws.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/params", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleScanChart(t *testing.T) {
	ws, ctrl, _ := newTestServer(t)

	// No scan yet.
	rec := httptest.NewRecorder()
	ws.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/charts/scan", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	ctrl.OnScan(testScan())

	rec = httptest.NewRecorder()
	ws.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/charts/scan", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "echarts")
}

func TestHandleDecisionsChart(t *testing.T) {
	ws, _, ring := newTestServer(t)

	// Empty buffer.
	rec := httptest.NewRecorder()
	ws.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/charts/decisions", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	for i := 0; i < 5; i++ {
		ring.Add(DecisionPoint{
			Time:      time.Now(),
			Turn:      0.1 * float64(i),
			Speed:     1 - 0.1*float64(i),
			SpeedMult: 1,
		})
	}

	rec = httptest.NewRecorder()
	ws.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/charts/decisions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "speed_mult")
}
