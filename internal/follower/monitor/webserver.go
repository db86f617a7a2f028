// Package monitor exposes the pilot's runtime state over HTTP: a JSON state
// snapshot, live tuning updates, and go-echarts debug charts.
package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/banshee-data/track.pilot/internal/config"
	"github.com/banshee-data/track.pilot/internal/follower"
	"github.com/banshee-data/track.pilot/internal/httputil"
	"github.com/banshee-data/track.pilot/internal/monitoring"
	"github.com/banshee-data/track.pilot/internal/version"
)

// WebServer handles the HTTP interface for monitoring the pilot. It provides
// endpoints for health checks, state snapshots, tuning, and debug charts.
type WebServer struct {
	address    string
	controller *follower.Controller
	decisions  *DecisionRing
	runID      string
	mux        *http.ServeMux
	server     *http.Server
}

// WebServerConfig contains configuration options for the web server.
type WebServerConfig struct {
	Address    string
	Controller *follower.Controller
	Decisions  *DecisionRing
	RunID      string
}

// NewWebServer creates a web server with the provided configuration.
// Additional debug routes (telemetry store, serial console) can be attached
// to Mux before Start.
func NewWebServer(cfg WebServerConfig) *WebServer {
	ws := &WebServer{
		address:    cfg.Address,
		controller: cfg.Controller,
		decisions:  cfg.Decisions,
		runID:      cfg.RunID,
		mux:        http.NewServeMux(),
	}

	ws.mux.HandleFunc("/health", ws.handleHealth)
	ws.mux.HandleFunc("/api/state", ws.handleState)
	ws.mux.HandleFunc("/api/params", ws.handleParams)
	ws.mux.HandleFunc("/debug/charts/scan", ws.handleScanChart)
	ws.mux.HandleFunc("/debug/charts/decisions", ws.handleDecisionsChart)

	ws.server = &http.Server{
		Addr:    ws.address,
		Handler: ws.mux,
	}

	return ws
}

// Mux returns the underlying mux for attaching extra debug routes.
func (ws *WebServer) Mux() *http.ServeMux {
	return ws.mux
}

// Start runs the HTTP server until the context is cancelled, then shuts it
// down gracefully.
func (ws *WebServer) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		monitoring.Logf("monitor HTTP server listening on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	monitoring.Logf("shutting down monitor HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("monitor HTTP server shutdown error: %v", err)
		return ws.server.Close()
	}
	return nil
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{
		"status":  "ok",
		"run_id":  ws.runID,
		"version": version.Version,
	})
}

// handleState returns a point-in-time JSON snapshot of the controller.
func (ws *WebServer) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, ws.controller.Snapshot())
}

// handleParams reads (GET) or replaces (POST) the live tuning parameters.
// POST bodies use the tuning-config JSON schema; omitted fields fall back to
// defaults, so a POST is a full replacement, not a patch.
func (ws *WebServer) handleParams(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		httputil.WriteJSONOK(w, ws.controller.Snapshot().Params)

	case http.MethodPost:
		var cfg config.TuningConfig
		decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			httputil.WriteJSONError(w, http.StatusBadRequest, "malformed tuning config: "+err.Error())
			return
		}
		if err := cfg.Validate(); err != nil {
			httputil.WriteJSONError(w, http.StatusBadRequest, err.Error())
			return
		}

		params := cfg.FollowerTuning()
		ws.controller.SetParams(params)
		monitoring.Logf("tuning parameters updated via monitor API")

		httputil.WriteJSONOK(w, params)

	default:
		httputil.MethodNotAllowed(w)
	}
}
