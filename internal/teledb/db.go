// Package teledb records pilot telemetry, one row per decision cycle and
// one row per scan classification, in a local SQLite database.
package teledb

import (
	"compress/gzip"
	"database/sql"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"
)

// DB wraps the telemetry database connection.
type DB struct {
	*sql.DB
	path string
}

// NewDB opens (or creates) the telemetry database at path and applies the
// connection pragmas. Schema creation is handled by MigrateUp.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Pragmas applied per connection: WAL for concurrent readers during
	// recording, a busy timeout instead of immediate SQLITE_BUSY.
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	return &DB{DB: db, path: path}, nil
}

// Decision is one recorded edge-vector cycle.
type Decision struct {
	RunID       string  `json:"run_id"`
	VectorCount int     `json:"vector_count"`
	Turn        float64 `json:"turn"`
	Speed       float64 `json:"speed"`
	SpeedMult   float64 `json:"speed_mult"`
	StopSign    bool    `json:"stop_sign"`
	Ramp        bool    `json:"ramp"`
	Obstacle    bool    `json:"obstacle"`
	Timestamp   string  `json:"timestamp"`
}

// RecordDecision inserts one decision row.
func (db *DB) RecordDecision(d Decision) error {
	_, err := db.Exec(
		`INSERT INTO decisions (
			run_id, vector_count, turn, speed, speed_mult,
			stop_sign, ramp, obstacle
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.RunID, d.VectorCount, d.Turn, d.Speed, d.SpeedMult,
		d.StopSign, d.Ramp, d.Obstacle,
	)
	return err
}

// Decisions returns the most recent decisions for a run, newest first.
func (db *DB) Decisions(runID string, limit int) ([]Decision, error) {
	rows, err := db.Query(
		`SELECT run_id, vector_count, turn, speed, speed_mult,
			stop_sign, ramp, obstacle, timestamp
		FROM decisions WHERE run_id = ?
		ORDER BY id DESC LIMIT ?`, runID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var decisions []Decision
	for rows.Next() {
		var d Decision
		if err := rows.Scan(
			&d.RunID, &d.VectorCount, &d.Turn, &d.Speed, &d.SpeedMult,
			&d.StopSign, &d.Ramp, &d.Obstacle, &d.Timestamp,
		); err != nil {
			return nil, err
		}
		decisions = append(decisions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return decisions, nil
}

// ScanSummary is one recorded scan classification.
type ScanSummary struct {
	RunID      string  `json:"run_id"`
	KeptPoints int     `json:"kept_points"`
	RSquared   float64 `json:"r_squared"`
	Ramp       bool    `json:"ramp"`
	Obstacle   bool    `json:"obstacle"`
	Timestamp  string  `json:"timestamp"`
}

// RecordScanSummary inserts one scan classification row.
func (db *DB) RecordScanSummary(s ScanSummary) error {
	_, err := db.Exec(
		`INSERT INTO scan_summaries (
			run_id, kept_points, r_squared, ramp, obstacle
		) VALUES (?, ?, ?, ?, ?)`,
		s.RunID, s.KeptPoints, s.RSquared, s.Ramp, s.Obstacle,
	)
	return err
}

// ScanSummaries returns the most recent scan classifications for a run,
// newest first.
func (db *DB) ScanSummaries(runID string, limit int) ([]ScanSummary, error) {
	rows, err := db.Query(
		`SELECT run_id, kept_points, r_squared, ramp, obstacle, timestamp
		FROM scan_summaries WHERE run_id = ?
		ORDER BY id DESC LIMIT ?`, runID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []ScanSummary
	for rows.Next() {
		var s ScanSummary
		if err := rows.Scan(
			&s.RunID, &s.KeptPoints, &s.RSquared, &s.Ramp, &s.Obstacle, &s.Timestamp,
		); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summaries, nil
}

// AttachAdminRoutes mounts debugging endpoints under /debug/: a tailSQL
// browser over the telemetry database and an on-demand gzip backup download.
// These routes are reachable only over localhost/Tailscale.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		log.Fatalf("failed to create tailsql server: %v", err)
	}
	tsql.SetDB("sqlite://"+db.path, db.DB, &tailsql.DBOptions{
		Label: "Pilot telemetry",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("backup", "Create and download a backup of the telemetry database", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backupPath := fmt.Sprintf("backup-%d.db", time.Now().Unix())
		if _, err := db.Exec("VACUUM INTO ?", backupPath); err != nil {
			http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
			return
		}

		backupFile, err := os.Open(backupPath)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to open backup file: %v", err), http.StatusInternalServerError)
			return
		}
		defer func() {
			backupFile.Close()
			if err := os.Remove(backupPath); err != nil {
				log.Printf("Failed to remove backup file: %v", err)
			}
		}()

		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", backupPath))
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Encoding", "gzip")

		gzipWriter := gzip.NewWriter(w)
		defer gzipWriter.Close()
		if _, err := io.Copy(gzipWriter, backupFile); err != nil {
			http.Error(w, fmt.Sprintf("Failed to write backup file: %v", err), http.StatusInternalServerError)
			return
		}
	}))
}
