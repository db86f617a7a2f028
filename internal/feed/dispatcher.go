package feed

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/banshee-data/track.pilot/internal/follower"
	"github.com/banshee-data/track.pilot/internal/monitoring"
	"github.com/banshee-data/track.pilot/internal/teledb"
)

// Dispatcher routes decoded envelopes into the controller and records each
// cycle in the telemetry store. One dispatcher per run; handlers are called
// from a single reactor loop.
type Dispatcher struct {
	controller *follower.Controller
	db         *teledb.DB // nil disables recording
	runID      string

	// Observer, when set, receives every recorded decision row. The
	// monitor's in-memory chart buffer hangs off this.
	Observer func(teledb.Decision)
}

func NewDispatcher(controller *follower.Controller, db *teledb.DB, runID string) *Dispatcher {
	return &Dispatcher{
		controller: controller,
		db:         db,
		runID:      runID,
	}
}

// HandleLine decodes one envelope and applies it to the controller. Invalid
// edge-vector frames are reported as errors but leave the controller
// untouched; unknown envelope types are errors so bridge schema drift is
// visible.
func (d *Dispatcher) HandleLine(line []byte) error {
	env, err := DecodeEnvelope(line)
	if err != nil {
		return err
	}

	switch env.Type {
	case TypeRangeScan:
		var scan follower.RangeScan
		if err := json.Unmarshal(env.Payload, &scan); err != nil {
			return fmt.Errorf("malformed %s payload: %w", env.Type, err)
		}
		d.controller.OnScan(scan)
		d.recordScan()
		return nil

	case TypeTrafficStatus:
		var status follower.TrafficStatus
		if err := json.Unmarshal(env.Payload, &status); err != nil {
			return fmt.Errorf("malformed %s payload: %w", env.Type, err)
		}
		d.controller.OnTrafficStatus(status)
		return nil

	case TypeEdgeVectors:
		var vectors follower.EdgeVectorSet
		if err := json.Unmarshal(env.Payload, &vectors); err != nil {
			return fmt.Errorf("malformed %s payload: %w", env.Type, err)
		}
		cmd, err := d.controller.OnEdgeVectors(vectors)
		if err != nil && !errors.Is(err, follower.ErrInvalidInput) {
			// Publish failures: the decision was made, so record it
			// before surfacing the error.
			d.recordDecision(vectors, cmd)
			return err
		}
		if err != nil {
			return err
		}
		d.recordDecision(vectors, cmd)
		return nil

	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

func (d *Dispatcher) recordScan() {
	if d.db == nil {
		return
	}
	snap := d.controller.Snapshot()
	err := d.db.RecordScanSummary(teledb.ScanSummary{
		RunID:      d.runID,
		KeptPoints: snap.LastKept,
		RSquared:   snap.LastFit.RSquared,
		Ramp:       snap.State.RampDetected,
		Obstacle:   snap.State.ObstacleDetected,
	})
	if err != nil {
		monitoring.Logf("failed to record scan summary: %v", err)
	}
}

func (d *Dispatcher) recordDecision(vectors follower.EdgeVectorSet, cmd follower.Command) {
	snap := d.controller.Snapshot()
	decision := teledb.Decision{
		RunID:       d.runID,
		VectorCount: vectors.VectorCount,
		Turn:        cmd.Turn,
		Speed:       cmd.Speed,
		SpeedMult:   snap.State.SpeedMult,
		StopSign:    snap.State.Traffic.StopSign,
		Ramp:        snap.State.RampDetected,
		Obstacle:    snap.State.ObstacleDetected,
	}
	if d.Observer != nil {
		d.Observer(decision)
	}
	if d.db == nil {
		return
	}
	if err := d.db.RecordDecision(decision); err != nil {
		monitoring.Logf("failed to record decision: %v", err)
	}
}
