package follower

import (
	"sync"

	"github.com/banshee-data/track.pilot/internal/monitoring"
)

// CommandSink receives the Joy message emitted at the end of each
// edge-vector cycle. Implementations bridge to the drive-by-wire stack.
type CommandSink interface {
	Publish(JoyMessage) error
}

// Controller fuses the scan, edge-vector and traffic-status streams into
// drive commands. Handlers are expected to be dispatched serially from a
// single reactor loop; the internal mutex only protects Snapshot readers
// (monitor HTTP handlers) against in-flight updates.
type Controller struct {
	mu     sync.Mutex
	state  *State
	params Tuning
	sink   CommandSink

	lastFit      GroundFit
	lastKept     int
	lastScan     []float64
	lastAngleInc float64
	lastCommand  Command
}

// NewController creates a controller with neutral state. A nil sink is
// allowed; commands are then computed but not published.
func NewController(sink CommandSink, params Tuning) *Controller {
	return &Controller{
		state:  NewState(),
		params: params,
		sink:   sink,
	}
}

// Snapshot is a point-in-time copy of the controller's observable state.
type Snapshot struct {
	State        State     `json:"state"`
	LastFit      GroundFit `json:"last_fit"`
	LastKept     int       `json:"last_kept_samples"`
	LastScan     []float64 `json:"last_scan,omitempty"`
	LastAngleInc float64   `json:"last_angle_increment"`
	LastCommand  Command   `json:"last_command"`
	Params       Tuning    `json:"params"`
}

// Snapshot returns a copy of the current controller state for observers.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	scan := make([]float64, len(c.lastScan))
	copy(scan, c.lastScan)
	return Snapshot{
		State:        *c.state,
		LastFit:      c.lastFit,
		LastKept:     c.lastKept,
		LastScan:     scan,
		LastAngleInc: c.lastAngleInc,
		LastCommand:  c.lastCommand,
		Params:       c.params,
	}
}

// SetParams replaces the tuning parameters. Takes effect on the next cycle.
func (c *Controller) SetParams(params Tuning) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params = params
}

// OnScan runs the ground/ramp classifier and the obstacle detector over one
// scan and stores the resulting hazard flags for the next edge-vector cycle.
// A missing or empty scan simply leaves the flags at their last values
// upstream; an empty preprocessed scan here clears both.
func (c *Controller) OnScan(scan RangeScan) {
	kept := FilterScan(scan)

	c.mu.Lock()
	defer c.mu.Unlock()

	fit := FitGround(kept, scan.AngleIncrement, c.params)
	c.state.RampDetected = fit.Ramp
	c.state.ObstacleDetected = DetectObstacle(kept, c.params)
	c.lastFit = fit
	c.lastKept = len(kept)
	c.lastScan = kept
	c.lastAngleInc = scan.AngleIncrement
}

// OnTrafficStatus stores the latest traffic-sign detections.
func (c *Controller) OnTrafficStatus(status TrafficStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Traffic = status
}

// OnEdgeVectors runs the full decision for one vision frame: plan motion
// from the lane descriptor, apply hazard overrides, publish the Joy message.
// The final command is returned for recording.
func (c *Controller) OnEdgeVectors(vectors EdgeVectorSet) (Command, error) {
	c.mu.Lock()

	cmd, err := c.state.PlanMotion(vectors, c.params)
	if err != nil {
		c.mu.Unlock()
		return Command{}, err
	}

	final := c.state.ApplyOverrides(cmd, c.params)
	if c.state.Traffic.StopSign {
		monitoring.Logf("stop sign detected")
	}
	if c.state.RampDetected {
		monitoring.Logf("ramp/bridge detected")
	}
	if c.state.ObstacleDetected {
		monitoring.Logf("obstacle detected")
	}
	c.lastCommand = final
	sink := c.sink
	c.mu.Unlock()

	if sink != nil {
		if err := sink.Publish(final.Joy()); err != nil {
			return final, err
		}
	}
	return final, nil
}
