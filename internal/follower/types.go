// Package follower implements the reactive line-following controller for the
// buggy. It fuses two independent sensor streams, an edge-vector lane
// descriptor from the vision pipeline and a 2D range scan, into a single
// speed/turn command, including the adaptive speed multiplier ("ESC") and a
// regression-based ground/ramp classifier.
package follower

// Point2D is a point in image pixel coordinates.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// EdgeVectorSet is the lane descriptor produced by the vision pipeline each
// cycle. VectorCount determines interpretation: 0 = no line detected,
// 1 = single curve edge (Vector1 valid), 2 = two parallel edges (both valid).
type EdgeVectorSet struct {
	VectorCount int        `json:"vector_count"`
	ImageWidth  float64    `json:"image_width"`
	Vector1     [2]Point2D `json:"vector_1"`
	Vector2     [2]Point2D `json:"vector_2"`
}

// RangeScan is one sweep from the range sensor. Ranges are ordered by
// measurement angle; AngleIncrement is the constant angular step between
// consecutive samples.
type RangeScan struct {
	Ranges         []float64 `json:"ranges"`
	RangeMin       float64   `json:"range_min"`
	RangeMax       float64   `json:"range_max"`
	AngleIncrement float64   `json:"angle_increment"`
}

// TrafficStatus carries the latest traffic-sign detections.
type TrafficStatus struct {
	StopSign bool `json:"stop_sign"`
}

// State is the mutable controller state shared between the per-scan hazard
// detectors and the per-frame motion planner. One instance per controller;
// NewState returns it initialized to neutral values.
type State struct {
	Traffic          TrafficStatus
	ObstacleDetected bool
	RampDetected     bool

	// SpeedMult is the adaptive speed multiplier, clamped by the planner
	// to [SpeedMultMin, SpeedMultMax] on every update.
	SpeedMult float64
	// PrevTurn is the turn value from the previous curve frame.
	PrevTurn float64
}

// NewState returns a State with neutral startup values.
func NewState() *State {
	return &State{
		SpeedMult: SpeedMultDefault,
		PrevTurn:  TurnMin,
	}
}

// Command is the final speed/turn decision for one frame. Both values are in
// [-1, 1]: speed is forward for positive, reverse for negative; turn is left
// for positive, right for negative.
type Command struct {
	Speed float64 `json:"speed"`
	Turn  float64 `json:"turn"`
}

// JoyMessage is the external drive-by-wire command format. Buttons signal
// manual/override mode to the actuator stack; axis 1 carries speed and axis 3
// carries turn.
type JoyMessage struct {
	Buttons [8]int     `json:"buttons"`
	Axes    [4]float64 `json:"axes"`
}

// Joy maps the command into the external message format. No validation is
// performed here; the planner produces in-range values by construction.
func (c Command) Joy() JoyMessage {
	return JoyMessage{
		Buttons: [8]int{1, 0, 0, 0, 0, 0, 0, 1},
		Axes:    [4]float64{0, c.Speed, 0, c.Turn},
	}
}
