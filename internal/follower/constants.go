package follower

import "math"

// Steering and speed limits. Commands are normalized joystick values.
const (
	TurnMin  = 0.0
	TurnMax  = 1.0
	SpeedMin = 0.0
	SpeedMax = 1.0

	Speed25Percent = SpeedMax / 4
	Speed50Percent = Speed25Percent * 2
)

// Obstacle detection thresholds and safety-zone geometry.
const (
	// ThresholdObstacleVertical is the minimum clear distance straight
	// ahead before a front obstacle is flagged.
	ThresholdObstacleVertical = 1.0
	// ThresholdObstacleHorizontal is the minimum clear distance to either
	// side before a side obstacle is flagged.
	ThresholdObstacleHorizontal = 0.25 / 2

	// ShieldVertical and ShieldHorizontal describe the virtual safety-zone
	// extents used to split the scan into front and side sectors.
	ShieldVertical   = 4.0
	ShieldHorizontal = 1.0
)

// Ground/ramp classifier parameters.
const (
	// MinPointsForGround is the minimum preprocessed sample count before a
	// line fit is attempted.
	MinPointsForGround = 10
	// RSquaredThreshold is the minimum coefficient of determination for a
	// scan profile to be classified as a ground plane or ramp.
	RSquaredThreshold = 0.9
)

// Adaptive speed multiplier (ESC) parameters. The planner clamps the
// multiplier to [SpeedMultMin, SpeedMultMax] on every update.
const (
	SpeedMultDefault = 1.0
	SpeedMultMin     = 0.5
	SpeedMultMax     = 1.5
	SpeedMultStep    = 0.03
)

// scanFieldOfView is the angular span assumed when partitioning the scan
// into sectors by proportional index. Exact only when the sensor's true
// field of view is π radians.
const scanFieldOfView = math.Pi
