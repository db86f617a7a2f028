package follower

// Tuning collects the runtime-adjustable parameters of the follower. The
// zero value is not useful; start from DefaultTuning.
type Tuning struct {
	// Obstacle detection.
	ThresholdObstacleVertical   float64
	ThresholdObstacleHorizontal float64
	ShieldVertical              float64
	ShieldHorizontal            float64

	// Ground/ramp classification.
	MinPointsForGround int
	RSquaredThreshold  float64

	// Adaptive speed multiplier.
	SpeedMultMin  float64
	SpeedMultMax  float64
	SpeedMultStep float64

	// Override speeds.
	RampSpeed     float64
	ObstacleSpeed float64
}

// DefaultTuning returns the deployed parameter set.
func DefaultTuning() Tuning {
	return Tuning{
		ThresholdObstacleVertical:   ThresholdObstacleVertical,
		ThresholdObstacleHorizontal: ThresholdObstacleHorizontal,
		ShieldVertical:              ShieldVertical,
		ShieldHorizontal:            ShieldHorizontal,
		MinPointsForGround:          MinPointsForGround,
		RSquaredThreshold:           RSquaredThreshold,
		SpeedMultMin:                SpeedMultMin,
		SpeedMultMax:                SpeedMultMax,
		SpeedMultStep:               SpeedMultStep,
		RampSpeed:                   Speed50Percent,
		ObstacleSpeed:               Speed25Percent,
	}
}
