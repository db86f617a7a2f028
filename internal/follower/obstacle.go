package follower

import "math"

// DetectObstacle scans the preprocessed ranges for proximity hazards. The
// sequence is partitioned by proportional index into front, right and left
// sectors using the shield half-angle theta = atan(vertical/horizontal); the
// split assumes the scan spans exactly π radians.
//
// Front samples closer than the vertical threshold, or side samples closer
// than the horizontal threshold, flag an obstacle. The check short-circuits
// on the first hit; it is a presence test, not a distance-to-impact
// estimate.
func DetectObstacle(ranges []float64, params Tuning) bool {
	theta := math.Atan(params.ShieldVertical / params.ShieldHorizontal)

	n := float64(len(ranges))
	frontLo := int(n * theta / scanFieldOfView)
	frontHi := int(n * (scanFieldOfView - theta) / scanFieldOfView)

	front := ranges[frontLo:frontHi]
	right := ranges[:frontLo]
	left := ranges[frontHi:]

	for _, r := range front {
		if r < params.ThresholdObstacleVertical {
			return true
		}
	}

	// Left sector is walked outward-in (reversed), matching the scan's
	// angular ordering toward the boresight.
	for i := len(left) - 1; i >= 0; i-- {
		if left[i] < params.ThresholdObstacleHorizontal {
			return true
		}
	}
	for _, r := range right {
		if r < params.ThresholdObstacleHorizontal {
			return true
		}
	}

	return false
}
