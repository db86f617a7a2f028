package follower

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// GroundFit holds the result of fitting a line to the Cartesian projection
// of a preprocessed scan.
type GroundFit struct {
	// Alpha and Beta are the intercept and slope of the least-squares fit
	// y = Alpha + Beta*x.
	Alpha, Beta float64
	// RSquared is the coefficient of determination of the fit.
	RSquared float64
	// Points is the number of samples used.
	Points int
	// Ramp reports whether the fit quality exceeds the tuned R² threshold.
	Ramp bool
}

// FitGround fits a line to the Cartesian projection of the preprocessed
// ranges and classifies the profile as ground/ramp when the fit is strong.
// A flat ground plane or ramp surface produces a near-perfectly linear
// Cartesian profile; scattered clutter returns do not.
//
// Sample i is assigned angle i*angleIncrement. The angle origin is the first
// kept sample rather than the original scan geometry; this approximation is
// deliberate and kept for parity with the deployed tuning.
func FitGround(ranges []float64, angleIncrement float64, params Tuning) GroundFit {
	if len(ranges) < params.MinPointsForGround {
		return GroundFit{Points: len(ranges)}
	}

	xs := make([]float64, len(ranges))
	ys := make([]float64, len(ranges))
	for i, r := range ranges {
		angle := float64(i) * angleIncrement
		xs[i] = r * math.Cos(angle)
		ys[i] = r * math.Sin(angle)
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	r2 := stat.RSquared(xs, ys, nil, alpha, beta)

	return GroundFit{
		Alpha:    alpha,
		Beta:     beta,
		RSquared: r2,
		Points:   len(ranges),
		Ramp:     r2 > params.RSquaredThreshold,
	}
}

// DetectRamp reports whether the preprocessed scan profile looks like a
// ground plane or ramp. Fewer than the minimum point count always reports
// false.
func DetectRamp(ranges []float64, angleIncrement float64, params Tuning) bool {
	return FitGround(ranges, angleIncrement, params).Ramp
}
