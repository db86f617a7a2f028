package follower

import (
	"errors"
	"fmt"
)

// ErrInvalidInput reports a malformed edge-vector descriptor.
var ErrInvalidInput = errors.New("invalid edge vector input")

// curveSpeedGain shapes the base speed on curves: speed falls linearly from
// SpeedMax at turn 0 to zero at turn = curveSpeedGain.
const curveSpeedGain = 1.5 * TurnMax

// PlanMotion converts the lane descriptor into a speed/turn decision,
// updating PrevTurn and the adaptive speed multiplier in place.
//
// VectorCount selects the behaviour:
//
//	0 - no line: neutral turn, maximum speed (before overrides).
//	1 - single curve edge: turn from the endpoint x-delta normalized by
//	    image width. The multiplier accelerates while the trajectory is
//	    straightening and brakes while it sharpens, in fixed steps,
//	    clamped to its tuned bounds.
//	2 - two parallel edges: turn from the deviation of the averaged edge
//	    midpoints from the image center. The multiplier relaxes halfway
//	    back toward its default and PrevTurn resets.
//
// Any other non-negative count is a no-op, same as count 0. A negative
// count, or a non-positive image width when a vector is present, returns
// ErrInvalidInput.
//
// The returned command is clamped to [-1, 1] on both axes so that malformed
// but non-rejected input cannot produce an out-of-range actuation value.
func (s *State) PlanMotion(vectors EdgeVectorSet, params Tuning) (Command, error) {
	speed := SpeedMax
	turn := TurnMin

	if vectors.VectorCount < 0 {
		return Command{}, fmt.Errorf("%w: vector_count %d", ErrInvalidInput, vectors.VectorCount)
	}
	if vectors.VectorCount >= 1 && vectors.ImageWidth <= 0 {
		return Command{}, fmt.Errorf("%w: image_width %v", ErrInvalidInput, vectors.ImageWidth)
	}

	switch vectors.VectorCount {
	case 1: // curve
		deviation := vectors.Vector1[1].X - vectors.Vector1[0].X
		turn = deviation / vectors.ImageWidth
		if turn < s.PrevTurn {
			s.SpeedMult = clamp(s.SpeedMult+params.SpeedMultStep, params.SpeedMultMin, params.SpeedMultMax)
		} else {
			s.SpeedMult = clamp(s.SpeedMult-params.SpeedMultStep, params.SpeedMultMin, params.SpeedMultMax)
		}
		speed = (curveSpeedGain - turn) / curveSpeedGain
		speed *= s.SpeedMult
		s.PrevTurn = turn

	case 2: // straight
		middleXLeft := (vectors.Vector1[0].X + vectors.Vector1[1].X) / 2
		middleXRight := (vectors.Vector2[0].X + vectors.Vector2[1].X) / 2
		middleX := (middleXLeft + middleXRight) / 2
		halfWidth := vectors.ImageWidth / 2
		deviation := halfWidth - middleX
		turn = deviation / halfWidth
		// The multiplier is inactive on straights and decays toward
		// its default.
		s.SpeedMult = (SpeedMultDefault + s.SpeedMult) / 2
		s.PrevTurn = TurnMin
	}

	return Command{
		Speed: clamp(speed, -SpeedMax, SpeedMax),
		Turn:  clamp(turn, -TurnMax, TurnMax),
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
