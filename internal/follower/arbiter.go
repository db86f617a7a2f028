package follower

// ApplyOverrides merges the planner's decision with the hazard flags set by
// the most recent scan and traffic-status updates. Each active condition
// reassigns speed unconditionally, so when several hold at once the last
// check wins: obstacle over ramp over stop sign. Turn is never overridden.
func (s *State) ApplyOverrides(cmd Command, params Tuning) Command {
	if s.Traffic.StopSign {
		cmd.Speed = SpeedMin
	}
	if s.RampDetected {
		cmd.Speed = params.RampSpeed
	}
	if s.ObstacleDetected {
		cmd.Speed = params.ObstacleSpeed
	}
	return cmd
}
