// Package config loads and validates the pilot's JSON tuning files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/track.pilot/internal/follower"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for tuning parameters.
// The schema matches the /api/params endpoint so the same JSON can be used
// for both startup configuration and runtime updates. All fields are
// optional; omitted fields fall back to the deployed defaults, so partial
// configs are safe.
type TuningConfig struct {
	// Obstacle detection
	ThresholdObstacleVertical   *float64 `json:"threshold_obstacle_vertical,omitempty"`
	ThresholdObstacleHorizontal *float64 `json:"threshold_obstacle_horizontal,omitempty"`
	ShieldVertical              *float64 `json:"shield_vertical,omitempty"`
	ShieldHorizontal            *float64 `json:"shield_horizontal,omitempty"`

	// Ground/ramp classification
	MinPointsForGround *int     `json:"min_points_for_ground,omitempty"`
	RSquaredThreshold  *float64 `json:"r_squared_threshold,omitempty"`

	// Adaptive speed multiplier
	SpeedMultMin  *float64 `json:"speed_mult_min,omitempty"`
	SpeedMultMax  *float64 `json:"speed_mult_max,omitempty"`
	SpeedMultStep *float64 `json:"speed_mult_step,omitempty"`

	// Override speeds
	RampSpeed     *float64 `json:"ramp_speed,omitempty"`
	ObstacleSpeed *float64 `json:"obstacle_speed,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields unset.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file is
// validated to ensure it has a .json extension and is under the max file
// size. Fields omitted from the JSON file retain their default values.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.ThresholdObstacleVertical != nil && *c.ThresholdObstacleVertical <= 0 {
		return fmt.Errorf("threshold_obstacle_vertical must be positive, got %f", *c.ThresholdObstacleVertical)
	}
	if c.ThresholdObstacleHorizontal != nil && *c.ThresholdObstacleHorizontal <= 0 {
		return fmt.Errorf("threshold_obstacle_horizontal must be positive, got %f", *c.ThresholdObstacleHorizontal)
	}
	if c.ShieldVertical != nil && *c.ShieldVertical <= 0 {
		return fmt.Errorf("shield_vertical must be positive, got %f", *c.ShieldVertical)
	}
	if c.ShieldHorizontal != nil && *c.ShieldHorizontal <= 0 {
		return fmt.Errorf("shield_horizontal must be positive, got %f", *c.ShieldHorizontal)
	}
	if c.MinPointsForGround != nil && *c.MinPointsForGround < 2 {
		return fmt.Errorf("min_points_for_ground must be at least 2, got %d", *c.MinPointsForGround)
	}
	if c.RSquaredThreshold != nil {
		if *c.RSquaredThreshold < 0 || *c.RSquaredThreshold > 1 {
			return fmt.Errorf("r_squared_threshold must be between 0 and 1, got %f", *c.RSquaredThreshold)
		}
	}
	if c.SpeedMultStep != nil && *c.SpeedMultStep <= 0 {
		return fmt.Errorf("speed_mult_step must be positive, got %f", *c.SpeedMultStep)
	}
	multMin, multMax := c.GetSpeedMultMin(), c.GetSpeedMultMax()
	if multMin <= 0 {
		return fmt.Errorf("speed_mult_min must be positive, got %f", multMin)
	}
	if multMax < multMin {
		return fmt.Errorf("speed_mult_max (%f) must not be below speed_mult_min (%f)", multMax, multMin)
	}
	if c.RampSpeed != nil && (*c.RampSpeed < 0 || *c.RampSpeed > 1) {
		return fmt.Errorf("ramp_speed must be between 0 and 1, got %f", *c.RampSpeed)
	}
	if c.ObstacleSpeed != nil && (*c.ObstacleSpeed < 0 || *c.ObstacleSpeed > 1) {
		return fmt.Errorf("obstacle_speed must be between 0 and 1, got %f", *c.ObstacleSpeed)
	}
	return nil
}

// GetThresholdObstacleVertical returns the value or the default.
func (c *TuningConfig) GetThresholdObstacleVertical() float64 {
	if c.ThresholdObstacleVertical == nil {
		return follower.ThresholdObstacleVertical
	}
	return *c.ThresholdObstacleVertical
}

// GetThresholdObstacleHorizontal returns the value or the default.
func (c *TuningConfig) GetThresholdObstacleHorizontal() float64 {
	if c.ThresholdObstacleHorizontal == nil {
		return follower.ThresholdObstacleHorizontal
	}
	return *c.ThresholdObstacleHorizontal
}

// GetShieldVertical returns the value or the default.
func (c *TuningConfig) GetShieldVertical() float64 {
	if c.ShieldVertical == nil {
		return follower.ShieldVertical
	}
	return *c.ShieldVertical
}

// GetShieldHorizontal returns the value or the default.
func (c *TuningConfig) GetShieldHorizontal() float64 {
	if c.ShieldHorizontal == nil {
		return follower.ShieldHorizontal
	}
	return *c.ShieldHorizontal
}

// GetMinPointsForGround returns the value or the default.
func (c *TuningConfig) GetMinPointsForGround() int {
	if c.MinPointsForGround == nil {
		return follower.MinPointsForGround
	}
	return *c.MinPointsForGround
}

// GetRSquaredThreshold returns the value or the default.
func (c *TuningConfig) GetRSquaredThreshold() float64 {
	if c.RSquaredThreshold == nil {
		return follower.RSquaredThreshold
	}
	return *c.RSquaredThreshold
}

// GetSpeedMultMin returns the value or the default.
func (c *TuningConfig) GetSpeedMultMin() float64 {
	if c.SpeedMultMin == nil {
		return follower.SpeedMultMin
	}
	return *c.SpeedMultMin
}

// GetSpeedMultMax returns the value or the default.
func (c *TuningConfig) GetSpeedMultMax() float64 {
	if c.SpeedMultMax == nil {
		return follower.SpeedMultMax
	}
	return *c.SpeedMultMax
}

// GetSpeedMultStep returns the value or the default.
func (c *TuningConfig) GetSpeedMultStep() float64 {
	if c.SpeedMultStep == nil {
		return follower.SpeedMultStep
	}
	return *c.SpeedMultStep
}

// GetRampSpeed returns the value or the default.
func (c *TuningConfig) GetRampSpeed() float64 {
	if c.RampSpeed == nil {
		return follower.Speed50Percent
	}
	return *c.RampSpeed
}

// GetObstacleSpeed returns the value or the default.
func (c *TuningConfig) GetObstacleSpeed() float64 {
	if c.ObstacleSpeed == nil {
		return follower.Speed25Percent
	}
	return *c.ObstacleSpeed
}

// FollowerTuning materializes the effective follower parameter set.
func (c *TuningConfig) FollowerTuning() follower.Tuning {
	return follower.Tuning{
		ThresholdObstacleVertical:   c.GetThresholdObstacleVertical(),
		ThresholdObstacleHorizontal: c.GetThresholdObstacleHorizontal(),
		ShieldVertical:              c.GetShieldVertical(),
		ShieldHorizontal:            c.GetShieldHorizontal(),
		MinPointsForGround:          c.GetMinPointsForGround(),
		RSquaredThreshold:           c.GetRSquaredThreshold(),
		SpeedMultMin:                c.GetSpeedMultMin(),
		SpeedMultMax:                c.GetSpeedMultMax(),
		SpeedMultStep:               c.GetSpeedMultStep(),
		RampSpeed:                   c.GetRampSpeed(),
		ObstacleSpeed:               c.GetObstacleSpeed(),
	}
}
