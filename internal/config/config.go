// Package config loads detector and pipeline tuning from a JSON file.
//
// Every field is a pointer so a partial config is safe: omitted fields fall
// back to the named defaults through the Get* accessors.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Named defaults. None of these have a documented derivation beyond the
// values the detection logic was tuned with; they are kept here, overridable,
// rather than spread through the detectors as literals.
const (
	DefaultBaselineWindowSize  = 10
	DefaultBaselineMinSamples  = 5
	DefaultEntryMinBrakePct    = 0.30
	DefaultEntryMinSteeringPct = 0.10
	DefaultOversteerRatio      = 1.5

	DefaultCoastMaxThrottlePct        = 0.15
	DefaultCoastMaxBrakePct           = 0.15
	DefaultUndersteerSpeedLossMPS     = 0.5
	DefaultBrakeZoneBrakePct          = 0.30
	DefaultTireOptimalMinC            = 80.0
	DefaultTireOptimalMaxC            = 95.0
	DefaultTireSampleIntervalMS       = 1000
	DefaultTireHistorySeconds         = 60
	DefaultTireMinSamples             = 10
	DefaultBottomingMaxSteeringPct    = 0.20
	DefaultBottomingMinPitchDeltaRad  = 0.05
	DefaultBottomingMinSpeedLossMPS   = 0.5
	DefaultSlipSteeringDeadzoneRad    = 0.12
	DefaultSlipMinSpeedLossMPS        = 0.5
	DefaultScrubMinSteeringPct        = 0.10
	DefaultScrubMinBrakePct           = 0.40
	DefaultScrubMaxThrottlePct        = 0.40
	DefaultScrubMinSpeedMPS           = 5.0
	DefaultScrubTempSpikeC            = 5.0
	DefaultWheelspinWindowSize        = 100
	DefaultWheelspinFullThrottlePct   = 0.95
	DefaultTrailbrakeMinBrakePct      = 0.30
	DefaultTrailbrakeMaxSteeringPct   = 0.25
	DefaultShortShiftToleranceRPM     = 100.0
	DefaultFanoutQueueSize            = 64
	DefaultSessionRecheckIntervalMS   = 2000
	DefaultSourceRefreshIntervalMS    = 100
)

// Config is the tuning document. All fields optional.
type Config struct {
	BaselineWindowSize  *int     `json:"baseline_window_size,omitempty"`
	BaselineMinSamples  *int     `json:"baseline_min_samples,omitempty"`
	EntryMinBrakePct    *float64 `json:"entry_min_brake_pct,omitempty"`
	EntryMinSteeringPct *float64 `json:"entry_min_steering_pct,omitempty"`
	OversteerRatio      *float64 `json:"oversteer_ratio,omitempty"`

	CoastMaxThrottlePct    *float64 `json:"coast_max_throttle_pct,omitempty"`
	CoastMaxBrakePct       *float64 `json:"coast_max_brake_pct,omitempty"`
	UndersteerSpeedLossMPS *float64 `json:"understeer_speed_loss_mps,omitempty"`

	BrakeZoneBrakePct *float64 `json:"brake_zone_brake_pct,omitempty"`

	TireOptimalMinC      *float64 `json:"tire_optimal_min_c,omitempty"`
	TireOptimalMaxC      *float64 `json:"tire_optimal_max_c,omitempty"`
	TireSampleIntervalMS *int     `json:"tire_sample_interval_ms,omitempty"`
	TireHistorySeconds   *int     `json:"tire_history_seconds,omitempty"`
	TireMinSamples       *int     `json:"tire_min_samples,omitempty"`

	BottomingMaxSteeringPct   *float64 `json:"bottoming_max_steering_pct,omitempty"`
	BottomingMinPitchDeltaRad *float64 `json:"bottoming_min_pitch_delta_rad,omitempty"`
	BottomingMinSpeedLossMPS  *float64 `json:"bottoming_min_speed_loss_mps,omitempty"`

	SlipSteeringDeadzoneRad *float64 `json:"slip_steering_deadzone_rad,omitempty"`
	SlipMinSpeedLossMPS     *float64 `json:"slip_min_speed_loss_mps,omitempty"`

	ScrubMinSteeringPct *float64 `json:"scrub_min_steering_pct,omitempty"`
	ScrubMinBrakePct    *float64 `json:"scrub_min_brake_pct,omitempty"`
	ScrubMaxThrottlePct *float64 `json:"scrub_max_throttle_pct,omitempty"`
	ScrubMinSpeedMPS    *float64 `json:"scrub_min_speed_mps,omitempty"`
	ScrubTempSpikeC     *float64 `json:"scrub_temp_spike_c,omitempty"`

	WheelspinWindowSize      *int     `json:"wheelspin_window_size,omitempty"`
	WheelspinFullThrottlePct *float64 `json:"wheelspin_full_throttle_pct,omitempty"`

	TrailbrakeMinBrakePct    *float64 `json:"trailbrake_min_brake_pct,omitempty"`
	TrailbrakeMaxSteeringPct *float64 `json:"trailbrake_max_steering_pct,omitempty"`

	ShortShiftToleranceRPM *float64 `json:"short_shift_tolerance_rpm,omitempty"`

	FanoutQueueSize          *int `json:"fanout_queue_size,omitempty"`
	SessionRecheckIntervalMS *int `json:"session_recheck_interval_ms,omitempty"`
	SourceRefreshIntervalMS  *int `json:"source_refresh_interval_ms,omitempty"`
}

// Default returns an empty config; every accessor falls through to the
// package defaults.
func Default() *Config { return &Config{} }

// Load reads a tuning config from a JSON file. Omitted fields keep their
// defaults, so partial configs are safe.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate rejects values that would disable detection silently.
func (c *Config) Validate() error {
	checkPos := func(name string, v *float64) error {
		if v != nil && *v <= 0 {
			return fmt.Errorf("%s must be positive, got %g", name, *v)
		}
		return nil
	}
	checkPosInt := func(name string, v *int) error {
		if v != nil && *v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, *v)
		}
		return nil
	}
	for _, err := range []error{
		checkPosInt("baseline_window_size", c.BaselineWindowSize),
		checkPosInt("baseline_min_samples", c.BaselineMinSamples),
		checkPos("oversteer_ratio", c.OversteerRatio),
		checkPos("understeer_speed_loss_mps", c.UndersteerSpeedLossMPS),
		checkPos("brake_zone_brake_pct", c.BrakeZoneBrakePct),
		checkPosInt("tire_sample_interval_ms", c.TireSampleIntervalMS),
		checkPosInt("tire_history_seconds", c.TireHistorySeconds),
		checkPosInt("tire_min_samples", c.TireMinSamples),
		checkPos("bottoming_min_pitch_delta_rad", c.BottomingMinPitchDeltaRad),
		checkPos("bottoming_min_speed_loss_mps", c.BottomingMinSpeedLossMPS),
		checkPos("short_shift_tolerance_rpm", c.ShortShiftToleranceRPM),
		checkPosInt("wheelspin_window_size", c.WheelspinWindowSize),
		checkPosInt("fanout_queue_size", c.FanoutQueueSize),
		checkPosInt("session_recheck_interval_ms", c.SessionRecheckIntervalMS),
		checkPosInt("source_refresh_interval_ms", c.SourceRefreshIntervalMS),
	} {
		if err != nil {
			return err
		}
	}
	if c.TireOptimalMinC != nil && c.TireOptimalMaxC != nil && *c.TireOptimalMinC >= *c.TireOptimalMaxC {
		return fmt.Errorf("tire optimal band inverted: min %g >= max %g", *c.TireOptimalMinC, *c.TireOptimalMaxC)
	}
	if c.BaselineWindowSize != nil && c.BaselineMinSamples != nil && *c.BaselineMinSamples > *c.BaselineWindowSize {
		return fmt.Errorf("baseline_min_samples %d exceeds baseline_window_size %d", *c.BaselineMinSamples, *c.BaselineWindowSize)
	}
	return nil
}

func intOr(v *int, def int) int {
	if v != nil {
		return *v
	}
	return def
}

func floatOr(v *float64, def float64) float64 {
	if v != nil {
		return *v
	}
	return def
}

func (c *Config) GetBaselineWindowSize() int { return intOr(c.BaselineWindowSize, DefaultBaselineWindowSize) }
func (c *Config) GetBaselineMinSamples() int { return intOr(c.BaselineMinSamples, DefaultBaselineMinSamples) }
func (c *Config) GetEntryMinBrakePct() float64 {
	return floatOr(c.EntryMinBrakePct, DefaultEntryMinBrakePct)
}
func (c *Config) GetEntryMinSteeringPct() float64 {
	return floatOr(c.EntryMinSteeringPct, DefaultEntryMinSteeringPct)
}
func (c *Config) GetOversteerRatio() float64 { return floatOr(c.OversteerRatio, DefaultOversteerRatio) }
func (c *Config) GetCoastMaxThrottlePct() float64 {
	return floatOr(c.CoastMaxThrottlePct, DefaultCoastMaxThrottlePct)
}
func (c *Config) GetCoastMaxBrakePct() float64 {
	return floatOr(c.CoastMaxBrakePct, DefaultCoastMaxBrakePct)
}
func (c *Config) GetUndersteerSpeedLossMPS() float64 {
	return floatOr(c.UndersteerSpeedLossMPS, DefaultUndersteerSpeedLossMPS)
}
func (c *Config) GetBrakeZoneBrakePct() float64 {
	return floatOr(c.BrakeZoneBrakePct, DefaultBrakeZoneBrakePct)
}
func (c *Config) GetTireOptimalMinC() float64 { return floatOr(c.TireOptimalMinC, DefaultTireOptimalMinC) }
func (c *Config) GetTireOptimalMaxC() float64 { return floatOr(c.TireOptimalMaxC, DefaultTireOptimalMaxC) }
func (c *Config) GetTireSampleIntervalMS() int {
	return intOr(c.TireSampleIntervalMS, DefaultTireSampleIntervalMS)
}
func (c *Config) GetTireHistorySeconds() int {
	return intOr(c.TireHistorySeconds, DefaultTireHistorySeconds)
}
func (c *Config) GetTireMinSamples() int { return intOr(c.TireMinSamples, DefaultTireMinSamples) }
func (c *Config) GetBottomingMaxSteeringPct() float64 {
	return floatOr(c.BottomingMaxSteeringPct, DefaultBottomingMaxSteeringPct)
}
func (c *Config) GetBottomingMinPitchDeltaRad() float64 {
	return floatOr(c.BottomingMinPitchDeltaRad, DefaultBottomingMinPitchDeltaRad)
}
func (c *Config) GetBottomingMinSpeedLossMPS() float64 {
	return floatOr(c.BottomingMinSpeedLossMPS, DefaultBottomingMinSpeedLossMPS)
}
func (c *Config) GetSlipSteeringDeadzoneRad() float64 {
	return floatOr(c.SlipSteeringDeadzoneRad, DefaultSlipSteeringDeadzoneRad)
}
func (c *Config) GetSlipMinSpeedLossMPS() float64 {
	return floatOr(c.SlipMinSpeedLossMPS, DefaultSlipMinSpeedLossMPS)
}
func (c *Config) GetScrubMinSteeringPct() float64 {
	return floatOr(c.ScrubMinSteeringPct, DefaultScrubMinSteeringPct)
}
func (c *Config) GetScrubMinBrakePct() float64 {
	return floatOr(c.ScrubMinBrakePct, DefaultScrubMinBrakePct)
}
func (c *Config) GetScrubMaxThrottlePct() float64 {
	return floatOr(c.ScrubMaxThrottlePct, DefaultScrubMaxThrottlePct)
}
func (c *Config) GetScrubMinSpeedMPS() float64 {
	return floatOr(c.ScrubMinSpeedMPS, DefaultScrubMinSpeedMPS)
}
func (c *Config) GetScrubTempSpikeC() float64 {
	return floatOr(c.ScrubTempSpikeC, DefaultScrubTempSpikeC)
}
func (c *Config) GetWheelspinWindowSize() int {
	return intOr(c.WheelspinWindowSize, DefaultWheelspinWindowSize)
}
func (c *Config) GetWheelspinFullThrottlePct() float64 {
	return floatOr(c.WheelspinFullThrottlePct, DefaultWheelspinFullThrottlePct)
}
func (c *Config) GetTrailbrakeMinBrakePct() float64 {
	return floatOr(c.TrailbrakeMinBrakePct, DefaultTrailbrakeMinBrakePct)
}
func (c *Config) GetTrailbrakeMaxSteeringPct() float64 {
	return floatOr(c.TrailbrakeMaxSteeringPct, DefaultTrailbrakeMaxSteeringPct)
}
func (c *Config) GetShortShiftToleranceRPM() float64 {
	return floatOr(c.ShortShiftToleranceRPM, DefaultShortShiftToleranceRPM)
}
func (c *Config) GetFanoutQueueSize() int { return intOr(c.FanoutQueueSize, DefaultFanoutQueueSize) }
func (c *Config) GetSessionRecheckIntervalMS() int {
	return intOr(c.SessionRecheckIntervalMS, DefaultSessionRecheckIntervalMS)
}
func (c *Config) GetSourceRefreshIntervalMS() int {
	return intOr(c.SourceRefreshIntervalMS, DefaultSourceRefreshIntervalMS)
}
