package detect

import (
	"github.com/apexloop-data/setup.coach/internal/config"
	"github.com/apexloop-data/setup.coach/internal/telemetry"
)

// BottomingOut looks for the signature of the floor hitting the track on a
// near-straight: a pitch spike and a speed loss in the same tick.
type BottomingOut struct {
	maxSteering   float64
	minPitchDelta float64
	minSpeedLoss  float64

	prevPitch *float64
	prevSpeed *float64
}

func NewBottomingOut(cfg *config.Config) *BottomingOut {
	return &BottomingOut{
		maxSteering:   cfg.GetBottomingMaxSteeringPct(),
		minPitchDelta: cfg.GetBottomingMinPitchDeltaRad(),
		minSpeedLoss:  cfg.GetBottomingMinSpeedLossMPS(),
	}
}

func (d *BottomingOut) Name() string { return "bottoming_out" }

func (d *BottomingOut) Process(snap *telemetry.Snapshot, _ *telemetry.SessionInfo) []telemetry.Annotation {
	// Pit-limiter laps are not at racing speed; skip them, but unlike most
	// detectors a stationary reading is still useful history here.
	if snap.PitLimiterOn != nil && *snap.PitLimiterOn {
		return nil
	}
	if snap.PitchRad == nil || snap.SpeedMPS == nil {
		return nil
	}
	pitch := *snap.PitchRad
	speed := *snap.SpeedMPS
	defer func() {
		d.prevPitch = &pitch
		d.prevSpeed = &speed
	}()

	if abs(orZero(snap.SteeringPct)) > d.maxSteering {
		return nil
	}
	if d.prevPitch == nil || d.prevSpeed == nil {
		return nil
	}

	pitchDelta := abs(pitch - *d.prevPitch)
	speedLoss := *d.prevSpeed - speed
	if pitchDelta > d.minPitchDelta && speedLoss > d.minSpeedLoss {
		return []telemetry.Annotation{telemetry.BottomingOut{
			PitchDeltaRad: pitchDelta,
			SpeedLossMPS:  speedLoss,
		}}
	}
	return nil
}

func (d *BottomingOut) Reset() {
	d.prevPitch = nil
	d.prevSpeed = nil
}
