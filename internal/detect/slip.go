package detect

import (
	"github.com/apexloop-data/setup.coach/internal/config"
	"github.com/apexloop-data/setup.coach/internal/telemetry"
)

// Slip flags front-grip loss outside braking: the car slows while steering
// past the deadzone with throttle held or rising and no brake. The finding
// aggregator later classifies each slip by its pedal context.
type Slip struct {
	deadzone     float64
	minSpeedLoss float64

	prevThrottle *float64
	prevSpeed    *float64
}

func NewSlip(cfg *config.Config) *Slip {
	return &Slip{
		deadzone:     cfg.GetSlipSteeringDeadzoneRad(),
		minSpeedLoss: cfg.GetSlipMinSpeedLossMPS(),
	}
}

func (d *Slip) Name() string { return "slip" }

func (d *Slip) Process(snap *telemetry.Snapshot, _ *telemetry.SessionInfo) []telemetry.Annotation {
	if !analyzable(snap) {
		return nil
	}
	if snap.Throttle == nil || snap.Brake == nil || snap.SteeringAngleRad == nil {
		return nil
	}
	throttle := *snap.Throttle
	speed := *snap.SpeedMPS
	defer func() {
		d.prevThrottle = &throttle
		d.prevSpeed = &speed
	}()

	if d.prevThrottle == nil || d.prevSpeed == nil {
		return nil
	}
	if *snap.Brake != 0 || throttle < *d.prevThrottle {
		return nil
	}
	if abs(*snap.SteeringAngleRad) <= d.deadzone {
		return nil
	}
	if *d.prevSpeed-speed < d.minSpeedLoss {
		return nil
	}
	return []telemetry.Annotation{telemetry.Slip{
		PrevSpeedMPS: *d.prevSpeed,
		CurSpeedMPS:  speed,
	}}
}

func (d *Slip) Reset() {
	d.prevThrottle = nil
	d.prevSpeed = nil
}
