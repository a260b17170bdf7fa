package detect

import (
	"github.com/apexloop-data/setup.coach/internal/config"
	"github.com/apexloop-data/setup.coach/internal/telemetry"
)

// TrailbrakeSteering flags heavy braking while the wheel is already turned
// well past the trail-braking range. The combination overloads the front
// axle and usually shows up as entry instability.
type TrailbrakeSteering struct {
	minBrake    float64
	maxSteering float64
}

func NewTrailbrakeSteering(cfg *config.Config) *TrailbrakeSteering {
	return &TrailbrakeSteering{
		minBrake:    cfg.GetTrailbrakeMinBrakePct(),
		maxSteering: cfg.GetTrailbrakeMaxSteeringPct(),
	}
}

func (d *TrailbrakeSteering) Name() string { return "trailbrake_steering" }

func (d *TrailbrakeSteering) Process(snap *telemetry.Snapshot, session *telemetry.SessionInfo) []telemetry.Annotation {
	if !analyzable(snap) {
		return nil
	}
	if snap.Brake == nil {
		return nil
	}
	steering, ok := steeringFraction(snap, session)
	if !ok {
		return nil
	}
	if *snap.Brake > d.minBrake && steering > d.maxSteering {
		return []telemetry.Annotation{telemetry.TrailbrakeSteering{
			SteeringPct: steering,
			BrakePct:    *snap.Brake,
		}}
	}
	return nil
}

// steeringFraction returns the absolute steering input as a fraction of
// full lock, preferring the source's own percentage when it supplies one.
func steeringFraction(snap *telemetry.Snapshot, session *telemetry.SessionInfo) (float64, bool) {
	if snap.SteeringPct != nil {
		return abs(*snap.SteeringPct), true
	}
	if snap.SteeringAngleRad != nil && session != nil && session.MaxSteeringAngle > 0 {
		return abs(*snap.SteeringAngleRad) / session.MaxSteeringAngle, true
	}
	return 0, false
}

func (d *TrailbrakeSteering) Reset() {}
