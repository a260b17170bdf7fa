package detect

import (
	"github.com/apexloop-data/setup.coach/internal/config"
	"github.com/apexloop-data/setup.coach/internal/telemetry"
)

// BrakeLock tracks braking zones — brake crossing above and back below the
// zone threshold — and counts anti-lock interventions inside the zone. One
// annotation is emitted per zone, on exit, carrying the activation count.
type BrakeLock struct {
	zoneBrake float64

	inZone      bool
	activations int
	prevBrake   float64
	prevABS     bool
}

func NewBrakeLock(cfg *config.Config) *BrakeLock {
	return &BrakeLock{zoneBrake: cfg.GetBrakeZoneBrakePct()}
}

func (d *BrakeLock) Name() string { return "brake_lock" }

func (d *BrakeLock) Process(snap *telemetry.Snapshot, _ *telemetry.SessionInfo) []telemetry.Annotation {
	if !analyzable(snap) {
		return nil
	}
	// Brake and the anti-lock flag are both required to reason about a zone.
	if snap.Brake == nil || snap.ABSActive == nil {
		return nil
	}
	brake := *snap.Brake
	absActive := *snap.ABSActive

	var out []telemetry.Annotation

	switch {
	case brake > d.zoneBrake && d.prevBrake <= d.zoneBrake:
		// Zone entry: start a fresh count.
		d.inZone = true
		d.activations = 0
	case brake <= d.zoneBrake && d.prevBrake > d.zoneBrake && d.inZone:
		// Zone exit: report the zone once, then reset.
		if d.activations > 0 {
			out = append(out, telemetry.BrakeLock{ABSActivations: d.activations})
		}
		d.inZone = false
		d.activations = 0
	}

	// Count rising edges of the anti-lock flag while inside the zone.
	if d.inZone && absActive && !d.prevABS {
		d.activations++
	}

	d.prevBrake = brake
	d.prevABS = absActive
	return out
}

func (d *BrakeLock) Reset() {
	d.inZone = false
	d.activations = 0
	d.prevBrake = 0
	d.prevABS = false
}
