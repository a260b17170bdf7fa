package detect

import (
	"github.com/apexloop-data/setup.coach/internal/config"
	"github.com/apexloop-data/setup.coach/internal/stats"
	"github.com/apexloop-data/setup.coach/internal/telemetry"
)

// EntryImbalance detects corner-entry oversteer: while braking and steering,
// it maintains a rolling baseline of yaw rate per unit steering and flags the
// ticks where the measured yaw response exceeds that baseline by the
// configured multiplier.
type EntryImbalance struct {
	minBrake    float64
	minSteering float64
	ratio       float64
	baseline    *stats.Window
}

func NewEntryImbalance(cfg *config.Config) *EntryImbalance {
	return &EntryImbalance{
		minBrake:    cfg.GetEntryMinBrakePct(),
		minSteering: cfg.GetEntryMinSteeringPct(),
		ratio:       cfg.GetOversteerRatio(),
		baseline:    stats.NewWindow(cfg.GetBaselineWindowSize(), cfg.GetBaselineMinSamples()),
	}
}

func (d *EntryImbalance) Name() string { return "entry_imbalance" }

func (d *EntryImbalance) Process(snap *telemetry.Snapshot, _ *telemetry.SessionInfo) []telemetry.Annotation {
	if !analyzable(snap) {
		return nil
	}
	// Yaw rate is required; brake and steering default to zero, which simply
	// fails the phase gate.
	if snap.YawRateRPS == nil {
		return nil
	}
	brake := orZero(snap.Brake)
	steering := abs(orZero(snap.SteeringPct))
	if brake < d.minBrake || steering < d.minSteering {
		return nil
	}

	yawRate := abs(*snap.YawRateRPS)
	var out []telemetry.Annotation

	// Compare against the baseline before adding the current sample, so an
	// oversteer moment does not pollute the expectation it is measured
	// against.
	if expectedRatio, ok := d.baseline.Mean(); ok {
		expected := steering * expectedRatio
		if yawRate > expected*d.ratio {
			out = append(out, telemetry.EntryOversteer{
				ExpectedYawRate: expected,
				ActualYawRate:   yawRate,
			})
		}
	}
	d.baseline.Push(yawRate / steering)

	return out
}

func (d *EntryImbalance) Reset() { d.baseline.Reset() }
