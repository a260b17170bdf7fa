package detect

import (
	"github.com/apexloop-data/setup.coach/internal/config"
	"github.com/apexloop-data/setup.coach/internal/stats"
	"github.com/apexloop-data/setup.coach/internal/telemetry"
)

// MidCornerImbalance watches the coasting apex phase (minimal pedals, real
// steering). Understeer shows as per-tick speed loss; oversteer as a yaw
// response above the rolling steering-to-yaw baseline.
type MidCornerImbalance struct {
	maxThrottle float64
	maxBrake    float64
	minSteering float64
	speedLoss   float64
	ratio       float64

	prevSpeed *float64
	baseline  *stats.Window
}

func NewMidCornerImbalance(cfg *config.Config) *MidCornerImbalance {
	return &MidCornerImbalance{
		maxThrottle: cfg.GetCoastMaxThrottlePct(),
		maxBrake:    cfg.GetCoastMaxBrakePct(),
		minSteering: cfg.GetEntryMinSteeringPct(),
		speedLoss:   cfg.GetUndersteerSpeedLossMPS(),
		ratio:       cfg.GetOversteerRatio(),
		baseline:    stats.NewWindow(cfg.GetBaselineWindowSize(), cfg.GetBaselineMinSamples()),
	}
}

func (d *MidCornerImbalance) Name() string { return "mid_corner_imbalance" }

func (d *MidCornerImbalance) Process(snap *telemetry.Snapshot, _ *telemetry.SessionInfo) []telemetry.Annotation {
	if !analyzable(snap) {
		return nil
	}
	speed := *snap.SpeedMPS
	defer func() { d.prevSpeed = &speed }()

	throttle := orZero(snap.Throttle)
	brake := orZero(snap.Brake)
	steering := abs(orZero(snap.SteeringPct))
	if throttle >= d.maxThrottle || brake >= d.maxBrake || steering < d.minSteering {
		return nil
	}

	var out []telemetry.Annotation

	// Understeer half needs only speed and a previous tick.
	if d.prevSpeed != nil {
		if loss := *d.prevSpeed - speed; loss > d.speedLoss {
			out = append(out, telemetry.MidCornerUndersteer{SpeedLossMPS: loss})
		}
	}

	// Oversteer half additionally needs yaw rate; its absence suppresses only
	// this half of the detection.
	if snap.YawRateRPS != nil {
		yawRate := abs(*snap.YawRateRPS)
		if expectedRatio, ok := d.baseline.Mean(); ok {
			expected := steering * expectedRatio
			if yawRate > expected*d.ratio {
				out = append(out, telemetry.MidCornerOversteer{YawRateExcess: yawRate - expected})
			}
		}
		d.baseline.Push(yawRate / steering)
	}

	return out
}

func (d *MidCornerImbalance) Reset() {
	d.prevSpeed = nil
	d.baseline.Reset()
}
