package detect

import (
	"github.com/apexloop-data/setup.coach/internal/config"
	"github.com/apexloop-data/setup.coach/internal/stats"
	"github.com/apexloop-data/setup.coach/internal/telemetry"
)

// Scrub detects the front tires pushing across the track instead of turning.
// With yaw rate available it compares the steering-to-yaw shortfall against
// its rolling baseline; for sources that cannot measure yaw rate it falls
// back to tire surface temperature spikes while cornering.
type Scrub struct {
	minSteering float64
	minBrake    float64
	maxThrottle float64
	minSpeed    float64
	tempSpike   float64

	yawShortfall *stats.Window
	tempBaseline *stats.Window
}

func NewScrub(cfg *config.Config) *Scrub {
	return &Scrub{
		minSteering:  cfg.GetScrubMinSteeringPct(),
		minBrake:     cfg.GetScrubMinBrakePct(),
		maxThrottle:  cfg.GetScrubMaxThrottlePct(),
		minSpeed:     cfg.GetScrubMinSpeedMPS(),
		tempSpike:    cfg.GetScrubTempSpikeC(),
		yawShortfall: stats.NewWindow(cfg.GetBaselineWindowSize(), cfg.GetBaselineMinSamples()),
		tempBaseline: stats.NewWindow(cfg.GetBaselineWindowSize(), cfg.GetBaselineMinSamples()),
	}
}

func (d *Scrub) Name() string { return "scrub" }

func (d *Scrub) Process(snap *telemetry.Snapshot, _ *telemetry.SessionInfo) []telemetry.Annotation {
	if !analyzable(snap) {
		return nil
	}
	steering := abs(orZero(snap.SteeringPct))
	speed := *snap.SpeedMPS
	if steering <= d.minSteering || speed < d.minSpeed {
		return nil
	}
	// Scrub is a loaded-front phenomenon: require either real brake or the
	// absence of heavy throttle.
	if orZero(snap.Brake) < d.minBrake && orZero(snap.Throttle) > d.maxThrottle {
		return nil
	}

	if snap.YawRateRPS != nil {
		return d.fromYawRate(steering, abs(*snap.YawRateRPS))
	}
	return d.fromTireTemps(snap)
}

func (d *Scrub) fromYawRate(steering, yawRate float64) []telemetry.Annotation {
	shortfall := steering - yawRate
	d.yawShortfall.Push(shortfall)
	baseline, ok := d.yawShortfall.Mean()
	if !ok || shortfall <= baseline {
		return nil
	}
	return []telemetry.Annotation{telemetry.Scrub{
		BaselineShortfall: baseline,
		CurrentShortfall:  shortfall,
	}}
}

func (d *Scrub) fromTireTemps(snap *telemetry.Snapshot) []telemetry.Annotation {
	if snap.TireLF == nil || snap.TireRF == nil || snap.TireLR == nil || snap.TireRR == nil {
		return nil
	}
	avg := (snap.TireLF.SurfaceMean() + snap.TireRF.SurfaceMean() +
		snap.TireLR.SurfaceMean() + snap.TireRR.SurfaceMean()) / 4
	d.tempBaseline.Push(avg)
	baseline, ok := d.tempBaseline.Mean()
	if !ok {
		return nil
	}
	increase := avg - baseline
	if increase <= d.tempSpike {
		return nil
	}
	// Map the temperature spike onto the shortfall scale so both paths
	// produce comparable annotation payloads.
	return []telemetry.Annotation{telemetry.Scrub{
		BaselineShortfall: baseline / 10,
		CurrentShortfall:  increase / 10,
	}}
}

func (d *Scrub) Reset() {
	d.yawShortfall.Reset()
	d.tempBaseline.Reset()
}
