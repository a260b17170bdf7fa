package detect

import (
	"github.com/apexloop-data/setup.coach/internal/config"
	"github.com/apexloop-data/setup.coach/internal/telemetry"
)

// TireTemperature samples the mean of all twelve surface zones on a fixed
// wall-time interval (independent of tick rate), keeps a rolling history, and
// flags sustained temperatures outside the optimal band. Detection stays
// silent until the minimum sample count has accumulated.
type TireTemperature struct {
	optimalMin float64
	optimalMax float64
	intervalMS int64
	historyMS  int64
	minSamples int

	lastSampleMS int64
	history      []tempSample
}

type tempSample struct {
	timestampMS int64
	avgTemp     float64
}

func NewTireTemperature(cfg *config.Config) *TireTemperature {
	return &TireTemperature{
		optimalMin: cfg.GetTireOptimalMinC(),
		optimalMax: cfg.GetTireOptimalMaxC(),
		intervalMS: int64(cfg.GetTireSampleIntervalMS()),
		historyMS:  int64(cfg.GetTireHistorySeconds()) * 1000,
		minSamples: cfg.GetTireMinSamples(),
	}
}

func (d *TireTemperature) Name() string { return "tire_temperature" }

func (d *TireTemperature) Process(snap *telemetry.Snapshot, _ *telemetry.SessionInfo) []telemetry.Annotation {
	if !analyzable(snap) {
		return nil
	}
	// All four tire records are required for a meaningful average.
	if snap.TireLF == nil || snap.TireRF == nil || snap.TireLR == nil || snap.TireRR == nil {
		return nil
	}
	// Resample at the configured interval regardless of the tick rate.
	if d.lastSampleMS != 0 && snap.TimestampMS-d.lastSampleMS < d.intervalMS {
		return nil
	}
	d.lastSampleMS = snap.TimestampMS

	avg := (snap.TireLF.SurfaceMean() + snap.TireRF.SurfaceMean() +
		snap.TireLR.SurfaceMean() + snap.TireRR.SurfaceMean()) / 4
	d.history = append(d.history, tempSample{timestampMS: snap.TimestampMS, avgTemp: avg})

	// Drop samples that have aged out of the rolling window.
	cutoff := snap.TimestampMS - d.historyMS
	trim := 0
	for trim < len(d.history) && d.history[trim].timestampMS < cutoff {
		trim++
	}
	d.history = d.history[trim:]

	if len(d.history) < d.minSamples {
		return nil
	}
	var sum float64
	for _, s := range d.history {
		sum += s.avgTemp
	}
	mean := sum / float64(len(d.history))

	switch {
	case mean > d.optimalMax:
		return []telemetry.Annotation{telemetry.TireOverheating{AvgTempC: mean, OptimalMaxC: d.optimalMax}}
	case mean < d.optimalMin:
		return []telemetry.Annotation{telemetry.TireCold{AvgTempC: mean, OptimalMinC: d.optimalMin}}
	}
	return nil
}

func (d *TireTemperature) Reset() {
	d.lastSampleMS = 0
	d.history = nil
}
