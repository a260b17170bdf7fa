package detect

import (
	"sort"

	"github.com/apexloop-data/setup.coach/internal/config"
	"github.com/apexloop-data/setup.coach/internal/stats"
	"github.com/apexloop-data/setup.coach/internal/telemetry"
)

// Wheelspin learns, per gear, how fast the engine speed grows under clean
// full-throttle acceleration, and flags growth above the learned baseline as
// driven wheels breaking traction. The baseline is the 90th percentile of a
// full per-gear window, so ordinary variance does not trigger.
type Wheelspin struct {
	windowSize   int
	fullThrottle float64

	prevGear  int
	prevRPM   float64
	windows   map[int]*stats.Window
	baselines map[int]float64
}

func NewWheelspin(cfg *config.Config) *Wheelspin {
	return &Wheelspin{
		windowSize:   cfg.GetWheelspinWindowSize(),
		fullThrottle: cfg.GetWheelspinFullThrottlePct(),
		windows:      make(map[int]*stats.Window),
		baselines:    make(map[int]float64),
	}
}

func (d *Wheelspin) Name() string { return "wheelspin" }

func (d *Wheelspin) Process(snap *telemetry.Snapshot, _ *telemetry.SessionInfo) []telemetry.Annotation {
	if !analyzable(snap) {
		return nil
	}
	if snap.Gear == nil || snap.EngineRPM == nil || snap.Throttle == nil || snap.Brake == nil {
		return nil
	}
	gear := *snap.Gear
	rpm := *snap.EngineRPM

	// A gear change resets the growth comparison; RPM is discontinuous
	// across shifts.
	if gear != d.prevGear {
		d.prevGear = gear
		d.prevRPM = rpm
		return nil
	}
	defer func() { d.prevRPM = rpm }()

	if gear <= 0 || rpm <= d.prevRPM {
		return nil
	}
	growth := rpm - d.prevRPM

	var out []telemetry.Annotation
	if baseline, ok := d.baselines[gear]; ok && growth > baseline {
		out = append(out, telemetry.Wheelspin{
			Gear:              gear,
			RPMGrowth:         growth,
			BaselineRPMGrowth: baseline,
		})
	}

	// Only clean full-throttle pulls feed the baseline.
	if *snap.Throttle > d.fullThrottle && *snap.Brake == 0 {
		w, exists := d.windows[gear]
		if !exists {
			w = stats.NewWindow(d.windowSize, d.windowSize)
			d.windows[gear] = w
		}
		w.Push(growth)
		if w.Count() == d.windowSize {
			d.baselines[gear] = percentile(w.Samples(), 0.9)
		}
	}

	return out
}

// percentile returns the value at the given rank of the sorted samples.
func percentile(samples []float64, p float64) float64 {
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	idx := int(float64(len(sorted)) * p)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func (d *Wheelspin) Reset() {
	d.prevGear = 0
	d.prevRPM = 0
	d.windows = make(map[int]*stats.Window)
	d.baselines = make(map[int]float64)
}
