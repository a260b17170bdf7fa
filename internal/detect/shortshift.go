package detect

import (
	"github.com/apexloop-data/setup.coach/internal/config"
	"github.com/apexloop-data/setup.coach/internal/telemetry"
)

// ShortShift flags upshifts taken well below the engine's shift point.
// It is a driving observation rather than a setup fault, so the aggregator
// surfaces it without mapping it to a finding.
type ShortShift struct {
	toleranceRPM float64

	prevGear int
	prevRPM  float64
}

func NewShortShift(cfg *config.Config) *ShortShift {
	return &ShortShift{toleranceRPM: cfg.GetShortShiftToleranceRPM()}
}

func (d *ShortShift) Name() string { return "short_shift" }

func (d *ShortShift) Process(snap *telemetry.Snapshot, _ *telemetry.SessionInfo) []telemetry.Annotation {
	if !analyzable(snap) {
		return nil
	}
	if snap.Gear == nil || snap.EngineRPM == nil {
		return nil
	}
	gear := *snap.Gear
	rpm := *snap.EngineRPM

	var out []telemetry.Annotation
	if shiftPoint := shiftPointRPM(snap); shiftPoint > 0 &&
		d.prevGear > 0 && d.prevRPM > 0 && gear > d.prevGear &&
		d.prevRPM < shiftPoint-d.toleranceRPM {
		out = append(out, telemetry.ShortShift{
			ShiftRPM:  d.prevRPM,
			TargetRPM: shiftPoint,
		})
	}

	// Neutral and reverse do not move the shift tracking state.
	if gear > 0 {
		d.prevGear = gear
		d.prevRPM = rpm
	}
	return out
}

func shiftPointRPM(snap *telemetry.Snapshot) float64 {
	if snap.ShiftPointRPM != nil {
		return *snap.ShiftPointRPM
	}
	if snap.MaxEngineRPM != nil {
		return *snap.MaxEngineRPM
	}
	return 0
}

func (d *ShortShift) Reset() {
	d.prevGear = 0
	d.prevRPM = 0
}
