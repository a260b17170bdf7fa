// Package detect holds the detector bank: independent stateful units that
// inspect one snapshot plus the session context and emit typed annotations.
//
// Detectors share two rules. First, an absent measurement a detector needs
// means "cannot evaluate this tick": the detector skips silently and never
// substitutes a zero. Second, a detector mutates only its own state — snapshots
// and session info are read-only, and no detector sees another's state, which
// is what makes concurrent per-tick execution safe for the pipeline.
package detect

import (
	"github.com/apexloop-data/setup.coach/internal/config"
	"github.com/apexloop-data/setup.coach/internal/telemetry"
)

// Detector consumes one snapshot and returns zero or more annotations.
type Detector interface {
	// Name identifies the detector in logs and fault reports.
	Name() string

	// Process inspects one snapshot under the current session and returns
	// the annotations it triggers this tick, in a stable order.
	Process(snap *telemetry.Snapshot, session *telemetry.SessionInfo) []telemetry.Annotation

	// Reset discards all per-session state. Called by the pipeline on every
	// session change.
	Reset()
}

// NewBank builds the full detector set in the pipeline's fixed execution
// order. The order is part of the output contract: annotations append to a
// snapshot in this sequence.
func NewBank(cfg *config.Config) []Detector {
	return []Detector{
		NewEntryImbalance(cfg),
		NewMidCornerImbalance(cfg),
		NewBrakeLock(cfg),
		NewTireTemperature(cfg),
		NewBottomingOut(cfg),
		NewSlip(cfg),
		NewScrub(cfg),
		NewWheelspin(cfg),
		NewTrailbrakeSteering(cfg),
		NewShortShift(cfg),
	}
}

// analyzable is the shared racing-state gate: nothing is detected while the
// pit limiter is engaged, in the pit lane, or when the car is not moving.
func analyzable(s *telemetry.Snapshot) bool {
	if s.PitLimiterOn != nil && *s.PitLimiterOn {
		return false
	}
	if s.InPitLane != nil && *s.InPitLane {
		return false
	}
	return s.SpeedMPS != nil && *s.SpeedMPS > 0
}

func orZero(v *float64) float64 {
	if v != nil {
		return *v
	}
	return 0
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
