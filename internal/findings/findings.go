// Package findings aggregates detector annotations into session-scoped
// handling findings that the driver can review and confirm.
package findings

import (
	"sort"
	"sync"

	"github.com/apexloop-data/setup.coach/internal/telemetry"
)

// Type identifies a class of handling issue surfaced to the driver.
type Type string

const (
	CornerEntryUndersteer    Type = "corner_entry_understeer"
	CornerEntryOversteer     Type = "corner_entry_oversteer"
	CornerEntryInstability   Type = "corner_entry_instability"
	MidCornerUndersteer      Type = "mid_corner_understeer"
	MidCornerOversteer       Type = "mid_corner_oversteer"
	CornerExitUndersteer     Type = "corner_exit_understeer"
	CornerExitPowerOversteer Type = "corner_exit_power_oversteer"
	CornerExitSnapOversteer  Type = "corner_exit_snap_oversteer"
	FrontBrakeLock           Type = "front_brake_lock"
	RearBrakeLock            Type = "rear_brake_lock"
	BrakingInstability       Type = "braking_instability"
	TireOverheating          Type = "tire_overheating"
	TireCold                 Type = "tire_cold"
	BottomingOut             Type = "bottoming_out"
	ExcessiveTrailbraking    Type = "excessive_trailbraking"
)

var displayNames = map[Type]string{
	CornerEntryUndersteer:    "Corner Entry Understeer",
	CornerEntryOversteer:     "Corner Entry Oversteer",
	CornerEntryInstability:   "Corner Entry Instability",
	MidCornerUndersteer:      "Mid-Corner Understeer",
	MidCornerOversteer:       "Mid-Corner Oversteer",
	CornerExitUndersteer:     "Corner Exit Understeer",
	CornerExitPowerOversteer: "Corner Exit Power Oversteer",
	CornerExitSnapOversteer:  "Corner Exit Snap Oversteer",
	FrontBrakeLock:           "Front Brake Lock",
	RearBrakeLock:            "Rear Brake Lock",
	BrakingInstability:       "Braking Instability",
	TireOverheating:          "Tire Overheating",
	TireCold:                 "Cold Tires",
	BottomingOut:             "Bottoming Out",
	ExcessiveTrailbraking:    "Excessive Trail Braking",
}

// DisplayName returns the human-readable name for the finding type.
func (t Type) DisplayName() string {
	if name, ok := displayNames[t]; ok {
		return name
	}
	return string(t)
}

// CornerPhase describes where in a corner the car was when an issue
// was detected, classified from brake, throttle and steering inputs.
type CornerPhase string

const (
	PhaseEntry    CornerPhase = "entry"
	PhaseMid      CornerPhase = "mid"
	PhaseExit     CornerPhase = "exit"
	PhaseStraight CornerPhase = "straight"
	PhaseUnknown  CornerPhase = "unknown"
)

// Phase classification thresholds. Inputs below these are treated as noise.
const (
	phaseMinBrake    = 0.1
	phaseMinThrottle = 0.1
	phaseMinSteering = 0.05
)

// Key identifies one aggregated finding within a session.
type Key struct {
	Type  Type        `json:"type"`
	Phase CornerPhase `json:"phase"`
}

// Finding is an aggregated handling issue with its occurrence count and
// confirmation state. Confirmation is per finding type, so two findings
// of the same type in different phases share it.
type Finding struct {
	Type           Type        `json:"type"`
	DisplayName    string      `json:"display_name"`
	Phase          CornerPhase `json:"phase"`
	Count          int         `json:"count"`
	LastDetectedMS int64       `json:"last_detected_ms"`
	Confirmed      bool        `json:"confirmed"`
}

// Aggregator consumes annotated snapshots and maintains the session's
// finding set. Ingestion is single-writer (the pipeline runner), but
// queries and confirmation toggles may arrive concurrently.
type Aggregator struct {
	mu        sync.RWMutex
	findings  map[Key]*Finding
	confirmed map[Type]bool
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		findings:  make(map[Key]*Finding),
		confirmed: make(map[Type]bool),
	}
}

// Ingest classifies every annotation on the snapshot into a finding key
// and increments that finding's occurrence count.
func (a *Aggregator) Ingest(snap *telemetry.Snapshot) {
	if len(snap.Annotations) == 0 {
		return
	}
	phase := classifyPhase(snap)

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, ann := range snap.Annotations {
		ft, ok := classifyAnnotation(ann, snap)
		if !ok {
			continue
		}
		key := Key{Type: ft, Phase: phase}
		f, exists := a.findings[key]
		if !exists {
			f = &Finding{Type: ft, Phase: phase}
			a.findings[key] = f
		}
		f.Count++
		f.LastDetectedMS = snap.TimestampMS
	}
}

// ToggleConfirmation flips the confirmed flag for a finding type. Types
// with no recorded finding are ignored.
func (a *Aggregator) ToggleConfirmation(t Type) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for key := range a.findings {
		if key.Type == t {
			a.confirmed[t] = !a.confirmed[t]
			return
		}
	}
}

// IsConfirmed reports whether the finding type is currently confirmed.
func (a *Aggregator) IsConfirmed(t Type) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.confirmed[t]
}

// Confirmed returns the confirmed finding types in deterministic order.
func (a *Aggregator) Confirmed() []Type {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []Type
	for t, on := range a.confirmed {
		if on {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// List returns a copy of all findings, most frequent first.
func (a *Aggregator) List() []Finding {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Finding, 0, len(a.findings))
	for _, f := range a.findings {
		copied := *f
		copied.DisplayName = copied.Type.DisplayName()
		copied.Confirmed = a.confirmed[f.Type]
		out = append(out, copied)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Phase < out[j].Phase
	})
	return out
}

// Clear drops all findings and confirmations. Invoked on session change.
func (a *Aggregator) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.findings = make(map[Key]*Finding)
	a.confirmed = make(map[Type]bool)
}

func classifyPhase(snap *telemetry.Snapshot) CornerPhase {
	brake := orZero(snap.Brake)
	throttle := orZero(snap.Throttle)
	steering := abs(orZero(snap.SteeringPct))

	switch {
	case brake > phaseMinBrake && steering > phaseMinSteering:
		return PhaseEntry
	case throttle > phaseMinThrottle && steering > phaseMinSteering:
		return PhaseExit
	case steering > phaseMinSteering && brake < phaseMinBrake && throttle < phaseMinThrottle:
		return PhaseMid
	case steering < phaseMinSteering:
		return PhaseStraight
	default:
		return PhaseUnknown
	}
}

// classifyAnnotation maps an annotation to a finding type. Context-dependent
// annotations (slip, scrub) use the snapshot's pedal state; short shifts are
// driving observations and produce no finding.
func classifyAnnotation(ann telemetry.Annotation, snap *telemetry.Snapshot) (Type, bool) {
	switch a := ann.(type) {
	case telemetry.Scrub:
		// Scrubbing the fronts is the signature of entry understeer.
		return CornerEntryUndersteer, true
	case telemetry.Slip:
		brake := orZero(snap.Brake)
		throttle := orZero(snap.Throttle)
		switch {
		case brake > phaseMinBrake:
			return CornerEntryUndersteer, true
		case throttle > phaseMinThrottle:
			return CornerExitUndersteer, true
		case a.CurSpeedMPS < a.PrevSpeedMPS:
			return MidCornerUndersteer, true
		default:
			return "", false
		}
	case telemetry.Wheelspin:
		return CornerExitPowerOversteer, true
	case telemetry.TrailbrakeSteering:
		return ExcessiveTrailbraking, true
	case telemetry.EntryOversteer:
		return CornerEntryOversteer, true
	case telemetry.MidCornerUndersteer:
		return MidCornerUndersteer, true
	case telemetry.MidCornerOversteer:
		return MidCornerOversteer, true
	case telemetry.BrakeLock:
		return FrontBrakeLock, true
	case telemetry.TireOverheating:
		return TireOverheating, true
	case telemetry.TireCold:
		return TireCold, true
	case telemetry.BottomingOut:
		return BottomingOut, true
	default:
		return "", false
	}
}

func orZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
