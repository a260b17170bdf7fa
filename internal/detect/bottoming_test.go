package detect

import (
	"testing"

	"github.com/apexloop-data/setup.coach/internal/config"
	"github.com/apexloop-data/setup.coach/internal/telemetry"
)

func straightTick(pitch, speed float64) *telemetry.Snapshot {
	snap := moving(speed)
	snap.PitchRad = fp(pitch)
	snap.SteeringPct = fp(0.05)
	return snap
}

func TestBottomingOutOnPitchSpikeWithSpeedLoss(t *testing.T) {
	d := NewBottomingOut(config.Default())

	if anns := d.Process(straightTick(0.01, 80), nil); len(anns) != 0 {
		t.Fatalf("fired without a previous tick: %v", anns)
	}
	anns := d.Process(straightTick(0.08, 79.2), nil)
	if len(anns) != 1 {
		t.Fatalf("expected 1 annotation, got %v", anns)
	}
	bo, ok := anns[0].(telemetry.BottomingOut)
	if !ok {
		t.Fatalf("expected BottomingOut, got %T", anns[0])
	}
	if bo.PitchDeltaRad < 0.069 || bo.PitchDeltaRad > 0.071 {
		t.Errorf("PitchDeltaRad = %v, want 0.07", bo.PitchDeltaRad)
	}
}

func TestBottomingOutNeedsBothConditions(t *testing.T) {
	d := NewBottomingOut(config.Default())
	d.Process(straightTick(0.01, 80), nil)

	// Pitch spike without the speed loss.
	if anns := d.Process(straightTick(0.08, 80), nil); len(anns) != 0 {
		t.Errorf("fired without speed loss: %v", anns)
	}
	// Speed loss without the pitch spike.
	if anns := d.Process(straightTick(0.08, 78), nil); len(anns) != 0 {
		t.Errorf("fired without pitch delta: %v", anns)
	}
}

func TestBottomingOutCorneringGate(t *testing.T) {
	d := NewBottomingOut(config.Default())
	d.Process(straightTick(0.01, 80), nil)

	cornering := straightTick(0.08, 79)
	cornering.SteeringPct = fp(0.5)
	if anns := d.Process(cornering, nil); len(anns) != 0 {
		t.Errorf("fired while cornering; pitch change there is load transfer: %v", anns)
	}
}
