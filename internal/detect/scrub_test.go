package detect

import (
	"testing"

	"github.com/apexloop-data/setup.coach/internal/config"
	"github.com/apexloop-data/setup.coach/internal/telemetry"
)

func scrubTick(steering, yawRate float64) *telemetry.Snapshot {
	snap := moving(30)
	snap.Brake = fp(0.5)
	snap.SteeringPct = fp(steering)
	snap.YawRateRPS = fp(yawRate)
	return snap
}

func TestScrubFromYawShortfall(t *testing.T) {
	d := NewScrub(config.Default())

	// Healthy cornering: steering and yaw rate track each other, so the
	// shortfall baseline settles around 0.1 without firing.
	for i := 0; i < 5; i++ {
		if anns := d.Process(scrubTick(0.5, 0.4), nil); len(anns) != 0 {
			t.Fatalf("fired during baseline warmup at tick %d: %v", i, anns)
		}
	}
	// Yaw rate collapses while steering holds: the front is washing out.
	anns := d.Process(scrubTick(0.5, 0.1), nil)
	if len(anns) != 1 {
		t.Fatalf("expected 1 annotation, got %v", anns)
	}
	scrub, ok := anns[0].(telemetry.Scrub)
	if !ok {
		t.Fatalf("expected Scrub, got %T", anns[0])
	}
	if scrub.CurrentShortfall < 0.39 || scrub.CurrentShortfall > 0.41 {
		t.Errorf("CurrentShortfall = %v, want 0.4", scrub.CurrentShortfall)
	}
	if scrub.BaselineShortfall >= scrub.CurrentShortfall {
		t.Errorf("baseline %v should sit below the spike %v", scrub.BaselineShortfall, scrub.CurrentShortfall)
	}
}

func TestScrubQuietUnderPower(t *testing.T) {
	d := NewScrub(config.Default())
	for i := 0; i < 5; i++ {
		d.Process(scrubTick(0.5, 0.4), nil)
	}
	snap := scrubTick(0.5, 0.1)
	snap.Brake = fp(0)
	snap.Throttle = fp(0.8)
	if anns := d.Process(snap, nil); len(anns) != 0 {
		t.Errorf("heavy throttle with no brake is not a loaded-front state: %v", anns)
	}
}

func TestScrubTireTempFallback(t *testing.T) {
	d := NewScrub(config.Default())

	warm := func(temp float64) *telemetry.Snapshot {
		snap := moving(30)
		snap.Brake = fp(0.5)
		snap.SteeringPct = fp(0.5)
		snap.TireLF = tires(temp)
		snap.TireRF = tires(temp)
		snap.TireLR = tires(temp)
		snap.TireRR = tires(temp)
		return snap
	}
	for i := 0; i < 5; i++ {
		if anns := d.Process(warm(80), nil); len(anns) != 0 {
			t.Fatalf("fired on steady temperatures at tick %d: %v", i, anns)
		}
	}
	anns := d.Process(warm(90), nil)
	if len(anns) != 1 {
		t.Fatalf("expected 1 annotation on the temperature spike, got %v", anns)
	}
}

func TestScrubRequiresCorneringSpeed(t *testing.T) {
	d := NewScrub(config.Default())
	snap := scrubTick(0.5, 0.1)
	snap.SpeedMPS = fp(2)
	if anns := d.Process(snap, nil); len(anns) != 0 {
		t.Errorf("parking-lot speeds must not scrub: %v", anns)
	}
}
