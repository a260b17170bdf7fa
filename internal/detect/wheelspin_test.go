package detect

import (
	"testing"

	"github.com/apexloop-data/setup.coach/internal/config"
	"github.com/apexloop-data/setup.coach/internal/telemetry"
)

func spinTick(gear int, rpm, throttle float64) *telemetry.Snapshot {
	snap := moving(40)
	snap.Gear = ip(gear)
	snap.EngineRPM = fp(rpm)
	snap.Throttle = fp(throttle)
	snap.Brake = fp(0)
	return snap
}

func wheelspinConfig() *config.Config {
	cfg := config.Default()
	size := 5
	cfg.WheelspinWindowSize = &size
	return cfg
}

func TestWheelspinAgainstLearnedBaseline(t *testing.T) {
	d := NewWheelspin(wheelspinConfig())

	// Entering the gear resets the comparison.
	d.Process(spinTick(3, 5000, 1.0), nil)

	// Clean full-throttle pull: +100 RPM per tick fills the gear window and
	// fixes the baseline without firing.
	rpm := 5000.0
	for i := 0; i < 5; i++ {
		rpm += 100
		if anns := d.Process(spinTick(3, rpm, 1.0), nil); len(anns) != 0 {
			t.Fatalf("fired while learning the baseline at tick %d: %v", i, anns)
		}
	}

	// The driven wheels break loose: RPM jumps far above the learned growth.
	anns := d.Process(spinTick(3, rpm+400, 1.0), nil)
	if len(anns) != 1 {
		t.Fatalf("expected 1 annotation, got %v", anns)
	}
	spin, ok := anns[0].(telemetry.Wheelspin)
	if !ok {
		t.Fatalf("expected Wheelspin, got %T", anns[0])
	}
	if spin.Gear != 3 {
		t.Errorf("Gear = %d, want 3", spin.Gear)
	}
	if spin.RPMGrowth != 400 {
		t.Errorf("RPMGrowth = %v, want 400", spin.RPMGrowth)
	}
	if spin.BaselineRPMGrowth != 100 {
		t.Errorf("BaselineRPMGrowth = %v, want 100", spin.BaselineRPMGrowth)
	}
}

func TestWheelspinGearChangeResetsComparison(t *testing.T) {
	d := NewWheelspin(wheelspinConfig())
	d.Process(spinTick(3, 5000, 1.0), nil)
	rpm := 5000.0
	for i := 0; i < 5; i++ {
		rpm += 100
		d.Process(spinTick(3, rpm, 1.0), nil)
	}

	// The shift itself is discontinuous and must not fire, and the new gear
	// has no baseline yet.
	if anns := d.Process(spinTick(4, 4200, 1.0), nil); len(anns) != 0 {
		t.Errorf("fired on the gear change: %v", anns)
	}
	if anns := d.Process(spinTick(4, 4700, 1.0), nil); len(anns) != 0 {
		t.Errorf("fired in a gear with no learned baseline: %v", anns)
	}
}

func TestWheelspinPartThrottleDoesNotFeedBaseline(t *testing.T) {
	d := NewWheelspin(wheelspinConfig())
	d.Process(spinTick(3, 5000, 0.5), nil)
	rpm := 5000.0
	for i := 0; i < 20; i++ {
		rpm += 100
		d.Process(spinTick(3, rpm, 0.5), nil)
	}
	// No baseline was ever learned, so even a large jump stays quiet.
	if anns := d.Process(spinTick(3, rpm+400, 0.5), nil); len(anns) != 0 {
		t.Errorf("part-throttle ticks must not learn a baseline: %v", anns)
	}
}

func TestWheelspinQuietOnFallingRPM(t *testing.T) {
	d := NewWheelspin(wheelspinConfig())
	d.Process(spinTick(3, 5000, 1.0), nil)
	rpm := 5000.0
	for i := 0; i < 5; i++ {
		rpm += 100
		d.Process(spinTick(3, rpm, 1.0), nil)
	}
	if anns := d.Process(spinTick(3, rpm-500, 1.0), nil); len(anns) != 0 {
		t.Errorf("falling RPM is not wheelspin: %v", anns)
	}
}
