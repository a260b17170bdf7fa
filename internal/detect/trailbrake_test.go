package detect

import (
	"testing"

	"github.com/apexloop-data/setup.coach/internal/config"
	"github.com/apexloop-data/setup.coach/internal/telemetry"
)

func TestTrailbrakeSteeringFromPct(t *testing.T) {
	d := NewTrailbrakeSteering(config.Default())
	snap := moving(30)
	snap.Brake = fp(0.5)
	snap.SteeringPct = fp(0.4)

	anns := d.Process(snap, nil)
	if len(anns) != 1 {
		t.Fatalf("expected 1 annotation, got %v", anns)
	}
	tb, ok := anns[0].(telemetry.TrailbrakeSteering)
	if !ok {
		t.Fatalf("expected TrailbrakeSteering, got %T", anns[0])
	}
	if tb.BrakePct != 0.5 || tb.SteeringPct != 0.4 {
		t.Errorf("payload = %+v, want brake 0.5 steering 0.4", tb)
	}
}

func TestTrailbrakeSteeringAngleFallback(t *testing.T) {
	d := NewTrailbrakeSteering(config.Default())
	session := &telemetry.SessionInfo{MaxSteeringAngle: 2.0}

	snap := moving(30)
	snap.Brake = fp(0.5)
	snap.SteeringAngleRad = fp(0.8) // 0.8 / 2.0 = 40% lock

	anns := d.Process(snap, session)
	if len(anns) != 1 {
		t.Fatalf("expected 1 annotation via the angle fallback, got %v", anns)
	}
	tb := anns[0].(telemetry.TrailbrakeSteering)
	if tb.SteeringPct != 0.4 {
		t.Errorf("SteeringPct = %v, want 0.4", tb.SteeringPct)
	}

	// Without session metadata the raw angle cannot be normalized.
	if anns := d.Process(snap, nil); len(anns) != 0 {
		t.Errorf("fired without a steering range to normalize against: %v", anns)
	}
}

func TestTrailbrakeSteeringThresholds(t *testing.T) {
	d := NewTrailbrakeSteering(config.Default())
	cases := []struct {
		name            string
		brake, steering float64
		want            int
	}{
		{"light brake", 0.20, 0.40, 0},
		{"modest steering", 0.50, 0.20, 0},
		{"both over", 0.35, 0.30, 1},
	}
	for _, tc := range cases {
		snap := moving(30)
		snap.Brake = fp(tc.brake)
		snap.SteeringPct = fp(tc.steering)
		if anns := d.Process(snap, nil); len(anns) != tc.want {
			t.Errorf("%s: got %d annotations, want %d", tc.name, len(anns), tc.want)
		}
	}
}
