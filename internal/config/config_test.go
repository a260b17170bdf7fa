package config

import (
	"os"
	"path/filepath"
	"testing"
)

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }

func TestDefaultAccessors(t *testing.T) {
	cfg := Default()
	if got := cfg.GetBaselineWindowSize(); got != DefaultBaselineWindowSize {
		t.Errorf("GetBaselineWindowSize() = %d, want %d", got, DefaultBaselineWindowSize)
	}
	if got := cfg.GetTireOptimalMaxC(); got != DefaultTireOptimalMaxC {
		t.Errorf("GetTireOptimalMaxC() = %g, want %g", got, DefaultTireOptimalMaxC)
	}
	if got := cfg.GetTrailbrakeMinBrakePct(); got != DefaultTrailbrakeMinBrakePct {
		t.Errorf("GetTrailbrakeMinBrakePct() = %g, want %g", got, DefaultTrailbrakeMinBrakePct)
	}
	if got := cfg.GetFanoutQueueSize(); got != DefaultFanoutQueueSize {
		t.Errorf("GetFanoutQueueSize() = %d, want %d", got, DefaultFanoutQueueSize)
	}
}

func TestAccessorsPreferSetValues(t *testing.T) {
	cfg := &Config{
		WheelspinWindowSize: ip(25),
		OversteerRatio:      fp(2.0),
	}
	if got := cfg.GetWheelspinWindowSize(); got != 25 {
		t.Errorf("GetWheelspinWindowSize() = %d, want 25", got)
	}
	if got := cfg.GetOversteerRatio(); got != 2.0 {
		t.Errorf("GetOversteerRatio() = %g, want 2.0", got)
	}
	// Unset fields still fall through.
	if got := cfg.GetBaselineMinSamples(); got != DefaultBaselineMinSamples {
		t.Errorf("GetBaselineMinSamples() = %d, want %d", got, DefaultBaselineMinSamples)
	}
}

func TestLoadPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.json")
	doc := `{"tire_optimal_max_c": 100, "wheelspin_window_size": 50}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got := cfg.GetTireOptimalMaxC(); got != 100 {
		t.Errorf("GetTireOptimalMaxC() = %g, want 100", got)
	}
	if got := cfg.GetWheelspinWindowSize(); got != 50 {
		t.Errorf("GetWheelspinWindowSize() = %d, want 50", got)
	}
	if got := cfg.GetTireOptimalMinC(); got != DefaultTireOptimalMinC {
		t.Errorf("omitted field changed: GetTireOptimalMinC() = %g", got)
	}
}

func TestLoadRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	cases := []struct {
		name string
		path string
	}{
		{"wrong extension", write("tuning.yaml", "{}")},
		{"missing file", filepath.Join(dir, "absent.json")},
		{"malformed json", write("broken.json", "{")},
		{"invalid value", write("invalid.json", `{"baseline_window_size": 0}`)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(tc.path); err == nil {
				t.Error("Load() succeeded, want error")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"empty", Config{}, false},
		{"sane overrides", Config{OversteerRatio: fp(1.2), TireMinSamples: ip(5)}, false},
		{"zero window", Config{BaselineWindowSize: ip(0)}, true},
		{"negative threshold", Config{UndersteerSpeedLossMPS: fp(-1)}, true},
		{"inverted tire band", Config{TireOptimalMinC: fp(95), TireOptimalMaxC: fp(80)}, true},
		{"min samples above window", Config{BaselineWindowSize: ip(5), BaselineMinSamples: ip(6)}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
