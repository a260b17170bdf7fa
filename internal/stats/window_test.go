package stats

import (
	"math"
	"testing"
)

func TestWindowMeanBeforeMinSamples(t *testing.T) {
	w := NewWindow(5, 3)
	w.Push(1)
	w.Push(2)
	if _, ok := w.Mean(); ok {
		t.Error("mean should not be ready below the minimum sample count")
	}
	if w.Ready() {
		t.Error("window should not be ready")
	}
	w.Push(3)
	mean, ok := w.Mean()
	if !ok || mean != 2 {
		t.Errorf("mean = %v, %v; want 2, true", mean, ok)
	}
}

func TestWindowEviction(t *testing.T) {
	w := NewWindow(3, 1)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		w.Push(v)
	}
	if w.Count() != 3 {
		t.Fatalf("count = %d, want 3", w.Count())
	}
	mean, _ := w.Mean()
	if mean != 4 {
		t.Errorf("mean = %v, want 4 (oldest evicted)", mean)
	}
}

func TestWindowSamplesOldestFirst(t *testing.T) {
	w := NewWindow(3, 1)
	for _, v := range []float64{10, 20, 30, 40} {
		w.Push(v)
	}
	got := w.Samples()
	want := []float64{20, 30, 40}
	if len(got) != len(want) {
		t.Fatalf("samples = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("samples = %v, want %v", got, want)
		}
	}
	// The returned slice is a copy.
	got[0] = -1
	if w.Samples()[0] != 20 {
		t.Error("Samples should return a copy")
	}
}

func TestWindowReset(t *testing.T) {
	w := NewWindow(4, 2)
	w.Push(1)
	w.Push(2)
	w.Reset()
	if w.Count() != 0 {
		t.Errorf("count after reset = %d", w.Count())
	}
	if _, ok := w.Mean(); ok {
		t.Error("mean should not be available after reset")
	}
}

func TestWindowMeanStability(t *testing.T) {
	// Long pushes with eviction keep the running sum consistent.
	w := NewWindow(10, 1)
	for i := 0; i < 10000; i++ {
		w.Push(float64(i%7) + 0.1)
	}
	mean, _ := w.Mean()
	var want float64
	for i := 9990; i < 10000; i++ {
		want += float64(i%7) + 0.1
	}
	want /= 10
	if math.Abs(mean-want) > 1e-6 {
		t.Errorf("mean drifted: got %v want %v", mean, want)
	}
}
