// Package stats provides the fixed-capacity rolling window shared by the
// detectors that compare a live sample against a recent baseline.
package stats

// Window keeps the last capacity samples and their running sum, so the mean
// updates in O(1): the evicted sample is subtracted, the new one added.
//
// A window below its minimum sample count reports not-ready; callers must
// suppress detection until Ready returns true rather than read a mean of
// partial data.
type Window struct {
	samples []float64
	next    int
	count   int
	sum     float64
	min     int
}

// NewWindow returns a window holding up to capacity samples that becomes
// ready once minSamples have been pushed. minSamples is clamped to
// [1, capacity].
func NewWindow(capacity, minSamples int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	if minSamples < 1 {
		minSamples = 1
	}
	if minSamples > capacity {
		minSamples = capacity
	}
	return &Window{samples: make([]float64, capacity), min: minSamples}
}

// Push adds a sample, evicting the oldest when the window is full.
func (w *Window) Push(v float64) {
	if w.count == len(w.samples) {
		w.sum -= w.samples[w.next]
	} else {
		w.count++
	}
	w.samples[w.next] = v
	w.sum += v
	w.next = (w.next + 1) % len(w.samples)
}

// Count returns the number of samples currently held.
func (w *Window) Count() int { return w.count }

// Ready reports whether the minimum sample count has been reached.
func (w *Window) Ready() bool { return w.count >= w.min }

// Mean returns the arithmetic mean of the held samples. ok is false while
// the window has fewer than its minimum sample count; the mean is not
// meaningful in that case and callers must not use it.
func (w *Window) Mean() (mean float64, ok bool) {
	if !w.Ready() {
		return 0, false
	}
	return w.sum / float64(w.count), true
}

// Samples returns a copy of the held samples in insertion order, oldest
// first. Intended for consumers that need more than the mean (percentiles);
// the copy keeps the window's internal ring private.
func (w *Window) Samples() []float64 {
	out := make([]float64, 0, w.count)
	start := w.next - w.count
	if start < 0 {
		start += len(w.samples)
	}
	for i := 0; i < w.count; i++ {
		out = append(out, w.samples[(start+i)%len(w.samples)])
	}
	return out
}

// Reset discards all samples.
func (w *Window) Reset() {
	for i := range w.samples {
		w.samples[i] = 0
	}
	w.next = 0
	w.count = 0
	w.sum = 0
}
