// Package detect - window.go measures the rolling upstream error rate.
//
// DESIGN: Window is a fixed-capacity ring of per-request error flags:
//   - Each observation evicts the oldest flag once the ring is full
//   - No rate is reported until max(10, capacity/10) samples arrived
//   - A Breach is reported when the rate strictly exceeds the threshold
//
// The window is a pure rolling statistic: an error burst stops
// influencing the rate exactly capacity observations later.
package detect

// Breach reports an error rate above the configured threshold.
type Breach struct {
	Rate       float64 // percent of requests in the window that failed
	ErrorCount int
	Total      int
}

// Window tracks 5xx outcomes over the most recent requests.
type Window struct {
	slots     []bool
	head      int
	count     int
	errors    int
	threshold float64
	minFill   int
}

// NewWindow creates a window over capacity requests. threshold is the
// error-rate percentage above which Observe reports a Breach.
func NewWindow(capacity int, threshold float64) *Window {
	if capacity < 1 {
		capacity = 1
	}
	minFill := capacity / 10
	if minFill < 10 {
		minFill = 10
	}
	return &Window{
		slots:     make([]bool, capacity),
		threshold: threshold,
		minFill:   minFill,
	}
}

// Observe records one request outcome. It returns a Breach when the
// window holds enough samples and the error rate exceeds the threshold,
// nil otherwise.
func (w *Window) Observe(isError bool) *Breach {
	if w.count == len(w.slots) {
		// Ring is full: the slot at head is the oldest sample
		if w.slots[w.head] {
			w.errors--
		}
	} else {
		w.count++
	}
	w.slots[w.head] = isError
	if isError {
		w.errors++
	}
	w.head = (w.head + 1) % len(w.slots)

	if w.count < w.minFill {
		return nil
	}
	rate := float64(w.errors) / float64(w.count) * 100
	if rate <= w.threshold {
		return nil
	}
	return &Breach{Rate: rate, ErrorCount: w.errors, Total: w.count}
}

// Len returns the number of samples currently held.
func (w *Window) Len() int { return w.count }

// Cap returns the window capacity.
func (w *Window) Cap() int { return len(w.slots) }

// Errors returns the number of failed requests currently in the window.
func (w *Window) Errors() int { return w.errors }

// Rate returns the current error-rate percentage, 0 for an empty window.
func (w *Window) Rate() float64 {
	if w.count == 0 {
		return 0
	}
	return float64(w.errors) / float64(w.count) * 100
}
