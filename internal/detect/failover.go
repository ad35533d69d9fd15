// Package detect - failover.go tracks which upstream pool serves traffic.
//
// DESIGN: FailoverDetector keeps the last pool seen and reports a
// Transition exactly once per change:
//   - The first observation establishes the baseline and reports nothing
//   - A single line is enough to flip state (no hysteresis)
//   - Callers that want debounce apply it on top
package detect

// Transition describes a pool change.
type Transition struct {
	From string
	To   string
}

// FailoverDetector tracks the currently serving upstream pool.
type FailoverDetector struct {
	current string
}

// NewFailoverDetector creates a detector with no baseline.
func NewFailoverDetector() *FailoverDetector {
	return &FailoverDetector{}
}

// Observe feeds one pool observation. It returns a Transition when the
// pool differs from the previous observation, nil otherwise.
func (d *FailoverDetector) Observe(pool string) *Transition {
	if pool == "" {
		return nil
	}
	if d.current == "" {
		d.current = pool
		return nil
	}
	if pool == d.current {
		return nil
	}
	t := &Transition{From: d.current, To: pool}
	d.current = pool
	return t
}

// Current returns the last observed pool, or "" before any observation.
func (d *FailoverDetector) Current() string {
	return d.current
}
