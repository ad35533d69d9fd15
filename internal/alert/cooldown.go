// Package alert - cooldown.go rate-limits alerts per kind.
//
// DESIGN: The gate keeps the last fire time for each kind behind a
// mutex. Admission is check-and-set: a kind passes when its cooldown
// has elapsed (or it never fired), and passing records the new fire
// time in the same step. Suppressed attempts record nothing, so they
// never push the next eligible fire further out.
package alert

import (
	"sync"
	"time"
)

type gate struct {
	cooldown time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last map[Kind]time.Time
}

func newGate(cooldown time.Duration, now func() time.Time) *gate {
	if now == nil {
		now = time.Now
	}
	return &gate{
		cooldown: cooldown,
		now:      now,
		last:     make(map[Kind]time.Time),
	}
}

// admit reports whether kind may fire, recording the fire time when it
// may. Kinds rate-limit independently.
func (g *gate) admit(kind Kind) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if last, ok := g.last[kind]; ok && now.Sub(last) < g.cooldown {
		return false
	}
	g.last[kind] = now
	return true
}

// snapshot returns a copy of the per-kind last fire times.
func (g *gate) snapshot() map[Kind]time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make(map[Kind]time.Time, len(g.last))
	for k, v := range g.last {
		out[k] = v
	}
	return out
}
