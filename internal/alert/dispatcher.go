// Package alert - dispatcher.go makes the dispatch decision for
// every detection.
//
// DESIGN: TryFire runs the suppression pipeline in a fixed order:
//  1. Maintenance mode drops failover and error-rate alerts without
//     touching their cooldown slot; recovery passes through so the
//     all-clear is never silenced.
//  2. The cooldown gate admits at most one alert per kind per
//     interval.
//  3. Admitted alerts always reach the console. The webhook, when
//     configured, gets one best-effort POST; a failed POST is logged
//     and swallowed, never retried.
//
// Every decision, fired or suppressed, lands in the audit trail.
package alert

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bluegreenops/logwatcher/internal/monitoring"
)

// Config controls dispatch behavior.
type Config struct {
	// Cooldown is the minimum interval between fires of one kind.
	Cooldown time.Duration

	// Maintenance starts the dispatcher in maintenance mode.
	Maintenance bool

	// Now overrides the clock. Nil means time.Now.
	Now func() time.Time
}

// Dispatcher delivers alerts through the suppression pipeline.
type Dispatcher struct {
	console *ConsoleSink
	webhook *SlackSink
	gate    *gate
	audit   *monitoring.AuditTrail

	mu          sync.Mutex
	maintenance bool
}

// NewDispatcher creates a dispatcher. webhook may be nil for
// console-only operation, audit may be nil to skip the trail.
func NewDispatcher(cfg Config, webhook *SlackSink, audit *monitoring.AuditTrail) *Dispatcher {
	return &Dispatcher{
		console:     NewConsoleSink(),
		webhook:     webhook,
		gate:        newGate(cfg.Cooldown, cfg.Now),
		audit:       audit,
		maintenance: cfg.Maintenance,
	}
}

// TryFire applies the suppression rules and delivers the alert when it
// is admitted. It reports whether the alert fired.
func (d *Dispatcher) TryFire(ctx context.Context, a Alert) bool {
	if d.Maintenance() && a.Kind != KindRecovery {
		log.Info().
			Str("kind", string(a.Kind)).
			Str("title", a.Title).
			Msg("alert suppressed: maintenance mode")
		monitoring.AlertsSuppressed.WithLabelValues(string(a.Kind), "maintenance").Inc()
		d.record(&monitoring.AlertEvent{
			Kind:    string(a.Kind),
			Outcome: monitoring.OutcomeSuppressedMaintenance,
			Title:   a.Title,
			Text:    a.Text,
			Fields:  fieldsMap(a.Fields),
		})
		return false
	}

	if !d.gate.admit(a.Kind) {
		log.Debug().
			Str("kind", string(a.Kind)).
			Msg("alert suppressed: cooldown")
		monitoring.AlertsSuppressed.WithLabelValues(string(a.Kind), "cooldown").Inc()
		d.record(&monitoring.AlertEvent{
			Kind:    string(a.Kind),
			Outcome: monitoring.OutcomeSuppressedCooldown,
			Title:   a.Title,
		})
		return false
	}

	d.console.Write(a)
	monitoring.AlertsFired.WithLabelValues(string(a.Kind)).Inc()

	event := &monitoring.AlertEvent{
		Kind:    string(a.Kind),
		Outcome: monitoring.OutcomeFired,
		Title:   a.Title,
		Text:    a.Text,
		Fields:  fieldsMap(a.Fields),
	}
	if d.webhook != nil {
		event.WebhookAttempted = true
		if err := d.webhook.Send(ctx, a); err != nil {
			log.Warn().
				Err(err).
				Str("kind", string(a.Kind)).
				Msg("webhook delivery failed")
			monitoring.WebhookFailures.Inc()
			event.WebhookError = err.Error()
		}
	}
	d.record(event)
	return true
}

// Maintenance reports whether maintenance mode is active.
func (d *Dispatcher) Maintenance() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.maintenance
}

// SetMaintenance toggles maintenance mode at runtime.
func (d *Dispatcher) SetMaintenance(enabled bool) {
	d.mu.Lock()
	changed := d.maintenance != enabled
	d.maintenance = enabled
	d.mu.Unlock()

	if changed {
		log.Info().Bool("enabled", enabled).Msg("maintenance mode changed")
	}
}

// LastFired returns a copy of the per-kind last fire times.
func (d *Dispatcher) LastFired() map[Kind]time.Time {
	return d.gate.snapshot()
}

func (d *Dispatcher) record(event *monitoring.AlertEvent) {
	if d.audit != nil {
		d.audit.Record(event)
	}
}

func fieldsMap(fields []Field) map[string]string {
	if len(fields) == 0 {
		return nil
	}
	m := make(map[string]string, len(fields))
	for _, f := range fields {
		m[f.Title] = f.Value
	}
	return m
}
