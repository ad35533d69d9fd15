// Package monitoring - types.go defines shared types.
//
// DESIGN: Config and event types used by more than one package.
// Defined here ONCE to avoid duplication and circular imports.
//
// TYPES:
//   - LoggerConfig: logging settings
//   - AuditConfig:  alert audit trail settings
//   - AlertEvent:   one audit record per dispatch decision
package monitoring

import "time"

// =============================================================================
// CONFIG TYPES
// =============================================================================

// LoggerConfig contains logging configuration.
type LoggerConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // auto, json, console
	Output string `yaml:"output"` // stdout, stderr, or file path
}

// AuditConfig contains alert audit trail configuration.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// =============================================================================
// EVENT TYPES
// =============================================================================

// Outcomes the dispatcher records for each detection.
const (
	OutcomeFired                 = "fired"
	OutcomeSuppressedCooldown    = "suppressed_cooldown"
	OutcomeSuppressedMaintenance = "suppressed_maintenance"
)

// AlertEvent captures one alert dispatch decision.
type AlertEvent struct {
	EventID          string            `json:"event_id"`
	Timestamp        time.Time         `json:"timestamp"`
	Kind             string            `json:"kind"`
	Outcome          string            `json:"outcome"`
	Title            string            `json:"title"`
	Text             string            `json:"text,omitempty"`
	Fields           map[string]string `json:"fields,omitempty"`
	WebhookAttempted bool              `json:"webhook_attempted"`
	WebhookError     string            `json:"webhook_error,omitempty"`
}
