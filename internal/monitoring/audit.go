// Package monitoring - audit.go records alert decisions to a JSONL file.
//
// DESIGN: AuditTrail writes one JSON object per dispatch decision,
// fired or suppressed, appended immediately so the trail is usable
// while the watcher runs. Events without an ID get a generated UUID.
package monitoring

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AuditTrail records alert dispatch decisions to a JSONL file.
type AuditTrail struct {
	config AuditConfig
	path   string
	count  int
	mu     sync.Mutex
}

// NewAuditTrail creates an audit trail. A disabled config yields a
// no-op trail.
func NewAuditTrail(cfg AuditConfig) (*AuditTrail, error) {
	t := &AuditTrail{config: cfg}

	if !cfg.Enabled || cfg.Path == "" {
		return t, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0750); err != nil {
		return nil, err
	}
	t.path = cfg.Path
	// Create empty file if it doesn't exist
	if _, err := os.Stat(cfg.Path); os.IsNotExist(err) {
		if f, err := os.Create(cfg.Path); err == nil {
			f.Close()
		}
	}

	return t, nil
}

// appendJSONL appends a single JSON object as a line to the file.
func appendJSONL(path string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(data)
	return err
}

// Record writes one dispatch decision. Missing event IDs and timestamps
// are filled in.
func (t *AuditTrail) Record(event *AlertEvent) {
	if t.path == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if event.EventID == "" {
		event.EventID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := appendJSONL(t.path, event); err != nil {
		log.Error().Err(err).Str("path", t.path).Msg("audit: failed to write alert event")
		return
	}
	t.count++
}

// Enabled reports whether events are being written.
func (t *AuditTrail) Enabled() bool {
	return t.path != ""
}

// Close logs a session summary.
func (t *AuditTrail) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.path != "" && t.count > 0 {
		log.Info().
			Str("path", t.path).
			Int("events", t.count).
			Msg("audit: session complete")
	}
	return nil
}
