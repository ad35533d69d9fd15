// Package alert - console.go renders fired alerts to the log.
package alert

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ConsoleSink writes alerts through the structured logger so every
// fired alert is visible even without a webhook.
type ConsoleSink struct{}

// NewConsoleSink creates a console sink.
func NewConsoleSink() *ConsoleSink {
	return &ConsoleSink{}
}

// Write renders one fired alert. Severity follows the alert color:
// danger logs at error, warning at warn, everything else at info.
func (s *ConsoleSink) Write(a Alert) {
	ev := s.event(a.Color)
	for _, f := range a.Fields {
		ev = ev.Str(f.Title, f.Value)
	}
	ev.Msg(a.Text)
}

func (s *ConsoleSink) event(color string) *zerolog.Event {
	switch color {
	case colorDanger:
		return log.Error()
	case colorWarning:
		return log.Warn()
	default:
		return log.Info()
	}
}
