// Package monitoring - logger.go provides structured logging via zerolog.
//
// DESIGN: Thin wrapper around zerolog with:
//   - Configurable level, format (json/console/auto), output (stdout/file)
//   - "auto" picks console format on a terminal, JSON otherwise
//   - Global() sets the default logger for the entire application
package monitoring

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// Logger wraps zerolog.Logger.
type Logger struct {
	zl zerolog.Logger
}

// New creates a new Logger with the given configuration.
func New(cfg LoggerConfig) *Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var writer io.Writer
	terminal := false
	switch cfg.Output {
	case "stdout", "":
		writer = os.Stdout
		terminal = term.IsTerminal(int(os.Stdout.Fd()))
	case "stderr":
		writer = os.Stderr
		terminal = term.IsTerminal(int(os.Stderr.Fd()))
	default:
		f, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			writer = os.Stdout
		} else {
			writer = f
		}
	}

	format := cfg.Format
	if format == "" || format == "auto" {
		if terminal {
			format = "console"
		} else {
			format = "json"
		}
	}
	if format == "console" {
		writer = zerolog.ConsoleWriter{Out: writer, TimeFormat: "15:04:05"}
	}

	zl := zerolog.New(writer).Level(level).With().Timestamp().Logger()
	return &Logger{zl: zl}
}

// Global sets the global zerolog logger.
func Global(cfg LoggerConfig) {
	logger := New(cfg)
	log.Logger = logger.zl
}

// Debug returns a debug event.
func (l *Logger) Debug() *zerolog.Event { return l.zl.Debug() }

// Info returns an info event.
func (l *Logger) Info() *zerolog.Event { return l.zl.Info() }

// Warn returns a warn event.
func (l *Logger) Warn() *zerolog.Event { return l.zl.Warn() }

// Error returns an error event.
func (l *Logger) Error() *zerolog.Event { return l.zl.Error() }

// Fatal returns a fatal event.
func (l *Logger) Fatal() *zerolog.Event { return l.zl.Fatal() }
