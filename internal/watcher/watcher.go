// Package watcher - watcher.go runs the line processing loop.
//
// DESIGN: One goroutine owns ingestion: Next, Parse, detect, TryFire,
// strictly in that order, one line fully processed before the next is
// read. Detection state sits behind a single mutex so the ops endpoint
// can take a coherent Status snapshot while the loop runs; the
// components themselves stay lock-free.
//
// Alert rules per parsed entry that names a pool:
//   - pool transition                  -> failover alert
//   - transition back to primary pool  -> recovery alert as well
//   - sliding-window breach            -> error-rate alert
//
// The dispatcher is called outside the mutex. A webhook POST can take
// seconds and must not block Status readers.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bluegreenops/logwatcher/internal/alert"
	"github.com/bluegreenops/logwatcher/internal/config"
	"github.com/bluegreenops/logwatcher/internal/detect"
	"github.com/bluegreenops/logwatcher/internal/follow"
	"github.com/bluegreenops/logwatcher/internal/monitoring"
	"github.com/bluegreenops/logwatcher/internal/nginx"
)

// Watcher ties the follower, parser, detectors, and dispatcher
// together.
type Watcher struct {
	cfg        *config.Config
	follower   follow.Follower
	dispatcher *alert.Dispatcher

	mu             sync.Mutex
	detector       *detect.FailoverDetector
	window         *detect.Window
	linesRead      uint64
	parseFailures  uint64
	poolless       uint64
	upstreamErrors uint64

	started time.Time
}

// Status is a point-in-time view of the watcher for the ops endpoint.
type Status struct {
	CurrentPool      string               `json:"current_pool"`
	PrimaryPool      string               `json:"primary_pool"`
	Maintenance      bool                 `json:"maintenance"`
	WindowFill       int                  `json:"window_fill"`
	WindowSize       int                  `json:"window_size"`
	ErrorRate        float64              `json:"error_rate"`
	LinesRead        uint64               `json:"lines_read"`
	ParseFailures    uint64               `json:"parse_failures"`
	LinesWithoutPool uint64               `json:"lines_without_pool"`
	UpstreamErrors   uint64               `json:"upstream_errors"`
	StartedAt        time.Time            `json:"started_at"`
	LastAlerts       map[string]time.Time `json:"last_alerts,omitempty"`
}

// New creates a watcher over the given follower and dispatcher.
func New(cfg *config.Config, follower follow.Follower, dispatcher *alert.Dispatcher) *Watcher {
	return &Watcher{
		cfg:        cfg,
		follower:   follower,
		dispatcher: dispatcher,
		detector:   detect.NewFailoverDetector(),
		window:     detect.NewWindow(cfg.WindowSize, cfg.ErrorRateThreshold),
		started:    time.Now(),
	}
}

// Run ingests lines until the context is cancelled or the follower
// fails. Cancellation is a clean shutdown and returns nil.
func (w *Watcher) Run(ctx context.Context) error {
	log.Info().
		Str("path", w.cfg.AccessLogPath).
		Str("mode", w.cfg.FollowMode).
		Int("window_size", w.cfg.WindowSize).
		Float64("threshold", w.cfg.ErrorRateThreshold).
		Str("primary_pool", w.cfg.ActivePool).
		Msg("monitoring started")

	for {
		line, err := w.follower.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				log.Info().Msg("monitoring stopped")
				return nil
			}
			return fmt.Errorf("log follower failed: %w", err)
		}
		w.processLine(ctx, line)
	}
}

// processLine runs one line through parse, detection, and dispatch.
func (w *Watcher) processLine(ctx context.Context, line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	monitoring.LinesRead.Inc()

	entry, err := nginx.Parse(line)
	if err != nil {
		monitoring.ParseFailures.Inc()
		log.Warn().Err(err).Msg("unparseable log line")
		w.mu.Lock()
		w.linesRead++
		w.parseFailures++
		w.mu.Unlock()
		return
	}

	if !entry.HasPool() {
		monitoring.LinesWithoutPool.Inc()
		w.mu.Lock()
		w.linesRead++
		w.poolless++
		w.mu.Unlock()
		return
	}

	isError := entry.HasServerError()
	if isError {
		monitoring.UpstreamErrors.Inc()
	}

	var toFire []alert.Alert

	w.mu.Lock()
	w.linesRead++
	if isError {
		w.upstreamErrors++
	}

	first := w.detector.Current() == ""
	if t := w.detector.Observe(entry.Pool); t != nil {
		monitoring.Failovers.Inc()
		log.Info().
			Str("from", t.From).
			Str("to", t.To).
			Msg("pool transition observed")
		toFire = append(toFire, alert.NewFailover(t.From, t.To))
		if t.To == w.cfg.ActivePool {
			toFire = append(toFire, alert.NewRecovery(t.To))
		}
	} else if first {
		log.Info().Str("pool", entry.Pool).Msg("baseline pool established")
	}

	if b := w.window.Observe(isError); b != nil {
		toFire = append(toFire, alert.NewErrorRate(
			b.Rate, w.cfg.ErrorRateThreshold, b.ErrorCount, b.Total, w.detector.Current()))
	}
	monitoring.UpdateWindowMetrics(w.window.Rate(), w.window.Len())
	w.mu.Unlock()

	for _, a := range toFire {
		w.dispatcher.TryFire(ctx, a)
	}
}

// Status returns a snapshot of the watcher state.
func (w *Watcher) Status() Status {
	w.mu.Lock()
	s := Status{
		CurrentPool:      w.detector.Current(),
		PrimaryPool:      w.cfg.ActivePool,
		WindowFill:       w.window.Len(),
		WindowSize:       w.window.Cap(),
		ErrorRate:        w.window.Rate(),
		LinesRead:        w.linesRead,
		ParseFailures:    w.parseFailures,
		LinesWithoutPool: w.poolless,
		UpstreamErrors:   w.upstreamErrors,
		StartedAt:        w.started,
	}
	w.mu.Unlock()

	s.Maintenance = w.dispatcher.Maintenance()
	if last := w.dispatcher.LastFired(); len(last) > 0 {
		s.LastAlerts = make(map[string]time.Time, len(last))
		for kind, at := range last {
			s.LastAlerts[string(kind)] = at
		}
	}
	return s
}

// SetMaintenance toggles alert suppression at runtime.
func (w *Watcher) SetMaintenance(enabled bool) {
	w.dispatcher.SetMaintenance(enabled)
}
