// Package monitoring - metrics.go exports Prometheus collectors.
//
// DESIGN: Package-level promauto collectors, registered at init:
//   - lines/parse-failure/no-pool counters for the ingest path
//   - failover, upstream-error and alert-outcome counters for detection
//   - error-rate and window-fill gauges for the current window state
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LinesRead counts every line delivered by the follower.
	LinesRead = promauto.NewCounter(prometheus.CounterOpts{
		Name: "logwatcher_lines_total",
		Help: "Total number of log lines read",
	})

	// ParseFailures counts lines dropped by the parser.
	ParseFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "logwatcher_parse_failures_total",
		Help: "Total number of log lines dropped as unparseable",
	})

	// LinesWithoutPool counts parsed lines with no pool marker.
	LinesWithoutPool = promauto.NewCounter(prometheus.CounterOpts{
		Name: "logwatcher_lines_without_pool_total",
		Help: "Total number of parsed lines without a pool marker",
	})

	// UpstreamErrors counts requests classified as upstream 5xx.
	UpstreamErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "logwatcher_upstream_errors_total",
		Help: "Total number of requests with an upstream 5xx",
	})

	// Failovers counts observed pool transitions.
	Failovers = promauto.NewCounter(prometheus.CounterOpts{
		Name: "logwatcher_failovers_total",
		Help: "Total number of pool transitions observed",
	})

	// AlertsFired counts alerts that passed the cooldown gate, by kind.
	AlertsFired = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "logwatcher_alerts_fired_total",
		Help: "Total number of alerts fired",
	}, []string{"kind"})

	// AlertsSuppressed counts suppressed alerts by kind and reason.
	AlertsSuppressed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "logwatcher_alerts_suppressed_total",
		Help: "Total number of alerts suppressed",
	}, []string{"kind", "reason"})

	// WebhookFailures counts webhook deliveries that did not succeed.
	WebhookFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "logwatcher_webhook_failures_total",
		Help: "Total number of failed webhook deliveries",
	})

	// ErrorRate is the current sliding-window error rate in percent.
	ErrorRate = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "logwatcher_error_rate_percent",
		Help: "Current sliding-window error rate",
	})

	// WindowFill is the number of samples in the sliding window.
	WindowFill = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "logwatcher_window_fill",
		Help: "Number of requests currently in the sliding window",
	})
)

// UpdateWindowMetrics publishes the current window state.
func UpdateWindowMetrics(rate float64, fill int) {
	ErrorRate.Set(rate)
	WindowFill.Set(float64(fill))
}
