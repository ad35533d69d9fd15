// Package alert - types.go defines the alert model.
//
// DESIGN: Alerts are plain values built by per-kind constructors, so
// the wording and field sets live in one place:
//   - failover:   warning color, previous/current pool
//   - error_rate: danger color, rate/threshold/window context
//   - recovery:   good color, primary pool restored
//
// Kinds also key the cooldown gate; each kind rate-limits on its own.
package alert

import (
	"fmt"
	"strings"
)

// Kind identifies the alert category.
type Kind string

const (
	KindFailover  Kind = "failover"
	KindErrorRate Kind = "error_rate"
	KindRecovery  Kind = "recovery"
)

// Slack attachment colors.
const (
	colorGood    = "good"
	colorWarning = "warning"
	colorDanger  = "danger"
)

// Field is one key/value pair rendered in the alert body.
type Field struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// Alert is a single notification to deliver.
type Alert struct {
	Kind   Kind
	Title  string
	Color  string
	Text   string
	Fields []Field
}

// NewFailover builds the alert for a pool transition.
func NewFailover(from, to string) Alert {
	return Alert{
		Kind:  KindFailover,
		Title: "Failover Detected",
		Color: colorWarning,
		Text:  fmt.Sprintf("🔄 **Failover Detected**: Traffic switched from `%s` to `%s`", from, to),
		Fields: []Field{
			{Title: "Previous Pool", Value: strings.ToUpper(from), Short: true},
			{Title: "Current Pool", Value: strings.ToUpper(to), Short: true},
			{Title: "Action Required", Value: fmt.Sprintf("Check health of `%s` container and investigate root cause", from), Short: false},
		},
	}
}

// NewErrorRate builds the alert for a sustained 5xx elevation.
func NewErrorRate(rate, threshold float64, errorCount, total int, pool string) Alert {
	current := "Unknown"
	if pool != "" {
		current = strings.ToUpper(pool)
	}
	return Alert{
		Kind:  KindErrorRate,
		Title: "High Error Rate Detected",
		Color: colorDanger,
		Text:  fmt.Sprintf("⚠️ **High Error Rate Detected**: %.2f%% of requests returning 5xx errors", rate),
		Fields: []Field{
			{Title: "Error Rate", Value: fmt.Sprintf("%.2f%%", rate), Short: true},
			{Title: "Threshold", Value: fmt.Sprintf("%g%%", threshold), Short: true},
			{Title: "Window", Value: fmt.Sprintf("%d errors in %d requests", errorCount, total), Short: false},
			{Title: "Current Pool", Value: current, Short: true},
			{Title: "Action Required", Value: "Inspect upstream logs and consider toggling pools", Short: false},
		},
	}
}

// NewRecovery builds the alert for the primary pool serving again.
func NewRecovery(pool string) Alert {
	return Alert{
		Kind:  KindRecovery,
		Title: "Recovery Detected",
		Color: colorGood,
		Text:  fmt.Sprintf("✅ **Recovery Detected**: Primary pool `%s` is serving traffic again", pool),
		Fields: []Field{
			{Title: "Current Pool", Value: strings.ToUpper(pool), Short: true},
			{Title: "Status", Value: "Normal Operations Resumed", Short: true},
		},
	}
}
