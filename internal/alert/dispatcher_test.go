package alert_test

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluegreenops/logwatcher/internal/alert"
	"github.com/bluegreenops/logwatcher/internal/monitoring"
)

// testClock returns a config with an adjustable clock. Advance the
// returned pointer to move time forward.
func testClock(cooldown time.Duration) (alert.Config, *time.Time) {
	now := time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC)
	cfg := alert.Config{
		Cooldown: cooldown,
		Now:      func() time.Time { return now },
	}
	return cfg, &now
}

// ============================================================================
// COOLDOWN GATING
// ============================================================================

func TestDispatcher_FirstAlertFires(t *testing.T) {
	cfg, _ := testClock(300 * time.Second)
	d := alert.NewDispatcher(cfg, nil, nil)

	fired := d.TryFire(context.Background(), alert.NewFailover("blue", "green"))

	assert.True(t, fired)
	assert.Contains(t, d.LastFired(), alert.KindFailover)
}

func TestDispatcher_CooldownSuppressesRepeat(t *testing.T) {
	cfg, now := testClock(300 * time.Second)
	d := alert.NewDispatcher(cfg, nil, nil)

	require.True(t, d.TryFire(context.Background(), alert.NewFailover("blue", "green")))

	*now = now.Add(100 * time.Second)
	assert.False(t, d.TryFire(context.Background(), alert.NewFailover("green", "blue")))

	// Suppression must not reset the clock: 299s after the fire is
	// still inside the original cooldown, 300s is out.
	*now = now.Add(199 * time.Second)
	assert.False(t, d.TryFire(context.Background(), alert.NewFailover("blue", "green")))

	*now = now.Add(1 * time.Second)
	assert.True(t, d.TryFire(context.Background(), alert.NewFailover("green", "blue")))
}

func TestDispatcher_KindsRateLimitIndependently(t *testing.T) {
	cfg, _ := testClock(300 * time.Second)
	d := alert.NewDispatcher(cfg, nil, nil)

	assert.True(t, d.TryFire(context.Background(), alert.NewFailover("blue", "green")))
	assert.True(t, d.TryFire(context.Background(), alert.NewErrorRate(10, 2, 20, 200, "green")))
	assert.True(t, d.TryFire(context.Background(), alert.NewRecovery("blue")))

	assert.Len(t, d.LastFired(), 3)
}

// ============================================================================
// MAINTENANCE MODE
// ============================================================================

func TestDispatcher_MaintenanceDoesNotConsumeCooldown(t *testing.T) {
	cfg, _ := testClock(300 * time.Second)
	cfg.Maintenance = true
	d := alert.NewDispatcher(cfg, nil, nil)

	// Suppressed by maintenance, not by cooldown.
	assert.False(t, d.TryFire(context.Background(), alert.NewFailover("blue", "green")))
	assert.Empty(t, d.LastFired())

	// Leaving maintenance the very next moment still allows a fire,
	// which proves the suppressed attempt burned no cooldown slot.
	d.SetMaintenance(false)
	assert.True(t, d.TryFire(context.Background(), alert.NewFailover("blue", "green")))
	assert.False(t, d.TryFire(context.Background(), alert.NewFailover("green", "blue")))
}

func TestDispatcher_RecoveryBypassesMaintenance(t *testing.T) {
	cfg, _ := testClock(300 * time.Second)
	cfg.Maintenance = true
	d := alert.NewDispatcher(cfg, nil, nil)

	assert.False(t, d.TryFire(context.Background(), alert.NewErrorRate(10, 2, 20, 200, "blue")))
	assert.True(t, d.TryFire(context.Background(), alert.NewRecovery("blue")))
}

func TestDispatcher_SetMaintenanceToggles(t *testing.T) {
	cfg, _ := testClock(time.Second)
	d := alert.NewDispatcher(cfg, nil, nil)

	assert.False(t, d.Maintenance())
	d.SetMaintenance(true)
	assert.True(t, d.Maintenance())
	d.SetMaintenance(false)
	assert.False(t, d.Maintenance())
}

// ============================================================================
// WEBHOOK DELIVERY
// ============================================================================

func TestDispatcher_DeliversSlackPayload(t *testing.T) {
	var gotBody []byte
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink, err := alert.NewSlackSink(srv.URL)
	require.NoError(t, err)

	cfg, _ := testClock(300 * time.Second)
	d := alert.NewDispatcher(cfg, sink, nil)

	require.True(t, d.TryFire(context.Background(), alert.NewFailover("blue", "green")))
	assert.Equal(t, "application/json", gotContentType)

	var payload struct {
		Attachments []struct {
			Color  string `json:"color"`
			Title  string `json:"title"`
			Text   string `json:"text"`
			Fields []struct {
				Title string `json:"title"`
				Value string `json:"value"`
				Short bool   `json:"short"`
			} `json:"fields"`
			Footer string `json:"footer"`
			Ts     int64  `json:"ts"`
		} `json:"attachments"`
	}
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	require.Len(t, payload.Attachments, 1)

	att := payload.Attachments[0]
	assert.Equal(t, "warning", att.Color)
	assert.Equal(t, "🚨 Blue/Green Deployment Alert", att.Title)
	assert.Equal(t, "🔄 **Failover Detected**: Traffic switched from `blue` to `green`", att.Text)
	assert.Equal(t, "Nginx Log Watcher", att.Footer)
	assert.NotZero(t, att.Ts)
	require.Len(t, att.Fields, 3)
	assert.Equal(t, "Previous Pool", att.Fields[0].Title)
	assert.Equal(t, "BLUE", att.Fields[0].Value)
}

func TestDispatcher_WebhookFailureStillFires(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sink, err := alert.NewSlackSink(srv.URL)
	require.NoError(t, err)

	cfg, _ := testClock(300 * time.Second)
	d := alert.NewDispatcher(cfg, sink, nil)

	// Delivery failure is logged and swallowed; the alert still counts
	// as fired and its cooldown slot is consumed.
	assert.True(t, d.TryFire(context.Background(), alert.NewRecovery("blue")))
	assert.False(t, d.TryFire(context.Background(), alert.NewRecovery("blue")))
}

// ============================================================================
// AUDIT TRAIL
// ============================================================================

func TestDispatcher_AuditRecordsOutcomes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	trail, err := monitoring.NewAuditTrail(monitoring.AuditConfig{Enabled: true, Path: path})
	require.NoError(t, err)

	cfg, _ := testClock(300 * time.Second)
	cfg.Maintenance = true
	d := alert.NewDispatcher(cfg, nil, trail)

	require.False(t, d.TryFire(context.Background(), alert.NewFailover("blue", "green")))
	d.SetMaintenance(false)
	require.True(t, d.TryFire(context.Background(), alert.NewFailover("blue", "green")))
	require.False(t, d.TryFire(context.Background(), alert.NewFailover("green", "blue")))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var events []monitoring.AlertEvent
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev monitoring.AlertEvent
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		events = append(events, ev)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, events, 3)
	assert.Equal(t, monitoring.OutcomeSuppressedMaintenance, events[0].Outcome)
	assert.Equal(t, monitoring.OutcomeFired, events[1].Outcome)
	assert.Equal(t, monitoring.OutcomeSuppressedCooldown, events[2].Outcome)
	assert.False(t, events[1].WebhookAttempted)
	assert.Equal(t, "failover", events[1].Kind)
}
