package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluegreenops/logwatcher/internal/config"
)

// clearWatcherEnv blanks every override variable so ambient shell
// state cannot leak into assertions. Empty values are ignored by the
// override pass.
func clearWatcherEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ACCESS_LOG_PATH", "FOLLOW_MODE", "SLACK_WEBHOOK_URL",
		"ERROR_RATE_THRESHOLD", "WINDOW_SIZE", "ALERT_COOLDOWN_SEC",
		"MAINTENANCE_MODE", "ACTIVE_POOL", "OPS_LISTEN_ADDR",
		"AUDIT_LOG_PATH", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

// ============================================================================
// DEFAULTS AND ENV OVERRIDES
// ============================================================================

func TestFromEnv_Defaults(t *testing.T) {
	clearWatcherEnv(t)

	cfg, err := config.FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "/var/log/nginx/access.log", cfg.AccessLogPath)
	assert.Equal(t, config.FollowModeNative, cfg.FollowMode)
	assert.Equal(t, 2.0, cfg.ErrorRateThreshold)
	assert.Equal(t, 200, cfg.WindowSize)
	assert.Equal(t, 300, cfg.AlertCooldownSec)
	assert.False(t, cfg.MaintenanceMode)
	assert.Equal(t, "blue", cfg.ActivePool)
	assert.Empty(t, cfg.OpsListenAddr)
	assert.False(t, cfg.Audit.Enabled)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearWatcherEnv(t)
	t.Setenv("ACCESS_LOG_PATH", "/tmp/access.log")
	t.Setenv("FOLLOW_MODE", "tail")
	t.Setenv("ERROR_RATE_THRESHOLD", "5.5")
	t.Setenv("WINDOW_SIZE", "50")
	t.Setenv("ALERT_COOLDOWN_SEC", "60")
	t.Setenv("MAINTENANCE_MODE", "TRUE")
	t.Setenv("ACTIVE_POOL", "green")

	cfg, err := config.FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/access.log", cfg.AccessLogPath)
	assert.Equal(t, config.FollowModeTail, cfg.FollowMode)
	assert.Equal(t, 5.5, cfg.ErrorRateThreshold)
	assert.Equal(t, 50, cfg.WindowSize)
	assert.Equal(t, 60, cfg.AlertCooldownSec)
	assert.True(t, cfg.MaintenanceMode) // case-insensitive "true"
	assert.Equal(t, "green", cfg.ActivePool)
}

func TestFromEnv_BadNumbersFailAtStartup(t *testing.T) {
	clearWatcherEnv(t)

	t.Setenv("ERROR_RATE_THRESHOLD", "abc")
	_, err := config.FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ERROR_RATE_THRESHOLD")

	t.Setenv("ERROR_RATE_THRESHOLD", "2")
	t.Setenv("WINDOW_SIZE", "2.5")
	_, err = config.FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WINDOW_SIZE")

	t.Setenv("WINDOW_SIZE", "200")
	t.Setenv("ALERT_COOLDOWN_SEC", "5m")
	_, err = config.FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ALERT_COOLDOWN_SEC")
}

func TestFromEnv_AuditPathEnablesTrail(t *testing.T) {
	clearWatcherEnv(t)
	t.Setenv("AUDIT_LOG_PATH", "/tmp/audit.jsonl")

	cfg, err := config.FromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.Audit.Enabled)
	assert.Equal(t, "/tmp/audit.jsonl", cfg.Audit.Path)
}

// ============================================================================
// YAML LOADING
// ============================================================================

func TestLoadFromBytes_OverlaysDefaults(t *testing.T) {
	clearWatcherEnv(t)

	cfg, err := config.LoadFromBytes([]byte("window_size: 100\nactive_pool: green\n"))
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.WindowSize)
	assert.Equal(t, "green", cfg.ActivePool)
	// Untouched keys keep their defaults.
	assert.Equal(t, "/var/log/nginx/access.log", cfg.AccessLogPath)
	assert.Equal(t, 300, cfg.AlertCooldownSec)
}

func TestLoadFromBytes_ExpandsEnvPlaceholders(t *testing.T) {
	clearWatcherEnv(t)
	t.Setenv("POOL_UNDER_TEST", "green")

	yaml := "active_pool: ${POOL_UNDER_TEST:-blue}\nops_listen_addr: ${MISSING_VAR:-}\n"
	cfg, err := config.LoadFromBytes([]byte(yaml))
	require.NoError(t, err)

	assert.Equal(t, "green", cfg.ActivePool)
	assert.Empty(t, cfg.OpsListenAddr)
}

func TestLoadFromBytes_PlaceholderDefaultUsedWhenUnset(t *testing.T) {
	clearWatcherEnv(t)

	cfg, err := config.LoadFromBytes([]byte("active_pool: ${POOL_UNDER_TEST:-blue}\n"))
	require.NoError(t, err)

	assert.Equal(t, "blue", cfg.ActivePool)
}

func TestLoadFromBytes_EnvOverridesFile(t *testing.T) {
	clearWatcherEnv(t)
	t.Setenv("WINDOW_SIZE", "50")

	cfg, err := config.LoadFromBytes([]byte("window_size: 100\n"))
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.WindowSize)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := config.Load("/nonexistent/logwatcher.yaml")
	require.Error(t, err)
}

// ============================================================================
// VALIDATION
// ============================================================================

func TestValidate_RejectsBadFollowMode(t *testing.T) {
	clearWatcherEnv(t)
	t.Setenv("FOLLOW_MODE", "inotify")

	_, err := config.FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "follow_mode")
}

func TestValidate_RejectsNonPositiveWindow(t *testing.T) {
	clearWatcherEnv(t)
	t.Setenv("WINDOW_SIZE", "0")

	_, err := config.FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "window_size")
}

func TestValidate_RejectsNegativeThreshold(t *testing.T) {
	clearWatcherEnv(t)
	t.Setenv("ERROR_RATE_THRESHOLD", "-1")

	_, err := config.FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error_rate_threshold")
}

// ============================================================================
// HELPERS
// ============================================================================

func TestWebhookConfigured(t *testing.T) {
	cfg := config.Default()
	assert.False(t, cfg.WebhookConfigured(), "empty URL")

	cfg.WebhookURL = "https://hooks.slack.com/services/YOUR/WEBHOOK/URL"
	assert.False(t, cfg.WebhookConfigured(), "placeholder URL")

	cfg.WebhookURL = "https://hooks.slack.com/services/T000/B000/XXXX"
	assert.True(t, cfg.WebhookConfigured())
}

func TestCooldownDuration(t *testing.T) {
	cfg := config.Default()
	cfg.AlertCooldownSec = 90
	assert.Equal(t, 90*time.Second, cfg.Cooldown())
}
