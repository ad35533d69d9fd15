// Package config loads and validates the watcher configuration.
//
// DESIGN: Configuration resolves in three layers:
//  1. Built-in defaults (Default)
//  2. An optional YAML file, with ${VAR:-default} expansion
//  3. Environment variable overrides
//
// Environment always wins, so the watcher runs with no config file at
// all. Malformed numeric values fail at startup instead of being
// silently replaced with defaults.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bluegreenops/logwatcher/internal/monitoring"
)

// Follow modes for the access log.
const (
	FollowModeNative = "native" // in-process polling follower
	FollowModeTail   = "tail"   // external tail -F subprocess
)

// placeholderWebhookMarker matches the sample URL shipped in docs and
// the default config. A URL still carrying it means "not configured".
const placeholderWebhookMarker = "hooks.slack.com/services/YOUR"

// Config is the root configuration for the log watcher.
type Config struct {
	AccessLogPath      string  `yaml:"access_log_path"`      // nginx access log to follow
	FollowMode         string  `yaml:"follow_mode"`          // "native" or "tail"
	WebhookURL         string  `yaml:"webhook_url"`          // Slack-compatible webhook, empty disables
	ErrorRateThreshold float64 `yaml:"error_rate_threshold"` // 5xx percentage that triggers an alert
	WindowSize         int     `yaml:"window_size"`          // sliding window capacity in requests
	AlertCooldownSec   int     `yaml:"alert_cooldown_sec"`   // per-kind cooldown in seconds
	MaintenanceMode    bool    `yaml:"maintenance_mode"`     // start with alerting suppressed
	ActivePool         string  `yaml:"active_pool"`          // primary pool, recovery baseline
	OpsListenAddr      string  `yaml:"ops_listen_addr"`      // ops HTTP endpoint, empty disables

	Audit   monitoring.AuditConfig  `yaml:"audit"`   // alert audit trail
	Logging monitoring.LoggerConfig `yaml:"logging"` // structured logging
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		AccessLogPath:      "/var/log/nginx/access.log",
		FollowMode:         FollowModeNative,
		ErrorRateThreshold: 2,
		WindowSize:         200,
		AlertCooldownSec:   300,
		ActivePool:         "blue",
		Logging: monitoring.LoggerConfig{
			Level:  "info",
			Format: "auto",
			Output: "stdout",
		},
	}
}

// expandEnvWithDefaults expands environment variables with support for
// default values. Supports both ${VAR} and ${VAR:-default} syntax.
func expandEnvWithDefaults(s string) string {
	re := regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultValue := ""
		if len(parts) > 2 {
			defaultValue = parts[2]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config file path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes parses configuration from raw YAML bytes. The YAML is
// overlaid on the defaults, env overrides are applied on top, and the
// result is validated.
func LoadFromBytes(data []byte) (*Config, error) {
	expanded := expandEnvWithDefaults(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// FromEnv builds configuration from defaults and environment variables
// alone, for running without any config file.
func FromEnv() (*Config, error) {
	cfg := Default()

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// config. This keeps the watcher deployable with nothing but env vars,
// the way the container images are wired.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("ACCESS_LOG_PATH"); v != "" {
		c.AccessLogPath = v
	}
	if v := os.Getenv("FOLLOW_MODE"); v != "" {
		c.FollowMode = v
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		c.WebhookURL = v
	}
	if v := os.Getenv("ERROR_RATE_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid ERROR_RATE_THRESHOLD '%s': %w", v, err)
		}
		c.ErrorRateThreshold = f
	}
	if v := os.Getenv("WINDOW_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid WINDOW_SIZE '%s': %w", v, err)
		}
		c.WindowSize = n
	}
	if v := os.Getenv("ALERT_COOLDOWN_SEC"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ALERT_COOLDOWN_SEC '%s': %w", v, err)
		}
		c.AlertCooldownSec = n
	}
	if v := os.Getenv("MAINTENANCE_MODE"); v != "" {
		c.MaintenanceMode = strings.EqualFold(v, "true")
	}
	if v := os.Getenv("ACTIVE_POOL"); v != "" {
		c.ActivePool = v
	}
	if v := os.Getenv("OPS_LISTEN_ADDR"); v != "" {
		c.OpsListenAddr = v
	}
	if v := os.Getenv("AUDIT_LOG_PATH"); v != "" {
		c.Audit.Path = v
		c.Audit.Enabled = true
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.AccessLogPath == "" {
		return fmt.Errorf("access_log_path is required")
	}
	if c.FollowMode != FollowModeNative && c.FollowMode != FollowModeTail {
		return fmt.Errorf("invalid follow_mode: '%s' (must be '%s' or '%s')",
			c.FollowMode, FollowModeNative, FollowModeTail)
	}
	if c.ErrorRateThreshold < 0 {
		return fmt.Errorf("invalid error_rate_threshold: %g (must be >= 0)", c.ErrorRateThreshold)
	}
	if c.WindowSize < 1 {
		return fmt.Errorf("invalid window_size: %d (must be >= 1)", c.WindowSize)
	}
	if c.AlertCooldownSec < 0 {
		return fmt.Errorf("invalid alert_cooldown_sec: %d (must be >= 0)", c.AlertCooldownSec)
	}
	if c.ActivePool == "" {
		return fmt.Errorf("active_pool is required")
	}
	return nil
}

// Cooldown returns the alert cooldown as a duration.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.AlertCooldownSec) * time.Second
}

// WebhookConfigured reports whether a real webhook URL is set. The
// placeholder from the sample config does not count.
func (c *Config) WebhookConfigured() bool {
	return c.WebhookURL != "" && !strings.Contains(c.WebhookURL, placeholderWebhookMarker)
}
