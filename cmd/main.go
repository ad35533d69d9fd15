// Package main is the entry point for the nginx log watcher.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bluegreenops/logwatcher/internal/alert"
	"github.com/bluegreenops/logwatcher/internal/config"
	"github.com/bluegreenops/logwatcher/internal/follow"
	"github.com/bluegreenops/logwatcher/internal/monitoring"
	"github.com/bluegreenops/logwatcher/internal/ops"
	"github.com/bluegreenops/logwatcher/internal/watcher"
)

// ANSI color codes
const (
	watcherBlue = "\033[38;2;59;130;246m" // #3B82F6
	bold        = "\033[1m"
	reset       = "\033[0m"
)

// ASCII banner for startup
const banner = `
 ██╗      ██████╗  ██████╗ ██╗    ██╗ █████╗ ████████╗ ██████╗██╗  ██╗███████╗██████╗
 ██║     ██╔═══██╗██╔════╝ ██║    ██║██╔══██╗╚══██╔══╝██╔════╝██║  ██║██╔════╝██╔══██╗
 ██║     ██║   ██║██║  ███╗██║ █╗ ██║███████║   ██║   ██║     ███████║█████╗  ██████╔╝
 ██║     ██║   ██║██║   ██║██║███╗██║██╔══██║   ██║   ██║     ██╔══██║██╔══╝  ██╔══██╗
 ███████╗╚██████╔╝╚██████╔╝╚███╔███╔╝██║  ██║   ██║   ╚██████╗██║  ██║███████╗██║  ██║
 ╚══════╝ ╚═════╝  ╚═════╝  ╚══╝╚══╝ ╚═╝  ╚═╝   ╚═╝    ╚═════╝╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝
`

func printBanner() {
	fmt.Print(watcherBlue + bold + banner + reset + "\n")
}

// loadEnvFiles loads .env from standard locations
func loadEnvFiles() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		_ = godotenv.Load()
		return
	}

	// Try loading from ~/.config/logwatcher/.env first
	configEnv := filepath.Join(homeDir, ".config", "logwatcher", ".env")
	if _, err := os.Stat(configEnv); err == nil {
		_ = godotenv.Load(configEnv)
	}

	// Also load local .env (can override)
	_ = godotenv.Load()
}

func main() {
	// Handle subcommands first (before flags)
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "watch", "run":
			runWatch(os.Args[2:])
			return
		case "update":
			printBanner()
			if err := DoUpdate(); err != nil {
				fmt.Fprintf(os.Stderr, "Update failed: %v\n", err)
				os.Exit(1)
			}
			return
		case "uninstall", "remove":
			printBanner()
			if err := DoUninstall(); err != nil {
				fmt.Fprintf(os.Stderr, "Uninstall failed: %v\n", err)
				os.Exit(1)
			}
			return
		case "version", "-v", "--version":
			PrintVersion()
			return
		case "help", "-h", "--help":
			printHelp()
			return
		}
	}

	// Default: start watching (bare flags land here too)
	runWatch(os.Args[1:])
}

// resolveWatchConfig resolves the config for the watch command.
// Checks: user flag -> filesystem locations -> embedded default.
// Returns raw bytes and source description.
func resolveWatchConfig(userConfig string) ([]byte, string, error) {
	// If user specified a config path, read it directly
	if userConfig != "" {
		data, err := os.ReadFile(userConfig)
		if err != nil {
			return nil, "", fmt.Errorf("config file not found: %s", userConfig)
		}
		return data, userConfig, nil
	}

	homeDir, _ := os.UserHomeDir()

	// Search filesystem in order of preference
	searchPaths := []string{}
	if homeDir != "" {
		searchPaths = append(searchPaths,
			filepath.Join(homeDir, ".config", "logwatcher", "config.yaml"),
		)
	}
	searchPaths = append(searchPaths, "logwatcher.yaml")

	for _, path := range searchPaths {
		if data, err := os.ReadFile(path); err == nil {
			return data, path, nil
		}
	}

	// Fall back to embedded config; its ${VAR:-default} placeholders
	// make a pure env-var deployment work out of the box.
	if data, err := getEmbeddedConfig("default"); err == nil {
		return data, "(embedded) default.yaml", nil
	}

	return nil, "", fmt.Errorf("no config file found. Specify --config path")
}

// runWatch starts the log watcher.
func runWatch(args []string) {
	// Load .env files from standard locations
	loadEnvFiles()

	// Parse flags
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	debug := fs.Bool("debug", false, "enable debug logging")
	noBanner := fs.Bool("no-banner", false, "suppress startup banner")
	_ = fs.Parse(args) // ExitOnError handles errors

	// Print banner unless suppressed
	if !*noBanner {
		printBanner()
	}

	// Check for updates (non-blocking notification)
	CheckForUpdates()

	// Bootstrap logging; replaced once the config is loaded
	setupLogging(*debug)

	// Resolve config from filesystem
	configData, configSource, err := resolveWatchConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("no config file found")
	}

	log.Info().
		Str("version", Version).
		Str("config", configSource).
		Msg("logwatcher starting")

	// Load configuration from bytes
	cfg, err := config.LoadFromBytes(configData)
	if err != nil {
		log.Fatal().Err(err).Str("config", configSource).Msg("failed to load configuration")
	}
	if *debug {
		cfg.Logging.Level = "debug"
	}
	monitoring.Global(cfg.Logging)

	log.Info().
		Str("access_log", cfg.AccessLogPath).
		Str("follow_mode", cfg.FollowMode).
		Float64("threshold_pct", cfg.ErrorRateThreshold).
		Int("window_size", cfg.WindowSize).
		Int("cooldown_sec", cfg.AlertCooldownSec).
		Str("primary_pool", cfg.ActivePool).
		Bool("maintenance", cfg.MaintenanceMode).
		Msg("configuration loaded")

	// Webhook sink, console-only when not configured
	var webhook *alert.SlackSink
	if cfg.WebhookConfigured() {
		webhook, err = alert.NewSlackSink(cfg.WebhookURL)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid webhook URL")
		}
		log.Info().Msg("webhook alerting enabled")
	} else {
		log.Info().Msg("webhook not configured, alerts print to console only")
	}

	audit, err := monitoring.NewAuditTrail(cfg.Audit)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open audit trail")
	}
	defer audit.Close()

	dispatcher := alert.NewDispatcher(alert.Config{
		Cooldown:    cfg.Cooldown(),
		Maintenance: cfg.MaintenanceMode,
	}, webhook, audit)

	follower, err := newFollower(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start log follower")
	}
	defer follower.Close()

	w := watcher.New(cfg, follower, dispatcher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional ops endpoint
	var opsServer *ops.Server
	if cfg.OpsListenAddr != "" {
		opsServer = ops.New(cfg.OpsListenAddr, w)
		go func() {
			if err := opsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("ops endpoint failed")
			}
		}()
	}

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("shutdown signal received")
		cancel()
	}()

	runErr := w.Run(ctx)

	if opsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := opsServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("ops shutdown error")
		}
	}

	if runErr != nil {
		log.Error().Err(runErr).Msg("watcher error")
		os.Exit(1)
	}

	log.Info().Msg("logwatcher stopped")
}

// newFollower picks the follower implementation for the configured mode.
func newFollower(cfg *config.Config) (follow.Follower, error) {
	switch cfg.FollowMode {
	case config.FollowModeTail:
		return follow.NewTailFollower(cfg.AccessLogPath)
	default:
		return follow.NewFileFollower(cfg.AccessLogPath, follow.DefaultPollInterval), nil
	}
}

// setupLogging configures zerolog for the bootstrap phase.
func setupLogging(debug bool) {
	// Pretty console output
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	})

	// Set log level
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// printHelp prints usage information
func printHelp() {
	printBanner()
	fmt.Println("logwatcher - blue/green failover and error-rate monitor for nginx")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  logwatcher [options]")
	fmt.Println("  logwatcher [command]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  (none)       Start watching the access log (default)")
	fmt.Println("  watch        Same as default, explicit form")
	fmt.Println("  update       Update to the latest version")
	fmt.Println("  uninstall    Remove logwatcher")
	fmt.Println("  version      Print version information")
	fmt.Println("  help         Show this help message")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config FILE    Config file (default: ~/.config/logwatcher/config.yaml,")
	fmt.Println("                   then ./logwatcher.yaml, then built-in)")
	fmt.Println("  --debug          Enable debug logging")
	fmt.Println("  --no-banner      Suppress startup banner")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  ACCESS_LOG_PATH, FOLLOW_MODE, SLACK_WEBHOOK_URL, ERROR_RATE_THRESHOLD,")
	fmt.Println("  WINDOW_SIZE, ALERT_COOLDOWN_SEC, MAINTENANCE_MODE, ACTIVE_POOL,")
	fmt.Println("  OPS_LISTEN_ADDR, AUDIT_LOG_PATH, LOG_LEVEL, LOG_FORMAT")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  logwatcher                         Watch /var/log/nginx/access.log")
	fmt.Println("  logwatcher --debug                 Watch with debug logging")
	fmt.Println("  ACTIVE_POOL=green logwatcher       Treat green as the primary pool")
	fmt.Println("  OPS_LISTEN_ADDR=:9090 logwatcher   Expose /status and /metrics")
	fmt.Println()
	fmt.Println("Documentation: https://github.com/bluegreenops/logwatcher")
}
