// Package main provides update and uninstall functionality for logwatcher.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	// Version is set at build time via ldflags
	Version = "v0.3.1"

	// GitHub repo for updates
	DefaultRepo = "bluegreenops/logwatcher"

	// Colors
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorCyan   = "\033[0;36m"
	colorBold   = "\033[1m"
	colorReset  = "\033[0m"
)

// GitHubRelease represents a GitHub release response
type GitHubRelease struct {
	TagName string `json:"tag_name"`
	Name    string `json:"name"`
	Assets  []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

// getRepo returns the repo to use (can be overridden via env)
func getRepo() string {
	if repo := os.Getenv("LOGWATCHER_REPO"); repo != "" {
		return repo
	}
	return DefaultRepo
}

// getConfigDir returns ~/.config/logwatcher
func getConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config", "logwatcher")
}

// getVersionFile returns path to version file
func getVersionFile() string {
	return filepath.Join(getConfigDir(), ".version")
}

// getCurrentVersion returns the current installed version
func getCurrentVersion() string {
	return Version
}

// getLatestVersion fetches the latest version from GitHub
func getLatestVersion() (string, error) {
	repo := getRepo()
	url := fmt.Sprintf("https://api.github.com/repos/%s/releases/latest", repo)

	// #nosec G107 - URL is constructed from trusted repo constant
	resp, err := http.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return "", fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	var release GitHubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", err
	}

	return release.TagName, nil
}

// CheckForUpdates checks if a newer version is available
// Called on watcher startup
func CheckForUpdates() {
	current := getCurrentVersion()

	latest, err := getLatestVersion()
	if err != nil {
		// Silently fail - don't interrupt startup
		return
	}

	if current == latest {
		return
	}

	// Show update notification
	fmt.Printf("\n")
	fmt.Printf("%s%s━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━%s\n", colorYellow, colorBold, colorReset)
	fmt.Printf("%s%s  🔄 UPDATE AVAILABLE: %s → %s%s\n", colorYellow, colorBold, current, latest, colorReset)
	fmt.Printf("%s%s━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━%s\n", colorYellow, colorBold, colorReset)
	fmt.Printf("\n")
	fmt.Printf("  Run: %slogwatcher update%s\n", colorCyan, colorReset)
	fmt.Printf("\n")
}

// DoUpdate downloads and installs the latest version
func DoUpdate() error {
	current := getCurrentVersion()

	fmt.Printf("\n%s%s  Checking for updates...%s\n\n", colorGreen, colorBold, colorReset)

	latest, err := getLatestVersion()
	if err != nil {
		return fmt.Errorf("failed to check for updates: %w", err)
	}

	if current == latest {
		fmt.Printf("%s[✓]%s Already on latest version: %s\n", colorGreen, colorReset, current)
		return nil
	}

	fmt.Printf("  Updating: %s%s%s → %s%s%s\n\n", colorYellow, current, colorReset, colorGreen, latest, colorReset)

	// Get binary path
	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return fmt.Errorf("failed to resolve executable path: %w", err)
	}

	// Construct download URL
	osName := runtime.GOOS
	arch := runtime.GOARCH
	filename := fmt.Sprintf("logwatcher-%s-%s", osName, arch)
	if osName == "windows" {
		filename += ".exe"
	}

	repo := getRepo()
	downloadURL := fmt.Sprintf("https://github.com/%s/releases/download/%s/%s", repo, latest, filename)

	fmt.Printf("  Downloading from: %s\n", downloadURL)

	// Download new binary
	// #nosec G107 - URL is from trusted GitHub releases API
	resp, err := http.Get(downloadURL)
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	// Write to temp file
	tmpFile := execPath + ".new"
	// #nosec G304 -- execPath is from os.Executable(), tmpFile is derived locally
	out, err := os.Create(tmpFile)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	_, err = io.Copy(out, resp.Body)
	_ = out.Close() // #nosec G104 -- best-effort close
	if err != nil {
		_ = os.Remove(tmpFile) // #nosec G104 -- cleanup on error
		return fmt.Errorf("failed to write binary: %w", err)
	}

	// Make executable
	// #nosec G302 - Binary executables require 0755 permissions to be executable
	if err := os.Chmod(tmpFile, 0755); err != nil {
		_ = os.Remove(tmpFile) // #nosec G104 -- cleanup on error
		return fmt.Errorf("failed to chmod: %w", err)
	}

	// Replace old binary
	oldFile := execPath + ".old"
	_ = os.Remove(oldFile) // #nosec G104 -- best-effort cleanup

	if err := os.Rename(execPath, oldFile); err != nil {
		_ = os.Remove(tmpFile) // #nosec G104 -- cleanup on error
		return fmt.Errorf("failed to backup old binary: %w", err)
	}

	if err := os.Rename(tmpFile, execPath); err != nil {
		// Try to restore old binary
		if restoreErr := os.Rename(oldFile, execPath); restoreErr != nil {
			return fmt.Errorf("failed to install new binary: %w (failed to restore old binary: %v)", err, restoreErr)
		}
		return fmt.Errorf("failed to install new binary: %w", err)
	}

	// Remove old binary
	_ = os.Remove(oldFile) // #nosec G104 -- best-effort cleanup

	// Print success
	fmt.Printf("\n")
	fmt.Printf("%s%s━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━%s\n", colorGreen, colorBold, colorReset)
	fmt.Printf("%s%s  ✅ UPDATE COMPLETE!%s\n", colorGreen, colorBold, colorReset)
	fmt.Printf("%s%s━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━%s\n", colorGreen, colorBold, colorReset)
	fmt.Printf("\n")
	fmt.Printf("  Version: %s%s%s\n", colorGreen, latest, colorReset)
	fmt.Printf("\n")
	fmt.Printf("  Run: %slogwatcher%s to start\n", colorCyan, colorReset)
	fmt.Printf("\n")

	return nil
}

// DoUninstall removes the watcher binary and optionally configs
func DoUninstall() error {
	fmt.Printf("\n%s%s⚠️  UNINSTALL LOGWATCHER%s\n\n", colorYellow, colorBold, colorReset)

	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return fmt.Errorf("failed to resolve executable path: %w", err)
	}

	configDir := getConfigDir()

	fmt.Printf("This will remove:\n")
	fmt.Printf("  • %s%s%s\n", colorCyan, execPath, colorReset)
	fmt.Printf("\n")
	fmt.Printf("Config files will be %spreserved%s at: %s%s%s\n", colorBold, colorReset, colorCyan, configDir, colorReset)
	fmt.Printf("\n")
	fmt.Printf("Continue? [y/N] ")

	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))

	if input != "y" && input != "yes" {
		fmt.Printf("\nUninstall cancelled.\n")
		return nil
	}

	// Remove version file
	_ = os.Remove(getVersionFile()) // #nosec G104 -- best-effort cleanup

	// Remove binary (self-delete)
	// On Unix, we can delete ourselves while running
	if err := os.Remove(execPath); err != nil {
		return fmt.Errorf("failed to remove binary: %w", err)
	}
	fmt.Printf("%s[✓]%s Removed %s\n", colorGreen, colorReset, execPath)

	// Print success
	fmt.Printf("\n")
	fmt.Printf("%s%s━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━%s\n", colorGreen, colorBold, colorReset)
	fmt.Printf("%s%s  ✅ UNINSTALL COMPLETE%s\n", colorGreen, colorBold, colorReset)
	fmt.Printf("%s%s━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━%s\n", colorGreen, colorBold, colorReset)
	fmt.Printf("\n")
	fmt.Printf("  Config files preserved at: %s%s%s\n", colorCyan, configDir, colorReset)
	fmt.Printf("\n")
	fmt.Printf("  To remove configs too:\n")
	fmt.Printf("    %srm -rf %s%s\n", colorCyan, configDir, colorReset)
	fmt.Printf("\n")
	fmt.Printf("  To reinstall:\n")
	fmt.Printf("    %sgo install github.com/bluegreenops/logwatcher/cmd@latest%s\n", colorCyan, colorReset)
	fmt.Printf("\n")

	return nil
}

// PrintVersion prints the current version
func PrintVersion() {
	printBanner()
	fmt.Printf("logwatcher %s\n", Version)
	fmt.Printf("Runtime: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
