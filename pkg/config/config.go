// SPDX-License-Identifier: Apache-2.0
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const (
	// Configuration
	EnvPrefix        = "ONBOARD" // Environment variable prefix for Viper
	ConfigFileName   = "config"  // Config file name for XDG config dir (without extension)
	LocalConfigFile  = "onboard" // Config file name for current directory (without extension)
	ConfigType       = "yaml"    // Config file type
	DefaultConfigExt = ".yaml"   // Default config file extension

	// LogFileName is the debug log inside the data directory
	LogFileName = "debug.log"
)

// Paths holds all XDG-compliant directory paths
type Paths struct {
	DataDir   string
	CacheDir  string
	ConfigDir string

	// Subdirectories
	BackendDir string // Default install location for the backend component
	LogFile    string
}

var (
	// GlobalPaths is the global paths instance
	GlobalPaths *Paths
)

func init() {
	GlobalPaths = GetPaths()
}

// GetPaths returns XDG-compliant directory paths
func GetPaths() *Paths {
	dataHome := xdgDir("XDG_DATA_HOME", ".local", "share")
	cacheHome := xdgDir("XDG_CACHE_HOME", ".cache")
	configHome := xdgDir("XDG_CONFIG_HOME", ".config")

	dataDir := filepath.Join(dataHome, "onboard")

	return &Paths{
		DataDir:    dataDir,
		CacheDir:   filepath.Join(cacheHome, "onboard"),
		ConfigDir:  filepath.Join(configHome, "onboard"),
		BackendDir: filepath.Join(dataDir, "backend"),
		LogFile:    filepath.Join(dataDir, LogFileName),
	}
}

func xdgDir(env string, fallback ...string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to get home directory: %v\n", err)
		os.Exit(1)
	}
	return filepath.Join(append([]string{home}, fallback...)...)
}

// InitDirs creates all necessary directories
func InitDirs() error {
	dirs := []string{
		GlobalPaths.ConfigDir,
		GlobalPaths.DataDir,
		GlobalPaths.CacheDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// GetGitHubToken returns the GitHub token (respects full config precedence)
// Priority: ENV:ONBOARD_GITHUB_TOKEN > user config > defaults
func GetGitHubToken() string {
	return viper.GetString("github-token")
}

// GetAPIBaseURL returns the local backend address
func GetAPIBaseURL() string {
	return viper.GetString("api.base-url")
}

// GetAPITimeout returns the per-request timeout for the local backend
func GetAPITimeout() time.Duration {
	return viper.GetDuration("api.timeout")
}

// GetNetworkCheckHost returns the host:port resolved to decide reachability
func GetNetworkCheckHost() string {
	return viper.GetString("network.check-host")
}

// GetNetworkTimeout returns the reachability check timeout
func GetNetworkTimeout() time.Duration {
	return viper.GetDuration("network.timeout")
}

// GetPreferencesDebounce returns the quiet window before preferences are saved
func GetPreferencesDebounce() time.Duration {
	return viper.GetDuration("preferences.debounce")
}

// GetBackendPollInterval returns the delay between download progress polls
func GetBackendPollInterval() time.Duration {
	return viper.GetDuration("backend.poll-interval")
}

// GetBackendRepo returns the owner/repo publishing the backend.
// Empty means the download is simulated.
func GetBackendRepo() string {
	return viper.GetString("backend.repo")
}

// GetBackendAsset returns the release asset base name
func GetBackendAsset() string {
	return viper.GetString("backend.asset")
}

// GetBackendInstallDir returns where the backend is installed
func GetBackendInstallDir() string {
	return viper.GetString("backend.install-dir")
}

// GetBackendSigningKey returns the public key used to verify release checksums
func GetBackendSigningKey() string {
	return viper.GetString("backend.signing-key")
}

// GetBackendSimulateDuration returns how long a simulated download takes
func GetBackendSimulateDuration() time.Duration {
	return viper.GetDuration("backend.simulate-duration")
}

// GetTelemetryBreakerFailures returns the consecutive failures that open the breaker
func GetTelemetryBreakerFailures() uint32 {
	n := viper.GetInt("telemetry.breaker.failures")
	if n <= 0 {
		return 0
	}
	return uint32(n)
}

// GetTelemetryBreakerCooldown returns how long the breaker stays open
func GetTelemetryBreakerCooldown() time.Duration {
	return viper.GetDuration("telemetry.breaker.cooldown")
}

// GetServeAddr returns the development backend listen address
func GetServeAddr() string {
	return viper.GetString("serve.addr")
}
