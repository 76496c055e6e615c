// SPDX-License-Identifier: Apache-2.0
package cmdutil

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/Work-Fort/Onboard/pkg/api"
	"github.com/Work-Fort/Onboard/pkg/backend"
	"github.com/Work-Fort/Onboard/pkg/config"
	"github.com/Work-Fort/Onboard/pkg/github"
	"github.com/Work-Fort/Onboard/pkg/host"
	"github.com/Work-Fort/Onboard/pkg/telemetry"
)

// IsInteractive checks if stdin is connected to a terminal AND the user wants TUI mode
func IsInteractive() bool {
	// Check both terminal capability and user preference
	return term.IsTerminal(int(os.Stdin.Fd())) && config.GetUseTUI()
}

// NewInstaller builds the backend installer from configuration
func NewInstaller() *backend.Installer {
	return backend.NewInstaller(backend.InstallerOptions{
		Repo:             config.GetBackendRepo(),
		Asset:            config.GetBackendAsset(),
		InstallDir:       config.GetBackendInstallDir(),
		SigningKey:       config.GetBackendSigningKey(),
		GitHub:           github.NewClient("", config.GetGitHubToken()),
		SimulateDuration: config.GetBackendSimulateDuration(),
	})
}

// OpenLocal opens the local host in the XDG data directory.
// The caller must Close it.
func OpenLocal() (*host.Local, error) {
	installer := NewInstaller()
	log.Debugf("OpenLocal: dataDir=%s simulated=%v", config.GlobalPaths.DataDir, installer.Simulated())

	local, err := host.NewLocal(host.LocalOptions{
		DataDir:        config.GlobalPaths.DataDir,
		CheckHost:      config.GetNetworkCheckHost(),
		NetworkTimeout: config.GetNetworkTimeout(),
		Installer:      installer,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open local data: %w", err)
	}
	return local, nil
}

// NewAPIClient returns a client for the local backend
func NewAPIClient() *api.Client {
	return api.NewClient(config.GetAPIBaseURL(), config.GetAPITimeout())
}

// TelemetryOptions returns the relay settings from configuration
func TelemetryOptions() telemetry.Options {
	return telemetry.Options{
		Timeout:         config.GetAPITimeout(),
		BreakerFailures: config.GetTelemetryBreakerFailures(),
		BreakerCooldown: config.GetTelemetryBreakerCooldown(),
	}
}
