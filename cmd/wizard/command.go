// SPDX-License-Identifier: Apache-2.0
package wizard

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Work-Fort/Onboard/cmd/cmdutil"
	"github.com/Work-Fort/Onboard/pkg/config"
	"github.com/Work-Fort/Onboard/pkg/prefs"
)

// package-level flag variables bound to cobra flags
var (
	flagTelemetry    bool
	flagTheme        string
	flagSkipDownload bool
)

// GetWizardCmd returns the cobra command for the wizard subcommand
func GetWizardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wizard",
		Short: "Run the setup wizard",
		Long: `Walks through first-time setup:

  1. Welcome & Privacy Overview
  2. System Compatibility Check
  3. Network Status
  4. Backend Download
  5. Preferences & Telemetry
  6. Completion & Guided Tour

Interactive mode (default when stdin is a terminal and use-tui is true):
  Launches a step-by-step terminal wizard.

Non-interactive mode:
  Runs every step in order and prints the results. Preferences can be
  supplied with --telemetry and --theme.`,
		Example: `  # Interactive wizard (when stdin is a TTY)
  onboard wizard

  # Non-interactive with preferences, no backend download
  onboard wizard --use-tui=false --telemetry --theme dark --skip-download`,
		RunE: runWizard,
	}

	cmd.Flags().BoolVar(&flagTelemetry, "telemetry", false, "Enable telemetry (non-interactive mode)")
	cmd.Flags().StringVar(&flagTheme, "theme", "", "Theme to use: light or dark (non-interactive mode)")
	cmd.Flags().BoolVar(&flagSkipDownload, "skip-download", false, "Do not download the backend (non-interactive mode)")

	return cmd
}

// runWizard is the cobra RunE handler
func runWizard(cmd *cobra.Command, args []string) error {
	if flagTheme != "" {
		if _, err := prefs.ParseTheme(flagTheme); err != nil {
			return err
		}
	}

	local, err := cmdutil.OpenLocal()
	if err != nil {
		return err
	}
	defer local.Close()

	opts := Options{
		Host:           local,
		Backend:        cmdutil.NewAPIClient(),
		Debounce:       config.GetPreferencesDebounce(),
		PollInterval:   config.GetBackendPollInterval(),
		NetworkTimeout: config.GetNetworkTimeout(),
		Telemetry:      cmdutil.TelemetryOptions(),
	}

	if cmdutil.IsInteractive() {
		return runInteractive(opts)
	}

	flags := Flags{
		Theme:        flagTheme,
		SkipDownload: flagSkipDownload,
	}
	if cmd.Flags().Changed("telemetry") {
		enabled := flagTelemetry
		flags.Telemetry = &enabled
	}
	return runPlain(cmd.Context(), cmd.OutOrStdout(), opts, flags)
}

// runInteractive launches the Bubble Tea TUI wizard
func runInteractive(opts Options) error {
	p := tea.NewProgram(NewModel(opts), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("wizard failed: %w", err)
	}

	// The alt screen is gone by now, so repeat the notice on the terminal
	if m, ok := final.(Model); ok && m.Finished() {
		fmt.Println(config.CurrentTheme.SuccessMessage(m.Notice()))
	}
	return nil
}
