// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	configCmd "github.com/Work-Fort/Onboard/cmd/config"
	"github.com/Work-Fort/Onboard/cmd/reset"
	"github.com/Work-Fort/Onboard/cmd/serve"
	"github.com/Work-Fort/Onboard/cmd/status"
	telemetryCmd "github.com/Work-Fort/Onboard/cmd/telemetry"
	"github.com/Work-Fort/Onboard/cmd/version"
	"github.com/Work-Fort/Onboard/cmd/wizard"
	"github.com/Work-Fort/Onboard/pkg/config"
)

var (
	// Version is set at build time via ldflags
	// -ldflags "-X github.com/Work-Fort/Onboard/cmd.Version=x.y.z"
	Version string

	logLevel string
	useTUI   bool
	logFile  *lumberjack.Logger
)

var rootCmd = &cobra.Command{
	Use:   "onboard",
	Short: "First-run setup wizard",
	Long: `Onboard - first-run setup wizard

Walks a new user through consent, a system compatibility check, network
status, the backend download and their preferences. Running onboard with
no command starts the wizard. Settings and logs follow the XDG Base
Directory layout.`,
	Example: `  onboard                          # interactive wizard
  onboard wizard --use-tui=false   # plain step-by-step output
  onboard status                   # what the last run recorded`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.InitDirs(); err != nil {
			return err
		}
		if err := config.LoadConfig(); err != nil {
			return err
		}

		// Flags, env and config files are merged by now
		useTUI = config.GetUseTUI()
		return setupLogging(config.GetLogLevel())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			logFile.Close()
		}
	},
}

// setupLogging sends the default logger to the rotated JSON log file.
// "disabled" discards everything and an unknown level falls back to debug.
func setupLogging(level string) error {
	if level == "disabled" {
		log.SetOutput(io.Discard)
		return nil
	}

	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.DebugLevel
	}

	logFile = &lumberjack.Logger{
		Filename:   config.GlobalPaths.LogFile,
		MaxSize:    5, // MB
		MaxBackups: 3,
		MaxAge:     30, // days
		Compress:   true,
	}
	log.SetDefault(log.NewWithOptions(logFile, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02T15:04:05.000Z07:00",
		Level:           lvl,
		ReportCaller:    true,
		Formatter:       log.JSONFormatter,
	}))
	return nil
}

// Execute runs the root command and exits non-zero on error
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %s\n", config.CurrentTheme.ErrorStyle().Render("Error:"), err.Error())
		os.Exit(1)
	}
}

func init() {
	// Quiet until PersistentPreRunE redirects to the log file
	log.SetReportTimestamp(false)
	log.SetLevel(log.InfoLevel)

	config.InitViper()

	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "debug", "Log level: disabled, debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&useTUI, "use-tui", true, "Enable terminal UI mode")
	config.BindFlags(rootCmd.PersistentFlags())

	wizardCmd := wizard.GetWizardCmd()
	markWizardKeys(wizardCmd)
	markWizardKeys(rootCmd)

	rootCmd.AddCommand(
		wizardCmd,
		status.NewStatusCmd(),
		telemetryCmd.NewTelemetryCmd(),
		serve.NewServeCmd(),
		reset.NewResetCmd(),
		configCmd.NewConfigCmd(),
		version.NewVersionCmd(Version),
	)

	// Bare "onboard" runs the wizard with its defaults
	rootCmd.RunE = wizardCmd.RunE

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		renderHelp(cmd.OutOrStdout(), generateHelpMarkdown(cmd))
	})
	rootCmd.SetUsageFunc(func(cmd *cobra.Command) error {
		renderHelp(cmd.OutOrStderr(), generateUsageMarkdown(cmd))
		return nil
	})
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true // Execute prints errors itself

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(newCompletionCmd(rootCmd))
}

func markWizardKeys(cmd *cobra.Command) {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[wizardKeysAnnotation] = "true"
}

// GetRootCommand returns the root command for external use (e.g., man page generation)
func GetRootCommand() *cobra.Command {
	return rootCmd
}
