// SPDX-License-Identifier: Apache-2.0
package config

import (
	"github.com/spf13/cobra"

	"github.com/Work-Fort/Onboard/pkg/config"
)

var (
	// globalFlag selects the user config instead of ./onboard.yaml
	globalFlag bool
)

// NewConfigCmd creates the config command and its subcommands
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage onboard configuration",
		Long: `Manage onboard configuration settings.

Configuration precedence (highest to lowest):
  1. Environment variables (ONBOARD_*)
  2. Local config (./onboard.yaml)
  3. User config (~/.config/onboard/config.yaml)
  4. Defaults

By default, config commands operate on local config (./onboard.yaml).
Use --global to operate on user config instead.`,
		Example: `  # Set local config (this directory only)
  onboard config set use-tui false
  onboard config set api.base-url http://127.0.0.1:5002

  # Set global config (user preferences)
  onboard config set --global github-token ghp_xxxxx
  onboard config set --global network.timeout 10s

  # Get configuration value
  onboard config get preferences.debounce

  # Remove configuration value
  onboard config unset api.timeout
  onboard config unset --global github-token

  # List all configuration
  onboard config list`,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newUnsetCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newSchemaCmd())

	return cmd
}

// addGlobalFlag adds the --global flag to a command
func addGlobalFlag(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&globalFlag, "global", false, "Operate on user config instead of local config")
}

// selectedScope maps --global to a config scope
func selectedScope() config.ConfigScope {
	if globalFlag {
		return config.ScopeUser
	}
	return config.ScopeLocal
}

// scopeLabel returns the scope name and the file it writes to
func scopeLabel() (string, string) {
	if globalFlag {
		return "global", "~/.config/onboard/" + config.ConfigFileName + config.DefaultConfigExt
	}
	return "local", config.LocalConfigFile + config.DefaultConfigExt
}
