// SPDX-License-Identifier: Apache-2.0
package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Work-Fort/Onboard/pkg/config"
)

func newUnsetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unset [key]",
		Short: "Remove configuration value",
		Long: `Remove a configuration key from a config file.

Keys use dot notation for nested values (e.g., telemetry.breaker.failures).

**Note:**
  - Removing a parent key removes all nested values (e.g., unsetting 'telemetry' removes 'telemetry.breaker.failures' and its siblings)
  - Environment variables and defaults still apply after removal`,
		Args: cobra.ExactArgs(1),
		Example: `  # Remove from local config
  onboard config unset use-tui

  # Remove from user config
  onboard config unset --global github-token

  # Remove a parent (removes all children)
  onboard config unset backend`,
		ValidArgsFunction: completeKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			if err := config.UnsetConfigValue(key, selectedScope()); err != nil {
				return err
			}

			scopeName, configFile := scopeLabel()
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from %s config (%s)\n", key, scopeName, configFile)
			return nil
		},
	}

	addGlobalFlag(cmd)
	return cmd
}
