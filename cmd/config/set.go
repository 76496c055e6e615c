// SPDX-License-Identifier: Apache-2.0
package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Work-Fort/Onboard/pkg/config"
)

func newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Set configuration value",
		Long: `Set a configuration key to a value.

Keys use dot notation for nested values (e.g., network.timeout).

Boolean values support natural language:
  - true:  true, yes, on, enable, enabled
  - false: false, no, off, disable, disabled

Durations use Go syntax (500ms, 5s, 1m30s). A bare number is read as
seconds. Enum values are case-insensitive.`,
		Args: cobra.ExactArgs(2),
		Example: `  # Set boolean values (multiple formats supported)
  onboard config set use-tui true
  onboard config set use-tui no

  # Set durations
  onboard config set preferences.debounce 500ms
  onboard config set backend.poll-interval 1s

  # Point at a different backend
  onboard config set api.base-url http://127.0.0.1:6002

  # Set in user config instead of local
  onboard config set --global github-token ghp_xxxxx`,
		ValidArgsFunction: completeSetArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			if err := config.SetConfigValue(key, value, selectedScope()); err != nil {
				return err
			}

			scopeName, configFile := scopeLabel()
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s (%s: %s)\n", key, value, scopeName, configFile)
			return nil
		},
	}

	addGlobalFlag(cmd)
	return cmd
}

// completeSetArgs completes the key, then the allowed values for enum and
// boolean keys
func completeSetArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return completeKeys(cmd, args, toComplete)
	}
	def := config.GetKeyDefinition(args[0])
	if len(args) > 1 || def == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	switch def.Type {
	case "enum":
		return def.EnumValues, cobra.ShellCompDirectiveNoFileComp
	case "bool":
		return []string{"true", "false"}, cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveDefault
}
