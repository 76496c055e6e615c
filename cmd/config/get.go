// SPDX-License-Identifier: Apache-2.0
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Work-Fort/Onboard/pkg/config"
)

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get [key]",
		Short: "Get configuration value",
		Long: `Get a configuration value and show its source.

The source indicates where the value comes from in precedence order:
  - ENV: Environment variable (ONBOARD_*)
  - Local: Local config file (./onboard.yaml)
  - User: User config file (~/.config/onboard/config.yaml)
  - Default: Built-in default value`,
		Args: cobra.ExactArgs(1),
		Example: `  # Get a configuration value
  onboard config get use-tui

  # Get nested value
  onboard config get network.check-host

  # Output shows value and source:
  # use-tui = true (from ENV: ONBOARD_USE_TUI)
  # log-level = info (from ./onboard.yaml)
  # github-token = ghp_xxxxx (from ~/.config/onboard/config.yaml)
  # api.base-url = http://127.0.0.1:5002 (default)`,
		ValidArgsFunction: completeKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			configValue, err := config.GetConfigValue(key)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s = %v (%s)\n", configValue.Key, configValue.Value, configValue.Source)
			if def := config.GetKeyDefinition(key); def != nil {
				fmt.Fprintln(out, config.CurrentTheme.SubtleStyle().Render("  "+def.Description))
			}

			return nil
		},
	}

	return cmd
}

// completeKeys offers the registered keys for shell completion
func completeKeys(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var keys []string
	for key, def := range config.ConfigRegistry {
		if strings.HasPrefix(key, toComplete) {
			keys = append(keys, key+"\t"+def.Description)
		}
	}
	sort.Strings(keys)
	return keys, cobra.ShellCompDirectiveNoFileComp
}
