// SPDX-License-Identifier: Apache-2.0
package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Work-Fort/Onboard/pkg/config"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all configuration values",
		Long: `List every onboard setting with its effective value and source.

Sources are ENV, ./onboard.yaml, ~/.config/onboard/config.yaml or default.
Secrets such as github-token are masked; use 'onboard config get' to
see one in full.

Output format: key = value (source)`,
		Example: `  # List all configuration
  onboard config list

  # Example output:
  # api.base-url = http://127.0.0.1:5002 (default)
  # github-token = ghp_**** (from ~/.config/onboard/config.yaml)
  # log-level = debug (default)
  # preferences.debounce = 500ms (from ./onboard.yaml)
  # use-tui = false (from ENV: ONBOARD_USE_TUI)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := config.ListConfigValues()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			subtle := config.CurrentTheme.SubtleStyle()
			for _, cv := range values {
				source := cv.Source
				if source == "default" {
					source = subtle.Render(source)
				}
				fmt.Fprintf(out, "%s = %v (%s)\n", cv.Key, cv.Value, source)
			}

			fmt.Fprintln(out, "\n"+subtle.Render("Configuration precedence: ENV > local config > user config > defaults"))

			return nil
		},
	}

	return cmd
}
