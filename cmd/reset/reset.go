// SPDX-License-Identifier: Apache-2.0
package reset

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Work-Fort/Onboard/cmd/cmdutil"
	"github.com/Work-Fort/Onboard/pkg/config"
	"github.com/Work-Fort/Onboard/pkg/ui"
)

// NewResetCmd creates the reset command
func NewResetCmd() *cobra.Command {
	var (
		yes         bool
		withBackend bool
	)

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Forget onboarding so the wizard runs again",
		Long: `Remove stored preferences, the onboarding marker and any queued
telemetry events.

With --backend the installed backend and the cache directory are
removed as well. That asks you to type DELETE unless --yes is given.`,
		Example: `  # Start over
  onboard reset

  # Start over without prompting, including the backend download
  onboard reset --backend --yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				if err := confirm(withBackend); err != nil {
					return err
				}
			}

			local, err := cmdutil.OpenLocal()
			if err != nil {
				return err
			}
			defer local.Close()

			if err := local.Reset(cmd.Context()); err != nil {
				return err
			}
			items := []string{"Preferences", "Onboarding marker", "Queued telemetry"}

			if withBackend {
				removed, err := removeBackend()
				if err != nil {
					return err
				}
				items = append(items, removed...)
			}

			printRemoved(cmd.OutOrStdout(), items)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&withBackend, "backend", false, "Also remove the installed backend and cache")
	return cmd
}

// resetPrompt describes what reset removes. With the backend included
// the user has to type DELETE.
func resetPrompt(withBackend bool) ui.DataLoss {
	if !withBackend {
		return ui.DataLoss{Summary: "This will forget your preferences and onboarding progress. Continue?"}
	}
	return ui.DataLoss{
		Summary: "This will remove ALL onboarding data",
		Items: []string{
			"Preferences and the onboarding marker",
			"Queued telemetry",
			"The installed backend",
			"Cache directory",
		},
		Phrase: "DELETE",
	}
}

func confirm(withBackend bool) error {
	confirmed, err := ui.AskDataLoss(resetPrompt(withBackend))
	if err != nil {
		return err
	}
	if !confirmed {
		return fmt.Errorf("operation cancelled")
	}
	return nil
}

func removeBackend() ([]string, error) {
	var removed []string
	for _, target := range []struct{ name, dir string }{
		{"Installed backend", config.GetBackendInstallDir()},
		{"Cache directory", config.GlobalPaths.CacheDir},
	} {
		if target.dir == "" {
			continue
		}
		if err := os.RemoveAll(target.dir); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", target.dir, err)
		}
		log.Debugf("Removed %s", target.dir)
		removed = append(removed, target.name)
	}
	return removed, nil
}

func printRemoved(out io.Writer, items []string) {
	theme := config.CurrentTheme
	subtleStyle := theme.SubtleStyle()
	itemStyle := theme.ErrorStyle()

	fmt.Fprintln(out)
	fmt.Fprintln(out, theme.SuccessMessage("Onboarding reset"))
	fmt.Fprintln(out)
	for _, item := range items {
		fmt.Fprintln(out, subtleStyle.Render("  • ")+itemStyle.Render(item))
	}
	fmt.Fprintln(out)
}
