// SPDX-License-Identifier: Apache-2.0
package status

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Work-Fort/Onboard/cmd/cmdutil"
	"github.com/Work-Fort/Onboard/pkg/api"
	"github.com/Work-Fort/Onboard/pkg/config"
	"github.com/Work-Fort/Onboard/pkg/host"
	"github.com/Work-Fort/Onboard/pkg/prefs"
	"github.com/Work-Fort/Onboard/pkg/sysinfo"
)

// Backend is the part of the HTTP boundary status reports on
type Backend interface {
	Health(ctx context.Context) (*api.Health, error)
}

// NewStatusCmd creates the status command
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show onboarding and system status",
		Long: `Show the system snapshot, network reachability, backend health,
stored preferences and whether onboarding has been completed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			local, err := cmdutil.OpenLocal()
			if err != nil {
				return err
			}
			defer local.Close()

			return Print(cmd.Context(), cmd.OutOrStdout(), local, cmdutil.NewAPIClient())
		},
	}
}

// Source is everything status reads from the local host
type Source interface {
	host.Host
	Onboarding(ctx context.Context) (*host.OnboardingRecord, error)
}

// Print writes the status report to out
func Print(ctx context.Context, out io.Writer, src Source, backend Backend) error {
	theme := config.CurrentTheme
	label := theme.SubtleStyle().Render
	timeout := config.GetNetworkTimeout()
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	fmt.Fprintln(out, theme.InfoMessage("System"))
	snap, err := sysinfo.Collect(ctx, src)
	if err != nil {
		log.Warn("status: system snapshot failed", "err", err)
		fmt.Fprintln(out, "  "+theme.ErrorMessage("Failed to load system information"))
	} else {
		fmt.Fprintf(out, "  %s %s\n", label("Operating System:"), snap.OS)
		fmt.Fprintf(out, "  %s %s (%s)\n", label("Disk Space:"), sysinfo.FormatDisk(snap.Disk), sysinfo.DiskStatus(snap.Disk))
		fmt.Fprintf(out, "  %s %s (%s)\n", label("Memory:"), sysinfo.FormatMemory(snap.Memory), sysinfo.MemoryStatus(snap.Memory))
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, theme.InfoMessage("Network"))
	netCtx, cancel := context.WithTimeout(ctx, timeout)
	online, err := src.NetworkStatus(netCtx)
	cancel()
	switch {
	case err != nil:
		fmt.Fprintf(out, "  %s %s\n", label("Status:"), theme.ErrorMessage(err.Error()))
	case online:
		fmt.Fprintf(out, "  %s %s\n", label("Status:"), theme.SuccessMessage("Online"))
	default:
		fmt.Fprintf(out, "  %s %s\n", label("Status:"), theme.WarningMessage("Offline"))
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, theme.InfoMessage("Backend"))
	if backend != nil {
		health, err := backend.Health(ctx)
		if err != nil {
			fmt.Fprintf(out, "  %s %s\n", label("Health:"), theme.ErrorMessage("unreachable"))
			log.Debug("status: backend health failed", "err", err)
		} else {
			fmt.Fprintf(out, "  %s %s\n", label("Health:"), theme.SuccessMessage(health.Status))
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, theme.InfoMessage("Preferences"))
	stored, err := src.Preferences(ctx)
	switch {
	case err != nil:
		fmt.Fprintln(out, "  "+theme.ErrorMessage(prefs.LoadFailedWarning))
	case stored == nil:
		p := prefs.Default()
		fmt.Fprintf(out, "  %s %s %s\n", label("Theme:"), p.Theme.Label(), label("(default)"))
		fmt.Fprintf(out, "  %s %s %s\n", label("Telemetry:"), p.TelemetryLabel(), label("(default)"))
	default:
		p := stored.Normalize()
		fmt.Fprintf(out, "  %s %s\n", label("Theme:"), p.Theme.Label())
		fmt.Fprintf(out, "  %s %s\n", label("Telemetry:"), p.TelemetryLabel())
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, theme.InfoMessage("Onboarding"))
	rec, err := src.Onboarding(ctx)
	switch {
	case err != nil:
		return fmt.Errorf("failed to read onboarding state: %w", err)
	case rec == nil || !rec.Completed:
		fmt.Fprintf(out, "  %s %s\n", label("Completed:"), "no (run 'onboard wizard')")
	default:
		fmt.Fprintf(out, "  %s %s\n", label("Completed:"), rec.Timestamp)
	}
	return nil
}
