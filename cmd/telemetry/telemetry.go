// SPDX-License-Identifier: Apache-2.0
package telemetry

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Work-Fort/Onboard/cmd/cmdutil"
	"github.com/Work-Fort/Onboard/pkg/config"
	"github.com/Work-Fort/Onboard/pkg/telemetry"
)

// NewTelemetryCmd creates the telemetry command and its subcommands
func NewTelemetryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "telemetry",
		Short: "Manage queued telemetry events",
		Long: `Events recorded while the backend was unreachable are kept in a local
queue. Use these commands to inspect or deliver them.`,
	}

	cmd.AddCommand(newCountCmd())
	cmd.AddCommand(newFlushCmd())
	return cmd
}

func newCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Show how many events are queued",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			local, err := cmdutil.OpenLocal()
			if err != nil {
				return err
			}
			defer local.Close()

			n, err := local.Queue().Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d queued event(s)\n", n)
			return nil
		},
	}
}

func newFlushCmd() *cobra.Command {
	var batch int

	cmd := &cobra.Command{
		Use:   "flush",
		Short: "Deliver queued events to the backend",
		Long: `Send queued events to the backend in the order they were recorded.
Each event is removed only after the backend accepts it, so a failed
flush can be retried.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			local, err := cmdutil.OpenLocal()
			if err != nil {
				return err
			}
			defer local.Close()

			relay := telemetry.NewRelay(telemetry.GateFunc(func() bool { return true }),
				local, cmdutil.NewAPIClient(), cmdutil.TelemetryOptions())

			theme := config.CurrentTheme
			sent, err := relay.Flush(cmd.Context(), local.Queue(), batch)
			if err != nil {
				log.Warn("telemetry flush stopped", "sent", sent, "err", err)
				return fmt.Errorf("delivered %d event(s) before failing: %w", sent, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), theme.SuccessMessage(fmt.Sprintf("Delivered %d event(s)", sent)))
			return nil
		},
	}

	cmd.Flags().IntVar(&batch, "batch", 100, "Events read from the queue per round")
	return cmd
}
