// SPDX-License-Identifier: Apache-2.0
package serve

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Work-Fort/Onboard/pkg/config"
	"github.com/Work-Fort/Onboard/pkg/server"
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the development backend",
		Long: `Run a local backend that accepts telemetry, onboarding data and
preferences from the wizard.

Telemetry is appended to telemetry.log in the data directory. The
server stops cleanly on SIGINT or SIGTERM.`,
		Example: `  # Listen on the configured address (serve.addr)
  onboard serve

  # Listen somewhere else and point the wizard at it
  onboard serve --addr 127.0.0.1:6002
  ONBOARD_API_BASE_URL=http://127.0.0.1:6002 onboard wizard`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = config.GetServeAddr()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Debug("serve: starting", "addr", addr, "dataDir", config.GlobalPaths.DataDir)
			return run(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from serve.addr)")
	return cmd
}

func run(ctx context.Context, addr string) error {
	return server.New(config.GlobalPaths.DataDir, nil).ListenAndServe(ctx, addr)
}
