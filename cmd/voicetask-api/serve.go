package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"voicetask/internal/bootstrap"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve get-groups, get-sprints and send-to-teams over HTTP",
		Long: `Start the filing API.

Examples:
  voicetask-api serve
  voicetask-api serve --addr :9000`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			services, err := bootstrap.BuildServer()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = services.Config.Server.Addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return services.Server.Run(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to VOICETASK_ADDR)")
	return cmd
}
