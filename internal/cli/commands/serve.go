package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mydoor3520/log-detective/internal/cli/config"
	"github.com/mydoor3520/log-detective/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve detection and extraction over HTTP",
		Long: `Start an HTTP service.

Endpoints:
  POST /v1/parse     Body is log text; ?language=auto|java|python
  POST /v1/detect    Body is log text
  GET  /healthz      Liveness check
  GET  /metrics      Prometheus metrics`,
		Example: `  logdetective serve --addr :8080
  curl --data-binary @app.log 'http://localhost:8080/v1/parse?language=java'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(server.Config{
				Addr:    cmdCtx.Cfg.Server.Addr,
				Logger:  cmdCtx.Logger,
				Version: version,
			})
			_, _ = fmt.Fprintf(cmdCtx.Renderer.ErrWriter(), "Listening on http://%s (Ctrl+C to stop)\n", cmdCtx.Cfg.Server.Addr)
			return srv.Serve(ctx)
		},
	}

	cmd.Flags().String("addr", config.DefaultServerAddr, "Address to listen on")
	return cmd
}
