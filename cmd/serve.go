// File: cmd/serve.go
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/conductor/internal/config"
	"github.com/xkilldash9x/conductor/internal/observability"
	"github.com/xkilldash9x/conductor/internal/service"
)

// serveCmd starts the HTTP service and the background sweeper.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the session service.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		logger := observability.GetLogger()

		components := service.New(cfg, nil, logger)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go components.Sweeper.Run(ctx)

		errCh := make(chan error, 1)
		go func() {
			errCh <- components.Server.Start()
		}()

		select {
		case err := <-errCh:
			if err != nil {
				logger.Error("Server failed", zap.Error(err))
				return err
			}
		case <-ctx.Done():
			logger.Info("Shutdown signal received")
		}
		stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		components.Shutdown(shutdownCtx)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
