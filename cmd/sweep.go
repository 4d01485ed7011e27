// File: cmd/sweep.go
package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/conductor/internal/archive"
	"github.com/xkilldash9x/conductor/internal/config"
	"github.com/xkilldash9x/conductor/internal/observability"
	"github.com/xkilldash9x/conductor/internal/session"
)

var sweepMaxAge time.Duration

// sweepCmd archives idle session trees without starting the service. It only
// works from disk, so no browser engine is needed.
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Archive idle session directories and exit.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		logger := observability.GetLogger()

		maxAge := sweepMaxAge
		if maxAge <= 0 {
			maxAge = cfg.Cleanup.MaxAge
		}

		// The sweep works purely from disk; no engine is ever launched.
		rec := session.NewRecorder(logger)
		mgr := session.NewManager(cfg.Sessions, cfg.Browser, cfg.Storage.Root,
			nil, rec, logger)
		sweeper := archive.NewSweeper(cfg.Cleanup, mgr, logger)

		report, err := sweeper.Sweep(context.Background(), maxAge)
		if err != nil {
			return err
		}
		logger.Info("Sweep finished",
			zap.Int("scanned", report.Scanned),
			zap.Strings("archived", report.Archived),
			zap.Int("skipped", report.Skipped))
		return nil
	},
}

func init() {
	sweepCmd.Flags().DurationVar(&sweepMaxAge, "max-age", 0, "idle cutoff (default from config cleanup.max_age)")
	rootCmd.AddCommand(sweepCmd)
}
