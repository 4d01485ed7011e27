// Package archive moves idle session trees out of the active area and
// packages session directories for export. The sweeper works from disk, not
// from the in-memory registry, so sessions orphaned by a previous process are
// swept the same as live ones.
package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/conductor/api/schemas"
	"github.com/xkilldash9x/conductor/internal/config"
	"github.com/xkilldash9x/conductor/internal/session"
)

// Sweeper archives sessions whose last activity is older than the cutoff.
type Sweeper struct {
	cfg     config.CleanupConfig
	root    string
	manager *session.Manager
	logger  *zap.Logger
}

// NewSweeper wires a Sweeper over the manager's storage root.
func NewSweeper(cfg config.CleanupConfig, mgr *session.Manager, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		cfg:     cfg,
		root:    mgr.Root(),
		manager: mgr,
		logger:  logger.Named("sweeper"),
	}
}

// SweepReport summarizes one sweep pass.
type SweepReport struct {
	Scanned  int      `json:"scanned"`
	Archived []string `json:"archived"`
	Skipped  int      `json:"skipped"`
}

// Sweep scans every session directory and archives those idle for longer
// than maxAge. Directories without a readable metadata record are skipped,
// never deleted. Live sessions are closed before their tree is moved.
func (sw *Sweeper) Sweep(ctx context.Context, maxAge time.Duration) (*SweepReport, error) {
	report := &SweepReport{Archived: []string{}}
	cutoff := time.Now().UTC().Add(-maxAge)

	sessionsDir := filepath.Join(sw.root, "sessions")
	entries, err := os.ReadDir(sessionsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return report, nil
		}
		return nil, fmt.Errorf("failed to scan sessions directory: %w", err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), "session_") {
			continue
		}
		report.Scanned++

		id := strings.TrimPrefix(entry.Name(), "session_")
		dir := filepath.Join(sessionsDir, entry.Name())

		meta, err := session.LoadMetadata(dir)
		if err != nil {
			sw.logger.Warn("Skipping session with unreadable metadata.",
				zap.String("dir", dir), zap.Error(err))
			report.Skipped++
			continue
		}

		last, err := time.Parse(time.RFC3339Nano, meta.LastActivity)
		if err != nil {
			sw.logger.Warn("Skipping session with malformed last-activity stamp.",
				zap.String("session_id", id), zap.String("last_activity", meta.LastActivity))
			report.Skipped++
			continue
		}
		if last.After(cutoff) {
			continue
		}

		if err := sw.archive(ctx, id, dir, last); err != nil {
			sw.logger.Error("Failed to archive idle session.",
				zap.String("session_id", id), zap.Error(err))
			report.Skipped++
			continue
		}
		report.Archived = append(report.Archived, id)
	}

	if len(report.Archived) > 0 {
		sw.logger.Info("Sweep archived idle sessions.",
			zap.Int("scanned", report.Scanned),
			zap.Int("archived", len(report.Archived)))
	}
	return report, nil
}

// archive closes the session if it is still live, then moves its tree into
// the archived area under a name embedding the last-activity epoch, so
// repeated archivals of reused ids cannot collide.
func (sw *Sweeper) archive(ctx context.Context, id, dir string, lastActivity time.Time) error {
	if _, err := sw.manager.Close(ctx, id); err != nil && !errors.Is(err, session.ErrNotFound) {
		sw.logger.Warn("Close before archive reported an error.",
			zap.String("session_id", id), zap.Error(err))
	}

	// Mark the record before the move so the archived tree is self-describing.
	meta, err := session.LoadMetadata(dir)
	if err != nil {
		return fmt.Errorf("failed to reload metadata before archive: %w", err)
	}
	meta.Status = schemas.SessionArchived
	if err := session.SaveMetadata(dir, meta); err != nil {
		return fmt.Errorf("failed to mark session archived: %w", err)
	}

	archivedDir := filepath.Join(sw.root, "archived")
	if err := os.MkdirAll(archivedDir, 0o755); err != nil {
		return fmt.Errorf("failed to create archive area: %w", err)
	}

	dest := filepath.Join(archivedDir,
		fmt.Sprintf("session_%s_%d", id, lastActivity.Unix()))
	if err := os.Rename(dir, dest); err != nil {
		return fmt.Errorf("failed to move session tree: %w", err)
	}

	sw.logger.Info("Session archived.",
		zap.String("session_id", id),
		zap.String("dest", dest))
	return nil
}

// Run executes sweep passes on the configured interval until ctx is
// cancelled. Intended to run in its own goroutine.
func (sw *Sweeper) Run(ctx context.Context) {
	if !sw.cfg.Enabled {
		sw.logger.Info("Background sweeper disabled.")
		return
	}

	ticker := time.NewTicker(sw.cfg.Interval)
	defer ticker.Stop()
	sw.logger.Info("Background sweeper started.",
		zap.Duration("interval", sw.cfg.Interval),
		zap.Duration("max_age", sw.cfg.MaxAge))

	for {
		select {
		case <-ctx.Done():
			sw.logger.Info("Background sweeper stopped.")
			return
		case <-ticker.C:
			if _, err := sw.Sweep(ctx, sw.cfg.MaxAge); err != nil && ctx.Err() == nil {
				sw.logger.Error("Sweep pass failed.", zap.Error(err))
			}
		}
	}
}
