// File: internal/archive/sweeper_test.go
package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/conductor/api/schemas"
	"github.com/xkilldash9x/conductor/internal/config"
	"github.com/xkilldash9x/conductor/internal/engine/enginetest"
	"github.com/xkilldash9x/conductor/internal/session"
)

func newTestRig(t *testing.T) (*Sweeper, *session.Manager, string) {
	t.Helper()
	logger := zap.NewNop()
	root := t.TempDir()
	eng := enginetest.NewFakeEngine()
	mgr := session.NewManager(
		config.SessionsConfig{MaxConcurrent: 10, DefaultViewportW: 1280, DefaultViewportH: 720},
		config.BrowserConfig{DefaultVariant: "chromium"},
		root, eng, session.NewRecorder(logger), logger)
	sw := NewSweeper(config.CleanupConfig{Enabled: true, MaxAge: time.Hour, Interval: time.Minute}, mgr, logger)
	return sw, mgr, root
}

// backdate rewrites a session's last-activity stamp on disk.
func backdate(t *testing.T, root, id string, age time.Duration) {
	t.Helper()
	dir := session.SessionDir(root, id)
	meta, err := session.LoadMetadata(dir)
	require.NoError(t, err)
	meta.LastActivity = time.Now().UTC().Add(-age).Format(time.RFC3339Nano)
	require.NoError(t, session.SaveMetadata(dir, meta))
}

func TestSweep(t *testing.T) {
	ctx := context.Background()

	t.Run("should archive only sessions past the cutoff", func(t *testing.T) {
		sw, mgr, root := newTestRig(t)

		stale, err := mgr.Create(ctx, schemas.SessionSpec{})
		require.NoError(t, err)
		fresh, err := mgr.Create(ctx, schemas.SessionSpec{})
		require.NoError(t, err)

		_, err = mgr.Close(ctx, stale.ID)
		require.NoError(t, err)
		_, err = mgr.Close(ctx, fresh.ID)
		require.NoError(t, err)
		backdate(t, root, stale.ID, 48*time.Hour)

		report, err := sw.Sweep(ctx, 24*time.Hour)
		require.NoError(t, err)

		assert.Equal(t, 2, report.Scanned)
		assert.Equal(t, []string{stale.ID}, report.Archived)
		assert.NoDirExists(t, session.SessionDir(root, stale.ID))
		assert.DirExists(t, session.SessionDir(root, fresh.ID))

		// The moved tree lives under archived/ with a timestamp suffix.
		entries, err := os.ReadDir(filepath.Join(root, "archived"))
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Contains(t, entries[0].Name(), "session_"+stale.ID+"_")

		// The moved record carries the archived status.
		meta, err := session.LoadMetadata(filepath.Join(root, "archived", entries[0].Name()))
		require.NoError(t, err)
		assert.Equal(t, schemas.SessionArchived, meta.Status)
	})

	t.Run("should close a live session before archiving it", func(t *testing.T) {
		sw, mgr, root := newTestRig(t)

		sess, err := mgr.Create(ctx, schemas.SessionSpec{})
		require.NoError(t, err)
		backdate(t, root, sess.ID, 48*time.Hour)

		report, err := sw.Sweep(ctx, 24*time.Hour)
		require.NoError(t, err)
		assert.Equal(t, []string{sess.ID}, report.Archived)

		_, err = mgr.Get(sess.ID)
		require.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("should skip directories with unreadable metadata", func(t *testing.T) {
		sw, _, root := newTestRig(t)

		junk := filepath.Join(root, "sessions", "session_corrupt1")
		require.NoError(t, os.MkdirAll(junk, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(junk, session.MetadataFile), []byte("not json"), 0o644))

		report, err := sw.Sweep(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Skipped)
		assert.Empty(t, report.Archived)
		assert.DirExists(t, junk)
	})

	t.Run("should do nothing when the sessions area does not exist", func(t *testing.T) {
		sw, _, _ := newTestRig(t)
		report, err := sw.Sweep(ctx, time.Hour)
		require.NoError(t, err)
		assert.Equal(t, 0, report.Scanned)
	})
}

func TestExport(t *testing.T) {
	ctx := context.Background()

	t.Run("should package the session tree as a zip", func(t *testing.T) {
		_, mgr, root := newTestRig(t)
		sess, err := mgr.Create(ctx, schemas.SessionSpec{})
		require.NoError(t, err)
		_, err = mgr.Recorder().Screenshot(ctx, sess, "navigate", "home", "")
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, Export(root, sess.ID, &buf))

		zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
		require.NoError(t, err)

		names := make([]string, 0, len(zr.File))
		for _, f := range zr.File {
			names = append(names, f.Name)
		}
		assert.Contains(t, names, "session_"+sess.ID+"/metadata.json")
		assert.Contains(t, names, "session_"+sess.ID+"/screenshots/001_navigate_home.png")
	})

	t.Run("should return ErrNotFound for unknown sessions", func(t *testing.T) {
		_, _, root := newTestRig(t)
		var buf bytes.Buffer
		require.ErrorIs(t, Export(root, "deadbeef", &buf), session.ErrNotFound)
	})
}
