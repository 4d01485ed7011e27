// File: internal/archive/recordings_test.go
package archive

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/conductor/api/schemas"
)

func TestListRecordings(t *testing.T) {
	ctx := context.Background()

	t.Run("should group recorded files by kind across sessions", func(t *testing.T) {
		_, mgr, root := newTestRig(t)

		first, err := mgr.Create(ctx, schemas.SessionSpec{})
		require.NoError(t, err)
		second, err := mgr.Create(ctx, schemas.SessionSpec{})
		require.NoError(t, err)

		_, err = mgr.Recorder().Screenshot(ctx, first, "navigate", "home", "")
		require.NoError(t, err)
		_, err = mgr.Recorder().Screenshot(ctx, second, "click", "submit", "")
		require.NoError(t, err)

		report, err := ListRecordings(root)
		require.NoError(t, err)
		assert.Equal(t, 2, report.TotalFiles)
		assert.Contains(t, report.Screenshots, "session_"+first.ID+"/screenshots/001_navigate_home.png")
		assert.Contains(t, report.Screenshots, "session_"+second.ID+"/screenshots/001_click_submit.png")
		assert.Empty(t, report.Videos)
		assert.Empty(t, report.Traces)
	})

	t.Run("should report empty when no sessions area exists", func(t *testing.T) {
		report, err := ListRecordings(t.TempDir())
		require.NoError(t, err)
		assert.Zero(t, report.TotalFiles)
	})
}
