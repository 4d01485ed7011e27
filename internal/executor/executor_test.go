// File: internal/executor/executor_test.go
package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/xkilldash9x/conductor/api/schemas"
	"github.com/xkilldash9x/conductor/internal/config"
	"github.com/xkilldash9x/conductor/internal/engine/enginetest"
	"github.com/xkilldash9x/conductor/internal/session"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestRig(t *testing.T) (*Executor, *session.Manager, *enginetest.FakeEngine) {
	t.Helper()
	logger := zap.NewNop()
	cfg := config.SessionsConfig{
		MaxConcurrent:        5,
		DefaultViewportW:     1280,
		DefaultViewportH:     720,
		DefaultActionTimeout: 30 * time.Second,
	}
	eng := enginetest.NewFakeEngine()
	rec := session.NewRecorder(logger)
	mgr := session.NewManager(cfg, config.BrowserConfig{DefaultVariant: "chromium"}, t.TempDir(), eng, rec, logger)
	return New(cfg, rec, logger), mgr, eng
}

func TestExecutorRun(t *testing.T) {
	ctx := context.Background()

	t.Run("should execute a full sequence in order", func(t *testing.T) {
		exec, mgr, eng := newTestRig(t)
		sess, err := mgr.Create(ctx, schemas.SessionSpec{})
		require.NoError(t, err)

		result, err := exec.Run(ctx, sess, []schemas.Action{
			{Kind: schemas.ActionNavigate, URL: "https://example.com"},
			{Kind: schemas.ActionFill, Selector: "#q", Text: "widgets"},
			{Kind: schemas.ActionClick, Selector: "#go"},
			{Kind: schemas.ActionWait, TimeoutMs: 1},
		})
		require.NoError(t, err)

		assert.Equal(t, schemas.RunCompleted, result.Status)
		assert.Equal(t, sess.ID, result.SessionID)
		assert.Equal(t, 4, result.ActionsExecuted)
		require.Len(t, result.Steps, 4)
		for i, step := range result.Steps {
			assert.Equal(t, i, step.Index)
			assert.Equal(t, schemas.StepSuccess, step.Status)
		}

		log := eng.Handles()[0].CallLog()
		require.Len(t, log, 4)
		assert.Equal(t, "goto:https://example.com", log[0])
		assert.Equal(t, "fill:#q", log[1])
		assert.Equal(t, "click:#go", log[2])
	})

	t.Run("should capture a screenshot after actions that request one", func(t *testing.T) {
		exec, mgr, _ := newTestRig(t)
		sess, err := mgr.Create(ctx, schemas.SessionSpec{})
		require.NoError(t, err)

		result, err := exec.Run(ctx, sess, []schemas.Action{
			{Kind: schemas.ActionNavigate, URL: "https://example.com", ScreenshotAfter: true},
		})
		require.NoError(t, err)

		require.Len(t, result.Steps, 1)
		assert.NotEmpty(t, result.Steps[0].ScreenshotPath)
		assert.FileExists(t, result.Steps[0].ScreenshotPath)

		entries, err := mgr.Assets(sess.ID, schemas.AssetScreenshot)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "001_navigate_step_0.png", entries[0].Filename)
	})

	t.Run("should reject a run while another holds the session", func(t *testing.T) {
		exec, mgr, _ := newTestRig(t)
		sess, err := mgr.Create(ctx, schemas.SessionSpec{})
		require.NoError(t, err)

		require.True(t, sess.Acquire())
		defer sess.Release()

		_, err = exec.Run(ctx, sess, []schemas.Action{
			{Kind: schemas.ActionWait, TimeoutMs: 1},
		})
		require.ErrorIs(t, err, session.ErrConflict)
	})

	t.Run("should refuse to reuse a dead engine", func(t *testing.T) {
		exec, mgr, eng := newTestRig(t)
		sess, err := mgr.Create(ctx, schemas.SessionSpec{})
		require.NoError(t, err)
		require.NoError(t, eng.Handles()[0].Close(ctx))

		_, err = exec.Run(ctx, sess, []schemas.Action{
			{Kind: schemas.ActionWait, TimeoutMs: 1},
		})
		require.ErrorIs(t, err, session.ErrResourceExhausted)
	})
}

func TestExecutorCheckpoint(t *testing.T) {
	ctx := context.Background()

	t.Run("should pause and hand back the exact unexecuted suffix", func(t *testing.T) {
		exec, mgr, _ := newTestRig(t)
		sess, err := mgr.Create(ctx, schemas.SessionSpec{})
		require.NoError(t, err)

		actions := []schemas.Action{
			{Kind: schemas.ActionNavigate, URL: "https://example.com"},
			{Kind: schemas.ActionClick, Selector: "#login"},
			{Kind: schemas.ActionCheckpoint},
			{Kind: schemas.ActionFill, Selector: "#user", Text: "admin"},
			{Kind: schemas.ActionClick, Selector: "#submit"},
		}

		result, err := exec.Run(ctx, sess, actions)
		require.NoError(t, err)

		assert.Equal(t, schemas.RunPaused, result.Status)
		assert.Equal(t, 2, result.CurrentStep)
		assert.Equal(t, 3, result.ActionsExecuted)
		require.Len(t, result.Steps, 3)
		assert.Equal(t, schemas.StepWaitingForAnalysis, result.Steps[2].Status)

		require.NotEmpty(t, result.ScreenshotForAnalysis)
		assert.FileExists(t, result.ScreenshotForAnalysis)
		assert.Contains(t, result.ScreenshotForAnalysis, "_checkpoint_analysis_2.png")

		require.Len(t, result.Continuation, 2)
		assert.Equal(t, actions[3], result.Continuation[0])
		assert.Equal(t, actions[4], result.Continuation[1])
	})

	t.Run("should resume when the suffix is resubmitted", func(t *testing.T) {
		exec, mgr, eng := newTestRig(t)
		sess, err := mgr.Create(ctx, schemas.SessionSpec{})
		require.NoError(t, err)

		first, err := exec.Run(ctx, sess, []schemas.Action{
			{Kind: schemas.ActionNavigate, URL: "https://example.com"},
			{Kind: schemas.ActionCheckpoint},
			{Kind: schemas.ActionClick, Selector: "#next"},
		})
		require.NoError(t, err)
		require.Equal(t, schemas.RunPaused, first.Status)

		second, err := exec.Run(ctx, sess, first.Continuation)
		require.NoError(t, err)
		assert.Equal(t, schemas.RunCompleted, second.Status)
		assert.Equal(t, 1, second.ActionsExecuted)

		log := eng.Handles()[0].CallLog()
		assert.Contains(t, log, "click:#next")
	})

	t.Run("should pause immediately for a leading checkpoint", func(t *testing.T) {
		exec, mgr, _ := newTestRig(t)
		sess, err := mgr.Create(ctx, schemas.SessionSpec{})
		require.NoError(t, err)

		result, err := exec.Run(ctx, sess, []schemas.Action{
			{Kind: schemas.ActionCheckpoint},
		})
		require.NoError(t, err)
		assert.Equal(t, schemas.RunPaused, result.Status)
		assert.Equal(t, 0, result.CurrentStep)
		assert.Empty(t, result.Continuation)
	})
}

func TestExecutorFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("should stop on a failed action and keep partial progress", func(t *testing.T) {
		exec, mgr, eng := newTestRig(t)
		sess, err := mgr.Create(ctx, schemas.SessionSpec{})
		require.NoError(t, err)
		eng.Handles()[0].FailClickOn = "#missing"

		result, err := exec.Run(ctx, sess, []schemas.Action{
			{Kind: schemas.ActionNavigate, URL: "https://example.com"},
			{Kind: schemas.ActionClick, Selector: "#missing"},
			{Kind: schemas.ActionFill, Selector: "#never", Text: "reached"},
		})
		require.NoError(t, err)

		assert.Equal(t, schemas.RunError, result.Status)
		assert.Equal(t, 1, result.CurrentStep)
		assert.Equal(t, 1, result.ActionsExecuted)
		require.Len(t, result.Steps, 2)
		assert.Equal(t, schemas.StepSuccess, result.Steps[0].Status)
		assert.Equal(t, schemas.StepError, result.Steps[1].Status)
		assert.Contains(t, result.Error, "#missing")

		require.NotEmpty(t, result.ErrorScreenshot)
		assert.FileExists(t, result.ErrorScreenshot)
		assert.Contains(t, result.ErrorScreenshot, "_error_step_1.png")

		// The failing fill never ran.
		log := eng.Handles()[0].CallLog()
		for _, call := range log {
			assert.NotEqual(t, "fill:#never", call)
		}
	})

	t.Run("should fail a half-specified action before touching the page", func(t *testing.T) {
		exec, mgr, eng := newTestRig(t)
		sess, err := mgr.Create(ctx, schemas.SessionSpec{})
		require.NoError(t, err)

		result, err := exec.Run(ctx, sess, []schemas.Action{
			{Kind: schemas.ActionNavigate},
		})
		require.NoError(t, err)

		assert.Equal(t, schemas.RunError, result.Status)
		assert.Contains(t, result.Error, "requires a url")

		// Only the error screenshot touched the page.
		log := eng.Handles()[0].CallLog()
		require.Len(t, log, 1)
		assert.Contains(t, log[0], "screenshot:")
	})
}
