// File: internal/runner/runner_test.go
package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/conductor/internal/config"
)

func newTestRunner(timeout time.Duration) *Runner {
	return New(config.RunnerConfig{ReasoningBin: "echo", Timeout: timeout}, zap.NewNop())
}

func TestRunner(t *testing.T) {
	ctx := context.Background()

	t.Run("should relay stdout and a zero exit code", func(t *testing.T) {
		r := newTestRunner(5 * time.Second)

		result, err := r.Reason(ctx, "hello world")
		require.NoError(t, err)
		assert.Equal(t, 0, result.ReturnCode)
		assert.Equal(t, "-p hello world\n", result.Stdout)
		assert.Equal(t, "echo -p hello world", result.Command)
		assert.False(t, result.Timestamp.IsZero())
	})

	t.Run("should split a terminal command into argv and run it", func(t *testing.T) {
		r := newTestRunner(5 * time.Second)

		result, err := r.Exec(ctx, "echo hello   world")
		require.NoError(t, err)
		assert.Equal(t, 0, result.ReturnCode)
		assert.Equal(t, "hello world\n", result.Stdout)
	})

	t.Run("should reject an empty terminal command", func(t *testing.T) {
		r := newTestRunner(5 * time.Second)

		_, err := r.Exec(ctx, "   ")
		require.Error(t, err)
	})

	t.Run("should treat a non-zero exit as an ordinary result", func(t *testing.T) {
		r := New(config.RunnerConfig{ReasoningBin: "false", Timeout: 5 * time.Second}, zap.NewNop())

		result, err := r.run(ctx, "false")
		require.NoError(t, err)
		assert.Equal(t, 1, result.ReturnCode)
	})

	t.Run("should kill a command that outlives the deadline", func(t *testing.T) {
		r := New(config.RunnerConfig{ReasoningBin: "sleep", Timeout: 50 * time.Millisecond}, zap.NewNop())

		_, err := r.run(ctx, "sleep", "10")
		require.ErrorIs(t, err, ErrTimeout)
	})

	t.Run("should fail to spawn a missing binary", func(t *testing.T) {
		r := New(config.RunnerConfig{ReasoningBin: "definitely-not-a-binary-xyz", Timeout: time.Second}, zap.NewNop())

		_, err := r.Reason(ctx, "hi")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrTimeout)
	})
}
