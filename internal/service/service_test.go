// File: internal/service/service_test.go
package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/conductor/api/schemas"
	"github.com/xkilldash9x/conductor/internal/config"
	"github.com/xkilldash9x/conductor/internal/engine/enginetest"
	"github.com/xkilldash9x/conductor/internal/session"
)

func TestNew(t *testing.T) {
	t.Run("should wire every component against the injected engine", func(t *testing.T) {
		cfg := config.NewDefaultConfig()
		cfg.Storage.Root = t.TempDir()
		eng := enginetest.NewFakeEngine()

		c := New(cfg, eng, zap.NewNop())
		require.NotNil(t, c.Manager)
		require.NotNil(t, c.Executor)
		require.NotNil(t, c.Sweeper)
		require.NotNil(t, c.Runner)
		require.NotNil(t, c.Server)
		assert.Same(t, eng, c.Engine)
		assert.Equal(t, cfg.Storage.Root, c.Manager.Root())
	})
}

func TestShutdown(t *testing.T) {
	t.Run("should close live sessions and stop the engine", func(t *testing.T) {
		ctx := context.Background()
		cfg := config.NewDefaultConfig()
		cfg.Storage.Root = t.TempDir()
		eng := enginetest.NewFakeEngine()
		c := New(cfg, eng, zap.NewNop())

		sess, err := c.Manager.Create(ctx, schemas.SessionSpec{})
		require.NoError(t, err)

		c.Shutdown(ctx)

		_, err = c.Manager.Get(sess.ID)
		require.ErrorIs(t, err, session.ErrNotFound)
		assert.True(t, eng.WasShutdown())

		meta, err := session.LoadMetadata(session.SessionDir(cfg.Storage.Root, sess.ID))
		require.NoError(t, err)
		assert.Equal(t, schemas.SessionCompleted, meta.Status)
	})
}
