// File: internal/observability/logger_test.go
package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/conductor/internal/config"
)

// memSink is a WriteSyncer backed by a buffer.
type memSink struct {
	bytes.Buffer
}

func (s *memSink) Sync() error { return nil }

func TestInitialize(t *testing.T) {
	t.Run("should emit console lines at the configured level", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)

		sink := &memSink{}
		Initialize(config.LoggerConfig{
			Level:       "info",
			Format:      "console",
			ServiceName: "conductor-test",
		}, sink)

		logger := GetLogger()
		logger.Debug("hidden")
		logger.Info("visible message")
		require.NoError(t, logger.Sync())

		out := sink.String()
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, "visible message")
		assert.Contains(t, out, "conductor-test")
	})

	t.Run("should fall back to info on a bad level", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)

		sink := &memSink{}
		Initialize(config.LoggerConfig{Level: "not-a-level", Format: "json"}, sink)

		GetLogger().Debug("hidden")
		GetLogger().Info("shown")
		assert.NotContains(t, sink.String(), "hidden")
		assert.Contains(t, sink.String(), "shown")
	})

	t.Run("should write rotating JSON to the log file", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)

		logFile := filepath.Join(t.TempDir(), "svc.log")
		Initialize(config.LoggerConfig{
			Level:   "info",
			Format:  "console",
			LogFile: logFile,
		}, zapcore.AddSync(&memSink{}))

		GetLogger().Info("persisted entry")
		GetLogger().Sync()

		data, err := os.ReadFile(logFile)
		require.NoError(t, err)

		var entry map[string]any
		require.NoError(t, json.Unmarshal(bytes.Split(data, []byte("\n"))[0], &entry))
		assert.Equal(t, "persisted entry", entry["msg"])
	})

	t.Run("should only initialize once", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)

		first := &memSink{}
		second := &memSink{}
		Initialize(config.LoggerConfig{Level: "info", Format: "json"}, first)
		Initialize(config.LoggerConfig{Level: "info", Format: "json"}, second)

		GetLogger().Info("routed")
		assert.Contains(t, first.String(), "routed")
		assert.Empty(t, second.String())
	})
}

func TestGetLoggerFallback(t *testing.T) {
	t.Run("should hand out a usable logger before initialization", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)

		logger := GetLogger()
		require.NotNil(t, logger)
		// Must not panic.
		logger.Info("pre-init message")
	})
}
