// File: internal/runner/natural_test.go
package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/conductor/api/schemas"
)

func TestExtractActions(t *testing.T) {
	t.Run("should prefer a fenced json block over surrounding prose", func(t *testing.T) {
		output := "Sure, here is the plan:\n```json\n[{\"action\": \"navigate\", \"url\": \"https://example.com\"}]\n```\nLet me know if you need more."

		actions, err := extractActions(output)
		require.NoError(t, err)
		require.Len(t, actions, 1)
		assert.Equal(t, schemas.ActionNavigate, actions[0].Kind)
		assert.Equal(t, "https://example.com", actions[0].URL)
	})

	t.Run("should accept a fence without a language tag", func(t *testing.T) {
		output := "```\n[{\"action\": \"checkpoint\"}]\n```"

		actions, err := extractActions(output)
		require.NoError(t, err)
		require.Len(t, actions, 1)
		assert.Equal(t, schemas.ActionCheckpoint, actions[0].Kind)
	})

	t.Run("should fall back to the first bare array", func(t *testing.T) {
		output := `[{"action": "click", "selector": "#go", "screenshot_after": true}, {"action": "wait", "timeout": 500}]`

		actions, err := extractActions(output)
		require.NoError(t, err)
		require.Len(t, actions, 2)
		assert.Equal(t, schemas.ActionClick, actions[0].Kind)
		assert.True(t, actions[0].ScreenshotAfter)
		assert.Equal(t, float64(500), actions[1].TimeoutMs)
	})

	t.Run("should fail when no array is present", func(t *testing.T) {
		_, err := extractActions("I could not produce a plan for that.")
		require.Error(t, err)
	})

	t.Run("should fail on an array of unknown actions", func(t *testing.T) {
		_, err := extractActions(`[{"action": "teleport"}]`)
		require.Error(t, err)
	})

	t.Run("should fail on an empty array", func(t *testing.T) {
		_, err := extractActions("[]")
		require.Error(t, err)
	})
}
