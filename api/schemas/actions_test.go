// File: api/schemas/actions_test.go
package schemas

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionUnmarshal(t *testing.T) {
	t.Run("should decode a full sequence", func(t *testing.T) {
		payload := `[
			{"action": "navigate", "url": "https://example.com", "timeout": 5000},
			{"action": "fill", "selector": "#q", "text": "widgets"},
			{"action": "click", "selector": "#go", "screenshot_after": true},
			{"action": "wait", "timeout": 250},
			{"action": "checkpoint"}
		]`

		var actions []Action
		require.NoError(t, json.Unmarshal([]byte(payload), &actions))
		require.Len(t, actions, 5)

		assert.Equal(t, ActionNavigate, actions[0].Kind)
		assert.Equal(t, "https://example.com", actions[0].URL)
		assert.Equal(t, float64(5000), actions[0].TimeoutMs)
		assert.True(t, actions[2].ScreenshotAfter)
		assert.Equal(t, ActionCheckpoint, actions[4].Kind)
	})

	t.Run("should reject an unknown action tag", func(t *testing.T) {
		var a Action
		err := json.Unmarshal([]byte(`{"action": "teleport"}`), &a)
		require.Error(t, err)

		var unknown *UnknownActionError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "teleport", unknown.Tag)
	})

	t.Run("should survive a round trip unchanged", func(t *testing.T) {
		original := Action{Kind: ActionFill, Selector: "#user", Text: "admin"}
		data, err := json.Marshal(original)
		require.NoError(t, err)

		var decoded Action
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, original, decoded)
	})
}

func TestActionValidate(t *testing.T) {
	cases := []struct {
		name    string
		action  Action
		wantErr bool
	}{
		{"navigate with url", Action{Kind: ActionNavigate, URL: "https://x"}, false},
		{"navigate without url", Action{Kind: ActionNavigate}, true},
		{"click without selector", Action{Kind: ActionClick}, true},
		{"fill without selector", Action{Kind: ActionFill, Text: "x"}, true},
		{"bare wait", Action{Kind: ActionWait}, false},
		{"bare checkpoint", Action{Kind: ActionCheckpoint}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.action.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAssetKind(t *testing.T) {
	assert.Equal(t, "png", AssetScreenshot.Ext())
	assert.Equal(t, "webm", AssetVideo.Ext())
	assert.Equal(t, "zip", AssetTrace.Ext())
}
