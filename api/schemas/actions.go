// File: api/schemas/actions.go
package schemas

import (
	"encoding/json"
	"fmt"
)

// ActionKind enumerates the finite set of sequence actions the executor
// understands. The wire tag is the "action" field of each element.
type ActionKind string

const (
	ActionNavigate   ActionKind = "navigate"
	ActionClick      ActionKind = "click"
	ActionFill       ActionKind = "fill"
	ActionWait       ActionKind = "wait"
	ActionCheckpoint ActionKind = "checkpoint"
)

// knownActions is used for validation during unmarshaling.
var knownActions = map[ActionKind]struct{}{
	ActionNavigate:   {},
	ActionClick:      {},
	ActionFill:       {},
	ActionWait:       {},
	ActionCheckpoint: {},
}

// UnknownActionError is returned when an action carries a tag outside the
// supported set. It is surfaced as a typed step failure, never as a
// transport-level fault.
type UnknownActionError struct {
	Tag string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown action %q", e.Tag)
}

// Action is one element of an execution sequence. Kind selects the variant;
// the remaining fields are populated per kind:
//
//	navigate:   URL, TimeoutMs
//	click:      Selector, TimeoutMs
//	fill:       Selector, Text
//	wait:       TimeoutMs
//	checkpoint: (no parameters)
//
// ScreenshotAfter requests a post-action capture for any kind.
type Action struct {
	Kind            ActionKind `json:"action"`
	URL             string     `json:"url,omitempty"`
	Selector        string     `json:"selector,omitempty"`
	Text            string     `json:"text,omitempty"`
	TimeoutMs       float64    `json:"timeout,omitempty"`
	ScreenshotAfter bool       `json:"screenshot_after,omitempty"`
}

// UnmarshalJSON validates the tag while decoding so that a malformed
// sequence is rejected at the boundary instead of mid-run.
func (a *Action) UnmarshalJSON(data []byte) error {
	type alias Action
	var raw alias
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if _, ok := knownActions[raw.Kind]; !ok {
		return &UnknownActionError{Tag: string(raw.Kind)}
	}
	*a = Action(raw)
	return nil
}

// Validate checks the per-variant required fields. The executor calls this
// before touching the page so a half-specified action fails cleanly.
func (a Action) Validate() error {
	switch a.Kind {
	case ActionNavigate:
		if a.URL == "" {
			return fmt.Errorf("navigate action requires a url")
		}
	case ActionClick:
		if a.Selector == "" {
			return fmt.Errorf("click action requires a selector")
		}
	case ActionFill:
		if a.Selector == "" {
			return fmt.Errorf("fill action requires a selector")
		}
	case ActionWait, ActionCheckpoint:
		// No required fields.
	default:
		return &UnknownActionError{Tag: string(a.Kind)}
	}
	return nil
}
