// File: internal/runner/natural.go
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/conductor/api/schemas"
)

// planPrompt frames a natural-language instruction as a request for a JSON
// action sequence the executor can run directly.
const planPrompt = `Translate the following browser automation instruction into a JSON array of actions.

Supported actions:
  {"action": "navigate", "url": "<url>"}
  {"action": "click", "selector": "<css selector>"}
  {"action": "fill", "selector": "<css selector>", "text": "<value>"}
  {"action": "wait", "timeout": <milliseconds>}
  {"action": "checkpoint"}

Any action may carry "screenshot_after": true to capture the page afterwards.
Respond with ONLY the JSON array, no prose.

Instruction: %s`

var (
	fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\[.*?\\])\\s*```")
	bareArray  = regexp.MustCompile(`(?s)\[.*\]`)
)

// Plan asks the reasoning CLI to translate an instruction into an action
// sequence and parses the array out of its free-form output.
func (r *Runner) Plan(ctx context.Context, instruction string) ([]schemas.Action, error) {
	res, err := r.Reason(ctx, fmt.Sprintf(planPrompt, instruction))
	if err != nil {
		return nil, err
	}
	if res.ReturnCode != 0 {
		return nil, fmt.Errorf("reasoning CLI exited %d: %s", res.ReturnCode, strings.TrimSpace(res.Stderr))
	}

	actions, err := extractActions(res.Stdout)
	if err != nil {
		r.logger.Warn("Reasoning CLI produced unparseable output.",
			zap.String("instruction", instruction), zap.Error(err))
		return nil, err
	}
	return actions, nil
}

// extractActions pulls the first JSON array out of raw CLI output. Fenced
// code blocks win over a bare array so surrounding prose cannot shadow the
// intended payload.
func extractActions(output string) ([]schemas.Action, error) {
	var payload string
	if m := fencedJSON.FindStringSubmatch(output); m != nil {
		payload = m[1]
	} else if m := bareArray.FindString(output); m != "" {
		payload = m
	} else {
		return nil, fmt.Errorf("no JSON action array found in output")
	}

	var actions []schemas.Action
	if err := json.Unmarshal([]byte(payload), &actions); err != nil {
		return nil, fmt.Errorf("failed to parse action array: %w", err)
	}
	if len(actions) == 0 {
		return nil, fmt.Errorf("reasoning CLI produced an empty action array")
	}
	return actions, nil
}
