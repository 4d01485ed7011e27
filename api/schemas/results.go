// File: api/schemas/results.go
package schemas

import "time"

// RunStatus is the terminal state of a single sequence invocation.
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunPaused    RunStatus = "paused"
	RunError     RunStatus = "error"
)

// StepStatus is the outcome of one step within a run.
type StepStatus string

const (
	StepSuccess            StepStatus = "success"
	StepWaitingForAnalysis StepStatus = "waiting_for_analysis"
	StepError              StepStatus = "error"
)

// StepResult echoes one executed action. Only the fields relevant to the
// action's kind are populated.
type StepResult struct {
	Index          int        `json:"step"`
	Action         ActionKind `json:"action"`
	Status         StepStatus `json:"status"`
	URL            string     `json:"url,omitempty"`
	Selector       string     `json:"selector,omitempty"`
	Text           string     `json:"text,omitempty"`
	TimeoutMs      float64    `json:"timeout,omitempty"`
	ScreenshotPath string     `json:"screenshot_path,omitempty"`
	Message        string     `json:"message,omitempty"`
}

// SequenceResult is the envelope returned by every sequence invocation.
// Paused and error outcomes are ordinary results, not faults: partial
// progress must stay visible to the caller.
//
// When Status is RunPaused, Continuation holds the exact unexecuted suffix
// of the submitted action list; resubmitting it resumes the run.
type SequenceResult struct {
	Status                RunStatus    `json:"status"`
	SessionID             string       `json:"session_id"`
	Steps                 []StepResult `json:"completed_actions"`
	ActionsExecuted       int          `json:"actions_executed"`
	CurrentStep           int          `json:"current_step,omitempty"`
	ScreenshotForAnalysis string       `json:"screenshot_for_analysis,omitempty"`
	Continuation          []Action     `json:"next_actions,omitempty"`
	Error                 string       `json:"error,omitempty"`
	ErrorScreenshot       string       `json:"error_screenshot,omitempty"`
	Timestamp             time.Time    `json:"timestamp"`
}

// ExecResult is the outcome of one external command invocation via the
// execution proxy.
type ExecResult struct {
	Command    string    `json:"command"`
	ReturnCode int       `json:"return_code"`
	Stdout     string    `json:"stdout"`
	Stderr     string    `json:"stderr"`
	Timestamp  time.Time `json:"timestamp"`
}
