// Package executor runs action sequences against a live session page. A run
// is all-or-stop: actions execute strictly in order, a checkpoint pauses the
// run and hands the unexecuted suffix back to the caller, and any action
// failure halts the run with the partial progress preserved in the result.
package executor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/conductor/api/schemas"
	"github.com/xkilldash9x/conductor/internal/config"
	"github.com/xkilldash9x/conductor/internal/session"
)

// Executor drives sequences. It is stateless across runs; all progress lives
// in the result envelopes and the session's recorded assets.
type Executor struct {
	cfg      config.SessionsConfig
	recorder *session.Recorder
	logger   *zap.Logger
}

// New returns an Executor sharing the manager's recorder.
func New(cfg config.SessionsConfig, rec *session.Recorder, logger *zap.Logger) *Executor {
	return &Executor{cfg: cfg, recorder: rec, logger: logger.Named("executor")}
}

// defaultWait is how long a wait action sleeps when no timeout is given.
const defaultWait = 1000 * time.Millisecond

func (e *Executor) actionTimeout(a schemas.Action) float64 {
	if a.TimeoutMs > 0 {
		return a.TimeoutMs
	}
	return float64(e.cfg.DefaultActionTimeout.Milliseconds())
}

// Run executes actions against s. Paused and failed runs are ordinary
// results; the returned error is reserved for session-level faults such as a
// concurrent operation already holding the session.
func (e *Executor) Run(ctx context.Context, s *session.Session, actions []schemas.Action) (*schemas.SequenceResult, error) {
	if !s.Acquire() {
		return nil, session.ErrConflict
	}
	defer s.Release()

	// A dead engine on reuse is not retried; the caller must create a new
	// session.
	if !s.Handle.Alive() {
		return nil, fmt.Errorf("%w: session %s engine is no longer usable", session.ErrResourceExhausted, s.ID)
	}

	result := &schemas.SequenceResult{
		Status:    schemas.RunCompleted,
		SessionID: s.ID,
		Steps:     []schemas.StepResult{},
	}

	for i, action := range actions {
		step := schemas.StepResult{
			Index:     i,
			Action:    action.Kind,
			Status:    schemas.StepSuccess,
			URL:       action.URL,
			Selector:  action.Selector,
			Text:      action.Text,
			TimeoutMs: action.TimeoutMs,
		}

		if err := action.Validate(); err != nil {
			return e.failRun(ctx, s, result, step, i, err), nil
		}

		if action.Kind == schemas.ActionCheckpoint {
			return e.pauseRun(ctx, s, result, step, i, actions)
		}

		if err := e.apply(ctx, s, action); err != nil {
			return e.failRun(ctx, s, result, step, i, err), nil
		}

		if action.ScreenshotAfter {
			path, err := e.recorder.Screenshot(ctx, s,
				string(action.Kind), fmt.Sprintf("step_%d", i), action.URL)
			if err != nil {
				if pe, ok := err.(*session.PersistenceError); ok {
					return nil, pe
				}
				return e.failRun(ctx, s, result, step, i, err), nil
			}
			step.ScreenshotPath = path
		}

		result.Steps = append(result.Steps, step)
		result.ActionsExecuted++
	}

	if err := e.recorder.Touch(s); err != nil {
		return nil, err
	}
	result.Timestamp = time.Now().UTC()
	e.logger.Info("Sequence completed.",
		zap.String("session_id", s.ID),
		zap.Int("actions", result.ActionsExecuted))
	return result, nil
}

// apply performs one non-checkpoint action on the session page.
func (e *Executor) apply(ctx context.Context, s *session.Session, a schemas.Action) error {
	switch a.Kind {
	case schemas.ActionNavigate:
		return s.Handle.Goto(ctx, a.URL, e.actionTimeout(a))
	case schemas.ActionClick:
		return s.Handle.Click(ctx, a.Selector, e.actionTimeout(a))
	case schemas.ActionFill:
		return s.Handle.Fill(ctx, a.Selector, a.Text)
	case schemas.ActionWait:
		d := defaultWait
		if a.TimeoutMs > 0 {
			d = time.Duration(a.TimeoutMs) * time.Millisecond
		}
		return s.Handle.WaitFor(ctx, d)
	}
	return &schemas.UnknownActionError{Tag: string(a.Kind)}
}

// pauseRun captures the analysis screenshot and packages the unexecuted
// suffix so the caller can resume by resubmitting it verbatim.
func (e *Executor) pauseRun(ctx context.Context, s *session.Session, result *schemas.SequenceResult, step schemas.StepResult, i int, actions []schemas.Action) (*schemas.SequenceResult, error) {
	path, err := e.recorder.Screenshot(ctx, s,
		"checkpoint", fmt.Sprintf("analysis_%d", i), "")
	if err != nil {
		if pe, ok := err.(*session.PersistenceError); ok {
			return nil, pe
		}
		return e.failRun(ctx, s, result, step, i, err), nil
	}

	step.Status = schemas.StepWaitingForAnalysis
	step.ScreenshotPath = path
	result.Steps = append(result.Steps, step)
	result.ActionsExecuted++
	result.Status = schemas.RunPaused
	result.CurrentStep = i
	result.ScreenshotForAnalysis = path
	result.Continuation = append([]schemas.Action{}, actions[i+1:]...)
	result.Timestamp = time.Now().UTC()

	e.logger.Info("Sequence paused at checkpoint.",
		zap.String("session_id", s.ID),
		zap.Int("step", i),
		zap.Int("remaining", len(result.Continuation)))
	return result, nil
}

// failRun contains an action failure: a best-effort screenshot of the page
// at the moment of failure is recorded, and the run stops with everything
// executed so far intact.
func (e *Executor) failRun(ctx context.Context, s *session.Session, result *schemas.SequenceResult, step schemas.StepResult, i int, cause error) *schemas.SequenceResult {
	step.Status = schemas.StepError
	step.Message = cause.Error()
	result.Steps = append(result.Steps, step)
	result.Status = schemas.RunError
	result.CurrentStep = i
	result.Error = cause.Error()
	result.Timestamp = time.Now().UTC()

	path, shotErr := e.recorder.Screenshot(ctx, s,
		"error", fmt.Sprintf("step_%d", i), "")
	if shotErr != nil {
		e.logger.Warn("Failed to capture error screenshot.",
			zap.String("session_id", s.ID), zap.Error(shotErr))
	} else {
		result.ErrorScreenshot = path
	}

	e.logger.Warn("Sequence failed.",
		zap.String("session_id", s.ID),
		zap.Int("step", i),
		zap.Error(cause))
	return result
}
