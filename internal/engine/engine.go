// File: internal/engine/engine.go

// Package engine wraps the browser automation driver behind a narrow seam.
// The session layer owns exactly one Handle per session; tests substitute a
// fake implementation.
package engine

import (
	"context"
	"time"

	"github.com/xkilldash9x/conductor/api/schemas"
)

// LaunchSpec describes the engine instance a session needs.
type LaunchSpec struct {
	Variant  schemas.Variant
	Headless bool
	Viewport schemas.Viewport

	// VideoDir, when non-empty, enables context video recording into that
	// directory at viewport size.
	VideoDir string

	// Tracing starts context tracing at launch; the recording is written out
	// by StopTracing at close.
	Tracing bool
}

// Engine launches isolated browser instances.
type Engine interface {
	// Launch starts a dedicated browser process, one browsing context and one
	// page for a single session. The returned Handle is exclusively owned by
	// that session until Close.
	Launch(ctx context.Context, spec LaunchSpec) (Handle, error)

	// Shutdown stops the underlying driver. No Handle may be used afterwards.
	Shutdown(ctx context.Context) error
}

// Handle is the per-session browser resource: process, context and page.
// All page operations take millisecond timeouts, matching the wire contract.
type Handle interface {
	Goto(ctx context.Context, url string, timeoutMs float64) error
	Click(ctx context.Context, selector string, timeoutMs float64) error
	Fill(ctx context.Context, selector, text string) error
	Screenshot(ctx context.Context, path string) error
	WaitFor(ctx context.Context, d time.Duration) error

	// SaveVideo finalizes the context's video recording into path. It closes
	// the page to flush the recording, so it must only be called on the way
	// to Close.
	SaveVideo(ctx context.Context, path string) error

	// StopTracing stops context tracing and writes the trace archive to path.
	StopTracing(ctx context.Context, path string) error

	// Alive reports whether the underlying browser is still usable. A dead
	// engine on reuse is a resource failure, not an action failure.
	Alive() bool

	// Close releases the page, context and browser process. Idempotent.
	Close(ctx context.Context) error
}
