// Package enginetest provides an in-memory engine implementation for tests.
package enginetest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/xkilldash9x/conductor/internal/engine"
)

// FakeEngine records launches and hands out FakeHandle instances. It never
// touches a real browser; screenshot/video/trace calls write stub files so
// callers can exercise the on-disk layout.
type FakeEngine struct {
	mu       sync.Mutex
	handles  []*FakeHandle
	launches []engine.LaunchSpec

	// LaunchErr, when set, is returned by every Launch call.
	LaunchErr error
	shutdown  bool
}

// NewFakeEngine returns an engine that launches FakeHandles.
func NewFakeEngine() *FakeEngine {
	return &FakeEngine{}
}

func (e *FakeEngine) Launch(ctx context.Context, spec engine.LaunchSpec) (engine.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.LaunchErr != nil {
		return nil, e.LaunchErr
	}
	e.launches = append(e.launches, spec)
	h := &FakeHandle{spec: spec, alive: true}
	e.handles = append(e.handles, h)
	return h, nil
}

func (e *FakeEngine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.shutdown = true
	return nil
}

// Launches returns a copy of every LaunchSpec seen so far.
func (e *FakeEngine) Launches() []engine.LaunchSpec {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]engine.LaunchSpec, len(e.launches))
	copy(out, e.launches)
	return out
}

// Handles returns every handle launched so far.
func (e *FakeEngine) Handles() []*FakeHandle {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*FakeHandle, len(e.handles))
	copy(out, e.handles)
	return out
}

// WasShutdown reports whether Shutdown has been called.
func (e *FakeEngine) WasShutdown() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shutdown
}

// FakeHandle is a scripted page handle. Per-method error fields let tests
// inject failures; Calls records every operation in order.
type FakeHandle struct {
	mu    sync.Mutex
	spec  engine.LaunchSpec
	alive bool

	// Calls lists operations as "goto:<url>", "click:<sel>", "fill:<sel>",
	// "screenshot:<path>", "wait:<dur>", "savevideo:<path>", "trace:<path>".
	Calls []string

	GotoErr       error
	ClickErr      error
	FillErr       error
	ScreenshotErr error
	VideoErr      error
	TraceErr      error

	// FailClickOn, when non-empty, fails only clicks on that selector.
	FailClickOn string
}

func (h *FakeHandle) record(call string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Calls = append(h.Calls, call)
}

// CallLog returns a copy of the recorded operations.
func (h *FakeHandle) CallLog() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.Calls))
	copy(out, h.Calls)
	return out
}

// Spec returns the LaunchSpec this handle was created with.
func (h *FakeHandle) Spec() engine.LaunchSpec { return h.spec }

func (h *FakeHandle) Goto(ctx context.Context, url string, timeoutMs float64) error {
	h.record("goto:" + url)
	return h.GotoErr
}

func (h *FakeHandle) Click(ctx context.Context, selector string, timeoutMs float64) error {
	h.record("click:" + selector)
	if h.FailClickOn != "" && selector == h.FailClickOn {
		return errors.New("element not found: " + selector)
	}
	return h.ClickErr
}

func (h *FakeHandle) Fill(ctx context.Context, selector, text string) error {
	h.record("fill:" + selector)
	return h.FillErr
}

func (h *FakeHandle) Screenshot(ctx context.Context, path string) error {
	h.record("screenshot:" + path)
	if h.ScreenshotErr != nil {
		return h.ScreenshotErr
	}
	return os.WriteFile(path, []byte("png-stub"), 0o644)
}

func (h *FakeHandle) WaitFor(ctx context.Context, d time.Duration) error {
	h.record(fmt.Sprintf("wait:%s", d))
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func (h *FakeHandle) SaveVideo(ctx context.Context, path string) error {
	h.record("savevideo:" + path)
	if h.VideoErr != nil {
		return h.VideoErr
	}
	return os.WriteFile(path, []byte("webm-stub"), 0o644)
}

func (h *FakeHandle) StopTracing(ctx context.Context, path string) error {
	h.record("trace:" + path)
	if h.TraceErr != nil {
		return h.TraceErr
	}
	return os.WriteFile(path, []byte("zip-stub"), 0o644)
}

func (h *FakeHandle) Alive() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.alive
}

func (h *FakeHandle) Close(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.alive = false
	return nil
}
