// File: internal/engine/playwright.go
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/conductor/api/schemas"
	"github.com/xkilldash9x/conductor/internal/config"
)

// PlaywrightEngine drives real browsers through the Playwright driver.
// Driver startup is deferred until the first launch.
type PlaywrightEngine struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	pw       *playwright.Playwright
	initOnce sync.Once
	initErr  error
}

// NewPlaywrightEngine creates the engine; the driver is not started yet.
func NewPlaywrightEngine(cfg config.BrowserConfig, logger *zap.Logger) *PlaywrightEngine {
	return &PlaywrightEngine{
		cfg:    cfg,
		logger: logger.Named("engine"),
	}
}

// initialize installs (optionally) and starts the Playwright driver once.
func (e *PlaywrightEngine) initialize() error {
	e.initOnce.Do(func() {
		if e.cfg.InstallOnStart {
			e.logger.Info("Verifying Playwright browser installation...")
			if err := playwright.Install(); err != nil {
				e.initErr = fmt.Errorf("failed to install playwright browsers: %w", err)
				return
			}
		}

		pw, err := playwright.Run()
		if err != nil {
			e.initErr = fmt.Errorf("failed to start playwright driver: %w", err)
			return
		}
		e.pw = pw
		e.logger.Info("Playwright driver started.")
	})
	return e.initErr
}

func (e *PlaywrightEngine) browserType(variant schemas.Variant) (playwright.BrowserType, error) {
	switch variant {
	case schemas.VariantChromium:
		return e.pw.Chromium, nil
	case schemas.VariantFirefox:
		return e.pw.Firefox, nil
	case schemas.VariantWebkit:
		return e.pw.WebKit, nil
	}
	return nil, fmt.Errorf("unsupported browser variant %q", variant)
}

// Launch starts an isolated browser process with one context and one page.
func (e *PlaywrightEngine) Launch(ctx context.Context, spec LaunchSpec) (Handle, error) {
	if err := e.initialize(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bt, err := e.browserType(spec.Variant)
	if err != nil {
		return nil, err
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(spec.Headless),
		Args:     e.cfg.Args,
	}
	if e.cfg.LaunchTimeout > 0 {
		launchOpts.Timeout = playwright.Float(float64(e.cfg.LaunchTimeout.Milliseconds()))
	}

	browser, err := bt.Launch(launchOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to launch %s: %w", spec.Variant, err)
	}

	ctxOpts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: spec.Viewport.Width, Height: spec.Viewport.Height},
	}
	if spec.VideoDir != "" {
		ctxOpts.RecordVideo = &playwright.RecordVideo{
			Dir:  spec.VideoDir,
			Size: &playwright.Size{Width: spec.Viewport.Width, Height: spec.Viewport.Height},
		}
	}

	browserCtx, err := browser.NewContext(ctxOpts)
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("failed to create browsing context: %w", err)
	}

	if spec.Tracing {
		err := browserCtx.Tracing().Start(playwright.TracingStartOptions{
			Screenshots: playwright.Bool(true),
			Snapshots:   playwright.Bool(true),
		})
		if err != nil {
			browserCtx.Close()
			browser.Close()
			return nil, fmt.Errorf("failed to start tracing: %w", err)
		}
	}

	page, err := browserCtx.NewPage()
	if err != nil {
		browserCtx.Close()
		browser.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	e.logger.Debug("Engine instance launched.",
		zap.String("variant", string(spec.Variant)),
		zap.Bool("headless", spec.Headless),
		zap.Bool("video", spec.VideoDir != ""))

	return &pwHandle{browser: browser, context: browserCtx, page: page}, nil
}

// Shutdown stops the Playwright driver.
func (e *PlaywrightEngine) Shutdown(ctx context.Context) error {
	if e.pw == nil {
		return nil
	}
	if err := e.pw.Stop(); err != nil {
		return fmt.Errorf("failed to stop playwright driver: %w", err)
	}
	e.logger.Info("Playwright driver stopped.")
	return nil
}

// pwHandle owns one browser process, context and page.
type pwHandle struct {
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page

	mu     sync.Mutex
	closed bool
}

func (h *pwHandle) Goto(ctx context.Context, url string, timeoutMs float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	opts := playwright.PageGotoOptions{}
	if timeoutMs > 0 {
		opts.Timeout = playwright.Float(timeoutMs)
	}
	if _, err := h.page.Goto(url, opts); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

func (h *pwHandle) Click(ctx context.Context, selector string, timeoutMs float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	opts := playwright.PageClickOptions{}
	if timeoutMs > 0 {
		opts.Timeout = playwright.Float(timeoutMs)
	}
	if err := h.page.Click(selector, opts); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	return nil
}

func (h *pwHandle) Fill(ctx context.Context, selector, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := h.page.Fill(selector, text); err != nil {
		return fmt.Errorf("fill failed: %w", err)
	}
	return nil
}

func (h *pwHandle) Screenshot(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := h.page.Screenshot(playwright.PageScreenshotOptions{
		Path: playwright.String(path),
	}); err != nil {
		return fmt.Errorf("screenshot failed: %w", err)
	}
	return nil
}

// WaitFor suspends for d, honoring caller cancellation.
func (h *pwHandle) WaitFor(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SaveVideo closes the page so the recording is flushed, then copies the
// finished video to path. Safe only during teardown.
func (h *pwHandle) SaveVideo(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	video := h.page.Video()
	if video == nil {
		return fmt.Errorf("no video was recorded for this page")
	}
	if err := h.page.Close(); err != nil {
		return fmt.Errorf("failed to close page for video finalization: %w", err)
	}
	if err := video.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save video: %w", err)
	}
	return nil
}

func (h *pwHandle) StopTracing(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := h.context.Tracing().Stop(path); err != nil {
		return fmt.Errorf("failed to stop tracing: %w", err)
	}
	return nil
}

func (h *pwHandle) Alive() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.closed && h.browser.IsConnected()
}

func (h *pwHandle) Close(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	// Page may already be closed by video finalization; continue cleanup
	// regardless of individual errors so no engine resource leaks.
	_ = h.page.Close()
	_ = h.context.Close()
	if err := h.browser.Close(); err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	return nil
}
