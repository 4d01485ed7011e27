// Package runner proxies prompt execution to an external reasoning CLI. The
// service never interprets the prompt itself; it shells out, bounds the call
// with a deadline, and relays stdout/stderr and the exit code verbatim.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/conductor/api/schemas"
	"github.com/xkilldash9x/conductor/internal/config"
)

// ErrTimeout indicates the external command outlived its deadline and was
// killed.
var ErrTimeout = errors.New("command timed out")

// Runner executes external commands under a configured deadline.
type Runner struct {
	cfg    config.RunnerConfig
	logger *zap.Logger
}

// New returns a Runner for the configured reasoning binary.
func New(cfg config.RunnerConfig, logger *zap.Logger) *Runner {
	return &Runner{cfg: cfg, logger: logger.Named("runner")}
}

// Reason hands the prompt to the reasoning CLI in print mode and returns its
// full output.
func (r *Runner) Reason(ctx context.Context, prompt string) (*schemas.ExecResult, error) {
	return r.run(ctx, r.cfg.ReasoningBin, "-p", prompt)
}

// Exec runs a raw terminal command. The term is split on whitespace and
// executed directly as argv; no shell is ever involved.
func (r *Runner) Exec(ctx context.Context, term string) (*schemas.ExecResult, error) {
	argv := strings.Fields(term)
	if len(argv) == 0 {
		return nil, errors.New("empty terminal command")
	}
	return r.run(ctx, argv[0], argv[1:]...)
}

// run executes name with args, bounded by the configured timeout. A non-zero
// exit is an ordinary result, not an error; only spawn failures and deadline
// kills are errors.
func (r *Runner) run(ctx context.Context, name string, args ...string) (*schemas.ExecResult, error) {
	timeout := r.cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	if r.cfg.Workdir != "" {
		cmd.Dir = r.cfg.Workdir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	result := &schemas.ExecResult{
		Command:   strings.Join(append([]string{name}, args...), " "),
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		Timestamp: time.Now().UTC(),
	}

	if ctx.Err() == context.DeadlineExceeded {
		r.logger.Warn("External command timed out.",
			zap.String("bin", name), zap.Duration("after", elapsed))
		return nil, ErrTimeout
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ReturnCode = exitErr.ExitCode()
			r.logger.Debug("External command exited non-zero.",
				zap.String("bin", name), zap.Int("return_code", result.ReturnCode))
			return result, nil
		}
		return nil, fmt.Errorf("failed to execute %s: %w", name, err)
	}

	r.logger.Debug("External command completed.",
		zap.String("bin", name), zap.Duration("elapsed", elapsed))
	return result, nil
}
