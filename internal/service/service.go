// Package service assembles the application components in dependency order
// and owns their shutdown. Commands construct a Components once and drive it;
// nothing below this package reaches for globals.
package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/xkilldash9x/conductor/internal/api"
	"github.com/xkilldash9x/conductor/internal/archive"
	"github.com/xkilldash9x/conductor/internal/config"
	"github.com/xkilldash9x/conductor/internal/engine"
	"github.com/xkilldash9x/conductor/internal/executor"
	"github.com/xkilldash9x/conductor/internal/runner"
	"github.com/xkilldash9x/conductor/internal/session"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Components is the wired application.
type Components struct {
	Config   *config.Config
	Engine   engine.Engine
	Manager  *session.Manager
	Executor *executor.Executor
	Sweeper  *archive.Sweeper
	Runner   *runner.Runner
	Server   *api.Server

	logger *zap.Logger
}

// New wires every component against the given configuration. The engine may
// be injected for tests; pass nil to use the real Playwright engine.
func New(cfg *config.Config, eng engine.Engine, logger *zap.Logger) *Components {
	if eng == nil {
		eng = engine.NewPlaywrightEngine(cfg.Browser, logger)
	}

	rec := session.NewRecorder(logger)
	mgr := session.NewManager(cfg.Sessions, cfg.Browser, cfg.Storage.Root, eng, rec, logger)
	exec := executor.New(cfg.Sessions, rec, logger)
	sw := archive.NewSweeper(cfg.Cleanup, mgr, logger)
	run := runner.New(cfg.Runner, logger)

	srv := api.NewServer(api.Deps{
		Config:   cfg,
		Manager:  mgr,
		Executor: exec,
		Sweeper:  sw,
		Runner:   run,
		Version:  Version,
	}, logger)

	return &Components{
		Config:   cfg,
		Engine:   eng,
		Manager:  mgr,
		Executor: exec,
		Sweeper:  sw,
		Runner:   run,
		Server:   srv,
		logger:   logger.Named("service"),
	}
}

// Shutdown tears the application down in reverse dependency order: stop
// accepting requests, close every live session, then stop the engine.
func (c *Components) Shutdown(ctx context.Context) {
	if err := c.Server.Shutdown(ctx); err != nil {
		c.logger.Warn("HTTP shutdown reported an error.", zap.Error(err))
	}
	c.Manager.CloseAll(ctx)
	if err := c.Engine.Shutdown(ctx); err != nil {
		c.logger.Warn("Engine shutdown reported an error.", zap.Error(err))
	}
	c.logger.Info("Service stopped.")
}
