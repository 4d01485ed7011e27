// Package api exposes the session service over HTTP. Routing is explicit:
// fixed paths are registered before parameterized ones so "sweep" can never
// be mistaken for a session id.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/conductor/internal/archive"
	"github.com/xkilldash9x/conductor/internal/config"
	"github.com/xkilldash9x/conductor/internal/executor"
	"github.com/xkilldash9x/conductor/internal/runner"
	"github.com/xkilldash9x/conductor/internal/session"
)

// Server is the HTTP front of the service.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// Deps are the components the HTTP surface drives.
type Deps struct {
	Config   *config.Config
	Manager  *session.Manager
	Executor *executor.Executor
	Sweeper  *archive.Sweeper
	Runner   *runner.Runner
	Version  string
}

// NewServer builds the router and middleware chain.
func NewServer(deps Deps, logger *zap.Logger) *Server {
	h := &handlers{
		cfg:      deps.Config,
		manager:  deps.Manager,
		executor: deps.Executor,
		sweeper:  deps.Sweeper,
		runner:   deps.Runner,
		logger:   logger.Named("api"),
		version:  deps.Version,
	}

	r := newRouter(h, deps.Config)

	return &Server{
		httpServer: &http.Server{
			Addr:         deps.Config.Server.Addr,
			Handler:      r,
			ReadTimeout:  deps.Config.Server.ReadTimeout,
			WriteTimeout: deps.Config.Server.WriteTimeout,
		},
		logger: logger.Named("server"),
	}
}

// newRouter assembles the route table and middleware for the handlers.
func newRouter(h *handlers, cfg *config.Config) *mux.Router {
	r := mux.NewRouter()
	r.Use(loggingMiddleware(h.logger))
	if cfg.Server.RateLimit > 0 {
		limiter := rate.NewLimiter(rate.Limit(cfg.Server.RateLimit), cfg.Server.RateBurst)
		r.Use(rateLimitMiddleware(limiter))
	}

	r.HandleFunc("/healthz", h.handleHealthz).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/info", h.handleInfo).Methods(http.MethodGet)
	api.HandleFunc("/run", h.handleRun).Methods(http.MethodPost)
	api.HandleFunc("/execute", h.handleExecute).Methods(http.MethodPost)
	api.HandleFunc("/recordings", h.handleRecordings).Methods(http.MethodGet)

	api.HandleFunc("/sessions/sweep", h.handleSweep).Methods(http.MethodPost)
	api.HandleFunc("/sessions", h.handleCreateSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions", h.handleListSessions).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", h.handleGetSession).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", h.handleCloseSession).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{id}/sequence", h.handleSequence).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/screenshot", h.handleScreenshot).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/natural", h.handleNatural).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/assets", h.handleAssets).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}/assets/{kind}/{filename}", h.handleAssetFile).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}/export", h.handleExport).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}/purge", h.handlePurge).Methods(http.MethodDelete)

	return r
}

// Start begins serving. Blocks until the listener fails or Shutdown runs.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening.", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down.")
	return s.httpServer.Shutdown(ctx)
}
