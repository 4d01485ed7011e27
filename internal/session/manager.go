// File: internal/session/manager.go
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/xkilldash9x/conductor/api/schemas"
	"github.com/xkilldash9x/conductor/internal/config"
	"github.com/xkilldash9x/conductor/internal/engine"
)

// Manager creates, tracks and tears down browser sessions. It enforces the
// concurrent-session cap and guarantees that every session directory on disk
// either holds a complete, launched session or does not exist at all.
type Manager struct {
	cfg      config.SessionsConfig
	root     string
	engine   engine.Engine
	store    *Store
	recorder *Recorder
	sem      *semaphore.Weighted
	logger   *zap.Logger

	defaultVariant  schemas.Variant
	defaultHeadless bool
}

// NewManager wires a Manager over the given engine and storage root.
func NewManager(cfg config.SessionsConfig, browserCfg config.BrowserConfig, root string, eng engine.Engine, rec *Recorder, logger *zap.Logger) *Manager {
	variant := schemas.Variant(browserCfg.DefaultVariant)
	if !variant.Valid() {
		variant = schemas.VariantChromium
	}
	return &Manager{
		cfg:             cfg,
		root:            root,
		engine:          eng,
		store:           NewStore(),
		recorder:        rec,
		sem:             semaphore.NewWeighted(cfg.MaxConcurrent),
		logger:          logger.Named("sessions"),
		defaultVariant:  variant,
		defaultHeadless: true,
	}
}

// Root returns the storage root the manager operates under.
func (m *Manager) Root() string { return m.root }

// Recorder returns the asset recorder shared with executors.
func (m *Manager) Recorder() *Recorder { return m.recorder }

// newSessionID returns a short random session identifier.
func newSessionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Create launches a new browser session. Creation is all-or-nothing: when the
// engine fails to launch, the partially built session directory is removed
// and the slot is released.
func (m *Manager) Create(ctx context.Context, spec schemas.SessionSpec) (*Session, error) {
	if !m.sem.TryAcquire(1) {
		return nil, ErrResourceExhausted
	}

	variant := spec.Browser
	if variant == "" {
		variant = m.defaultVariant
	}
	if !variant.Valid() {
		m.sem.Release(1)
		return nil, fmt.Errorf("unsupported browser %q", spec.Browser)
	}

	headless := m.defaultHeadless
	if spec.Headless != nil {
		headless = *spec.Headless
	}
	viewport := schemas.Viewport{Width: spec.ViewportW, Height: spec.ViewportH}
	if viewport.Width <= 0 {
		viewport.Width = m.cfg.DefaultViewportW
	}
	if viewport.Height <= 0 {
		viewport.Height = m.cfg.DefaultViewportH
	}

	id := newSessionID()
	dir := SessionDir(m.root, id)
	for _, sub := range []schemas.AssetKind{schemas.AssetScreenshot, schemas.AssetVideo, schemas.AssetTrace} {
		if err := os.MkdirAll(filepath.Join(dir, string(sub)), 0o755); err != nil {
			m.sem.Release(1)
			return nil, &PersistenceError{SessionID: id, Op: "create directories", Err: err}
		}
	}

	now := nowStamp()
	meta := &schemas.Metadata{
		SessionID:    id,
		CreatedAt:    now,
		BrowserType:  variant,
		Headless:     headless,
		Viewport:     viewport,
		RecordVideo:  spec.RecordVideo,
		Status:       schemas.SessionActive,
		Screenshots:  []schemas.AssetEntry{},
		Videos:       []schemas.AssetEntry{},
		Traces:       []schemas.AssetEntry{},
		LastActivity: now,
		SessionDir:   dir,
	}
	if err := SaveMetadata(dir, meta); err != nil {
		os.RemoveAll(dir)
		m.sem.Release(1)
		return nil, &PersistenceError{SessionID: id, Op: "create", Err: err}
	}

	launch := engine.LaunchSpec{
		Variant:  variant,
		Headless: headless,
		Viewport: viewport,
		Tracing:  spec.EnableTracing,
	}
	if spec.RecordVideo {
		launch.VideoDir = filepath.Join(dir, string(schemas.AssetVideo))
	}

	handle, err := m.engine.Launch(ctx, launch)
	if err != nil {
		os.RemoveAll(dir)
		m.sem.Release(1)
		// An engine that cannot be launched is a capacity problem for the
		// caller, not a malformed request.
		return nil, fmt.Errorf("%w: launch for session %s failed: %v", ErrResourceExhausted, id, err)
	}

	sess := &Session{
		ID:      id,
		Dir:     dir,
		Handle:  handle,
		Tracing: spec.EnableTracing,
		Meta:    meta,
	}
	m.store.Put(sess)

	m.logger.Info("Session created.",
		zap.String("session_id", id),
		zap.String("browser", string(variant)),
		zap.Bool("headless", headless),
		zap.Bool("record_video", spec.RecordVideo),
		zap.Bool("tracing", spec.EnableTracing))
	return sess, nil
}

// Get returns the live session with the given id.
func (m *Manager) Get(id string) (*Session, error) {
	s := m.store.Get(id)
	if s == nil {
		return nil, ErrNotFound
	}
	return s, nil
}

// List returns the status view of every live session.
func (m *Manager) List() []schemas.SessionInfo {
	sessions := m.store.All()
	out := make([]schemas.SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Info())
	}
	return out
}

// MetadataFor returns session metadata, consulting disk when the session is
// no longer live. Closed sessions remain queryable until purged or archived.
func (m *Manager) MetadataFor(id string) (*schemas.Metadata, error) {
	if s := m.store.Get(id); s != nil {
		snap := s.Snapshot()
		return &snap, nil
	}
	meta, err := LoadMetadata(SessionDir(m.root, id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, &PersistenceError{SessionID: id, Op: "load", Err: err}
	}
	return meta, nil
}

// Assets returns the recorded entries of a kind for a session, live or not.
func (m *Manager) Assets(id string, kind schemas.AssetKind) ([]schemas.AssetEntry, error) {
	meta, err := m.MetadataFor(id)
	if err != nil {
		return nil, err
	}
	return meta.Assets(kind), nil
}

// Close finalizes and tears down a live session: the video recording and
// trace are flushed to their sequential asset slots, the metadata status
// flips to completed, and the engine resources are released. Close is a hard
// cancel: when an operation is in flight, the engine handle is torn down out
// from under it so the current action fails promptly, and the recording is
// lost with the engine.
func (m *Manager) Close(ctx context.Context, id string) (*schemas.Metadata, error) {
	s := m.store.Get(id)
	if s == nil {
		return nil, ErrNotFound
	}
	if !m.store.Remove(id) {
		// Lost the race with a concurrent close.
		return nil, ErrNotFound
	}
	defer m.sem.Release(1)

	finalize := s.Acquire()
	if !finalize {
		if err := s.Handle.Close(ctx); err != nil {
			m.logger.Warn("Preemptive engine teardown reported an error.",
				zap.String("session_id", id), zap.Error(err))
		}
		s.AcquireWait()
		m.logger.Warn("Session closed while an operation was in flight; recording discarded.",
			zap.String("session_id", id))
	}
	defer s.Release()

	var persistErr error

	if finalize {
		recordVideo := false
		s.WithMeta(func(meta *schemas.Metadata) { recordVideo = meta.RecordVideo })

		if recordVideo {
			plan := m.recorder.Plan(s, schemas.AssetVideo, "session", "recording", "")
			if err := s.Handle.SaveVideo(ctx, plan.Entry.Filepath); err != nil {
				m.logger.Warn("Failed to finalize session video.",
					zap.String("session_id", id), zap.Error(err))
			} else if err := m.recorder.Commit(s, plan); err != nil {
				persistErr = err
			}
		}

		if s.Tracing {
			plan := m.recorder.Plan(s, schemas.AssetTrace, "session", "trace", "")
			if err := s.Handle.StopTracing(ctx, plan.Entry.Filepath); err != nil {
				m.logger.Warn("Failed to finalize session trace.",
					zap.String("session_id", id), zap.Error(err))
			} else if err := m.recorder.Commit(s, plan); err != nil {
				persistErr = err
			}
		}
	}

	s.WithMeta(func(meta *schemas.Metadata) {
		meta.Status = schemas.SessionCompleted
		meta.LastActivity = nowStamp()
	})
	snap := s.Snapshot()
	if err := SaveMetadata(s.Dir, &snap); err != nil {
		persistErr = &PersistenceError{SessionID: id, Op: "close", Err: err}
	}

	if finalize {
		if err := s.Handle.Close(ctx); err != nil {
			m.logger.Warn("Engine teardown reported an error.",
				zap.String("session_id", id), zap.Error(err))
		}
	}

	m.logger.Info("Session closed.", zap.String("session_id", id))
	return &snap, persistErr
}

// Purge removes a session and its entire directory tree. A live session is
// closed first.
func (m *Manager) Purge(ctx context.Context, id string) error {
	if _, err := m.Close(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
		m.logger.Warn("Close before purge failed, removing directory anyway.",
			zap.String("session_id", id), zap.Error(err))
	}

	dir := SessionDir(m.root, id)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return ErrNotFound
	}
	if err := os.RemoveAll(dir); err != nil {
		return &PersistenceError{SessionID: id, Op: "purge", Err: err}
	}
	m.logger.Info("Session purged.", zap.String("session_id", id))
	return nil
}

// CloseAll tears down every live session. Used during shutdown.
func (m *Manager) CloseAll(ctx context.Context) {
	for _, s := range m.store.All() {
		if _, err := m.Close(ctx, s.ID); err != nil && !errors.Is(err, ErrNotFound) {
			m.logger.Warn("Failed to close session during shutdown.",
				zap.String("session_id", s.ID), zap.Error(err))
		}
	}
}
