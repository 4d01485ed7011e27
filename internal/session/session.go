// Package session owns the lifecycle of live browser sessions: creation,
// lookup, asset recording, and teardown. Every session mirrors its state to a
// metadata.json record inside its own directory tree, which outlives the
// process and is the source of truth for sweepers and offline tooling.
package session

import (
	"path/filepath"
	"sync"

	"github.com/xkilldash9x/conductor/api/schemas"
	"github.com/xkilldash9x/conductor/internal/engine"
)

// Session is one live browser session. All mutating operations must hold the
// op lock; concurrent sequences get ErrConflict rather than queueing, so a
// stuck sequence cannot silently stack work behind it. Close is the one
// exception: it preempts the in-flight operation and waits for the lock.
type Session struct {
	ID      string
	Dir     string
	Handle  engine.Handle
	Tracing bool

	mu   sync.Mutex // guards Meta
	Meta *schemas.Metadata

	op sync.Mutex // single-writer gate for sequences / close / export
}

// Acquire takes the single-writer operation lock, failing fast when another
// operation is in flight.
func (s *Session) Acquire() bool { return s.op.TryLock() }

// AcquireWait blocks until the operation lock is held. Close uses it to wait
// out a preempted in-flight operation; everything else fails fast via
// Acquire.
func (s *Session) AcquireWait() { s.op.Lock() }

// Release frees the operation lock.
func (s *Session) Release() { s.op.Unlock() }

// WithMeta runs fn while holding the metadata lock.
func (s *Session) WithMeta(fn func(meta *schemas.Metadata)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.Meta)
}

// Snapshot returns a deep copy of the session metadata.
func (s *Session) Snapshot() schemas.Metadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *s.Meta
	cp.Screenshots = append([]schemas.AssetEntry(nil), s.Meta.Screenshots...)
	cp.Videos = append([]schemas.AssetEntry(nil), s.Meta.Videos...)
	cp.Traces = append([]schemas.AssetEntry(nil), s.Meta.Traces...)
	return cp
}

// Info returns the list/status view of the session.
func (s *Session) Info() schemas.SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return schemas.SessionInfo{
		SessionID:    s.Meta.SessionID,
		CreatedAt:    s.Meta.CreatedAt,
		BrowserType:  s.Meta.BrowserType,
		Headless:     s.Meta.Headless,
		Viewport:     s.Meta.Viewport,
		RecordVideo:  s.Meta.RecordVideo,
		Status:       s.Meta.Status,
		TotalActions: s.Meta.TotalActions,
		LastActivity: s.Meta.LastActivity,
	}
}

// AssetDir returns the session subdirectory holding the given asset kind.
func (s *Session) AssetDir(kind schemas.AssetKind) string {
	return filepath.Join(s.Dir, string(kind))
}

// DirName returns the canonical directory name for a session id.
func DirName(id string) string { return "session_" + id }

// SessionDir returns the full path of a session directory under root.
func SessionDir(root, id string) string {
	return filepath.Join(root, "sessions", DirName(id))
}
