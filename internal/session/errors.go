// File: internal/session/errors.go
package session

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the referenced session does not exist, either
	// in memory or on disk.
	ErrNotFound = errors.New("session not found")

	// ErrConflict indicates another operation currently holds the session.
	ErrConflict = errors.New("session is busy with another operation")

	// ErrResourceExhausted indicates the concurrent-session cap is reached.
	ErrResourceExhausted = errors.New("maximum concurrent sessions reached")
)

// PersistenceError wraps a failed metadata or asset write. The session stays
// usable; only the durable record is suspect.
type PersistenceError struct {
	SessionID string
	Op        string
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure for session %s during %s: %v", e.SessionID, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
