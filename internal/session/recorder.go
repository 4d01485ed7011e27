// File: internal/session/recorder.go
package session

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/conductor/api/schemas"
)

// Recorder names and records session assets. Filenames are sequential per
// kind and per session: the sequence number is derived from the persisted
// entry count, so a restarted process continues numbering where the previous
// one stopped.
type Recorder struct {
	logger *zap.Logger
}

// NewRecorder returns a Recorder logging through logger.
func NewRecorder(logger *zap.Logger) *Recorder {
	return &Recorder{logger: logger.Named("recorder")}
}

// AssetPlan is a reserved slot for an asset about to be produced: the file
// does not exist yet, but its name and sequence number are fixed.
type AssetPlan struct {
	Kind  schemas.AssetKind
	Entry schemas.AssetEntry
}

// sanitize makes a label safe for use inside a filename.
func sanitize(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "/", "_")
	return s
}

// Plan reserves the next filename for kind. Callers must hold the session's
// operation lock so concurrent plans cannot collide.
func (r *Recorder) Plan(s *Session, kind schemas.AssetKind, action, description, url string) AssetPlan {
	var seq int
	s.WithMeta(func(meta *schemas.Metadata) {
		seq = len(meta.Assets(kind)) + 1
	})

	filename := fmt.Sprintf("%03d_%s_%s.%s", seq, sanitize(action), sanitize(description), kind.Ext())
	return AssetPlan{
		Kind: kind,
		Entry: schemas.AssetEntry{
			Filename:    filename,
			Filepath:    filepath.Join(s.AssetDir(kind), filename),
			Action:      action,
			Description: description,
			URL:         url,
			Sequence:    seq,
			Timestamp:   nowStamp(),
		},
	}
}

// Commit appends the planned entry to the session record and persists it.
// Screenshots count as session activity and bump the action counter; videos
// and traces only refresh last-activity.
func (r *Recorder) Commit(s *Session, plan AssetPlan) error {
	s.WithMeta(func(meta *schemas.Metadata) {
		switch plan.Kind {
		case schemas.AssetVideo:
			meta.Videos = append(meta.Videos, plan.Entry)
		case schemas.AssetTrace:
			meta.Traces = append(meta.Traces, plan.Entry)
		default:
			meta.Screenshots = append(meta.Screenshots, plan.Entry)
			meta.TotalActions++
		}
		meta.LastActivity = nowStamp()
	})

	snap := s.Snapshot()
	if err := SaveMetadata(s.Dir, &snap); err != nil {
		return &PersistenceError{SessionID: s.ID, Op: "record " + string(plan.Kind), Err: err}
	}

	r.logger.Debug("Asset recorded.",
		zap.String("session_id", s.ID),
		zap.String("kind", string(plan.Kind)),
		zap.String("filename", plan.Entry.Filename))
	return nil
}

// Screenshot captures the page into the next sequential screenshot slot and
// records it. Returns the full path of the written file.
func (r *Recorder) Screenshot(ctx context.Context, s *Session, action, description, url string) (string, error) {
	plan := r.Plan(s, schemas.AssetScreenshot, action, description, url)
	if err := s.Handle.Screenshot(ctx, plan.Entry.Filepath); err != nil {
		return "", fmt.Errorf("failed to capture screenshot: %w", err)
	}
	if err := r.Commit(s, plan); err != nil {
		return "", err
	}
	return plan.Entry.Filepath, nil
}

// Touch refreshes the session's last-activity stamp and persists it.
func (r *Recorder) Touch(s *Session) error {
	s.WithMeta(func(meta *schemas.Metadata) {
		meta.LastActivity = nowStamp()
	})
	snap := s.Snapshot()
	if err := SaveMetadata(s.Dir, &snap); err != nil {
		return &PersistenceError{SessionID: s.ID, Op: "touch", Err: err}
	}
	return nil
}
