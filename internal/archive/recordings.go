// File: internal/archive/recordings.go
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/xkilldash9x/conductor/api/schemas"
)

// RecordingsReport lists every recorded asset file under the storage root,
// grouped by kind. Paths are relative to the sessions directory
// (session_<id>/<kind>/<file>) so files from different sessions never
// collide.
type RecordingsReport struct {
	Screenshots []string `json:"screenshots"`
	Videos      []string `json:"videos"`
	Traces      []string `json:"traces"`
	TotalFiles  int      `json:"total_files"`
}

// ListRecordings scans the live session trees on disk and reports their
// asset files. A missing sessions directory is an empty report, not an
// error.
func ListRecordings(root string) (*RecordingsReport, error) {
	report := &RecordingsReport{
		Screenshots: []string{},
		Videos:      []string{},
		Traces:      []string{},
	}

	sessionsDir := filepath.Join(root, "sessions")
	dirs, err := os.ReadDir(sessionsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return report, nil
		}
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		for _, kind := range []schemas.AssetKind{schemas.AssetScreenshot, schemas.AssetVideo, schemas.AssetTrace} {
			files, err := os.ReadDir(filepath.Join(sessionsDir, d.Name(), string(kind)))
			if err != nil {
				continue
			}
			for _, f := range files {
				if f.IsDir() {
					continue
				}
				rel := filepath.ToSlash(filepath.Join(d.Name(), string(kind), f.Name()))
				switch kind {
				case schemas.AssetScreenshot:
					report.Screenshots = append(report.Screenshots, rel)
				case schemas.AssetVideo:
					report.Videos = append(report.Videos, rel)
				case schemas.AssetTrace:
					report.Traces = append(report.Traces, rel)
				}
			}
		}
	}

	sort.Strings(report.Screenshots)
	sort.Strings(report.Videos)
	sort.Strings(report.Traces)
	report.TotalFiles = len(report.Screenshots) + len(report.Videos) + len(report.Traces)
	return report, nil
}
