// File: internal/session/metadata.go
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xkilldash9x/conductor/api/schemas"
)

// MetadataFile is the name of the durable session record inside each
// session directory.
const MetadataFile = "metadata.json"

// nowStamp formats the current time the way metadata records timestamps.
func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// parseStamp parses a metadata timestamp, returning the zero time on failure.
func parseStamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// SaveMetadata writes meta to <dir>/metadata.json atomically enough for a
// single-writer session: a temp file in the same directory renamed over the
// old record, so readers never observe a torn write.
func SaveMetadata(dir string, meta *schemas.Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".metadata-*.json")
	if err != nil {
		return fmt.Errorf("failed to stage metadata: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to flush metadata: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(dir, MetadataFile)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to commit metadata: %w", err)
	}
	return nil
}

// LoadMetadata reads <dir>/metadata.json.
func LoadMetadata(dir string) (*schemas.Metadata, error) {
	data, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	var meta schemas.Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	return &meta, nil
}
