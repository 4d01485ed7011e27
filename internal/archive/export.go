// File: internal/archive/export.go
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/xkilldash9x/conductor/internal/session"
)

// Export streams the session's entire directory tree as a zip archive.
// Entry names are rooted at the session directory name, so an unpacked
// export recreates session_<id>/ with its metadata and assets.
func Export(root, id string, w io.Writer) error {
	dir := session.SessionDir(root, id)
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return session.ErrNotFound
		}
		return fmt.Errorf("failed to stat session directory: %w", err)
	}
	if !info.IsDir() {
		return session.ErrNotFound
	}

	zw := zip.NewWriter(w)
	base := filepath.Dir(dir)

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		entry, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(entry, f)
		return err
	})
	if err != nil {
		zw.Close()
		return fmt.Errorf("failed to package session %s: %w", id, err)
	}
	return zw.Close()
}
