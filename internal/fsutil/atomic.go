// Package fsutil holds small filesystem helpers shared by the JSON-backed
// stores: atomic writes and per-scope locking.
package fsutil

import (
	"os"
	"path/filepath"
)

// WriteFileAtomic writes data to path by first writing to a temp file in the
// same directory, then renaming over the destination. Rename is atomic on
// POSIX filesystems, so readers never observe a partially-written file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}


