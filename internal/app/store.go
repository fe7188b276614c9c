package app

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dshills/numbertheorist/internal/snapshot"
)

// WriteSnapshot writes s to path, replacing the file atomically.
func WriteSnapshot(path string, s snapshot.Snapshot) error {
	data, err := snapshot.Marshal(s)
	if err != nil {
		return &OperationError{Op: "save", Target: path, Err: err}
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return &OperationError{Op: "save", Target: path, Err: err}
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &OperationError{Op: "save", Target: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &OperationError{Op: "save", Target: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return &OperationError{Op: "save", Target: path, Err: err}
	}
	return nil
}

// ReadSnapshot reads and decodes the snapshot at path, migrating legacy
// saves. It reports false, nil when the file does not exist.
func ReadSnapshot(path string) (snapshot.Snapshot, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return snapshot.Snapshot{}, false, nil
	}
	if err != nil {
		return snapshot.Snapshot{}, false, &OperationError{Op: "load", Target: path, Err: err}
	}

	s, err := snapshot.Unmarshal(data)
	if err != nil {
		return snapshot.Snapshot{}, true, &OperationError{Op: "load", Target: path, Err: err}
	}
	return s, true, nil
}
