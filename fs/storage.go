package fs

import (
	"context"
	"os"
	"path/filepath"

	"github.com/gikai/minutes"
)

// Ensure DirStorage implements minutes.ObjectStorage at compile time.
var _ minutes.ObjectStorage = (*DirStorage)(nil)

// DirStorage implements the object-storage capability against a local
// directory. It stands in for a cloud bucket in development and tests;
// the returned URL uses the file scheme.
type DirStorage struct {
	dir string
}

// NewDirStorage creates a DirStorage rooted at dir.
func NewDirStorage(dir string) *DirStorage {
	return &DirStorage{dir: dir}
}

// Upload writes content under the storage directory at the given path.
// The content type is accepted for interface compatibility; the local
// filesystem has nowhere to record it.
func (s *DirStorage) Upload(_ context.Context, content []byte, path, _ string) (string, error) {
	full := filepath.Join(s.dir, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", minutes.Errorf(minutes.EUPLOAD, "creating %q: %v", filepath.Dir(full), err)
	}
	if err := os.WriteFile(full, content, 0o644); err != nil {
		return "", minutes.Errorf(minutes.EUPLOAD, "writing %q: %v", full, err)
	}
	return "file://" + full, nil
}
