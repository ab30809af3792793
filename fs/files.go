// Package fs provides file-based storage for scraped minutes: scoped
// JSON/text persistence, the URL-keyed fetch cache, and a local
// directory implementation of the object-storage capability.
package fs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gikai/minutes"
)

// Files persists JSON and text files under a base directory.
// All writes create missing directories; all reads report missing or
// corrupt files as errors with the cause logged, never as panics.
type Files struct {
	baseDir string
	logger  *slog.Logger
}

// NewFiles creates a Files scoped to baseDir.
// A nil logger defaults to slog.Default().
func NewFiles(baseDir string, logger *slog.Logger) *Files {
	if logger == nil {
		logger = slog.Default()
	}
	return &Files{baseDir: baseDir, logger: logger}
}

// BaseDir returns the base directory.
func (f *Files) BaseDir() string {
	return f.baseDir
}

// SaveJSON marshals v and writes it under the base directory, below the
// optional subdirectories. Returns the full path written.
func (f *Files) SaveJSON(v any, filename string, subdirs ...string) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", minutes.Errorf(minutes.EINVALID, "marshaling %q: %v", filename, err)
	}
	return f.write(data, filename, subdirs)
}

// SaveText writes text under the base directory, below the optional
// subdirectories. Returns the full path written.
func (f *Files) SaveText(text string, filename string, subdirs ...string) (string, error) {
	return f.write([]byte(text), filename, subdirs)
}

func (f *Files) write(data []byte, filename string, subdirs []string) (string, error) {
	dir := filepath.Join(append([]string{f.baseDir}, subdirs...)...)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", minutes.Errorf(minutes.ECACHE, "creating %q: %v", dir, err)
	}

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", minutes.Errorf(minutes.ECACHE, "writing %q: %v", path, err)
	}
	return path, nil
}

// LoadJSON reads the file at path and unmarshals it into v.
// Returns ENOTFOUND for a missing file and ECACHE for a corrupt one.
func (f *Files) LoadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return minutes.Errorf(minutes.ENOTFOUND, "file %q does not exist", path)
	} else if err != nil {
		f.logger.Warn("file read failed", "path", path, "err", err)
		return minutes.Errorf(minutes.ECACHE, "reading %q: %v", path, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		f.logger.Warn("file corrupt", "path", path, "err", err)
		return minutes.Errorf(minutes.ECACHE, "decoding %q: %v", path, err)
	}
	return nil
}

// LoadText reads the file at path as text.
// Returns ENOTFOUND for a missing file.
func (f *Files) LoadText(path string) (string, error) {
	data, err := f.LoadBytes(path)
	return string(data), err
}

// LoadBytes reads the file at path.
// Returns ENOTFOUND for a missing file.
func (f *Files) LoadBytes(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, minutes.Errorf(minutes.ENOTFOUND, "file %q does not exist", path)
	} else if err != nil {
		f.logger.Warn("file read failed", "path", path, "err", err)
		return nil, minutes.Errorf(minutes.ECACHE, "reading %q: %v", path, err)
	}
	return data, nil
}

// DateSubdirs returns the [year, month, day] path components for a
// date-partitioned layout. The zero time means today.
func (f *Files) DateSubdirs(t time.Time) []string {
	if t.IsZero() {
		t = time.Now()
	}
	return []string{
		fmt.Sprintf("%04d", t.Year()),
		fmt.Sprintf("%02d", int(t.Month())),
		fmt.Sprintf("%02d", t.Day()),
	}
}

// CleanupOlderThan removes files matching the glob pattern (relative to
// the base directory, ** not supported) whose modification time is more
// than the given number of days old. Returns the number removed.
func (f *Files) CleanupOlderThan(days int, pattern string) (int, error) {
	cutoff := time.Now().AddDate(0, 0, -days)

	matches, err := filepath.Glob(filepath.Join(f.baseDir, pattern))
	if err != nil {
		return 0, minutes.Errorf(minutes.EINVALID, "bad pattern %q: %v", pattern, err)
	}

	removed := 0
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			f.logger.Warn("cleanup remove failed", "path", path, "err", err)
			continue
		}
		removed++
	}
	return removed, nil
}

// GenerateFilename builds the canonical export file name for a session.
func (f *Files) GenerateFilename(councilID, scheduleID, ext string) string {
	return fmt.Sprintf("%s_%s.%s", councilID, scheduleID, ext)
}
