// Package store writes extracted payloads to timestamp-named files.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TimestampLayout names persisted files with second resolution. Two payloads saved
// within the same second share a name; the later one wins.
const TimestampLayout = "2006-01-02-15-04-05"

// FileStore 将数据以时间戳命名保存到固定目录中
type FileStore struct {
	dir string
	now func() time.Time
}

// NewFileStore 创建一个新的 FileStore 实例。
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir, now: time.Now}
}

// WithClock replaces the time source, mainly for tests.
func (s *FileStore) WithClock(now func() time.Time) *FileStore {
	s.now = now
	return s
}

// Dir returns the output directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// EnsureDir creates the output directory if it is absent. created reports whether
// this call made it.
func (s *FileStore) EnsureDir() (created bool, err error) {
	info, err := os.Stat(s.dir)
	if err == nil {
		if !info.IsDir() {
			return false, fmt.Errorf("output path %s is not a directory", s.dir)
		}
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, err
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return false, fmt.Errorf("failed to create output directory: %w", err)
	}
	return true, nil
}

// FileName returns the name a payload saved at t gets.
func FileName(t time.Time, ext string) string {
	return t.Format(TimestampLayout) + ext
}

// Save writes data to <dir>/<timestamp><ext> and returns the path. The data goes to
// a temporary file first and is renamed into place.
func (s *FileStore) Save(ext string, data []byte) (string, error) {
	path := filepath.Join(s.dir, FileName(s.now(), ext))

	tmp, err := os.CreateTemp(s.dir, ".incoming-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return "", err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return path, nil
}
