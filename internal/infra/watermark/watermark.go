// Package watermark persists the indexer's last_indexed watermark to a
// single file, crash-safely: a naive open-write-close leaves a truncated or
// partially written file if the process dies mid-write, which would corrupt
// the next tick's starting point. Every write instead goes to a temp file in
// the same directory, fsynced, then atomically renamed over the real path.
package watermark

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Store reads and atomically persists a single time.Time watermark at path.
type Store struct {
	path string
}

// NewStore creates a Store backed by path. The file need not exist yet;
// Load returns the zero time in that case.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the persisted watermark, or the zero time if the file does not
// exist yet (first run).
func (s *Store) Load() (time.Time, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("reading watermark file: %w", err)
	}

	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return time.Time{}, nil
	}

	nanos, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing watermark file %s: %w", s.path, err)
	}
	return time.Unix(0, nanos).UTC(), nil
}

// Save atomically persists t: write to a temp file in the same directory,
// fsync, then rename over the target path. A crash at any point before the
// rename leaves the previous watermark intact.
func (s *Store) Save(t time.Time) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp watermark file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(strconv.FormatInt(t.UnixNano(), 10)); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing temp watermark file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("fsyncing temp watermark file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing temp watermark file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming watermark file into place: %w", err)
	}
	return nil
}
