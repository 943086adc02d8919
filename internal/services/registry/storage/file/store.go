// Package file provides a flat-file blob store: one JSON document per
// collection under a data directory.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/louisbranch/roleplay-registry/internal/services/registry/storage"
)

var namePattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// Store persists collection documents as <dir>/<name>.json.
type Store struct {
	dir string
}

// Open prepares dir for use, creating it when missing.
func Open(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("data dir is required")
	}
	cleanDir := filepath.Clean(dir)
	if err := os.MkdirAll(cleanDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{dir: cleanDir}, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string {
	return s.dir
}

// Close is a no-op; files are closed after each call.
func (s *Store) Close() error {
	return nil
}

// Get reads one collection document.
func (s *Store) Get(ctx context.Context, name string) (storage.Blob, error) {
	if err := ctx.Err(); err != nil {
		return storage.Blob{}, err
	}
	path, err := s.path(name)
	if err != nil {
		return storage.Blob{}, err
	}
	payload, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return storage.Blob{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Blob{}, fmt.Errorf("read %s: %w", name, err)
	}
	var updatedAt time.Time
	if info, err := os.Stat(path); err == nil {
		updatedAt = info.ModTime().UTC()
	}
	return storage.Blob{Name: name, Payload: payload, UpdatedAt: updatedAt}, nil
}

// Put replaces one collection document. The payload is written to a temp
// file in the same directory and renamed over the target.
func (s *Store) Put(ctx context.Context, blob storage.Blob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(blob.Name)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, "."+blob.Name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", blob.Name, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(blob.Payload); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", blob.Name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync %s: %w", blob.Name, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close %s: %w", blob.Name, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("chmod %s: %w", blob.Name, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("replace %s: %w", blob.Name, err)
	}
	return nil
}

func (s *Store) path(name string) (string, error) {
	if s == nil || s.dir == "" {
		return "", fmt.Errorf("storage is not configured")
	}
	if !namePattern.MatchString(name) {
		return "", fmt.Errorf("invalid collection name %q", name)
	}
	return filepath.Join(s.dir, name+".json"), nil
}

var _ storage.BlobStore = (*Store)(nil)
