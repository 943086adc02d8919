// Package sqlite provides a SQLite-backed registry blob store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/roleplay-registry/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/roleplay-registry/internal/services/registry/storage"
	"github.com/louisbranch/roleplay-registry/internal/services/registry/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store persists collection documents in a SQLite table.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite registry store and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	dsn := "file:" + cleanPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(ctx, sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Get reads one collection document.
func (s *Store) Get(ctx context.Context, name string) (storage.Blob, error) {
	if err := ctx.Err(); err != nil {
		return storage.Blob{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Blob{}, fmt.Errorf("storage is not configured")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return storage.Blob{}, fmt.Errorf("collection name is required")
	}

	var (
		payload   string
		updatedAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT payload, updated_at FROM collections WHERE name = ?`,
		name,
	).Scan(&payload, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Blob{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Blob{}, fmt.Errorf("get collection %s: %w", name, err)
	}
	return storage.Blob{Name: name, Payload: []byte(payload), UpdatedAt: fromMillis(updatedAt)}, nil
}

// Put upserts one collection document.
func (s *Store) Put(ctx context.Context, blob storage.Blob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	name := strings.TrimSpace(blob.Name)
	if name == "" {
		return fmt.Errorf("collection name is required")
	}
	updatedAt := blob.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = s.now()
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO collections (name, payload, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
		   payload = excluded.payload,
		   updated_at = excluded.updated_at`,
		name,
		string(blob.Payload),
		toMillis(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("put collection %s: %w", name, err)
	}
	return nil
}

var _ storage.BlobStore = (*Store)(nil)
