// Package storage defines the persistence contract for registry collections.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a collection has never been written.
var ErrNotFound = errors.New("record not found")

// Blob is one persisted collection document.
type Blob struct {
	Name      string
	Payload   []byte
	UpdatedAt time.Time
}

// BlobStore persists whole collection documents by name. Put replaces any
// previous payload.
type BlobStore interface {
	Get(ctx context.Context, name string) (Blob, error)
	Put(ctx context.Context, blob Blob) error
	Close() error
}
