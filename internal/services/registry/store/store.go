// Package store materializes the registry collections from a blob store and
// keeps the last persisted snapshot of each in memory.
package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	apperrors "github.com/louisbranch/roleplay-registry/internal/platform/errors"
	"github.com/louisbranch/roleplay-registry/internal/services/registry/domain/entity"
	"github.com/louisbranch/roleplay-registry/internal/services/registry/storage"
)

// MalformedSuffix names the blob that keeps an unreadable payload aside.
const MalformedSuffix = "_malformed"

// Store owns the persisted representation of businesses, gangs, and contracts.
// Cached snapshots change only after a successful save or load.
type Store struct {
	blobs storage.BlobStore
	now   func() time.Time

	mu            sync.RWMutex
	registrations map[entity.Kind]entity.Collection[entity.Registration]
	contracts     entity.Collection[entity.Contract]
}

// Open loads every collection from blobs.
func Open(ctx context.Context, blobs storage.BlobStore) (*Store, error) {
	if blobs == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	s := &Store{
		blobs:         blobs,
		now:           time.Now,
		registrations: map[entity.Kind]entity.Collection[entity.Registration]{},
	}
	for _, kind := range []entity.Kind{entity.KindBusiness, entity.KindGang} {
		if _, err := s.LoadRegistrations(ctx, kind); err != nil {
			return nil, err
		}
	}
	if _, err := s.LoadContracts(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadRegistrations reads the business or gang collection from storage and
// refreshes the cache. A missing or malformed payload yields an empty
// collection; only read failures are returned.
func (s *Store) LoadRegistrations(ctx context.Context, kind entity.Kind) (entity.Collection[entity.Registration], error) {
	if !kind.Approvable() {
		return entity.Collection[entity.Registration]{}, fmt.Errorf("kind %q has no registrations", kind)
	}
	payload, err := s.read(ctx, kind)
	if err != nil {
		return entity.Collection[entity.Registration]{}, err
	}
	c, err := decodeRegistrations(kind, payload)
	if err != nil {
		s.setAside(ctx, kind, payload, err)
		c = entity.Collection[entity.Registration]{}
	}

	s.mu.Lock()
	s.registrations[kind] = c
	s.mu.Unlock()
	return c.Clone(), nil
}

// LoadContracts reads the contract collection from storage and refreshes the cache.
func (s *Store) LoadContracts(ctx context.Context) (entity.Collection[entity.Contract], error) {
	payload, err := s.read(ctx, entity.KindContract)
	if err != nil {
		return entity.Collection[entity.Contract]{}, err
	}
	c, dropped, err := decodeContracts(payload)
	if err != nil {
		s.setAside(ctx, entity.KindContract, payload, err)
		c = entity.Collection[entity.Contract]{}
	}
	if dropped > 0 {
		log.Printf("store: load contracts: dropped %d terminated records", dropped)
	}

	s.mu.Lock()
	s.contracts = c
	s.mu.Unlock()
	return c.Clone(), nil
}

// Registrations returns the cached business or gang collection.
func (s *Store) Registrations(kind entity.Kind) entity.Collection[entity.Registration] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registrations[kind].Clone()
}

// Contracts returns the cached contract collection.
func (s *Store) Contracts() entity.Collection[entity.Contract] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.contracts.Clone()
}

// SaveRegistrations overwrites the business or gang collection.
func (s *Store) SaveRegistrations(ctx context.Context, kind entity.Kind, c entity.Collection[entity.Registration]) error {
	payload, err := encodeRegistrations(kind, c)
	if err != nil {
		return persistenceError(kind, "encode", err)
	}
	if err := s.write(ctx, kind, payload); err != nil {
		return err
	}
	s.mu.Lock()
	s.registrations[kind] = c.Clone()
	s.mu.Unlock()
	return nil
}

// SaveContracts overwrites the contract collection.
func (s *Store) SaveContracts(ctx context.Context, c entity.Collection[entity.Contract]) error {
	payload, err := encodeContracts(c)
	if err != nil {
		return persistenceError(entity.KindContract, "encode", err)
	}
	if err := s.write(ctx, entity.KindContract, payload); err != nil {
		return err
	}
	s.mu.Lock()
	s.contracts = c.Clone()
	s.mu.Unlock()
	return nil
}

func (s *Store) read(ctx context.Context, kind entity.Kind) ([]byte, error) {
	blob, err := s.blobs.Get(ctx, kind.Collection())
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, persistenceError(kind, "load", err)
	}
	return blob.Payload, nil
}

func (s *Store) write(ctx context.Context, kind entity.Kind, payload []byte) error {
	err := s.blobs.Put(ctx, storage.Blob{
		Name:      kind.Collection(),
		Payload:   payload,
		UpdatedAt: s.now().UTC(),
	})
	if err != nil {
		return persistenceError(kind, "save", err)
	}
	return nil
}

// setAside keeps a malformed payload under a side name so the next save does
// not destroy the only copy.
func (s *Store) setAside(ctx context.Context, kind entity.Kind, payload []byte, cause error) {
	log.Printf("store: load %s: malformed payload, starting empty: %v", kind.Collection(), cause)
	name := kind.Collection() + MalformedSuffix
	if err := s.blobs.Put(ctx, storage.Blob{Name: name, Payload: payload, UpdatedAt: s.now().UTC()}); err != nil {
		log.Printf("store: keep %s: %v", name, err)
	}
}

func persistenceError(kind entity.Kind, op string, cause error) error {
	return apperrors.WrapWithMetadata(
		apperrors.CodePersistenceFailed,
		fmt.Sprintf("%s %s", op, kind.Collection()),
		map[string]string{"Kind": string(kind)},
		cause,
	)
}
