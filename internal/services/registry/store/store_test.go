package store

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	apperrors "github.com/louisbranch/roleplay-registry/internal/platform/errors"
	"github.com/louisbranch/roleplay-registry/internal/services/registry/domain/entity"
	"github.com/louisbranch/roleplay-registry/internal/services/registry/storage"
)

type fakeBlobStore struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	getErr  error
	putErr  error
	putSeen []string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: map[string][]byte{}}
}

func (f *fakeBlobStore) Get(_ context.Context, name string) (storage.Blob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return storage.Blob{}, f.getErr
	}
	payload, ok := f.blobs[name]
	if !ok {
		return storage.Blob{}, storage.ErrNotFound
	}
	return storage.Blob{Name: name, Payload: payload}, nil
}

func (f *fakeBlobStore) Put(_ context.Context, blob storage.Blob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putSeen = append(f.putSeen, blob.Name)
	if f.putErr != nil {
		return f.putErr
	}
	f.blobs[blob.Name] = append([]byte(nil), blob.Payload...)
	return nil
}

func (f *fakeBlobStore) Close() error { return nil }

func (f *fakeBlobStore) payload(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return string(f.blobs[name])
}

func openStore(t *testing.T, blobs *fakeBlobStore) *Store {
	t.Helper()
	s, err := Open(context.Background(), blobs)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	s.now = func() time.Time { return time.Date(2026, time.January, 2, 3, 4, 5, 0, time.UTC) }
	return s
}

func TestOpenEmptyStore(t *testing.T) {
	s := openStore(t, newFakeBlobStore())
	if got := s.Registrations(entity.KindBusiness).Len(); got != 0 {
		t.Fatalf("businesses = %d, want 0", got)
	}
	if got := s.Registrations(entity.KindGang).Len(); got != 0 {
		t.Fatalf("gangs = %d, want 0", got)
	}
	if got := s.Contracts().Len(); got != 0 {
		t.Fatalf("contracts = %d, want 0", got)
	}
}

func TestOpenRequiresBlobStore(t *testing.T) {
	if _, err := Open(context.Background(), nil); err == nil {
		t.Fatal("expected nil blob store to be rejected")
	}
}

func TestSaveWritesCanonicalWrappedForm(t *testing.T) {
	blobs := newFakeBlobStore()
	s := openStore(t, blobs)

	c := entity.Collection[entity.Registration]{
		Records: []entity.Registration{{ID: 1, Name: "Gun & Ammo", Holder: "U1", Status: entity.StatusPending}},
		LastID:  1,
	}
	if err := s.SaveRegistrations(context.Background(), entity.KindBusiness, c); err != nil {
		t.Fatalf("save: %v", err)
	}
	want := `{
  "businesses": [
    {
      "id": 1,
      "name": "Gun & Ammo",
      "owner": "U1",
      "status": "pending"
    }
  ],
  "last_id": 1
}`
	if got := blobs.payload("businesses"); got != want {
		t.Fatalf("payload =\n%s\nwant\n%s", got, want)
	}
}

func TestGangsPersistLeaderAndReason(t *testing.T) {
	blobs := newFakeBlobStore()
	s := openStore(t, blobs)

	c := entity.Collection[entity.Registration]{
		Records: []entity.Registration{{ID: 2, Name: "Ballas", Holder: "U9", Status: entity.StatusDenied, Reason: "too risky"}},
		LastID:  2,
	}
	if err := s.SaveRegistrations(context.Background(), entity.KindGang, c); err != nil {
		t.Fatalf("save: %v", err)
	}
	want := `{
  "gangs": [
    {
      "id": 2,
      "name": "Ballas",
      "leader": "U9",
      "status": "denied",
      "reason": "too risky"
    }
  ],
  "last_id": 2
}`
	if got := blobs.payload("gangs"); got != want {
		t.Fatalf("payload =\n%s\nwant\n%s", got, want)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	blobs := newFakeBlobStore()
	s := openStore(t, blobs)
	ctx := context.Background()

	businesses := entity.Collection[entity.Registration]{
		Records: []entity.Registration{
			{ID: 1, Name: "Gun Shop", Holder: "U1", Status: entity.StatusApproved},
			{ID: 3, Name: "Bakery", Holder: "U2", Status: entity.StatusDenied, Reason: "duplicate"},
		},
		LastID: 4,
	}
	contracts := entity.Collection[entity.Contract]{
		Records: []entity.Contract{{ID: 1, Business: "Gun Shop", Gang: "Ballas", Terms: "protection", Status: entity.StatusActive}},
		LastID:  1,
	}
	if err := s.SaveRegistrations(ctx, entity.KindBusiness, businesses); err != nil {
		t.Fatalf("save businesses: %v", err)
	}
	if err := s.SaveContracts(ctx, contracts); err != nil {
		t.Fatalf("save contracts: %v", err)
	}

	reopened := openStore(t, blobs)
	if got := reopened.Registrations(entity.KindBusiness); !reflect.DeepEqual(got, businesses) {
		t.Fatalf("businesses = %+v, want %+v", got, businesses)
	}
	if got := reopened.Contracts(); !reflect.DeepEqual(got, contracts) {
		t.Fatalf("contracts = %+v, want %+v", got, contracts)
	}

	before := blobs.payload("businesses")
	if err := reopened.SaveRegistrations(ctx, entity.KindBusiness, reopened.Registrations(entity.KindBusiness)); err != nil {
		t.Fatalf("resave: %v", err)
	}
	if after := blobs.payload("businesses"); after != before {
		t.Fatalf("save(load(x)) changed payload:\n%s\nwant\n%s", after, before)
	}
}

func TestLoadAcceptsLegacyShapes(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    entity.Collection[entity.Registration]
	}{
		{
			name:    "bare array",
			payload: `[{"id":1,"name":"Gun Shop","owner":"U1","status":"pending"}]`,
			want: entity.Collection[entity.Registration]{
				Records: []entity.Registration{{ID: 1, Name: "Gun Shop", Holder: "U1", Status: entity.StatusPending}},
			},
		},
		{
			name:    "wrapped without high water mark",
			payload: `{"businesses":[{"id":4,"name":"Bakery","owner":"U2","status":"approved","reason":"stale"}]}`,
			want: entity.Collection[entity.Registration]{
				Records: []entity.Registration{{ID: 4, Name: "Bakery", Holder: "U2", Status: entity.StatusApproved}},
			},
		},
		{
			name:    "wrapped with high water mark",
			payload: `{"businesses":[],"last_id":9}`,
			want:    entity.Collection[entity.Registration]{LastID: 9},
		},
		{
			name:    "wrapped without collection key",
			payload: `{}`,
			want:    entity.Collection[entity.Registration]{},
		},
		{
			name:    "empty file",
			payload: "  \n",
			want:    entity.Collection[entity.Registration]{},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			blobs := newFakeBlobStore()
			blobs.blobs["businesses"] = []byte(tc.payload)
			s := openStore(t, blobs)
			got := s.Registrations(entity.KindBusiness)
			if got.Len() != tc.want.Len() || got.LastID != tc.want.LastID {
				t.Fatalf("collection = %+v, want %+v", got, tc.want)
			}
			for i := range tc.want.Records {
				if got.Records[i] != tc.want.Records[i] {
					t.Fatalf("record %d = %+v, want %+v", i, got.Records[i], tc.want.Records[i])
				}
			}
		})
	}
}

func TestLoadAcceptsLegacyContractShapes(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantIDs []int
		nextID  int
	}{
		{
			name:    "terminated records are dropped",
			payload: `{"contracts":[{"id":1,"business":"A","gang":"B","terms":"x","status":"active"},{"id":2,"business":"C","gang":"D","terms":"y","status":"terminated"}]}`,
			wantIDs: []int{1},
			nextID:  3,
		},
		{
			name:    "bare array keeps dropped ids retired",
			payload: `[{"id":3,"business":"A","gang":"B","terms":"x","status":"terminated"},{"id":1,"business":"C","gang":"D","terms":"y","status":"active"}]`,
			wantIDs: []int{1},
			nextID:  4,
		},
		{
			name:    "only terminated records",
			payload: `{"contracts":[{"id":7,"business":"A","gang":"B","terms":"x","status":"terminated"}],"last_id":5}`,
			nextID:  8,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			blobs := newFakeBlobStore()
			blobs.blobs["contracts"] = []byte(tc.payload)
			s := openStore(t, blobs)
			got := s.Contracts()
			if got.Len() != len(tc.wantIDs) {
				t.Fatalf("contracts = %+v, want ids %v", got.Records, tc.wantIDs)
			}
			for i, id := range tc.wantIDs {
				if got.Records[i].ID != id || got.Records[i].Status != entity.StatusActive {
					t.Fatalf("record %d = %+v, want active id %d", i, got.Records[i], id)
				}
			}
			if next := got.NextID(); next != tc.nextID {
				t.Fatalf("NextID = %d, want %d", next, tc.nextID)
			}
		})
	}
}

func TestLegacyPayloadKeepsIDsRetiredAfterResave(t *testing.T) {
	blobs := newFakeBlobStore()
	blobs.blobs["contracts"] = []byte(`{"contracts":[{"id":1,"business":"A","gang":"B","terms":"x","status":"active"},{"id":5,"business":"C","gang":"D","terms":"y","status":"active"}]}`)
	s := openStore(t, blobs)

	c, _, ok := s.Contracts().Remove(5)
	if !ok {
		t.Fatal("expected contract 5")
	}
	if err := s.SaveContracts(context.Background(), c); err != nil {
		t.Fatalf("save: %v", err)
	}
	reopened := openStore(t, blobs)
	if got := reopened.Contracts().NextID(); got != 6 {
		t.Fatalf("NextID = %d, want 6", got)
	}
}

func TestMalformedPayloadLoadsEmptyAndIsKept(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "not json", payload: `{"businesses": [`},
		{name: "wrong record shape", payload: `{"businesses": [{"id": "one"}]}`},
		{name: "collection not array", payload: `{"businesses": {"id": 1}}`},
		{name: "scalar", payload: `42`},
		{name: "bad high water mark", payload: `{"businesses": [], "last_id": "x"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			blobs := newFakeBlobStore()
			blobs.blobs["businesses"] = []byte(tc.payload)
			s := openStore(t, blobs)
			if got := s.Registrations(entity.KindBusiness).Len(); got != 0 {
				t.Fatalf("businesses = %d, want 0", got)
			}
			if got := blobs.payload("businesses" + MalformedSuffix); got != tc.payload {
				t.Fatalf("kept payload = %q, want %q", got, tc.payload)
			}
		})
	}
}

func TestLoadFailureIsPersistenceError(t *testing.T) {
	blobs := newFakeBlobStore()
	blobs.getErr = errors.New("disk unreadable")
	_, err := Open(context.Background(), blobs)
	if apperrors.CodeOf(err) != apperrors.CodePersistenceFailed {
		t.Fatalf("err = %v, want persistence failure", err)
	}
	if !errors.Is(err, blobs.getErr) {
		t.Fatal("expected cause in chain")
	}
}

func TestSaveFailureKeepsCache(t *testing.T) {
	blobs := newFakeBlobStore()
	s := openStore(t, blobs)
	blobs.putErr = errors.New("disk full")

	c := entity.Collection[entity.Registration]{Records: []entity.Registration{{ID: 1, Name: "x", Holder: "u", Status: entity.StatusPending}}}
	err := s.SaveRegistrations(context.Background(), entity.KindGang, c)
	if apperrors.CodeOf(err) != apperrors.CodePersistenceFailed {
		t.Fatalf("err = %v, want persistence failure", err)
	}
	domainErr, _ := apperrors.As(err)
	if domainErr.Metadata["Kind"] != "gang" {
		t.Fatalf("kind metadata = %q, want gang", domainErr.Metadata["Kind"])
	}
	if got := s.Registrations(entity.KindGang).Len(); got != 0 {
		t.Fatalf("gangs = %d, want cache untouched", got)
	}
}

func TestSnapshotsDoNotAliasCache(t *testing.T) {
	blobs := newFakeBlobStore()
	s := openStore(t, blobs)
	c := entity.Collection[entity.Registration]{Records: []entity.Registration{{ID: 1, Name: "x", Holder: "u", Status: entity.StatusPending}}, LastID: 1}
	if err := s.SaveRegistrations(context.Background(), entity.KindBusiness, c); err != nil {
		t.Fatalf("save: %v", err)
	}
	snapshot := s.Registrations(entity.KindBusiness)
	snapshot.Records[0].Name = "mutated"
	c.Records[0].Name = "mutated too"
	if got := s.Registrations(entity.KindBusiness).Records[0].Name; got != "x" {
		t.Fatalf("cached name = %q, want x", got)
	}
}

func TestLoadRegistrationsRejectsContracts(t *testing.T) {
	s := openStore(t, newFakeBlobStore())
	if _, err := s.LoadRegistrations(context.Background(), entity.KindContract); err == nil {
		t.Fatal("expected contract kind to be rejected")
	}
}
