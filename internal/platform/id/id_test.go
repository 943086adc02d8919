package id

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewIDRoundTripsToUUID(t *testing.T) {
	got, err := NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	if len(got) != 26 || got != strings.ToLower(got) {
		t.Fatalf("id = %q, want 26 lowercase characters", got)
	}
	raw, err := encoding.DecodeString(strings.ToUpper(got))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	u, err := uuid.FromBytes(raw)
	if err != nil {
		t.Fatalf("uuid from bytes: %v", err)
	}
	if u.Version() != 4 || u.Variant() != uuid.RFC4122 {
		t.Fatalf("uuid version = %d variant = %v", u.Version(), u.Variant())
	}
}

func TestNewIDIsUnique(t *testing.T) {
	seen := make(map[string]bool, 100)
	for range 100 {
		got, err := NewID()
		if err != nil {
			t.Fatalf("new id: %v", err)
		}
		if seen[got] {
			t.Fatalf("duplicate id %q", got)
		}
		seen[got] = true
	}
}
