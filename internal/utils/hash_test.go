package utils

import (
	"encoding/hex"
	"testing"
)

func TestSnapshotDigest_DeterministicAndContentSensitive(t *testing.T) {
	a := SnapshotDigest([]byte(`{"id":"i1","address":"12 Harbour Rd"}`))
	b := SnapshotDigest([]byte(`{"id":"i1","address":"12 Harbour Rd"}`))
	c := SnapshotDigest([]byte(`{"id":"i1","address":"14 Harbour Rd"}`))

	if a != b {
		t.Errorf("equal payloads produced different digests: %q vs %q", a, b)
	}
	if a == c {
		t.Error("different payloads produced the same digest")
	}

	raw, err := hex.DecodeString(a)
	if err != nil {
		t.Fatalf("digest is not hex: %v", err)
	}
	if len(raw) != 32 {
		t.Errorf("expected a 256-bit digest, got %d bytes", len(raw))
	}
}

func TestSignBody_KeyDependent(t *testing.T) {
	body := []byte(`{"entity_type":"photo"}`)

	if SignBody(body, "key-1") != SignBody(body, "key-1") {
		t.Error("same key and body produced different signatures")
	}
	if SignBody(body, "key-1") == SignBody(body, "key-2") {
		t.Error("different keys produced the same signature")
	}
}

func TestUUIDGenerator_UniqueAndOrdered(t *testing.T) {
	g := NewUUIDGenerator()

	seen := make(map[string]struct{}, 100)
	prev := ""
	for i := 0; i < 100; i++ {
		id := g.Generate()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate identifier %q", id)
		}
		seen[id] = struct{}{}
		if len(id) != 36 {
			t.Fatalf("unexpected identifier format %q", id)
		}
		if prev != "" && id < prev {
			// UUIDv7 identifiers generated in sequence sort ascending.
			t.Fatalf("identifiers not time-ordered: %q before %q", prev, id)
		}
		prev = id
	}
}
