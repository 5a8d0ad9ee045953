package valuecode

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeBytesRoundTrip(t *testing.T) {
	v, rest, err := DecodeBytes(EncodeBytes([]byte("payload")))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(v, []byte("payload")) {
		t.Fatalf("mismatch: got %q", v)
	}
	if len(rest) != 0 {
		t.Fatalf("expected no trailing bytes, got %d", len(rest))
	}
}

func TestOptionalBytesSome(t *testing.T) {
	encoded := EncodeOptionalBytes([]byte("v1"), true)
	v, present, err := DecodeOptionalBytes(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !present {
		t.Fatalf("expected present=true")
	}
	if !bytes.Equal(v, []byte("v1")) {
		t.Fatalf("mismatch: got %q", v)
	}
}

func TestOptionalBytesNone(t *testing.T) {
	encoded := EncodeOptionalBytes(nil, false)
	v, present, err := DecodeOptionalBytes(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if present {
		t.Fatalf("expected present=false")
	}
	if v != nil {
		t.Fatalf("expected nil value for tombstone, got %q", v)
	}
}

func TestVersionSetRoundTrip(t *testing.T) {
	versions := []uint64{1, 3, 7, 42}
	got, err := DecodeVersionSet(EncodeVersionSet(versions))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != len(versions) {
		t.Fatalf("length mismatch: got %d want %d", len(got), len(versions))
	}
	for i := range versions {
		if got[i] != versions[i] {
			t.Fatalf("mismatch at %d: got %d want %d", i, got[i], versions[i])
		}
	}
}

func TestVersionSetEmpty(t *testing.T) {
	got, err := DecodeVersionSet(EncodeVersionSet(nil))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty set, got %v", got)
	}
}
