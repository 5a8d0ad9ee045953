package record

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	rec := New(1700000000, []byte("hello"), []byte("world"))
	data, err := rec.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Tombstone {
		t.Fatalf("expected live record")
	}
	if string(got.Key) != "hello" || string(got.Value) != "world" {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
	if got.Timestamp != 1700000000 {
		t.Fatalf("timestamp mismatch: %d", got.Timestamp)
	}
}

func TestEncodeDecodeTombstone(t *testing.T) {
	rec := NewTombstone(1700000001, []byte("gone"))
	data, err := rec.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Tombstone {
		t.Fatalf("expected tombstone")
	}
	if got.Value != nil {
		t.Fatalf("tombstone should carry no value, got %v", got.Value)
	}
}

func TestEmptyKeyRejected(t *testing.T) {
	rec := New(0, nil, []byte("v"))
	if _, err := rec.Encode(); err == nil {
		t.Fatalf("expected error encoding empty key")
	}
}

func TestChecksumDetectsTamper(t *testing.T) {
	rec := New(1700000002, []byte("k"), []byte("v"))
	data, err := rec.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	// Flip every bit of the last byte, which lies in the value region.
	data[len(data)-1] ^= 0xFF

	if _, err := Decode(data); err == nil {
		t.Fatalf("expected checksum failure after tamper")
	}
}

func TestDecodeRejectsShortInput(t *testing.T) {
	if _, err := Decode([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected error on short input")
	}
}

func TestDecodeHeader(t *testing.T) {
	rec := New(42, []byte("abc"), []byte("defgh"))
	data, err := rec.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	ksz, vsz, tstamp, err := DecodeHeader(data[:HeaderSize])
	if err != nil {
		t.Fatalf("decode header: %v", err)
	}
	if ksz != 3 || vsz != 5 || tstamp != 42 {
		t.Fatalf("header mismatch: ksz=%d vsz=%d tstamp=%d", ksz, vsz, tstamp)
	}
}
