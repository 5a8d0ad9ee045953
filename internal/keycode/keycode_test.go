package keycode

import (
	"bytes"
	"math"
	"sort"
	"testing"
)

func TestBoolRoundTripAndOrder(t *testing.T) {
	f := NewEncoder().Bool(false).Bytes()
	tr := NewEncoder().Bool(true).Bytes()
	if bytes.Compare(f, tr) >= 0 {
		t.Fatalf("expected false < true in encoded order")
	}

	got, err := NewDecoder(tr).Bool()
	if err != nil || got != true {
		t.Fatalf("round-trip failed: got=%v err=%v", got, err)
	}
}

func TestUint64Monotonic(t *testing.T) {
	values := []uint64{0, 1, 2, 255, 256, 1 << 32, math.MaxUint64}
	encoded := make([][]byte, len(values))
	for i, v := range values {
		encoded[i] = NewEncoder().Uint64(v).Bytes()
	}
	for i := 1; i < len(encoded); i++ {
		if bytes.Compare(encoded[i-1], encoded[i]) >= 0 {
			t.Fatalf("monotonicity violated at index %d: %v vs %v", i, values[i-1], values[i])
		}
		got, err := NewDecoder(encoded[i]).Uint64()
		if err != nil || got != values[i] {
			t.Fatalf("round-trip failed for %d: got=%d err=%v", values[i], got, err)
		}
	}
}

func TestInt64Monotonic(t *testing.T) {
	values := []int64{math.MinInt64, -1 << 40, -1, 0, 1, 1 << 40, math.MaxInt64}
	encoded := make([][]byte, len(values))
	for i, v := range values {
		encoded[i] = NewEncoder().Int64(v).Bytes()
	}
	for i := 1; i < len(encoded); i++ {
		if bytes.Compare(encoded[i-1], encoded[i]) >= 0 {
			t.Fatalf("monotonicity violated at index %d: %v vs %v", i, values[i-1], values[i])
		}
		got, err := NewDecoder(encoded[i]).Int64()
		if err != nil || got != values[i] {
			t.Fatalf("round-trip failed for %d: got=%d err=%v", values[i], got, err)
		}
	}
}

func TestInt8Int16Int32Widths(t *testing.T) {
	i8 := NewEncoder().Int8(-5).Bytes()
	if len(i8) != 1 {
		t.Fatalf("int8 encoding must be 1 byte, got %d", len(i8))
	}
	got8, err := NewDecoder(i8).Int8()
	if err != nil || got8 != -5 {
		t.Fatalf("int8 round-trip failed: got=%d err=%v", got8, err)
	}

	i16 := NewEncoder().Int16(-1234).Bytes()
	if len(i16) != 2 {
		t.Fatalf("int16 encoding must be 2 bytes, got %d", len(i16))
	}
	got16, err := NewDecoder(i16).Int16()
	if err != nil || got16 != -1234 {
		t.Fatalf("int16 round-trip failed: got=%d err=%v", got16, err)
	}

	i32 := NewEncoder().Int32(-123456).Bytes()
	if len(i32) != 4 {
		t.Fatalf("int32 encoding must be 4 bytes, got %d", len(i32))
	}
	got32, err := NewDecoder(i32).Int32()
	if err != nil || got32 != -123456 {
		t.Fatalf("int32 round-trip failed: got=%d err=%v", got32, err)
	}
}

func TestFloat64Monotonic(t *testing.T) {
	values := []float64{
		math.Inf(-1), -1e300, -1.5, -0.0, 0.0, 1e-300, 1.5, 1e300, math.Inf(1),
	}
	encoded := make([][]byte, len(values))
	for i, v := range values {
		encoded[i] = NewEncoder().Float64(v).Bytes()
	}
	for i := 1; i < len(encoded); i++ {
		if bytes.Compare(encoded[i-1], encoded[i]) > 0 {
			t.Fatalf("monotonicity violated at index %d: %v vs %v", i, values[i-1], values[i])
		}
	}

	// -0.0 and 0.0 must encode identically.
	negZero := NewEncoder().Float64(math.Copysign(0, -1)).Bytes()
	posZero := NewEncoder().Float64(0).Bytes()
	if !bytes.Equal(negZero, posZero) {
		t.Fatalf("expected -0.0 and 0.0 to encode identically")
	}

	got, err := NewDecoder(NewEncoder().Float64(1.5).Bytes()).Float64()
	if err != nil || got != 1.5 {
		t.Fatalf("round-trip failed: got=%v err=%v", got, err)
	}
}

func TestByteStringEscapingAndOrder(t *testing.T) {
	cases := [][]byte{
		{},
		{0x00},
		{0x00, 0x00},
		{0x01},
		{0xFF},
		[]byte("hello"),
		[]byte("hello\x00world"),
	}

	for _, c := range cases {
		enc := NewEncoder().ByteString(c).Bytes()
		got, err := NewDecoder(enc).ByteString()
		if err != nil {
			t.Fatalf("decode failed for %x: %v", c, err)
		}
		if !bytes.Equal(got, c) {
			t.Fatalf("round-trip mismatch: want %x got %x", c, got)
		}
	}

	a := NewEncoder().ByteString([]byte("abc")).Bytes()
	b := NewEncoder().ByteString([]byte("abd")).Bytes()
	if bytes.Compare(a, b) >= 0 {
		t.Fatalf("expected abc < abd in encoded order")
	}

	// Encoded order must match raw byte order, including for a string and
	// its own extension ("a" < "aa"), which the terminator guarantees.
	ordered := [][]byte{[]byte("a"), []byte("aa"), []byte("ab"), []byte("b")}
	sort.Slice(ordered, func(i, j int) bool { return bytes.Compare(ordered[i], ordered[j]) < 0 })
	var encodings [][]byte
	for _, s := range ordered {
		encodings = append(encodings, NewEncoder().ByteString(s).Bytes())
	}
	for i := 1; i < len(encodings); i++ {
		if bytes.Compare(encodings[i-1], encodings[i]) >= 0 {
			t.Fatalf("byte string ordering violated between %q and %q", ordered[i-1], ordered[i])
		}
	}
}

func TestTaggedVariantAndTuple(t *testing.T) {
	// Simulates a composite key: tag=4 (Version), key="foo", version=7.
	enc := NewEncoder().Tag(4).ByteString([]byte("foo")).Uint64(7).Bytes()

	dec := NewDecoder(enc)
	tag, err := dec.Tag()
	if err != nil || tag != 4 {
		t.Fatalf("tag decode failed: got=%d err=%v", tag, err)
	}
	key, err := dec.ByteString()
	if err != nil || string(key) != "foo" {
		t.Fatalf("key decode failed: got=%q err=%v", key, err)
	}
	version, err := dec.Uint64()
	if err != nil || version != 7 {
		t.Fatalf("version decode failed: got=%d err=%v", version, err)
	}
	if !dec.Done() {
		t.Fatalf("expected decoder to be fully consumed")
	}
}

func TestDecodeTruncatedInputErrors(t *testing.T) {
	if _, err := NewDecoder(nil).Uint64(); err == nil {
		t.Fatalf("expected error decoding from empty input")
	}
	if _, err := NewDecoder([]byte{0x00}).ByteString(); err == nil {
		t.Fatalf("expected error decoding unterminated byte string")
	}
}
