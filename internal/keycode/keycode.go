// Package keycode implements the order-preserving byte codec used by
// internal/mvcc to interleave control records, versions, and user keys into
// one sorted keyspace: encode(a) < encode(b) in lexicographic byte order
// whenever a <_logical b, for every type this package supports.
//
// Unlike a general serde-style serializer, each encodable shape gets its own
// explicit method — there is no reflection and no self-describing tag for
// plain scalars, only for the tagged-variant discriminant that the MVCC
// layer's composite key needs. Callers that need a tuple just call several
// Encoder methods back to back; each encoding is already self-delimiting,
// so concatenation alone preserves ordering and round-trips losslessly.
package keycode

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ErrInvalidData is returned when a Decoder encounters input that cannot be
// a valid encoding of the requested type: truncated input or a malformed
// byte-string escape sequence.
type ErrInvalidData struct {
	Reason string
}

func (e *ErrInvalidData) Error() string {
	return fmt.Sprintf("keycode: invalid data: %s", e.Reason)
}

// Encoder accumulates an order-preserving byte encoding. Zero value is not
// usable; construct with NewEncoder.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an empty Encoder ready for chained writes.
func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 32)}
}

// Bytes returns the accumulated encoding so far.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Bool appends a one-byte boolean: 0x00 for false, 0x01 for true.
func (e *Encoder) Bool(v bool) *Encoder {
	if v {
		e.buf = append(e.buf, 0x01)
	} else {
		e.buf = append(e.buf, 0x00)
	}
	return e
}

// Uint8 appends a raw big-endian uint8.
func (e *Encoder) Uint8(v uint8) *Encoder {
	e.buf = append(e.buf, v)
	return e
}

// Uint16 appends a raw big-endian uint16.
func (e *Encoder) Uint16(v uint16) *Encoder {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	e.buf = append(e.buf, b[:]...)
	return e
}

// Uint32 appends a raw big-endian uint32.
func (e *Encoder) Uint32(v uint32) *Encoder {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	e.buf = append(e.buf, b[:]...)
	return e
}

// Uint64 appends a raw big-endian uint64.
func (e *Encoder) Uint64(v uint64) *Encoder {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	e.buf = append(e.buf, b[:]...)
	return e
}

// Int8 appends a big-endian int8 with its sign bit flipped, mapping the
// signed range onto a monotonic unsigned range.
func (e *Encoder) Int8(v int8) *Encoder {
	e.buf = append(e.buf, uint8(v)^0x80)
	return e
}

// Int16 appends a big-endian int16 with its sign bit flipped.
func (e *Encoder) Int16(v int16) *Encoder {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(v))
	b[0] ^= 0x80
	e.buf = append(e.buf, b[:]...)
	return e
}

// Int32 appends a big-endian int32 with its sign bit flipped.
func (e *Encoder) Int32(v int32) *Encoder {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	b[0] ^= 0x80
	e.buf = append(e.buf, b[:]...)
	return e
}

// Int64 appends a big-endian int64 with its sign bit flipped.
func (e *Encoder) Int64(v int64) *Encoder {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	b[0] ^= 0x80
	e.buf = append(e.buf, b[:]...)
	return e
}

// Float32 appends a big-endian float32 using the total-order transform:
// non-negative values get their sign bit set, negative values are fully
// bit-inverted. -0.0 is normalized to +0.0 first.
func (e *Encoder) Float32(v float32) *Encoder {
	if v == 0 {
		v = 0
	}
	bits := math.Float32bits(v)
	if bits>>31 == 0 {
		bits ^= 0x80000000
	} else {
		bits = ^bits
	}
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], bits)
	e.buf = append(e.buf, b[:]...)
	return e
}

// Float64 appends a big-endian float64 using the same total-order transform
// as Float32.
func (e *Encoder) Float64(v float64) *Encoder {
	if v == 0 {
		v = 0
	}
	bits := math.Float64bits(v)
	if bits>>63 == 0 {
		bits ^= 0x8000000000000000
	} else {
		bits = ^bits
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], bits)
	e.buf = append(e.buf, b[:]...)
	return e
}

// ByteString appends v with every 0x00 byte escaped to 0x00 0xFF, terminated
// by 0x00 0x00. This framing is self-delimiting and order-preserving: no
// encoded string is a prefix of another.
func (e *Encoder) ByteString(v []byte) *Encoder {
	for _, b := range v {
		if b == 0x00 {
			e.buf = append(e.buf, 0x00, 0xFF)
		} else {
			e.buf = append(e.buf, b)
		}
	}
	e.buf = append(e.buf, 0x00, 0x00)
	return e
}

// Tag appends a one-byte variant discriminant. Tag indices are a
// persistence contract: callers must assign them in declaration order and
// never renumber or reorder them across releases.
func (e *Encoder) Tag(index uint8) *Encoder {
	e.buf = append(e.buf, index)
	return e
}

// Decoder consumes an order-preserving encoding produced by Encoder. The
// caller must know the shape of the data in advance; there is no
// self-description.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder wraps data for sequential decoding.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{buf: data}
}

// Remaining returns the undecoded tail of the input.
func (d *Decoder) Remaining() []byte {
	return d.buf[d.pos:]
}

// Done reports whether every byte of the input has been consumed.
func (d *Decoder) Done() bool {
	return d.pos >= len(d.buf)
}

func (d *Decoder) take(n int) ([]byte, error) {
	if d.pos+n > len(d.buf) {
		return nil, &ErrInvalidData{Reason: "unexpected end of input"}
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

// Bool decodes a one-byte boolean.
func (d *Decoder) Bool() (bool, error) {
	b, err := d.take(1)
	if err != nil {
		return false, err
	}
	return b[0] == 0x01, nil
}

// Uint8 decodes a raw uint8.
func (d *Decoder) Uint8() (uint8, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Uint16 decodes a raw big-endian uint16.
func (d *Decoder) Uint16() (uint16, error) {
	b, err := d.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// Uint32 decodes a raw big-endian uint32.
func (d *Decoder) Uint32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// Uint64 decodes a raw big-endian uint64.
func (d *Decoder) Uint64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// Int8 decodes a sign-bit-flipped int8.
func (d *Decoder) Int8() (int8, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return int8(b[0] ^ 0x80), nil
}

// Int16 decodes a sign-bit-flipped int16.
func (d *Decoder) Int16() (int16, error) {
	b, err := d.take(2)
	if err != nil {
		return 0, err
	}
	var tmp [2]byte
	copy(tmp[:], b)
	tmp[0] ^= 0x80
	return int16(binary.BigEndian.Uint16(tmp[:])), nil
}

// Int32 decodes a sign-bit-flipped int32.
func (d *Decoder) Int32() (int32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	var tmp [4]byte
	copy(tmp[:], b)
	tmp[0] ^= 0x80
	return int32(binary.BigEndian.Uint32(tmp[:])), nil
}

// Int64 decodes a sign-bit-flipped int64.
func (d *Decoder) Int64() (int64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	var tmp [8]byte
	copy(tmp[:], b)
	tmp[0] ^= 0x80
	return int64(binary.BigEndian.Uint64(tmp[:])), nil
}

// Float32 decodes a total-order-transformed float32.
func (d *Decoder) Float32() (float32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	bits := binary.BigEndian.Uint32(b)
	if bits>>31 == 1 {
		bits ^= 0x80000000
	} else {
		bits = ^bits
	}
	return math.Float32frombits(bits), nil
}

// Float64 decodes a total-order-transformed float64.
func (d *Decoder) Float64() (float64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	bits := binary.BigEndian.Uint64(b)
	if bits>>63 == 1 {
		bits ^= 0x8000000000000000
	} else {
		bits = ^bits
	}
	return math.Float64frombits(bits), nil
}

// ByteString decodes an escaped, 0x00-0x00-terminated byte string.
func (d *Decoder) ByteString() ([]byte, error) {
	out := make([]byte, 0, 16)
	for {
		if d.pos >= len(d.buf) {
			return nil, &ErrInvalidData{Reason: "unterminated byte string"}
		}
		b := d.buf[d.pos]
		if b != 0x00 {
			out = append(out, b)
			d.pos++
			continue
		}
		// b == 0x00: peek at the next byte to disambiguate escape vs terminator.
		if d.pos+1 >= len(d.buf) {
			return nil, &ErrInvalidData{Reason: "unterminated byte string"}
		}
		next := d.buf[d.pos+1]
		switch next {
		case 0x00:
			d.pos += 2
			return out, nil
		case 0xFF:
			out = append(out, 0x00)
			d.pos += 2
		default:
			return nil, &ErrInvalidData{Reason: "malformed escape sequence in byte string"}
		}
	}
}

// Tag decodes a one-byte variant discriminant.
func (d *Decoder) Tag() (uint8, error) {
	return d.Uint8()
}
