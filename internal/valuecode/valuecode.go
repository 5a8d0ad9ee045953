// Package valuecode implements length-prefixed binary framing for the
// values the MVCC layer stores: opaque payload bytes, the optional-value
// wrapper at a Version(k,v) record (Some/None), and the persisted active-set
// snapshot written at transaction begin. None of this needs to preserve
// byte order — only internal/keycode's composite keys do — so it stays on
// plain length-prefixed encoding/binary framing, the same idiom
// MetaStore's KeyValueCodec uses for its own MVCC value type.
package valuecode

import (
	"encoding/binary"
	"fmt"
)

// ErrInvalidData is returned when a buffer is too short for the length
// prefix it claims to have.
type ErrInvalidData struct {
	Reason string
}

func (e *ErrInvalidData) Error() string {
	return fmt.Sprintf("valuecode: invalid data: %s", e.Reason)
}

// EncodeBytes frames v as a 4-byte big-endian length prefix followed by v
// itself.
func EncodeBytes(v []byte) []byte {
	out := make([]byte, 4+len(v))
	binary.BigEndian.PutUint32(out[0:4], uint32(len(v)))
	copy(out[4:], v)
	return out
}

// DecodeBytes reads one length-prefixed byte slice from the front of data,
// returning the value and whatever bytes remain after it.
func DecodeBytes(data []byte) (value []byte, rest []byte, err error) {
	if len(data) < 4 {
		return nil, nil, &ErrInvalidData{Reason: "buffer shorter than length prefix"}
	}
	n := binary.BigEndian.Uint32(data[0:4])
	if uint64(len(data)-4) < uint64(n) {
		return nil, nil, &ErrInvalidData{Reason: "buffer shorter than declared length"}
	}
	value = make([]byte, n)
	copy(value, data[4:4+n])
	return value, data[4+n:], nil
}

// EncodeOptionalBytes frames the Option<[]byte> wrapper used at
// Version(k,v): one presence byte (0x00 = None/tombstone, 0x01 = Some),
// followed by a length-prefixed payload when present.
func EncodeOptionalBytes(value []byte, present bool) []byte {
	if !present {
		return []byte{0x00}
	}
	framed := EncodeBytes(value)
	out := make([]byte, 1+len(framed))
	out[0] = 0x01
	copy(out[1:], framed)
	return out
}

// DecodeOptionalBytes decodes the Option<[]byte> wrapper produced by
// EncodeOptionalBytes.
func DecodeOptionalBytes(data []byte) (value []byte, present bool, err error) {
	if len(data) < 1 {
		return nil, false, &ErrInvalidData{Reason: "empty optional-value buffer"}
	}
	switch data[0] {
	case 0x00:
		return nil, false, nil
	case 0x01:
		v, _, err := DecodeBytes(data[1:])
		if err != nil {
			return nil, false, err
		}
		return v, true, nil
	default:
		return nil, false, &ErrInvalidData{Reason: "invalid presence byte"}
	}
}

// EncodeVersionSet frames a set of in-flight transaction versions (the
// Snapshot(v) payload) as a 4-byte count followed by 8-byte big-endian
// version numbers. Order is not significant to decoding; callers that want
// a stable on-disk encoding should pass a sorted slice.
func EncodeVersionSet(versions []uint64) []byte {
	out := make([]byte, 4+8*len(versions))
	binary.BigEndian.PutUint32(out[0:4], uint32(len(versions)))
	for i, v := range versions {
		binary.BigEndian.PutUint64(out[4+8*i:4+8*i+8], v)
	}
	return out
}

// DecodeVersionSet decodes the payload produced by EncodeVersionSet.
func DecodeVersionSet(data []byte) ([]uint64, error) {
	if len(data) < 4 {
		return nil, &ErrInvalidData{Reason: "buffer shorter than count prefix"}
	}
	count := binary.BigEndian.Uint32(data[0:4])
	want := 4 + 8*int(count)
	if len(data) != want {
		return nil, &ErrInvalidData{Reason: fmt.Sprintf("length mismatch: have %d want %d", len(data), want)}
	}
	out := make([]uint64, count)
	for i := range out {
		out[i] = binary.BigEndian.Uint64(data[4+8*i : 4+8*i+8])
	}
	return out, nil
}
