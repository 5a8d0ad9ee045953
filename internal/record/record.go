// Package record implements the on-disk layout of a single Bitcask entry:
// a CRC-checked, length-prefixed frame of a timestamp, a key, and an
// optional value. Every segment file in internal/bitcask is a concatenation
// of these frames; internal/mvcc never sees this package directly — it only
// ever deals with byte keys and byte values through the engine interface.
package record

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/sha3"
)

const (
	// CRCSize is the width of the truncated checksum field.
	CRCSize = 8

	// TimestampSize is the width of the big-endian seconds-since-epoch field.
	TimestampSize = 4

	// KeySizeFieldSize is the width of the big-endian key-length field.
	KeySizeFieldSize = 4

	// ValueSizeFieldSize is the width of the big-endian signed value-length
	// field. A value of -1 marks a tombstone.
	ValueSizeFieldSize = 4

	// HeaderSize is the total size of the fixed-width header preceding the
	// key and value bytes: crc ∥ tstamp ∥ ksz ∥ vsz.
	HeaderSize = CRCSize + TimestampSize + KeySizeFieldSize + ValueSizeFieldSize

	// bodyOffset is where the CRC-covered portion of the record starts.
	bodyOffset = CRCSize

	// Tombstone is the sentinel value-size field marking a deleted key.
	Tombstone int32 = -1
)

// ErrInvalidData is returned whenever a record fails structural validation:
// a bad CRC, an empty key, a frame length that disagrees with the header,
// or an input shorter than the header.
type ErrInvalidData struct {
	Reason string
}

func (e *ErrInvalidData) Error() string {
	return fmt.Sprintf("record: invalid data: %s", e.Reason)
}

// Record is the decoded form of one on-disk entry.
type Record struct {
	Timestamp int64
	Key       []byte
	Value     []byte // nil when Tombstone is true
	Tombstone bool
}

// New builds a live (non-tombstone) record for key/value at the given
// Unix-seconds timestamp.
func New(timestamp int64, key, value []byte) *Record {
	return &Record{Timestamp: timestamp, Key: key, Value: value}
}

// NewTombstone builds a deletion marker for key at the given timestamp.
func NewTombstone(timestamp int64, key []byte) *Record {
	return &Record{Timestamp: timestamp, Key: key, Tombstone: true}
}

// Size returns the total number of bytes Encode will produce for r.
func (r *Record) Size() int64 {
	valueLen := 0
	if !r.Tombstone {
		valueLen = len(r.Value)
	}
	return int64(HeaderSize + len(r.Key) + valueLen)
}

// Encode serializes r into the on-disk frame: crc ∥ tstamp ∥ ksz ∥ vsz ∥ key ∥ value.
func (r *Record) Encode() ([]byte, error) {
	if len(r.Key) == 0 {
		return nil, &ErrInvalidData{Reason: "empty keys are rejected"}
	}

	valueSize := Tombstone
	valueLen := 0
	if !r.Tombstone {
		valueLen = len(r.Value)
		valueSize = int32(valueLen)
	}

	body := make([]byte, HeaderSize-CRCSize+len(r.Key)+valueLen)
	binary.BigEndian.PutUint32(body[0:4], uint32(r.Timestamp))
	binary.BigEndian.PutUint32(body[4:8], uint32(len(r.Key)))
	binary.BigEndian.PutUint32(body[8:12], uint32(valueSize))
	copy(body[12:12+len(r.Key)], r.Key)
	if !r.Tombstone {
		copy(body[12+len(r.Key):], r.Value)
	}

	crc := checksum(body)

	out := make([]byte, CRCSize+len(body))
	copy(out[0:CRCSize], crc)
	copy(out[CRCSize:], body)
	return out, nil
}

// Decode parses a complete record frame (header, key, and value all
// present) and verifies its checksum.
func Decode(data []byte) (*Record, error) {
	if len(data) < HeaderSize {
		return nil, &ErrInvalidData{Reason: "shorter than fixed header"}
	}

	body := data[bodyOffset:]
	tstamp := int64(binary.BigEndian.Uint32(body[0:4]))
	ksz := binary.BigEndian.Uint32(body[4:8])
	vsz := int32(binary.BigEndian.Uint32(body[8:12]))

	if ksz == 0 {
		return nil, &ErrInvalidData{Reason: "empty key"}
	}

	valueLen := 0
	tombstone := vsz < 0
	if !tombstone {
		valueLen = int(vsz)
	}

	want := HeaderSize + int(ksz) + valueLen
	if len(data) != want {
		return nil, &ErrInvalidData{Reason: fmt.Sprintf("length mismatch: have %d want %d", len(data), want)}
	}

	if !verify(data[0:CRCSize], body) {
		return nil, &ErrInvalidData{Reason: "checksum mismatch"}
	}

	key := make([]byte, ksz)
	copy(key, body[12:12+ksz])

	rec := &Record{Timestamp: tstamp, Key: key, Tombstone: tombstone}
	if !tombstone {
		rec.Value = make([]byte, valueLen)
		copy(rec.Value, body[12+int(ksz):12+int(ksz)+valueLen])
	}
	return rec, nil
}

// DecodeHeader parses just the fixed-width header, returning the key and
// value lengths needed to know how many more bytes to read before calling
// Decode on the full frame. It performs no checksum validation.
func DecodeHeader(header []byte) (ksz uint32, vsz int32, tstamp int64, err error) {
	if len(header) < HeaderSize {
		return 0, 0, 0, &ErrInvalidData{Reason: "short header"}
	}
	body := header[bodyOffset:]
	tstamp = int64(binary.BigEndian.Uint32(body[0:4]))
	ksz = binary.BigEndian.Uint32(body[4:8])
	vsz = int32(binary.BigEndian.Uint32(body[8:12]))
	return ksz, vsz, tstamp, nil
}

// checksum computes the truncated SHA3-256 digest used as a record's CRC:
// bytes [15:23] of the full 32-byte digest over body.
func checksum(body []byte) []byte {
	digest := sha3.Sum256(body)
	out := make([]byte, CRCSize)
	copy(out, digest[15:23])
	return out
}

// verify reports whether want matches the checksum computed over body.
func verify(want []byte, body []byte) bool {
	got := checksum(body)
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
