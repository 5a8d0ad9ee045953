// Package mvcc layers snapshot-isolated transactions over an
// internal/engine.Engine. It never stores a raw user key directly; every
// key it writes is one of six tagged variants encoded with
// internal/keycode so that the variants sort into predictable ranges and
// never collide with one another.
package mvcc

import (
	"github.com/iamNilotpal/ignitedb/internal/keycode"
)

// Tag values are a persistent on-disk contract: once assigned, a tag is
// never reused or renumbered, or every existing database would become
// unreadable.
const (
	tagNextVersion uint8 = 0
	tagActive      uint8 = 1
	tagSnapshot    uint8 = 2
	tagActiveWrite uint8 = 3
	tagVersion     uint8 = 4
	tagUnversioned uint8 = 5
)

// keyNextVersion is the single key holding the next version to allocate.
func keyNextVersion() []byte {
	return keycode.NewEncoder().Tag(tagNextVersion).Bytes()
}

// keyActive marks version as currently active (begun, not yet committed or
// rolled back).
func keyActive(version uint64) []byte {
	return keycode.NewEncoder().Tag(tagActive).Uint64(version).Bytes()
}

// activePrefix bounds a scan over every keyActive entry.
func activePrefix() []byte {
	return keycode.NewEncoder().Tag(tagActive).Bytes()
}

// keySnapshot stores the serialized set of versions that were active when
// the read-write transaction with this version began.
func keySnapshot(version uint64) []byte {
	return keycode.NewEncoder().Tag(tagSnapshot).Uint64(version).Bytes()
}

// keyActiveWrite records that the transaction at version wrote key, so a
// rollback knows which Version(key, version) entries to erase.
func keyActiveWrite(version uint64, key []byte) []byte {
	return keycode.NewEncoder().Tag(tagActiveWrite).Uint64(version).ByteString(key).Bytes()
}

// activeWritePrefix bounds a scan over every key a given transaction wrote.
func activeWritePrefix(version uint64) []byte {
	return keycode.NewEncoder().Tag(tagActiveWrite).Uint64(version).Bytes()
}

// decodeActiveWriteKey extracts the user key from a keyActiveWrite-encoded
// byte string.
func decodeActiveWriteKey(version uint64, encoded []byte) ([]byte, error) {
	dec := keycode.NewDecoder(encoded)
	if _, err := dec.Tag(); err != nil {
		return nil, err
	}
	if _, err := dec.Uint64(); err != nil {
		return nil, err
	}
	return dec.ByteString()
}

// keyVersion addresses the value key had as of version. Encoding key before
// version means every version of a key sorts contiguously, in ascending
// version order, which is what makes both a read and the write-conflict
// check a single prefix scan over that key's versions.
func keyVersion(key []byte, version uint64) []byte {
	return keycode.NewEncoder().Tag(tagVersion).ByteString(key).Uint64(version).Bytes()
}

// versionPrefix bounds a scan over every version of key.
func versionPrefix(key []byte) []byte {
	return keycode.NewEncoder().Tag(tagVersion).ByteString(key).Bytes()
}

// decodeVersionSuffix extracts the version number from a keyVersion-encoded
// byte string, skipping over the encoded user key.
func decodeVersionSuffix(encoded []byte) (version uint64, err error) {
	dec := keycode.NewDecoder(encoded)
	if _, err := dec.Tag(); err != nil {
		return 0, err
	}
	if _, err := dec.ByteString(); err != nil {
		return 0, err
	}
	return dec.Uint64()
}

// keyUnversioned addresses metadata stored outside the MVCC version
// history: configuration and other values with no transactional semantics.
func keyUnversioned(key []byte) []byte {
	return keycode.NewEncoder().Tag(tagUnversioned).ByteString(key).Bytes()
}
