package index

import (
	"sync"
	"sync/atomic"

	"github.com/google/btree"
	"go.uber.org/zap"
)

// RecordPointer contains the minimum metadata required to locate and
// retrieve a data entry from disk storage: which segment holds it, where
// within that segment it starts, and how many bytes to read in one shot.
//
// Every read goes through a RecordPointer, so the same information that
// lets the store avoid scanning also lets it avoid a second read just to
// discover how long the record is.
type RecordPointer struct {
	// SegmentID identifies which segment file contains this entry. Segment
	// identifiers are monotonically increasing TSIDs, not small sequential
	// integers, so this is a uint64 rather than the compact uint16 a
	// fixed-size segment counter would allow.
	SegmentID uint64

	// Offset is the exact byte position within the segment file where this
	// entry's header begins.
	Offset int64

	// EntrySize is the total number of bytes this entry occupies on disk
	// (header + key + value), enabling a single read call per Get.
	EntrySize uint32

	// ValueSize is the byte length of just the value portion, letting
	// callers size a buffer for the value alone without re-parsing the
	// header.
	ValueSize uint32
}

// entry is the btree element: a key plus the pointer to its latest record.
// Kept unexported because the ordering function and the tree itself are
// implementation details of this package.
type entry struct {
	key     string
	pointer RecordPointer
}

func entryLess(a, b entry) bool {
	return a.key < b.key
}

// Index is the in-memory key directory described by the storage engine's
// design: a sorted associative container mapping a key to the location of
// its most recent record. Keeping it sorted (rather than a bare hash map)
// is what makes Scan and ScanPrefix possible without touching disk.
type Index struct {
	dataDir string             // Directory the segments backing this index live in, for logging.
	log     *zap.SugaredLogger // Structured logger for operational visibility.
	tree    *btree.BTreeG[entry]
	mu      sync.RWMutex // Protects concurrent access to tree.
	closed  atomic.Bool  // Indicates whether the index has been closed.
}

// Config encapsulates the configuration parameters required to initialize
// an Index.
type Config struct {
	DataDir string             // Directory containing the segment files this index describes.
	Logger  *zap.SugaredLogger // Logger for Index operations.
}
