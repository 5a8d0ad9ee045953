package options

const (
	// Specifies the default base directory where IgniteDB will store its data files.
	// If no other directory is specified during initialization, this path will be used.
	DefaultDataDir = "/var/lib/ignitedb"

	// Represents the minimum allowed size for a segment file in bytes (512MB).
	MinSegmentSize uint64 = 512 * 1024 * 1024

	// Represents the maximum allowed size for a segment file in bytes (4GB).
	MaxSegmentSize uint64 = 4 * 1024 * 1024 * 1024

	// Specifies the default target size for a new segment file in bytes (1GB).
	DefaultSegmentSize uint64 = 1 * 1024 * 1024 * 1024

	// Specifies the default subdirectory within the main data directory
	// where segment files will be stored.
	DefaultSegmentDirectory = "/segments"

	// DefaultSyncStrategy is applied when no sync strategy is configured.
	// With SyncNever, writes reach disk through Flush or OS buffer
	// flushing; callers that need every write fsynced opt into SyncAlways.
	DefaultSyncStrategy = SyncNever

	// DefaultFsyncIntervalMs is the default FsyncIntervalMs value. The
	// store does not read it (see SyncEvery).
	DefaultFsyncIntervalMs = 1000

	// DefaultCompactionThreshold is the garbage ratio above which a full
	// segment triggers a compaction of the sealed segments before the
	// rollover.
	DefaultCompactionThreshold = 0.5

	// DefaultFileCacheCapacity bounds the LRU of open, non-active segment
	// file handles.
	DefaultFileCacheCapacity = 128
)

// Holds the default configuration settings for an IgniteDB instance.
var defaultOptions = Options{
	DataDir:             DefaultDataDir,
	SyncStrategy:        DefaultSyncStrategy,
	FsyncIntervalMs:     DefaultFsyncIntervalMs,
	CompactionThreshold: DefaultCompactionThreshold,
	FileCacheCapacity:   DefaultFileCacheCapacity,
	SegmentOptions: &segmentOptions{
		Size:      DefaultSegmentSize,
		Directory: DefaultSegmentDirectory,
	},
}

// NewDefaultOptions returns a fresh copy of the library's default
// configuration.
func NewDefaultOptions() Options {
	opts := defaultOptions
	segCopy := *defaultOptions.SegmentOptions
	opts.SegmentOptions = &segCopy
	return opts
}
