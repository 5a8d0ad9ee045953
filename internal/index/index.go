// Package index provides the in-memory key directory for the storage
// engine: a sorted map from key to (segment ID, offset) kept entirely in
// memory, rebuilt from the segment files at open and updated on every
// write or delete. A tombstone write removes the key from the directory,
// which is what makes it hide older occurrences without a disk read.
package index

import (
	"context"
	stdErrors "errors"

	"github.com/google/btree"
	"github.com/iamNilotpal/ignitedb/pkg/errors"
)

// ErrIndexClosed is returned by any operation attempted after Close.
var ErrIndexClosed = stdErrors.New("operation failed: cannot access closed index")

// New creates an empty Index ready for concurrent use. Replay (reading
// existing segments to populate it) is the caller's responsibility — this
// package only maintains the in-memory structure.
func New(ctx context.Context, config *Config) (*Index, error) {
	if config == nil || config.Logger == nil {
		return nil, errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "index configuration is required",
		).WithField("config").WithRule("required").WithProvided(config)
	}

	return &Index{
		log:     config.Logger,
		dataDir: config.DataDir,
		tree:    btree.NewG(32, entryLess),
	}, nil
}

// Set records (or overwrites) the location of key's most recent record.
func (idx *Index) Set(key string, pointer RecordPointer) error {
	if idx.closed.Load() {
		return ErrIndexClosed
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.tree.ReplaceOrInsert(entry{key: key, pointer: pointer})
	return nil
}

// Get returns the pointer for key, or ok=false if key has no entry.
func (idx *Index) Get(key string) (RecordPointer, bool, error) {
	if idx.closed.Load() {
		return RecordPointer{}, false, ErrIndexClosed
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	found, ok := idx.tree.Get(entry{key: key})
	if !ok {
		return RecordPointer{}, false, nil
	}
	return found.pointer, true, nil
}

// Delete removes key from the directory, as a tombstone record does. It
// reports whether the key had an entry to remove.
func (idx *Index) Delete(key string) (bool, error) {
	if idx.closed.Load() {
		return false, ErrIndexClosed
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	_, existed := idx.tree.Delete(entry{key: key})
	return existed, nil
}

// Len returns the number of live keys currently tracked.
func (idx *Index) Len() (int, error) {
	if idx.closed.Load() {
		return 0, ErrIndexClosed
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.tree.Len(), nil
}

// Range visits every (key, pointer) pair with key in [start, end) in
// ascending order, stopping early if visit returns false. An empty end
// means no upper bound, and an empty start begins at the first key.
func (idx *Index) Range(start, end string, visit func(key string, pointer RecordPointer) bool) error {
	if idx.closed.Load() {
		return ErrIndexClosed
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	iter := func(e entry) bool {
		if end != "" && e.key >= end {
			return false
		}
		return visit(e.key, e.pointer)
	}

	if start == "" {
		idx.tree.Ascend(iter)
	} else {
		idx.tree.AscendGreaterOrEqual(entry{key: start}, iter)
	}
	return nil
}

// Snapshot returns every (key, pointer) pair currently tracked, in
// ascending key order. Used by compaction, which needs a stable,
// point-in-time view of the live key set before it starts rewriting.
func (idx *Index) Snapshot() ([]string, []RecordPointer, error) {
	if idx.closed.Load() {
		return nil, nil, ErrIndexClosed
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	keys := make([]string, 0, idx.tree.Len())
	pointers := make([]RecordPointer, 0, idx.tree.Len())
	idx.tree.Ascend(func(e entry) bool {
		keys = append(keys, e.key)
		pointers = append(pointers, e.pointer)
		return true
	})
	return keys, pointers, nil
}

// Close gracefully shuts down the Index, releasing its backing tree. The
// index cannot be used after closure.
func (idx *Index) Close() error {
	if !idx.closed.CompareAndSwap(false, true) {
		return ErrIndexClosed
	}

	idx.log.Infow("closing index")

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.tree.Clear(false)

	idx.log.Infow("index closed")
	return nil
}
