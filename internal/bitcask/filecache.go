package bitcask

import (
	"os"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// fileCache bounds the number of simultaneously open sealed-segment file
// handles. Segments not currently cached are opened on demand (taking a
// fresh shared lock) and may be evicted at any time; eviction closes the
// handle and releases its lock.
type fileCache struct {
	dir string
	mu  sync.Mutex
	lru *lru.Cache[uint64, *sealedHandle]
}

func newFileCache(dir string, capacity int) (*fileCache, error) {
	fc := &fileCache{dir: dir}
	cache, err := lru.NewWithEvict(capacity, func(_ uint64, handle *sealedHandle) {
		_ = handle.close()
	})
	if err != nil {
		return nil, err
	}
	fc.lru = cache
	return fc, nil
}

// get returns an open read-only handle for segment id, opening and caching
// it if not already present.
func (fc *fileCache) get(id uint64) (*os.File, error) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if handle, ok := fc.lru.Get(id); ok {
		return handle.file, nil
	}

	handle, err := openSealedForRead(fc.dir, id)
	if err != nil {
		return nil, err
	}
	fc.lru.Add(id, handle)
	return handle.file, nil
}

// drop removes id from the cache (if present) and closes its handle, used
// after compaction deletes the underlying segment file.
func (fc *fileCache) drop(id uint64) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.lru.Remove(id)
}

func (fc *fileCache) close() error {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.lru.Purge()
	return nil
}
