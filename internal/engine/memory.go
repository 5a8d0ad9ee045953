package engine

import (
	"bytes"
	"sync"
	"sync/atomic"

	"github.com/google/btree"
)

// item is the btree element backing Memory: a key plus either a live value
// or a tombstone marker.
type item struct {
	key       []byte
	value     []byte
	tombstone bool
}

func itemLess(a, b item) bool {
	return bytes.Compare(a.key, b.key) < 0
}

// Memory is a reference Engine implementation backed by an in-memory
// google/btree ordered tree. It carries no durability guarantees — Flush is
// a no-op — and exists so internal/mvcc's tests can exercise the full
// transaction layer without touching disk.
type Memory struct {
	mu     sync.RWMutex
	tree   *btree.BTreeG[item]
	closed atomic.Bool

	liveCount uint64
	liveBytes uint64
}

// NewMemory returns an empty in-memory engine.
func NewMemory() *Memory {
	return &Memory{tree: btree.NewG(32, itemLess)}
}

func (m *Memory) Set(key, value []byte) error {
	if len(key) == 0 {
		return ErrKeyEmpty
	}
	if m.closed.Load() {
		return ErrClosed
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	k := append([]byte(nil), key...)
	v := append([]byte(nil), value...)

	old, existed := m.tree.ReplaceOrInsert(item{key: k, value: v})
	if existed && !old.tombstone {
		m.liveBytes -= uint64(len(old.key) + len(old.value))
	} else if !existed || old.tombstone {
		m.liveCount++
	}
	m.liveBytes += uint64(len(k) + len(v))
	return nil
}

func (m *Memory) Get(key []byte) ([]byte, bool, error) {
	if m.closed.Load() {
		return nil, false, ErrClosed
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	found, ok := m.tree.Get(item{key: key})
	if !ok || found.tombstone {
		return nil, false, nil
	}
	return append([]byte(nil), found.value...), true, nil
}

func (m *Memory) Delete(key []byte) error {
	if len(key) == 0 {
		return ErrKeyEmpty
	}
	if m.closed.Load() {
		return ErrClosed
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	k := append([]byte(nil), key...)
	old, existed := m.tree.ReplaceOrInsert(item{key: k, tombstone: true})
	if existed {
		if !old.tombstone {
			m.liveCount--
			m.liveBytes -= uint64(len(old.key) + len(old.value))
		}
	}
	return nil
}

func (m *Memory) Scan(start, end []byte) ([]Pair, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Pair
	visit := func(it item) bool {
		if end != nil && bytes.Compare(it.key, end) >= 0 {
			return false
		}
		if !it.tombstone {
			out = append(out, Pair{
				Key:   append([]byte(nil), it.key...),
				Value: append([]byte(nil), it.value...),
			})
		}
		return true
	}

	if start == nil {
		m.tree.Ascend(visit)
	} else {
		m.tree.AscendGreaterOrEqual(item{key: start}, visit)
	}
	return out, nil
}

func (m *Memory) ScanPrefix(prefix []byte) ([]Pair, error) {
	return m.Scan(prefix, PrefixUpperBound(prefix))
}

func (m *Memory) Flush() error {
	if m.closed.Load() {
		return ErrClosed
	}
	return nil
}

func (m *Memory) Status() (Status, error) {
	if m.closed.Load() {
		return Status{}, ErrClosed
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return Status{
		Name:        "memory",
		LogicalSize: m.liveBytes,
		TotalCount:  m.liveCount,
		TotalSize:   m.liveBytes,
		LiveSize:    m.liveBytes,
		GarbageSize: 0,
	}, nil
}

func (m *Memory) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tree.Clear(false)
	return nil
}
