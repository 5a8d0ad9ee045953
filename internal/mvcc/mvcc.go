package mvcc

import (
	"encoding/binary"
	"slices"
	"sync"

	"github.com/iamNilotpal/ignitedb/internal/engine"
	"github.com/iamNilotpal/ignitedb/internal/keycode"
	"github.com/iamNilotpal/ignitedb/internal/valuecode"
	"github.com/iamNilotpal/ignitedb/pkg/errors"
	"go.uber.org/zap"
)

// MVCC wraps a flat key-value Engine with snapshot-isolated transactions.
// A single mutex serializes version allocation, active-set bookkeeping,
// and every transactional write, commit, and rollback across all
// transactions; reads (Get, GetUnversioned) and unversioned writes go
// straight to the engine without taking it.
type MVCC struct {
	mu     sync.Mutex
	engine engine.Engine
	log    *zap.SugaredLogger
}

// New wraps eng with MVCC transaction semantics.
func New(eng engine.Engine, log *zap.SugaredLogger) *MVCC {
	return &MVCC{engine: eng, log: log}
}

// nextVersion atomically reads and increments the persisted version
// counter, returning the version it allocated.
func (m *MVCC) nextVersion() (uint64, error) {
	raw, ok, err := m.engine.Get(keyNextVersion())
	if err != nil {
		return 0, err
	}

	var version uint64
	if ok {
		if len(raw) != 8 {
			return 0, errors.NewMVCCError(nil, errors.ErrorCodeInvalidData, "malformed next-version counter").
				WithOperation("nextVersion")
		}
		version = binary.BigEndian.Uint64(raw)
	} else {
		version = 1
	}

	var next [8]byte
	binary.BigEndian.PutUint64(next[:], version+1)
	if err := m.engine.Set(keyNextVersion(), next[:]); err != nil {
		return 0, err
	}
	return version, nil
}

// currentActiveSet reads the set of versions presently marked active, i.e.
// begun but not yet committed or rolled back.
func (m *MVCC) currentActiveSet() (map[uint64]bool, error) {
	pairs, err := m.engine.ScanPrefix(activePrefix())
	if err != nil {
		return nil, err
	}

	set := make(map[uint64]bool, len(pairs))
	for _, pair := range pairs {
		dec := keycode.NewDecoder(pair.Key)
		if _, err := dec.Tag(); err != nil {
			return nil, err
		}
		version, err := dec.Uint64()
		if err != nil {
			return nil, err
		}
		set[version] = true
	}
	return set, nil
}

// Begin starts a new read-write transaction. Its version is freshly
// allocated and marked active; its snapshot is every version currently
// active at the moment it begins (so it does not see their writes even if
// they commit later).
func (m *MVCC) Begin() (*Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	activeSet, err := m.currentActiveSet()
	if err != nil {
		return nil, err
	}

	version, err := m.nextVersion()
	if err != nil {
		return nil, err
	}

	if err := m.engine.Set(keyActive(version), nil); err != nil {
		return nil, err
	}
	if len(activeSet) > 0 {
		versions := make([]uint64, 0, len(activeSet))
		for v := range activeSet {
			versions = append(versions, v)
		}
		slices.Sort(versions)
		if err := m.engine.Set(keySnapshot(version), valuecode.EncodeVersionSet(versions)); err != nil {
			return nil, err
		}
	}

	return &Transaction{
		mvcc:      m,
		version:   version,
		readOnly:  false,
		activeSet: activeSet,
	}, nil
}

// BeginReadOnly starts a read-only transaction whose snapshot is the latest
// committed state. Per the resolved design, a read-only begin does not
// allocate (increment) a new version; it borrows the next version counter's
// current value as its visibility boundary and excludes it, since nothing
// has committed at that version yet.
func (m *MVCC) BeginReadOnly() (*Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok, err := m.engine.Get(keyNextVersion())
	if err != nil {
		return nil, err
	}
	version := uint64(1)
	if ok {
		version = binary.BigEndian.Uint64(raw)
	}

	activeSet, err := m.currentActiveSet()
	if err != nil {
		return nil, err
	}

	return &Transaction{mvcc: m, version: version, readOnly: true, activeSet: activeSet}, nil
}

// BeginReadOnlyVersion starts a read-only transaction pinned to a specific
// historical version, reconstructing the active set that was in effect
// when that version began (from its persisted Snapshot entry, if any).
func (m *MVCC) BeginReadOnlyVersion(version uint64) (*Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok, err := m.engine.Get(keySnapshot(version))
	if err != nil {
		return nil, err
	}

	activeSet := make(map[uint64]bool)
	if ok {
		versions, err := valuecode.DecodeVersionSet(raw)
		if err != nil {
			return nil, err
		}
		for _, v := range versions {
			activeSet[v] = true
		}
	}

	return &Transaction{mvcc: m, version: version, readOnly: true, activeSet: activeSet}, nil
}

// TransactionState is the externally visible, serializable identity of a
// transaction: enough to resume it in a new process without re-deriving its
// snapshot from scratch.
type TransactionState struct {
	Version   uint64
	ReadOnly  bool
	ActiveSet []uint64
}

// Resume reconstructs a Transaction from a previously captured
// TransactionState, without touching persisted active-set bookkeeping. Used
// to reattach to an in-flight transaction across a process boundary. For a
// read-write transaction, it verifies Active(state.Version) still exists
// before handing back a live handle: if the transaction was already
// committed or rolled back (or never began), that marker is gone and
// resuming it would let the caller write under a dead version.
func (m *MVCC) Resume(state TransactionState) (*Transaction, error) {
	if !state.ReadOnly {
		_, ok, err := m.engine.Get(keyActive(state.Version))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.NewTransactionNotActiveError(state.Version)
		}
	}

	activeSet := make(map[uint64]bool, len(state.ActiveSet))
	for _, v := range state.ActiveSet {
		activeSet[v] = true
	}
	return &Transaction{mvcc: m, version: state.Version, readOnly: state.ReadOnly, activeSet: activeSet}, nil
}
