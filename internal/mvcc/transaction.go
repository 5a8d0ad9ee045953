package mvcc

import (
	"github.com/iamNilotpal/ignitedb/internal/valuecode"
	"github.com/iamNilotpal/ignitedb/pkg/errors"
)

// Transaction is a single snapshot-isolated unit of work. Reads see exactly
// the versions visible per isVisible; writes are conflict-checked against
// every version of the key this transaction cannot see, and become visible
// to transactions that begin after Commit returns.
type Transaction struct {
	mvcc      *MVCC
	version   uint64
	readOnly  bool
	activeSet map[uint64]bool
	done      bool
}

// Version returns the transaction's version number.
func (t *Transaction) Version() uint64 {
	return t.version
}

// ReadOnly reports whether the transaction rejects writes.
func (t *Transaction) ReadOnly() bool {
	return t.readOnly
}

// State captures the transaction's identity for Resume in another process.
func (t *Transaction) State() TransactionState {
	versions := make([]uint64, 0, len(t.activeSet))
	for v := range t.activeSet {
		versions = append(versions, v)
	}
	return TransactionState{Version: t.version, ReadOnly: t.readOnly, ActiveSet: versions}
}

// isVisible implements the visibility rule: v ∉ activeSet AND (readOnly ? v
// < version : v <= version). A read-write transaction can see its own
// writes (v == its own version); a read-only transaction's snapshot
// boundary was never allocated to anyone, so it excludes an exact match.
func (t *Transaction) isVisible(v uint64) bool {
	if t.activeSet[v] {
		return false
	}
	if t.readOnly {
		return v < t.version
	}
	return v <= t.version
}

// Get returns the value visible to this transaction for key, following the
// visibility rule over every persisted version of key.
func (t *Transaction) Get(key []byte) ([]byte, bool, error) {
	pairs, err := t.mvcc.engine.ScanPrefix(versionPrefix(key))
	if err != nil {
		return nil, false, err
	}

	var (
		found   bool
		latest  []byte
		present bool
	)
	for _, pair := range pairs {
		version, err := decodeVersionSuffix(pair.Key)
		if err != nil {
			return nil, false, err
		}
		if !t.isVisible(version) {
			continue
		}
		// pairs is in ascending key order, and keyVersion encodes version
		// after key, so ascending order is ascending version: the last
		// visible match seen is the most recent visible one.
		value, ok, err := valuecode.DecodeOptionalBytes(pair.Value)
		if err != nil {
			return nil, false, err
		}
		found = true
		latest = value
		present = ok
	}

	if !found || !present {
		return nil, false, nil
	}
	return latest, true, nil
}

// Set writes value for key, visible once Commit succeeds.
func (t *Transaction) Set(key, value []byte) error {
	return t.write(key, value, true)
}

// Delete removes key, visible once Commit succeeds.
func (t *Transaction) Delete(key []byte) error {
	return t.write(key, nil, false)
}

func (t *Transaction) write(key, value []byte, present bool) error {
	if t.done {
		return errors.NewAbortError("write").WithVersion(t.version)
	}
	if t.readOnly {
		return errors.NewReadOnlyError(t.version, string(key))
	}

	t.mvcc.mu.Lock()
	defer t.mvcc.mu.Unlock()

	if err := t.checkConflict(key); err != nil {
		return err
	}

	encodedValue := valuecode.EncodeOptionalBytes(value, present)
	if err := t.mvcc.engine.Set(keyVersion(key, t.version), encodedValue); err != nil {
		return err
	}
	return t.mvcc.engine.Set(keyActiveWrite(t.version, key), nil)
}

// checkConflict scans every persisted version of key for one this
// transaction cannot see, committed or not: either a transaction that began
// after it, or one that was concurrent (frozen into this transaction's
// active set at begin time). Either case means another writer has touched
// the key outside this transaction's snapshot, so it must abort rather
// than silently clobber it.
func (t *Transaction) checkConflict(key []byte) error {
	pairs, err := t.mvcc.engine.ScanPrefix(versionPrefix(key))
	if err != nil {
		return err
	}

	for _, pair := range pairs {
		version, err := decodeVersionSuffix(pair.Key)
		if err != nil {
			return err
		}
		if version == t.version {
			continue
		}
		if !t.isVisible(version) {
			return errors.NewWriteConflictError(t.version, string(key))
		}
	}
	return nil
}

// Commit finalizes the transaction: its writes become visible to every
// transaction that was not already active at the time of commit, and its
// bookkeeping (active marker and every ActiveWrite(V, *) marker this
// transaction left behind) is cleared. The Version(k,v) entries themselves
// are left in place — they are the committed data — and so is the
// Snapshot(V) entry, which BeginReadOnlyVersion reads to reproduce this
// transaction's view.
func (t *Transaction) Commit() error {
	if t.done {
		return errors.NewAbortError("commit").WithVersion(t.version)
	}
	t.done = true
	if t.readOnly {
		return nil
	}

	t.mvcc.mu.Lock()
	defer t.mvcc.mu.Unlock()

	pairs, err := t.mvcc.engine.ScanPrefix(activeWritePrefix(t.version))
	if err != nil {
		return err
	}
	for _, pair := range pairs {
		if err := t.mvcc.engine.Delete(pair.Key); err != nil {
			return err
		}
	}

	return t.mvcc.engine.Delete(keyActive(t.version))
}

// Rollback discards every write this transaction made and clears its
// bookkeeping, as though it had never run.
func (t *Transaction) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	if t.readOnly {
		return nil
	}

	t.mvcc.mu.Lock()
	defer t.mvcc.mu.Unlock()

	pairs, err := t.mvcc.engine.ScanPrefix(activeWritePrefix(t.version))
	if err != nil {
		return err
	}
	for _, pair := range pairs {
		key, err := decodeActiveWriteKey(t.version, pair.Key)
		if err != nil {
			return err
		}
		if err := t.mvcc.engine.Delete(keyVersion(key, t.version)); err != nil {
			return err
		}
		if err := t.mvcc.engine.Delete(pair.Key); err != nil {
			return err
		}
	}

	return t.clearBookkeeping()
}

func (t *Transaction) clearBookkeeping() error {
	if err := t.mvcc.engine.Delete(keyActive(t.version)); err != nil {
		return err
	}
	if _, ok, err := t.mvcc.engine.Get(keySnapshot(t.version)); err != nil {
		return err
	} else if ok {
		if err := t.mvcc.engine.Delete(keySnapshot(t.version)); err != nil {
			return err
		}
	}
	return nil
}

// GetUnversioned reads a key stored outside the MVCC version history, such
// as configuration.
func (t *Transaction) GetUnversioned(key []byte) ([]byte, bool, error) {
	return t.mvcc.engine.Get(keyUnversioned(key))
}

// SetUnversioned writes a key outside the MVCC version history. Visible
// immediately, with no transactional isolation or rollback.
func (t *Transaction) SetUnversioned(key, value []byte) error {
	return t.mvcc.engine.Set(keyUnversioned(key), value)
}
