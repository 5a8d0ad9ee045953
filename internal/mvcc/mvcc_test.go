package mvcc

import (
	"testing"

	"github.com/iamNilotpal/ignitedb/internal/engine"
	"github.com/iamNilotpal/ignitedb/pkg/logger"
	"github.com/stretchr/testify/require"
)

func newTestMVCC() *MVCC {
	return New(engine.NewMemory(), logger.NewNop())
}

func TestReadYourWrites(t *testing.T) {
	m := newTestMVCC()

	txn, err := m.Begin()
	require.NoError(t, err)
	require.NoError(t, txn.Set([]byte("a"), []byte("1")))

	v, ok, err := txn.Get([]byte("a"))
	require.NoError(t, err)
	require.True(t, ok, "expected to read own write")
	require.Equal(t, "1", string(v))

	require.NoError(t, txn.Commit())
}

func TestSnapshotIsolationHidesConcurrentWrites(t *testing.T) {
	m := newTestMVCC()

	writer, err := m.Begin()
	require.NoError(t, err)

	reader, err := m.Begin()
	require.NoError(t, err)

	require.NoError(t, writer.Set([]byte("a"), []byte("new")))
	require.NoError(t, writer.Commit())

	_, ok, err := reader.Get([]byte("a"))
	require.NoError(t, err)
	require.False(t, ok, "reader should not see writer's commit")
	require.NoError(t, reader.Commit())

	after, err := m.BeginReadOnly()
	require.NoError(t, err)
	v, ok, err := after.Get([]byte("a"))
	require.NoError(t, err)
	require.True(t, ok, "expected new readonly txn to see committed write")
	require.Equal(t, "new", string(v))
}

func TestWriteConflictDetected(t *testing.T) {
	m := newTestMVCC()

	txn1, err := m.Begin()
	require.NoError(t, err)
	txn2, err := m.Begin()
	require.NoError(t, err)

	require.NoError(t, txn1.Set([]byte("a"), []byte("from-1")))
	require.NoError(t, txn1.Commit())

	err = txn2.Set([]byte("a"), []byte("from-2"))
	require.Error(t, err, "expected a write conflict")
	_ = txn2.Rollback()
}

func TestRollbackLeavesNoTrace(t *testing.T) {
	m := newTestMVCC()

	txn, err := m.Begin()
	require.NoError(t, err)
	require.NoError(t, txn.Set([]byte("a"), []byte("1")))
	require.NoError(t, txn.Rollback())

	check, err := m.BeginReadOnly()
	require.NoError(t, err)
	_, ok, err := check.Get([]byte("a"))
	require.NoError(t, err)
	require.False(t, ok, "expected rolled-back write to be invisible")
}

func TestCommitClearsActiveWriteMarkers(t *testing.T) {
	m := newTestMVCC()

	txn, err := m.Begin()
	require.NoError(t, err)
	require.NoError(t, txn.Set([]byte("a"), []byte("1")))
	require.NoError(t, txn.Set([]byte("b"), []byte("2")))
	version := txn.Version()
	require.NoError(t, txn.Commit())

	pairs, err := m.engine.ScanPrefix(activeWritePrefix(version))
	require.NoError(t, err)
	require.Empty(t, pairs, "commit must delete every ActiveWrite marker it left behind")
}

func TestResumeReattachesActiveTransaction(t *testing.T) {
	m := newTestMVCC()

	txn, err := m.Begin()
	require.NoError(t, err)
	require.NoError(t, txn.Set([]byte("a"), []byte("1")))
	state := txn.State()

	resumed, err := m.Resume(state)
	require.NoError(t, err)
	require.Equal(t, txn.Version(), resumed.Version())

	v, ok, err := resumed.Get([]byte("a"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1", string(v))

	require.NoError(t, resumed.Commit())
}

func TestResumeRejectsTransactionThatIsNoLongerActive(t *testing.T) {
	m := newTestMVCC()

	txn, err := m.Begin()
	require.NoError(t, err)
	state := txn.State()
	require.NoError(t, txn.Commit())

	_, err = m.Resume(state)
	require.Error(t, err, "expected Resume to reject a version that already committed")

	never := TransactionState{Version: state.Version + 1000, ReadOnly: false}
	_, err = m.Resume(never)
	require.Error(t, err, "expected Resume to reject a version that never began")
}

func TestResumeReadOnlySkipsActiveCheck(t *testing.T) {
	m := newTestMVCC()

	txn, err := m.BeginReadOnly()
	require.NoError(t, err)
	state := txn.State()

	resumed, err := m.Resume(state)
	require.NoError(t, err)
	require.Equal(t, txn.Version(), resumed.Version())
}

func TestUnversionedBypassesSnapshot(t *testing.T) {
	m := newTestMVCC()

	txn, err := m.Begin()
	require.NoError(t, err)
	defer txn.Rollback()

	earlier, err := m.BeginReadOnly()
	require.NoError(t, err)

	require.NoError(t, txn.SetUnversioned([]byte("config.limit"), []byte("100")))
	v, ok, err := txn.GetUnversioned([]byte("config.limit"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "100", string(v))

	// A transaction that began before the write still sees it.
	v, ok, err = earlier.GetUnversioned([]byte("config.limit"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "100", string(v))
}
