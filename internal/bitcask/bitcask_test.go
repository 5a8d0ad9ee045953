package bitcask

import (
	"context"
	"testing"

	"github.com/iamNilotpal/ignitedb/pkg/logger"
	"github.com/iamNilotpal/ignitedb/pkg/options"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()

	opts := options.NewDefaultOptions()
	opts.DataDir = dir
	opts.SegmentOptions.Size = 256 // force frequent rollover in tests
	opts.FileCacheCapacity = 4

	return &Config{Options: &opts, Logger: logger.NewNop()}
}

func TestSetGetDelete(t *testing.T) {
	store, err := Open(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Set([]byte("a"), []byte("1")))

	v, ok, err := store.Get([]byte("a"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1", string(v))

	require.NoError(t, store.Delete([]byte("a")))
	_, ok, err = store.Get([]byte("a"))
	require.NoError(t, err)
	require.False(t, ok, "expected key absent after delete")
}

func TestReopenRecoversState(t *testing.T) {
	cfg := testConfig(t)

	store, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		key := []byte{byte('a' + i)}
		require.NoError(t, store.Set(key, []byte("value")))
	}
	require.NoError(t, store.Delete([]byte{'a'}))
	require.NoError(t, store.Close())

	reopened, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer reopened.Close()

	_, ok, _ := reopened.Get([]byte{'a'})
	require.False(t, ok, "expected deleted key to remain absent after reopen")

	v, ok, err := reopened.Get([]byte{'b'})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "value", string(v))
}

func TestScanPrefixAndCompaction(t *testing.T) {
	cfg := testConfig(t)
	cfg.Options.CompactionThreshold = 0.1

	store, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer store.Close()

	for i := 0; i < 50; i++ {
		key := []byte{'k', byte(i)}
		require.NoError(t, store.Set(key, []byte("payload-that-forces-rollover")))
	}
	for i := 0; i < 40; i++ {
		key := []byte{'k', byte(i)}
		require.NoError(t, store.Set(key, []byte("overwritten")))
	}

	pairs, err := store.ScanPrefix([]byte{'k'})
	require.NoError(t, err)
	require.Len(t, pairs, 50)
	for _, p := range pairs {
		require.Contains(t, []string{"overwritten", "payload-that-forces-rollover"}, string(p.Value))
	}

	status, err := store.Status()
	require.NoError(t, err)
	require.EqualValues(t, 50, status.TotalCount)
}
