package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/iamNilotpal/ignitedb/pkg/logger"
	"github.com/iamNilotpal/ignitedb/pkg/options"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func nopLoggerForTest() *zap.SugaredLogger {
	return logger.NewNop()
}

func waitFor(t *testing.T, condition func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return condition()
}

func writeTOML(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ignitedb.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeTOML(t, `
[config]
storage_path = "/tmp/ignitedb"
single_file_limit = 1.5
sync_strategy = "Every"
fsync_interval_ms = 500
compaction_threshold = 0.4
file_cache_capacity = 64
`)

	file, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/ignitedb", file.Config.StoragePath)
	require.Equal(t, "Every", file.Config.SyncStrategy)
}

func TestLoadRejectsBadSyncStrategy(t *testing.T) {
	path := writeTOML(t, `
[config]
storage_path = "/tmp/ignitedb"
sync_strategy = "Sometimes"
`)

	_, err := Load(path)
	require.Error(t, err, "expected error for invalid sync_strategy")
}

func TestLoadRejectsOutOfRangeThreshold(t *testing.T) {
	path := writeTOML(t, `
[config]
storage_path = "/tmp/ignitedb"
compaction_threshold = 1.5
`)

	_, err := Load(path)
	require.Error(t, err, "expected error for out-of-range compaction_threshold")
}

func TestToOptionsOverridesDefaults(t *testing.T) {
	fields := Fields{
		StoragePath:         "/data/ignitedb",
		SyncStrategy:        "Always",
		FsyncIntervalMs:     250,
		CompactionThreshold: 0.7,
		FileCacheCapacity:   32,
		SingleFileLimit:     2,
	}

	opts := fields.ToOptions(options.NewDefaultOptions())
	require.Equal(t, "/data/ignitedb", opts.DataDir)
	require.Equal(t, options.SyncAlways, opts.SyncStrategy)
	require.EqualValues(t, 2*1024*1024*1024, opts.SegmentOptions.Size)
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := writeTOML(t, `
[config]
storage_path = "/tmp/ignitedb"
compaction_threshold = 0.2
`)

	file, err := Load(path)
	require.NoError(t, err)
	live := NewLive(file.Config)

	watcher, err := NewWatcher(path, live, nopLoggerForTest())
	require.NoError(t, err)
	defer watcher.Close()

	require.NoError(t, os.WriteFile(path, []byte(`
[config]
storage_path = "/should/not/apply"
compaction_threshold = 0.9
`), 0644))

	reloaded := waitFor(t, func() bool {
		return live.Get().CompactionThreshold == 0.9
	})
	require.True(t, reloaded, "watcher did not pick up reload: got %+v", live.Get())
	require.Equal(t, "/tmp/ignitedb", live.Get().StoragePath, "storage_path must not change on reload")
}
