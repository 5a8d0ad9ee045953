// Package config loads ignitedb's TOML configuration file and keeps a
// live, hot-reloadable view of it in memory. storage_path is fixed at
// process start (changing where data lives requires a restart); every
// other field can be patched in place while the process runs, mirroring
// how the original config/watcher split handled a shared, mutable config
// value.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/iamNilotpal/ignitedb/pkg/errors"
	"github.com/iamNilotpal/ignitedb/pkg/filesys"
	"github.com/iamNilotpal/ignitedb/pkg/options"
)

// File is the top-level shape of the TOML configuration file: a single
// [config] table.
type File struct {
	Config Fields `toml:"config"`
}

// Fields mirrors the configuration table named in the specification: the
// storage path, size limits, durability policy, and maintenance knobs.
type Fields struct {
	StoragePath         string  `toml:"storage_path"`
	SingleFileLimit     float64 `toml:"single_file_limit"` // GiB
	SyncStrategy        string  `toml:"sync_strategy"`     // Always | Every | Never
	FsyncIntervalMs     int     `toml:"fsync_interval_ms"`
	CompactionThreshold float64 `toml:"compaction_threshold"`
	FileCacheCapacity   int     `toml:"file_cache_capacity"`
}

// Load reads and parses the TOML file at path.
func Load(path string) (*File, error) {
	if exists, err := filesys.Exists(path); err != nil {
		return nil, errors.NewConfigError(err, "path", fmt.Sprintf("failed to stat config file %s", path))
	} else if !exists {
		return nil, errors.NewConfigError(nil, "path", fmt.Sprintf("config file %s does not exist", path))
	}

	var file File
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, errors.NewConfigError(err, "path", fmt.Sprintf("failed to load config file %s", path))
	}
	if err := file.Config.validate(); err != nil {
		return nil, err
	}
	return &file, nil
}

func (f *Fields) validate() error {
	switch options.SyncStrategy(f.SyncStrategy) {
	case options.SyncAlways, options.SyncEvery, options.SyncNever:
	case "":
		f.SyncStrategy = string(options.DefaultSyncStrategy)
	default:
		return errors.NewConfigError(
			nil, "sync_strategy", fmt.Sprintf("invalid sync_strategy %q: must be Always, Every, or Never", f.SyncStrategy),
		)
	}

	if f.CompactionThreshold < 0 || f.CompactionThreshold > 1 {
		return errors.NewConfigError(
			nil, "compaction_threshold", fmt.Sprintf("must be in [0, 1], got %v", f.CompactionThreshold),
		)
	}
	if f.SingleFileLimit < 0 {
		return errors.NewConfigError(
			nil, "single_file_limit", fmt.Sprintf("must be non-negative, got %v", f.SingleFileLimit),
		)
	}
	return nil
}

// ToOptions converts the loaded fields into the runtime Options the engine
// is constructed with.
func (f Fields) ToOptions(base options.Options) options.Options {
	opts := base
	if f.StoragePath != "" {
		opts.DataDir = f.StoragePath
	}
	if f.SyncStrategy != "" {
		opts.SyncStrategy = options.SyncStrategy(f.SyncStrategy)
	}
	if f.FsyncIntervalMs > 0 {
		opts.FsyncIntervalMs = f.FsyncIntervalMs
	}
	if f.CompactionThreshold > 0 {
		opts.CompactionThreshold = f.CompactionThreshold
	}
	if f.FileCacheCapacity > 0 {
		opts.FileCacheCapacity = f.FileCacheCapacity
	}
	if f.SingleFileLimit > 0 {
		segCopy := *opts.SegmentOptions
		segCopy.Size = uint64(f.SingleFileLimit * 1024 * 1024 * 1024)
		opts.SegmentOptions = &segCopy
	}
	return opts
}
