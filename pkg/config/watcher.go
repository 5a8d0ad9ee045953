package config

import (
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Live holds the currently-effective configuration fields, safe for
// concurrent reads from many goroutines while a Watcher patches it in the
// background.
type Live struct {
	value atomic.Pointer[Fields]
}

// NewLive wraps an initial snapshot of fields.
func NewLive(initial Fields) *Live {
	l := &Live{}
	l.value.Store(&initial)
	return l
}

// Get returns the current configuration snapshot.
func (l *Live) Get() Fields {
	return *l.value.Load()
}

// set replaces the snapshot wholesale, preserving storage_path from the
// previous value since it is fixed for the process lifetime.
func (l *Live) set(next Fields) {
	current := l.Get()
	next.StoragePath = current.StoragePath
	l.value.Store(&next)
}

// Watcher reloads a TOML config file whenever it changes on disk and
// patches the fields into a Live value. storage_path is never propagated
// by a reload, even if present in the new file on disk: relocating storage
// requires a restart.
type Watcher struct {
	path string
	live *Live
	log  *zap.SugaredLogger

	watcher *fsnotify.Watcher
	wg      sync.WaitGroup
	done    chan struct{}
}

// NewWatcher starts watching path for changes and applies them to live.
func NewWatcher(path string, live *Live, log *zap.SugaredLogger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(path); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w := &Watcher{path: path, live: live, log: log, watcher: fsw, done: make(chan struct{})}
	w.wg.Add(1)
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			file, err := Load(w.path)
			if err != nil {
				w.log.Warnw("ignoring invalid config reload", "path", w.path, "error", err)
				continue
			}
			w.live.set(file.Config)
			w.log.Infow("reloaded configuration", "path", w.path)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warnw("config watcher error", "error", err)
		}
	}
}

// Close stops the watcher goroutine and releases its file-system handle.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}
