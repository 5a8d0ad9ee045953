package bitcask

import (
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/iamNilotpal/ignitedb/pkg/errors"
	"github.com/iamNilotpal/ignitedb/pkg/seginfo"
)

// activeSegment is the single append-target segment file in a storage
// directory. Its exclusive advisory lock is what keeps two processes from
// opening the same data directory at once.
type activeSegment struct {
	id       uint64
	file     *os.File
	fileLock *flock.Flock
	size     int64
}

// openActiveSegment opens (creating if absent) the active segment with the
// given identifier, acquires its exclusive lock, and positions size at the
// current end of file.
func openActiveSegment(dir string, id uint64) (*activeSegment, error) {
	name := seginfo.ActiveName(id)
	path := filepath.Join(dir, name)

	fileLock := flock.New(path)
	locked, err := fileLock.TryLock()
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeLock, "failed to acquire segment lock").
			WithPath(path).WithFileName(name)
	}
	if !locked {
		return nil, errors.NewSegmentLockError(nil, path, name)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		_ = fileLock.Unlock()
		return nil, errors.ClassifyFileOpenError(err, path, name)
	}

	offset, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		_ = file.Close()
		_ = fileLock.Unlock()
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to seek active segment to end").
			WithPath(path).WithFileName(name)
	}

	return &activeSegment{id: id, file: file, fileLock: fileLock, size: offset}, nil
}

// append writes a pre-encoded record frame and returns the offset it was
// written at.
func (a *activeSegment) append(frame []byte) (offset int64, err error) {
	offset = a.size
	n, err := a.file.Write(frame)
	if err != nil {
		return 0, err
	}
	a.size += int64(n)
	return offset, nil
}

func (a *activeSegment) sync() error {
	if err := a.file.Sync(); err != nil {
		return errors.ClassifySyncError(err, filepath.Base(a.file.Name()), a.file.Name(), int(a.size))
	}
	return nil
}

// seal closes the active segment's file handle, renames it to its sealed
// (non-active) name and releases its exclusive lock, returning the sealed
// path. Later reads of the sealed file open a new handle through
// openSealedForRead.
func (a *activeSegment) seal(dir string) (string, error) {
	if err := a.file.Close(); err != nil {
		return "", err
	}

	oldPath := filepath.Join(dir, seginfo.ActiveName(a.id))
	newPath := filepath.Join(dir, seginfo.Name(a.id))
	if err := os.Rename(oldPath, newPath); err != nil {
		return "", errors.NewStorageError(err, errors.ErrorCodeIO, "failed to seal active segment").
			WithPath(oldPath).WithFileName(seginfo.ActiveName(a.id))
	}

	if err := a.fileLock.Unlock(); err != nil {
		return "", err
	}
	return newPath, nil
}

func (a *activeSegment) close() error {
	err := a.file.Close()
	unlockErr := a.fileLock.Unlock()
	if err != nil {
		return err
	}
	return unlockErr
}

// readAt reads size bytes starting at offset from an already-open file
// handle, used for both the active segment and cached sealed handles.
func readAt(file *os.File, offset int64, size uint32) ([]byte, error) {
	buf := make([]byte, size)
	if _, err := file.ReadAt(buf, offset); err != nil {
		return nil, err
	}
	return buf, nil
}

// sealedHandle pairs an open read-only sealed-segment file with the shared
// advisory lock taken on it. Unlike the active segment's exclusive lock
// (which enforces single-writer, single-opener access), this is a shared
// lock: any number of readers, including the file cache reopening the same
// segment after eviction, may hold it at once. It exists so every open
// segment file, active or sealed, holds a lock for its lifetime rather than
// only the active one.
type sealedHandle struct {
	file *os.File
	lock *flock.Flock
}

func (h *sealedHandle) close() error {
	err := h.file.Close()
	unlockErr := h.lock.Unlock()
	if err != nil {
		return err
	}
	return unlockErr
}

// openSealedForRead opens a sealed segment file read-only and takes a
// shared advisory lock on it.
func openSealedForRead(dir string, id uint64) (*sealedHandle, error) {
	name := seginfo.Name(id)
	path := filepath.Join(dir, name)

	fileLock := flock.New(path)
	locked, err := fileLock.TryRLock()
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeLock, "failed to acquire shared segment lock").
			WithPath(path).WithFileName(name)
	}
	if !locked {
		return nil, errors.NewSegmentLockError(nil, path, name)
	}

	file, err := os.OpenFile(path, os.O_RDONLY, 0644)
	if err != nil {
		_ = fileLock.Unlock()
		return nil, errors.ClassifyFileOpenError(err, path, name)
	}
	return &sealedHandle{file: file, lock: fileLock}, nil
}
