package bitcask

import (
	"os"
	"path/filepath"

	"github.com/iamNilotpal/ignitedb/internal/index"
	"github.com/iamNilotpal/ignitedb/internal/record"
	"github.com/iamNilotpal/ignitedb/pkg/errors"
	"github.com/iamNilotpal/ignitedb/pkg/seginfo"
)

// rotate is called whenever the active segment has reached its configured
// size limit. If the store's garbage ratio exceeds the configured
// threshold, a full compaction first reclaims sealed-segment space. In
// either case the active segment is then sealed and a fresh one opened,
// since compaction never rewrites the active segment.
func (s *Store) rotate() error {
	status, err := s.Status()
	if err != nil {
		return err
	}

	if status.GarbageRatio() > s.options.CompactionThreshold {
		s.log.Infow("garbage ratio exceeds threshold, compacting", "ratio", status.GarbageRatio())
		if err := s.compact(); err != nil {
			return err
		}
	}

	return s.rolloverLocked()
}

// rolloverLocked seals the current active segment and opens a new one.
func (s *Store) rolloverLocked() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sealedID := s.active.id
	sealedSize := s.active.size

	if _, err := s.active.seal(s.dir); err != nil {
		return err
	}
	s.sealed[sealedID] = sealedSize

	newID := seginfo.NextID()
	newSegment, err := openActiveSegment(s.dir, newID)
	if err != nil {
		return err
	}

	s.log.Infow("rolled over active segment", "sealed", sealedID, "newActive", newID)
	s.active = newSegment
	return nil
}

// compact rewrites every live key into a single fresh sealed segment and
// discards every previously sealed segment file. The active segment is left
// untouched; compaction only ever reclaims space from sealed segments,
// which keeps the write path (appending to the active segment) uncontended
// while compaction runs.
func (s *Store) compact() error {
	keys, pointers, err := s.idx.Snapshot()
	if err != nil {
		return err
	}

	s.mu.RLock()
	oldSealed := make([]uint64, 0, len(s.sealed))
	for id := range s.sealed {
		oldSealed = append(oldSealed, id)
	}
	activeID := s.active.id
	s.mu.RUnlock()

	if len(oldSealed) == 0 {
		return nil
	}

	newID := seginfo.NextID()
	newPath := filepath.Join(s.dir, seginfo.Name(newID))
	newFile, err := os.OpenFile(newPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to create compaction segment").
			WithPath(newPath)
	}

	var offset int64
	newPointers := make(map[string]index.RecordPointer, len(keys))
	for i, key := range keys {
		pointer := pointers[i]
		if pointer.SegmentID == activeID {
			// Entries still in the active segment are not eligible for
			// this round of compaction; they move over on the next one.
			continue
		}

		frame, err := s.readFrame(pointer)
		if err != nil {
			_ = newFile.Close()
			return err
		}

		rec, err := record.Decode(frame)
		if err != nil {
			_ = newFile.Close()
			return err
		}
		if rec.Tombstone {
			continue
		}

		if _, err := newFile.Write(frame); err != nil {
			_ = newFile.Close()
			return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to write compacted entry").
				WithPath(newPath)
		}

		newPointers[key] = index.RecordPointer{
			SegmentID: newID,
			Offset:    offset,
			EntrySize: uint32(len(frame)),
			ValueSize: pointer.ValueSize,
		}
		offset += int64(len(frame))
	}

	if err := newFile.Sync(); err != nil {
		_ = newFile.Close()
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to fsync compaction segment").
			WithPath(newPath)
	}
	if err := newFile.Close(); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to close compaction segment").
			WithPath(newPath)
	}

	// Only move the index entry if nothing overwrote the key between the
	// snapshot above and now; otherwise the newer write wins and the
	// compacted copy of this key is simply dead space to be reclaimed by
	// the next compaction.
	for i, key := range keys {
		newPointer, moved := newPointers[key]
		if !moved {
			continue
		}
		current, ok, err := s.idx.Get(key)
		if err != nil {
			return err
		}
		if !ok || current != pointers[i] {
			continue
		}
		if err := s.idx.Set(key, newPointer); err != nil {
			return err
		}
	}

	s.mu.Lock()
	for _, id := range oldSealed {
		delete(s.sealed, id)
		path := filepath.Join(s.dir, seginfo.Name(id))
		s.cache.drop(id)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.mu.Unlock()
			return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to remove compacted segment").
				WithPath(path)
		}
	}
	s.sealed[newID] = offset
	s.mu.Unlock()

	s.log.Infow("compaction complete", "newSegment", newID, "removedSegments", len(oldSealed), "liveBytes", offset)
	return nil
}
