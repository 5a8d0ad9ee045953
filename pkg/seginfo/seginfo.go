// Package seginfo names, parses, and discovers the segment files that make
// up a storage directory.
//
// Filename format: a bare monotonically increasing, timestamp-sortable
// identifier, with the single active segment distinguished by an "_active"
// suffix — no other prefix and no file extension:
//
//	01700000000000000001
//	01700000000000000002_active
//
// Zero-padding every identifier to a fixed width of 20 digits keeps
// lexicographic directory listings in creation order; ListSegments also
// sorts the parsed identifiers numerically before replay.
package seginfo

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/iamNilotpal/ignitedb/pkg/filesys"
)

// ActiveSuffix marks the single append-target segment in a storage
// directory.
const ActiveSuffix = "_active"

// idWidth is wide enough to zero-pad the full uint64 range (20 decimal
// digits) so that string sort order equals numeric order.
const idWidth = 20

var lastID atomic.Uint64

// NextID returns a process-unique, monotonically increasing, roughly
// timestamp-ordered identifier for a new segment. It is safe for concurrent
// use. Unlike a plain nanosecond timestamp, it is guaranteed to strictly
// increase even across calls that land in the same clock tick.
func NextID() uint64 {
	for {
		now := uint64(time.Now().UnixNano())
		last := lastID.Load()

		candidate := now
		if candidate <= last {
			candidate = last + 1
		}
		if lastID.CompareAndSwap(last, candidate) {
			return candidate
		}
	}
}

// ActiveName formats the filename for the active segment with identifier id.
func ActiveName(id uint64) string {
	return formatID(id) + ActiveSuffix
}

// Name formats the filename for a non-active (sealed) segment with
// identifier id.
func Name(id uint64) string {
	return formatID(id)
}

func formatID(id uint64) string {
	return fmt.Sprintf("%0*d", idWidth, id)
}

// ParseIdentifier extracts the identifier from a segment filename and
// reports whether it carries the active suffix.
func ParseIdentifier(filename string) (id uint64, active bool, err error) {
	stem := filename
	if strings.HasSuffix(filename, ActiveSuffix) {
		active = true
		stem = strings.TrimSuffix(filename, ActiveSuffix)
	}

	id, err = strconv.ParseUint(stem, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("failed to parse segment identifier from %q: %w", filename, err)
	}
	return id, active, nil
}

// Listing describes the result of scanning a storage directory for segment
// files.
type Listing struct {
	// SealedIDs holds every non-active segment identifier in ascending
	// (creation) order.
	SealedIDs []uint64

	// ActiveID is the identifier of the active segment. Valid only when
	// HasActive is true.
	ActiveID uint64

	// HasActive reports whether the directory already had an active
	// segment.
	HasActive bool
}

// ListSegments scans dir for segment files and classifies them into sealed
// segments (ascending order) and, at most, one active segment.
func ListSegments(dir string) (Listing, error) {
	entries, err := filesys.ReadDir(filepath.Join(dir, "*"))
	if err != nil {
		return Listing{}, fmt.Errorf("failed to read segment directory %s: %w", dir, err)
	}

	var listing Listing
	for _, full := range entries {
		info, statErr := os.Stat(full)
		if statErr != nil || info.IsDir() {
			continue
		}

		filename := filepath.Base(full)
		id, active, parseErr := ParseIdentifier(filename)
		if parseErr != nil {
			// Not a segment file (e.g. stray file dropped in the
			// directory); ignore it rather than fail the whole open.
			continue
		}

		if active {
			listing.ActiveID = id
			listing.HasActive = true
			continue
		}
		listing.SealedIDs = append(listing.SealedIDs, id)
	}

	slices.Sort(listing.SealedIDs)
	return listing, nil
}
