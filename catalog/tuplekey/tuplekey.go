// Package tuplekey provides a small xxhash-backed deduplication set used
// while accumulating index-scan result ids, mirroring the hash-based
// build-side sets the storage layer already builds for its own hash-join
// matching.
package tuplekey

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Set deduplicates int64 row ids seen across repeated index.Scan calls
// while a scan's result_ids accumulator fills up to its capacity.
type Set struct {
	seen map[uint64]struct{}
}

// NewSet preallocates a set sized for capacity row ids.
func NewSet(capacity int) *Set {
	return &Set{seen: make(map[uint64]struct{}, capacity)}
}

// Add reports whether rowID was newly inserted (false means it was already
// present and the caller should skip it).
func (s *Set) Add(rowID int64) bool {
	h := hashRowID(rowID)
	if _, ok := s.seen[h]; ok {
		return false
	}
	s.seen[h] = struct{}{}
	return true
}

// Len returns the number of distinct row ids seen so far.
func (s *Set) Len() int { return len(s.seen) }

func hashRowID(id int64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(id))
	return xxhash.Sum64(buf[:])
}
