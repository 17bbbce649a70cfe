// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

package index

import "github.com/corvidx/corvid/internal/engine"

// PartitionReader pairs a Reader with the partition it came from, so
// callers and the admin surface can attribute hits/segment counts back to
// a partition.
type PartitionReader struct {
	PartitionID PartitionID
	Reader      engine.Reader
}

// ReaderSnapshot is an immutable, ordered list of per-partition readers —
// Disk first, then the active memory partition (spec §3). Every reader in
// the list has already been IncRef'd; the holder must return the whole
// snapshot exactly once via ReturnIndexReaders.
type ReaderSnapshot struct {
	Readers []*PartitionReader
}

// tombstoneReader is implemented by readers (memReader) that can still
// name UIDs they have removed since their engine was last cleared. A
// Disk reader has no fresher partition behind it, so it never needs one.
type tombstoneReader interface {
	DeletedUIDs() []uint64
}

// UIDs returns the union of UIDs visible across every reader in the
// snapshot. Within a single reader, deletes are reflected by it already
// omitting tombstoned UIDs. Across partitions, a UID a fresher partition
// has deleted must not reappear just because a staler partition still
// has it live — e.g. a realtime delete of a Disk-resident document
// removes it from the active memory reader's UIDs but Disk has not been
// flushed yet, so the plain union would resurrect it. Each reader's
// DeletedUIDs, when present, are consulted to suppress exactly that case.
func (s *ReaderSnapshot) UIDs() []uint64 {
	seen := make(map[uint64]struct{})
	tombstoned := make(map[uint64]struct{})
	// Walk memory-partition readers first so their presence/absence of a
	// UID takes precedence over the (possibly stale) Disk reader.
	for i := len(s.Readers) - 1; i >= 0; i-- {
		r := s.Readers[i].Reader
		for _, uid := range r.UIDs() {
			if _, gone := tombstoned[uid]; gone {
				continue
			}
			seen[uid] = struct{}{}
		}
		if tr, ok := r.(tombstoneReader); ok {
			for _, uid := range tr.DeletedUIDs() {
				if _, live := seen[uid]; !live {
					tombstoned[uid] = struct{}{}
				}
			}
		}
	}
	out := make([]uint64, 0, len(seen))
	for uid := range seen {
		out = append(out, uid)
	}
	return out
}

// IncRefAll increments every reader's reference count. Used by the Reader
// Cache when handing out a borrowed copy of the current snapshot (spec
// §4.6's getIndexReaders).
func (s *ReaderSnapshot) IncRefAll() {
	for _, r := range s.Readers {
		r.Reader.IncRef()
	}
}

// DecRefAll decrements every reader's reference count. Used by the Reader
// Cache Maintainer's return-queue drain (spec §4.7 step 5).
func (s *ReaderSnapshot) DecRefAll() {
	for _, r := range s.Readers {
		r.Reader.DecRef()
	}
}
