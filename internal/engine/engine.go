// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

// Package engine defines the inverted-index engine and directory-manager
// external interfaces (spec §6) and ships two implementations: BadgerEngine,
// a github.com/dgraph-io/badger/v4-backed engine standing in for a real
// segmented inverted-index writer/reader, and MemEngine, a non-persistent
// in-memory engine used for the Mem-A/Mem-B partitions and for fast,
// deterministic tests.
package engine

import (
	"io"
	"time"

	"github.com/corvidx/corvid/internal/interpreter"
)

// Reader is a point-in-time, reference-counted view over an engine's
// committed contents. IncRef/DecRef must be paired; the reader's
// resources are released when the count reaches zero.
type Reader interface {
	// IncRef increments the reference count. OpenReader already sets the
	// count to 1; IncRef is called by any caller that retains an
	// additional reference.
	IncRef()

	// DecRef decrements the reference count, releasing engine resources
	// when it reaches zero.
	DecRef()

	// UIDs returns the set of live (non-tombstoned) document ids visible
	// through this reader. It is the minimal query surface this core
	// needs for its own invariant tests; full query execution is out of
	// scope.
	UIDs() []uint64

	// Segments reports the number of immutable segments backing this
	// reader.
	Segments() int
}

// Engine is the opaque inverted-index writer/reader engine this core
// drives (spec §6). A Partition owns exactly one Engine instance.
type Engine interface {
	// Open prepares the engine to accept writes, using dir for any
	// persistent state. MemEngine ignores dir entirely.
	Open(dir DirectoryManager) error

	// ApplyBatch applies a batch of Indexables and returns the version
	// the engine now reflects in its writer (not yet necessarily
	// committed/durable — see Commit).
	ApplyBatch(batch []interpreter.Indexable, version uint64) (uint64, error)

	// Commit durably commits everything applied up to version.
	Commit(version uint64) error

	// OpenReader publishes a fresh reader over the engine's current
	// committed contents, with its reference count initialized to 1.
	OpenReader() (Reader, error)

	// Optimize requests the engine merge down to at most targetSegments
	// segments.
	Optimize(targetSegments int) error

	// ExpungeDeletes forces removal of tombstoned documents.
	ExpungeDeletes() error

	// SnapshotTo byte-streams a consistent snapshot of committed
	// contents to sink.
	SnapshotTo(sink io.Writer) error

	// RestoreFrom replaces the engine's contents atomically from a
	// snapshot produced by SnapshotTo, returning the restored version.
	// Returns errs.ErrInvalidSnapshot (wrapped) on a corrupt stream,
	// leaving on-disk state unchanged.
	RestoreFrom(source io.Reader) (uint64, error)

	// SegmentCount reports the current number of immutable segments.
	SegmentCount() int

	// SizeBytes reports the approximate on-disk (or in-memory) footprint.
	SizeBytes() int64

	// Version reports the highest committed version.
	Version() uint64

	// Close releases all engine resources.
	Close() error

	// Export returns every live (non-tombstoned) document as an Indexable
	// with Op set to Add, for merging a frozen memory partition's contents
	// into the Disk partition (spec §4.4's loadFromIndex). MemEngine also
	// emits an OpDelete entry for each UID deleted since its last Clear;
	// BadgerEngine emits only the live OpAdd entries.
	Export() ([]interpreter.Indexable, error)
}

// DirectoryManager is the persistence-directory external interface (spec
// §6): opens/commits/enumerates persistent index storage.
type DirectoryManager interface {
	// Path returns the filesystem location backing this directory.
	Path() string

	// Version returns the last committed version found on disk at open
	// time.
	Version() uint64

	// LastIndexModifiedTime returns the modification time of the most
	// recently written segment.
	LastIndexModifiedTime() time.Time

	// Exists reports whether persistent state already exists at Path().
	Exists() bool
}
