// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

package index

import (
	"fmt"
	"sync"

	"github.com/corvidx/corvid/internal/engine"
	"github.com/corvidx/corvid/internal/errs"
)

// SegmentPolicy carries the engine pass-through tunables spec §4.5
// names: number of "large" segments, cap on "small" segments, plus
// merge-factor, max-merge-docs, and use-compound-file.
type SegmentPolicy struct {
	NumLargeSegments int
	MaxSmallSegments int
	MergeFactor      int
	MaxMergeDocs     int
	UseCompoundFile  bool
}

// ManagerConfig configures a SearchIndexManager.
type ManagerConfig struct {
	DocIDMapperFactory string
	Policy             SegmentPolicy
}

// SearchIndexManager owns the three index partitions and produces reader
// snapshots (spec §4.5). Swaps happen under an exclusive lock so no
// reader snapshot can straddle a swap (spec §5).
type SearchIndexManager struct {
	mu sync.Mutex

	disk *Partition
	memA *Partition
	memB *Partition

	active *Partition // points at memA or memB, whichever is currently StateActive

	docIDMapperFactory string
	policy             SegmentPolicy
}

// NewSearchIndexManager constructs a manager with Mem-A initially ACTIVE
// and Mem-B EMPTY, per spec §4.5.
func NewSearchIndexManager(diskEngine, memAEngine, memBEngine engine.Engine, dir engine.DirectoryManager, cfg ManagerConfig) (*SearchIndexManager, error) {
	if diskEngine == nil || memAEngine == nil || memBEngine == nil {
		return nil, fmt.Errorf("%w: all three partition engines are required", errs.ErrConfigError)
	}
	if err := diskEngine.Open(dir); err != nil {
		return nil, err
	}
	if err := memAEngine.Open(nil); err != nil {
		return nil, err
	}
	if err := memBEngine.Open(nil); err != nil {
		return nil, err
	}

	disk := NewPartition(Disk, diskEngine, StateActive)
	disk.SetVersion(diskEngine.Version())
	memA := NewPartition(MemA, memAEngine, StateActive)
	memB := NewPartition(MemB, memBEngine, StateEmpty)

	return &SearchIndexManager{
		disk:               disk,
		memA:               memA,
		memB:               memB,
		active:             memA,
		docIDMapperFactory: cfg.DocIDMapperFactory,
		policy:             cfg.Policy,
	}, nil
}

// Disk returns the Disk partition.
func (m *SearchIndexManager) Disk() *Partition {
	return m.disk
}

// Active returns the currently ACTIVE memory partition.
func (m *SearchIndexManager) Active() *Partition {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// MemA returns the Mem-A partition.
func (m *SearchIndexManager) MemA() *Partition { return m.memA }

// MemB returns the Mem-B partition.
func (m *SearchIndexManager) MemB() *Partition { return m.memB }

// Policy returns the current segment policy.
func (m *SearchIndexManager) Policy() SegmentPolicy {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.policy
}

// SetPolicy updates the segment policy (admin surface setters).
func (m *SearchIndexManager) SetPolicy(p SegmentPolicy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.policy = p
}

// AcquireSnapshot produces a fresh ReaderSnapshot: [Disk reader, active
// memory partition reader], each freshly opened with an initial refcount
// of 1 (spec §3, §4.5). This is the raw, uncached snapshot production the
// Reader Cache Maintainer calls on every tick; callers wanting the cached,
// rate-limited version should use internal/cache instead.
func (m *SearchIndexManager) AcquireSnapshot() (*ReaderSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	active := m.active

	diskReader, err := m.disk.Engine.OpenReader()
	if err != nil {
		return nil, fmt.Errorf("%w: open disk reader: %v", errs.ErrEngineIO, err)
	}
	memReader, err := active.Engine.OpenReader()
	if err != nil {
		return nil, fmt.Errorf("%w: open %s reader: %v", errs.ErrEngineIO, active.ID, err)
	}

	return &ReaderSnapshot{
		Readers: []*PartitionReader{
			{PartitionID: Disk, Reader: diskReader},
			{PartitionID: active.ID, Reader: memReader},
		},
	}, nil
}

// Swap implements the flush protocol's step 1 (spec §4.2): the current
// active memory partition becomes FLUSHING; the other memory partition
// (which must be EMPTY) becomes ACTIVE. Returns the partition that is now
// flushing (to be drained to Disk by the caller) and the partition that
// is now active (receiving new writes). Swaps happen under the manager's
// exclusive lock so no AcquireSnapshot call can observe a state between
// the two transitions (spec §5).
func (m *SearchIndexManager) Swap() (flushing, newActive *Partition, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.active
	var other *Partition
	if current == m.memA {
		other = m.memB
	} else {
		other = m.memA
	}

	if other.State() != StateEmpty {
		return nil, nil, fmt.Errorf("%w: cannot swap, %s is not empty (state=%s)", errs.ErrEngineIO, other.ID, other.State())
	}

	current.state.Store(int32(StateFlushing))
	other.state.Store(int32(StateActive))
	m.active = other

	return current, other, nil
}

// CommitFlush clears a flushing partition after its contents have been
// durably committed to Disk, returning it to EMPTY (spec §4.2 step 3).
// The Disk partition's version is advanced to match.
func (m *SearchIndexManager) CommitFlush(flushing *Partition, diskVersion uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if clearer, ok := flushing.Engine.(interface{ Clear() }); ok {
		clearer.Clear()
	}
	flushing.SetVersion(0)
	flushing.state.Store(int32(StateEmpty))
	m.disk.SetVersion(diskVersion)
}

// RetryFlush leaves a flushing partition exactly as it is after a failed
// Disk commit (spec §4.2 step 4): the next flush attempt will retry with
// its existing contents plus anything staged since.
func (m *SearchIndexManager) RetryFlush(flushing *Partition) {
	// No state transition: FLUSHING is the correct state to remain in.
}

// MinMaxUID aggregates the observed UID range across all three
// partitions, for the admin surface's "min/max UID across all partitions"
// getter.
func (m *SearchIndexManager) MinMaxUID() (min, max uint64, ok bool) {
	var anySeen bool
	for _, p := range []*Partition{m.disk, m.memA, m.memB} {
		pMin, pMax, pOK := p.UIDRange()
		if !pOK {
			continue
		}
		if !anySeen {
			min, max, anySeen = pMin, pMax, true
			continue
		}
		if pMin < min {
			min = pMin
		}
		if pMax > max {
			max = pMax
		}
	}
	return min, max, anySeen
}

// PurgeAll wipes every partition's contents and resets their version and
// UID-range tracking, backing the admin surface's purgeIndex command
// (spec §6). Held under the manager's exclusive lock so no AcquireSnapshot
// call can observe a partially-purged state.
func (m *SearchIndexManager) PurgeAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range []*Partition{m.disk, m.memA, m.memB} {
		switch e := p.Engine.(type) {
		case interface{ Clear() }:
			e.Clear()
		case interface{ Purge() error }:
			if err := e.Purge(); err != nil {
				return err
			}
		}
		p.SetVersion(0)
		p.resetUIDRange()
	}
	return nil
}

// Close releases all three partitions' engine resources.
func (m *SearchIndexManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var firstErr error
	for _, p := range []*Partition{m.disk, m.memA, m.memB} {
		if err := p.Engine.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
