// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

package index

import (
	"sync"
	"testing"

	"github.com/corvidx/corvid/internal/engine"
	"github.com/corvidx/corvid/internal/interpreter"
)

func newTestManager(t *testing.T) *SearchIndexManager {
	t.Helper()
	m, err := NewSearchIndexManager(engine.NewMemEngine(), engine.NewMemEngine(), engine.NewMemEngine(), nil, ManagerConfig{
		DocIDMapperFactory: "test",
	})
	if err != nil {
		t.Fatalf("NewSearchIndexManager: %v", err)
	}
	return m
}

func TestExactlyOneActiveAtConstruction(t *testing.T) {
	m := newTestManager(t)
	if m.memA.State() != StateActive {
		t.Errorf("expected memA active, got %s", m.memA.State())
	}
	if m.memB.State() != StateEmpty {
		t.Errorf("expected memB empty, got %s", m.memB.State())
	}
}

func TestSwapTransitionsStates(t *testing.T) {
	m := newTestManager(t)
	flushing, newActive, err := m.Swap()
	if err != nil {
		t.Fatalf("Swap: %v", err)
	}
	if flushing.ID != MemA {
		t.Errorf("expected memA to be flushing, got %s", flushing.ID)
	}
	if newActive.ID != MemB {
		t.Errorf("expected memB to be new active, got %s", newActive.ID)
	}
	if flushing.State() != StateFlushing {
		t.Errorf("expected flushing partition state=flushing, got %s", flushing.State())
	}
	if newActive.State() != StateActive {
		t.Errorf("expected new active partition state=active, got %s", newActive.State())
	}
	if m.Active().ID != MemB {
		t.Errorf("expected manager active=memB, got %s", m.Active().ID)
	}
}

func TestSwapRejectsWhenOtherPartitionNotEmpty(t *testing.T) {
	m := newTestManager(t)
	if _, _, err := m.Swap(); err != nil {
		t.Fatalf("first Swap: %v", err)
	}
	// memA is now flushing, memB is active; swapping again requires memA
	// to be empty, which it is not yet.
	if _, _, err := m.Swap(); err == nil {
		t.Fatal("expected second Swap to fail while memA is still flushing")
	}
}

func TestCommitFlushClearsAndResetsVersion(t *testing.T) {
	m := newTestManager(t)
	_, _ = m.memA.Engine.ApplyBatch([]interpreter.Indexable{{UID: 1, Doc: []byte("x"), Op: interpreter.OpAdd}}, 7)
	m.memA.SetVersion(7)

	flushing, _, err := m.Swap()
	if err != nil {
		t.Fatalf("Swap: %v", err)
	}

	m.CommitFlush(flushing, 7)

	if flushing.State() != StateEmpty {
		t.Errorf("expected flushing partition to return to empty, got %s", flushing.State())
	}
	if flushing.Version() != 0 {
		t.Errorf("expected cleared partition version 0, got %d", flushing.Version())
	}
	if m.disk.Version() != 7 {
		t.Errorf("expected disk version advanced to 7, got %d", m.disk.Version())
	}

	r, _ := flushing.Engine.OpenReader()
	if len(r.UIDs()) != 0 {
		t.Errorf("expected cleared engine to have no UIDs, got %v", r.UIDs())
	}
}

func TestRetryFlushLeavesFlushingPartitionPopulated(t *testing.T) {
	m := newTestManager(t)
	_, _ = m.memA.Engine.ApplyBatch([]interpreter.Indexable{{UID: 1, Doc: []byte("x"), Op: interpreter.OpAdd}}, 1)

	flushing, _, err := m.Swap()
	if err != nil {
		t.Fatalf("Swap: %v", err)
	}

	m.RetryFlush(flushing)

	if flushing.State() != StateFlushing {
		t.Errorf("expected partition to remain flushing after retry, got %s", flushing.State())
	}
	r, _ := flushing.Engine.OpenReader()
	if len(r.UIDs()) != 1 {
		t.Errorf("expected retry to leave contents intact, got %v", r.UIDs())
	}
}

func TestAcquireSnapshotOrdersDiskThenActive(t *testing.T) {
	m := newTestManager(t)
	_, _ = m.disk.Engine.ApplyBatch([]interpreter.Indexable{{UID: 1, Doc: []byte("d"), Op: interpreter.OpAdd}}, 1)
	_ = m.disk.Engine.Commit(1)
	_, _ = m.memA.Engine.ApplyBatch([]interpreter.Indexable{{UID: 2, Doc: []byte("m"), Op: interpreter.OpAdd}}, 1)

	snap, err := m.AcquireSnapshot()
	if err != nil {
		t.Fatalf("AcquireSnapshot: %v", err)
	}
	if len(snap.Readers) != 2 {
		t.Fatalf("expected 2 readers, got %d", len(snap.Readers))
	}
	if snap.Readers[0].PartitionID != Disk {
		t.Errorf("expected first reader to be disk, got %s", snap.Readers[0].PartitionID)
	}
	if snap.Readers[1].PartitionID != MemA {
		t.Errorf("expected second reader to be active mem partition, got %s", snap.Readers[1].PartitionID)
	}

	union := snap.UIDs()
	if len(union) != 2 {
		t.Errorf("expected union of 2 UIDs, got %v", union)
	}
}

func TestAcquireSnapshotLinearizableAcrossSwap(t *testing.T) {
	m := newTestManager(t)
	var wg sync.WaitGroup
	errs := make(chan error, 50)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := m.AcquireSnapshot()
			if err != nil {
				errs <- err
				return
			}
			if len(snap.Readers) != 2 {
				errs <- err
			}
		}()
	}
	flushing, _, err := m.Swap()
	if err != nil {
		t.Fatalf("Swap: %v", err)
	}
	m.CommitFlush(flushing, 1)
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("unexpected error during concurrent snapshot/swap: %v", err)
		}
	}
}

func TestMinMaxUIDAggregatesAcrossPartitions(t *testing.T) {
	m := newTestManager(t)
	m.disk.TrackUID(5)
	m.disk.TrackUID(10)
	m.memA.TrackUID(1)
	m.memB.TrackUID(20)

	min, max, ok := m.MinMaxUID()
	if !ok {
		t.Fatal("expected ok=true")
	}
	if min != 1 {
		t.Errorf("expected min 1, got %d", min)
	}
	if max != 20 {
		t.Errorf("expected max 20, got %d", max)
	}
}
