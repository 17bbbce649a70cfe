// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/corvidx/corvid/internal/config"
	"github.com/corvidx/corvid/internal/engine"
	"github.com/corvidx/corvid/internal/health"
	"github.com/corvidx/corvid/internal/index"
	"github.com/corvidx/corvid/internal/interpreter"
	"github.com/corvidx/corvid/internal/logging"
)

func newTestBatchedLoader(t *testing.T, diskEng engine.Engine, cfg config.LoaderConfig) (*BatchedLoader, *index.SearchIndexManager) {
	t.Helper()
	mgr, err := index.NewSearchIndexManager(diskEng, engine.NewMemEngine(), engine.NewMemEngine(), nil, index.ManagerConfig{DocIDMapperFactory: "test"})
	if err != nil {
		t.Fatalf("NewSearchIndexManager: %v", err)
	}
	disk := NewDiskLoader(mgr.Disk(), 5, NewOptimizeScheduler(0), health.NewTracker(), logging.NewPipelineLogger())
	bl := NewBatchedLoader(mgr, disk, cfg, logging.NewPipelineLogger(), nil)
	return bl, mgr
}

func TestBatchedLoaderFlushesAtBatchSize(t *testing.T) {
	cfg := config.LoaderConfig{BatchSize: 2, MaxBatchSize: 100, BatchDelay: time.Hour}
	bl, mgr := newTestBatchedLoader(t, engine.NewMemEngine(), cfg)
	bl.Start(context.Background())
	defer bl.Close(context.Background())

	batch := []interpreter.Indexable{
		{UID: 1, Doc: []byte("a"), Op: interpreter.OpAdd},
		{UID: 2, Doc: []byte("b"), Op: interpreter.OpAdd},
	}
	if err := bl.Consume(context.Background(), batch, 1); err != nil {
		t.Fatalf("Consume: %v", err)
	}

	if err := bl.FlushEvents(context.Background(), 2*time.Second); err != nil {
		t.Fatalf("FlushEvents: %v", err)
	}

	if mgr.Disk().Version() != 1 {
		t.Errorf("expected disk version 1 after flush, got %d", mgr.Disk().Version())
	}
	r, _ := mgr.Disk().Engine.OpenReader()
	uids := r.UIDs()
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
	if len(uids) != 2 || uids[0] != 1 || uids[1] != 2 {
		t.Errorf("expected disk UIDs [1 2], got %v", uids)
	}
}

func TestBatchedLoaderPropagatesDeleteToDiskAfterFlush(t *testing.T) {
	cfg := config.LoaderConfig{BatchSize: 1, MaxBatchSize: 100, BatchDelay: time.Hour}
	bl, mgr := newTestBatchedLoader(t, engine.NewMemEngine(), cfg)
	bl.Start(context.Background())
	defer bl.Close(context.Background())

	if err := bl.Consume(context.Background(), []interpreter.Indexable{
		{UID: 1, Doc: []byte("a"), Op: interpreter.OpAdd},
	}, 1); err != nil {
		t.Fatalf("Consume add: %v", err)
	}
	if err := bl.FlushEvents(context.Background(), 2*time.Second); err != nil {
		t.Fatalf("FlushEvents after add: %v", err)
	}

	r, _ := mgr.Disk().Engine.OpenReader()
	if uids := r.UIDs(); len(uids) != 1 || uids[0] != 1 {
		t.Fatalf("expected disk UID [1] after add flush, got %v", uids)
	}

	if err := bl.Consume(context.Background(), []interpreter.Indexable{
		{UID: 1, Op: interpreter.OpDelete},
	}, 2); err != nil {
		t.Fatalf("Consume delete: %v", err)
	}
	if err := bl.FlushEvents(context.Background(), 2*time.Second); err != nil {
		t.Fatalf("FlushEvents after delete: %v", err)
	}

	snap, err := mgr.AcquireSnapshot()
	if err != nil {
		t.Fatalf("AcquireSnapshot: %v", err)
	}
	defer snap.DecRefAll()
	if uids := snap.UIDs(); len(uids) != 0 {
		t.Errorf("expected UID 1 gone from the snapshot after delete flush, got %v", uids)
	}

	diskReader, _ := mgr.Disk().Engine.OpenReader()
	if uids := diskReader.UIDs(); len(uids) != 0 {
		t.Errorf("expected UID 1 deleted from disk engine directly, got %v", uids)
	}
}

func TestBatchedLoaderCoalescesUnderThreshold(t *testing.T) {
	cfg := config.LoaderConfig{BatchSize: 100, MaxBatchSize: 1000, BatchDelay: time.Hour}
	bl, _ := newTestBatchedLoader(t, engine.NewMemEngine(), cfg)
	bl.Start(context.Background())
	defer bl.Close(context.Background())

	if err := bl.Consume(context.Background(), []interpreter.Indexable{{UID: 1, Doc: []byte("a"), Op: interpreter.OpAdd}}, 1); err != nil {
		t.Fatalf("Consume: %v", err)
	}

	// BatchDelay is an hour and BatchSize is far from reached, so nothing
	// should have flushed yet.
	if bl.AbsorbedVersion() != 0 {
		t.Errorf("expected no absorption before threshold, got version %d", bl.AbsorbedVersion())
	}
}

func TestBatchedLoaderRetriesAfterFailure(t *testing.T) {
	cfg := config.LoaderConfig{BatchSize: 1, MaxBatchSize: 100, BatchDelay: time.Hour}
	failing := &failingEngine{MemEngine: engine.NewMemEngine()}
	bl, mgr := newTestBatchedLoader(t, failing, cfg)
	bl.Start(context.Background())
	defer bl.Close(context.Background())

	_ = bl.Consume(context.Background(), []interpreter.Indexable{{UID: 1, Doc: []byte("a"), Op: interpreter.OpAdd}}, 1)

	deadline := time.Now().Add(1 * time.Second)
	for time.Now().Before(deadline) {
		bl.mu.Lock()
		pending := bl.pendingFlush
		bl.mu.Unlock()
		if pending != nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	bl.mu.Lock()
	pending := bl.pendingFlush
	bl.mu.Unlock()
	if pending == nil {
		t.Fatal("expected a pending flush partition after repeated failure")
	}
	if pending.State() != index.StateFlushing {
		t.Errorf("expected retrying partition to remain flushing, got %s", pending.State())
	}
	if mgr.Disk().Version() != 0 {
		t.Errorf("expected disk version to remain 0 after failed flush, got %d", mgr.Disk().Version())
	}
}

func TestBatchedLoaderBackpressureAtMaxBatchSize(t *testing.T) {
	cfg := config.LoaderConfig{BatchSize: 1000, MaxBatchSize: 1, BatchDelay: time.Hour}
	bl, _ := newTestBatchedLoader(t, engine.NewMemEngine(), cfg)
	// No Start(): nothing will drain the staging buffer, so the second
	// Consume call must block until Close releases waiters.
	if err := bl.Consume(context.Background(), []interpreter.Indexable{{UID: 1, Doc: []byte("a"), Op: interpreter.OpAdd}}, 1); err != nil {
		t.Fatalf("first Consume: %v", err)
	}

	blocked := make(chan error, 1)
	go func() {
		blocked <- bl.Consume(context.Background(), []interpreter.Indexable{{UID: 2, Doc: []byte("b"), Op: interpreter.OpAdd}}, 2)
	}()

	select {
	case <-blocked:
		t.Fatal("expected second Consume to block while staging is at MaxBatchSize")
	case <-time.After(100 * time.Millisecond):
	}

	if err := bl.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	select {
	case err := <-blocked:
		if err == nil {
			t.Fatal("expected blocked Consume to observe closed loader")
		}
	case <-time.After(1 * time.Second):
		t.Fatal("blocked Consume never returned after Close")
	}
}
