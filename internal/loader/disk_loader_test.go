// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/corvidx/corvid/internal/engine"
	"github.com/corvidx/corvid/internal/health"
	"github.com/corvidx/corvid/internal/index"
	"github.com/corvidx/corvid/internal/interpreter"
	"github.com/corvidx/corvid/internal/logging"
)

// failingEngine wraps a MemEngine but fails every ApplyBatch call, to
// exercise the DiskLoader's circuit-breaker and retry-preserving path.
type failingEngine struct {
	*engine.MemEngine
}

func (f *failingEngine) ApplyBatch(batch []interpreter.Indexable, version uint64) (uint64, error) {
	return 0, errors.New("simulated engine failure")
}

func newTestDiskLoader(t *testing.T, eng engine.Engine) (*DiskLoader, *index.Partition) {
	t.Helper()
	p := index.NewPartition(index.Disk, eng, index.StateActive)
	d := NewDiskLoader(p, 5, NewOptimizeScheduler(0), health.NewTracker(), logging.NewPipelineLogger())
	return d, p
}

func TestLoadFromIndexMergesMemPartitionIntoDisk(t *testing.T) {
	diskEng := engine.NewMemEngine()
	d, _ := newTestDiskLoader(t, diskEng)

	memEng := engine.NewMemEngine()
	_, _ = memEng.ApplyBatch([]interpreter.Indexable{
		{UID: 1, Doc: []byte("a"), Op: interpreter.OpAdd},
		{UID: 2, Doc: []byte("b"), Op: interpreter.OpAdd},
	}, 4)
	mem := index.NewPartition(index.MemA, memEng, index.StateFlushing)
	mem.SetVersion(4)

	version, err := d.LoadFromIndex(context.Background(), mem)
	if err != nil {
		t.Fatalf("LoadFromIndex: %v", err)
	}
	if version != 4 {
		t.Errorf("expected version 4, got %d", version)
	}

	r, _ := diskEng.OpenReader()
	uids := r.UIDs()
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
	if len(uids) != 2 || uids[0] != 1 || uids[1] != 2 {
		t.Errorf("expected disk to contain UIDs [1 2], got %v", uids)
	}
}

func TestLoadFromIndexFailurePreservesHealthAndReturnsError(t *testing.T) {
	d, _ := newTestDiskLoader(t, &failingEngine{MemEngine: engine.NewMemEngine()})

	memEng := engine.NewMemEngine()
	_, _ = memEng.ApplyBatch([]interpreter.Indexable{{UID: 1, Doc: []byte("a"), Op: interpreter.OpAdd}}, 1)
	mem := index.NewPartition(index.MemA, memEng, index.StateFlushing)
	mem.SetVersion(1)

	if _, err := d.LoadFromIndex(context.Background(), mem); err == nil {
		t.Fatal("expected error from failing engine")
	}
	// One failure is below the breaker's threshold of 5, so health stays OK.
	if got := d.health.Get(); got != health.OK {
		t.Errorf("expected health OK after a single failure, got %v", got)
	}
}

func TestExportSnapshotImportSnapshotRoundTrip(t *testing.T) {
	diskEng := engine.NewMemEngine()
	_, _ = diskEng.ApplyBatch([]interpreter.Indexable{{UID: 9, Doc: []byte("z"), Op: interpreter.OpAdd}}, 2)
	_ = diskEng.Commit(2)
	d, _ := newTestDiskLoader(t, diskEng)

	var buf bytes.Buffer
	if err := d.ExportSnapshot(context.Background(), &buf); err != nil {
		t.Fatalf("ExportSnapshot: %v", err)
	}

	restoredEng := engine.NewMemEngine()
	d2, p2 := newTestDiskLoader(t, restoredEng)
	if err := d2.ImportSnapshot(context.Background(), &buf); err != nil {
		t.Fatalf("ImportSnapshot: %v", err)
	}
	if p2.Version() != 2 {
		t.Errorf("expected imported version 2, got %d", p2.Version())
	}
}
