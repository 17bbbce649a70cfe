// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

package admin

import (
	"context"
	"time"

	"github.com/corvidx/corvid/internal/cache"
	"github.com/corvidx/corvid/internal/engine"
	"github.com/corvidx/corvid/internal/health"
	"github.com/corvidx/corvid/internal/index"
	"github.com/corvidx/corvid/internal/loader"
)

// Surface is the administrative surface (spec §6): getters, setters, and
// commands over the running pipeline, transport-agnostic.
type Surface interface {
	// Getters.
	DiskVersion() uint64
	SegmentCounts() (memA, memB, disk int)
	MemVersions() (memA, memB uint64)
	MemSizes() (memA, memB int64)
	DiskSizeBytes() int64
	FreeDiskBytes() (int64, error)
	RealtimeMode() bool
	LastOptimizeTime() time.Time
	LastModifiedTime() time.Time
	CurrentMemBatchSize() int
	CurrentDiskBatchSize() int
	MinMaxUID() (min, max uint64, ok bool)
	Freshness() time.Duration
	SLA() time.Duration
	HealthCode() health.Code

	// Setters.
	SetBatchSize(n int)
	SetBatchDelay(d time.Duration)
	SetMaxBatchSize(n int)
	SetMergeFactor(n int)
	SetMaxMergeDocs(n int)
	SetUseCompoundFile(b bool)
	SetNumLargeSegments(n int)
	SetMaxSmallSegments(n int)
	SetFreshness(d time.Duration)
	SetSLA(d time.Duration)

	// Commands.
	RefreshDiskReader(ctx context.Context)
	FlushToDiskIndex(ctx context.Context, timeout time.Duration) error
	FlushToMemoryIndex(ctx context.Context, timeout time.Duration) error
	Optimize(ctx context.Context, targetSegments int) error
	ExpungeDeletes(ctx context.Context) error
	PurgeIndex(ctx context.Context) error
	ResetHealth()
}

// PipelineSurface is the concrete Surface implementation, wired to one
// running pipeline's components at composition time (cmd/indexd).
type PipelineSurface struct {
	mgr    *index.SearchIndexManager
	batch  *loader.BatchedLoader
	disk   *loader.DiskLoader
	cache  *cache.ReaderCache
	maint  *cache.Maintainer
	health *health.Tracker
	dir    engine.DirectoryManager

	realtimeMode bool
}

// NewPipelineSurface constructs a PipelineSurface. realtimeMode records
// whether the composition root wired a RealtimeLoader on top of batch,
// since that choice is fixed at construction and has no runtime setter
// (spec §6 names "realtime mode" as a getter only).
func NewPipelineSurface(
	mgr *index.SearchIndexManager,
	batch *loader.BatchedLoader,
	disk *loader.DiskLoader,
	readerCache *cache.ReaderCache,
	maint *cache.Maintainer,
	tracker *health.Tracker,
	dir engine.DirectoryManager,
	realtimeMode bool,
) *PipelineSurface {
	return &PipelineSurface{
		mgr:          mgr,
		batch:        batch,
		disk:         disk,
		cache:        readerCache,
		maint:        maint,
		health:       tracker,
		dir:          dir,
		realtimeMode: realtimeMode,
	}
}

func (s *PipelineSurface) DiskVersion() uint64 {
	return s.mgr.Disk().Version()
}

func (s *PipelineSurface) SegmentCounts() (memA, memB, disk int) {
	return s.mgr.MemA().Engine.SegmentCount(), s.mgr.MemB().Engine.SegmentCount(), s.mgr.Disk().Engine.SegmentCount()
}

func (s *PipelineSurface) MemVersions() (memA, memB uint64) {
	return s.mgr.MemA().Version(), s.mgr.MemB().Version()
}

func (s *PipelineSurface) MemSizes() (memA, memB int64) {
	return s.mgr.MemA().Engine.SizeBytes(), s.mgr.MemB().Engine.SizeBytes()
}

func (s *PipelineSurface) DiskSizeBytes() int64 {
	return s.mgr.Disk().Engine.SizeBytes()
}

func (s *PipelineSurface) FreeDiskBytes() (int64, error) {
	if s.dir == nil {
		return 0, nil
	}
	return freeBytes(s.dir.Path())
}

func (s *PipelineSurface) RealtimeMode() bool {
	return s.realtimeMode
}

func (s *PipelineSurface) LastOptimizeTime() time.Time {
	return s.disk.LastOptimizeTime()
}

func (s *PipelineSurface) LastModifiedTime() time.Time {
	if s.dir == nil {
		return time.Time{}
	}
	return s.dir.LastIndexModifiedTime()
}

func (s *PipelineSurface) CurrentMemBatchSize() int {
	return s.batch.StagingSize()
}

func (s *PipelineSurface) CurrentDiskBatchSize() int {
	return s.disk.LastBatchSize()
}

func (s *PipelineSurface) MinMaxUID() (min, max uint64, ok bool) {
	return s.mgr.MinMaxUID()
}

func (s *PipelineSurface) Freshness() time.Duration {
	return s.maint.Freshness()
}

func (s *PipelineSurface) SLA() time.Duration {
	return s.cache.SLA()
}

func (s *PipelineSurface) HealthCode() health.Code {
	return s.health.Get()
}

func (s *PipelineSurface) SetBatchSize(n int) {
	s.batch.SetBatchSize(n)
}

func (s *PipelineSurface) SetBatchDelay(d time.Duration) {
	s.batch.SetBatchDelay(d)
}

func (s *PipelineSurface) SetMaxBatchSize(n int) {
	s.batch.SetMaxBatchSize(n)
}

func (s *PipelineSurface) SetMergeFactor(n int) {
	p := s.mgr.Policy()
	p.MergeFactor = n
	s.mgr.SetPolicy(p)
}

func (s *PipelineSurface) SetMaxMergeDocs(n int) {
	p := s.mgr.Policy()
	p.MaxMergeDocs = n
	s.mgr.SetPolicy(p)
}

func (s *PipelineSurface) SetUseCompoundFile(b bool) {
	p := s.mgr.Policy()
	p.UseCompoundFile = b
	s.mgr.SetPolicy(p)
}

func (s *PipelineSurface) SetNumLargeSegments(n int) {
	p := s.mgr.Policy()
	p.NumLargeSegments = n
	s.mgr.SetPolicy(p)
}

func (s *PipelineSurface) SetMaxSmallSegments(n int) {
	p := s.mgr.Policy()
	p.MaxSmallSegments = n
	s.mgr.SetPolicy(p)
}

func (s *PipelineSurface) SetFreshness(d time.Duration) {
	s.maint.SetFreshness(d)
}

func (s *PipelineSurface) SetSLA(d time.Duration) {
	s.cache.SetSLA(d)
}

func (s *PipelineSurface) RefreshDiskReader(ctx context.Context) {
	s.maint.Tick(ctx)
}

func (s *PipelineSurface) FlushToDiskIndex(ctx context.Context, timeout time.Duration) error {
	return s.batch.ForceDiskFlush(ctx, timeout)
}

func (s *PipelineSurface) FlushToMemoryIndex(ctx context.Context, timeout time.Duration) error {
	return s.batch.FlushEvents(ctx, timeout)
}

func (s *PipelineSurface) Optimize(ctx context.Context, targetSegments int) error {
	return s.disk.Optimize(ctx, targetSegments)
}

func (s *PipelineSurface) ExpungeDeletes(ctx context.Context) error {
	return s.disk.ExpungeDeletes(ctx)
}

func (s *PipelineSurface) PurgeIndex(ctx context.Context) error {
	return s.mgr.PurgeAll()
}

func (s *PipelineSurface) ResetHealth() {
	s.health.Reset()
}
