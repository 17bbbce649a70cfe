// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/corvidx/corvid/internal/errs"
	"github.com/corvidx/corvid/internal/health"
	"github.com/corvidx/corvid/internal/index"
	"github.com/corvidx/corvid/internal/logging"
	"github.com/corvidx/corvid/internal/metrics"
)

// DiskLoader applies versioned batches to the Disk partition through its
// engine and drives optimize/expunge/snapshot operations (spec §4.4).
// Engine I/O runs behind a circuit breaker; repeated failures trip FATAL
// process health.
type DiskLoader struct {
	disk      *index.Partition
	breaker   *gobreaker.CircuitBreaker[any]
	scheduler *OptimizeScheduler
	health    *health.Tracker
	logger    *logging.PipelineLogger

	lastBatchSize atomic.Int64

	optimizeMu   sync.Mutex
	lastOptimize time.Time
}

// NewDiskLoader returns a DiskLoader over disk, tripping its circuit
// breaker after consecutiveFailureThreshold consecutive EngineIO errors.
func NewDiskLoader(disk *index.Partition, consecutiveFailureThreshold uint32, scheduler *OptimizeScheduler, tracker *health.Tracker, logger *logging.PipelineLogger) *DiskLoader {
	settings := gobreaker.Settings{
		Name: "disk-loader",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= consecutiveFailureThreshold
		},
	}
	return &DiskLoader{
		disk:      disk,
		breaker:   gobreaker.NewCircuitBreaker[any](settings),
		scheduler: scheduler,
		health:    tracker,
		logger:    logger,
	}
}

// LoadFromIndex merges the frozen memory partition's contents into Disk
// and atomically advances the Disk version (spec §4.4's loadFromIndex).
func (d *DiskLoader) LoadFromIndex(ctx context.Context, mem *index.Partition) (uint64, error) {
	docs, err := mem.Engine.Export()
	if err != nil {
		return 0, fmt.Errorf("%w: export %s partition: %v", errs.ErrEngineIO, mem.ID, err)
	}
	version := mem.Version()

	_, err = d.breaker.Execute(func() (any, error) {
		if _, err := d.disk.Engine.ApplyBatch(docs, version); err != nil {
			return nil, err
		}
		if err := d.disk.Engine.Commit(version); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		if d.breaker.State() == gobreaker.StateOpen {
			d.health.Set(health.FATAL)
		}
		d.logger.LogFlushFailed(ctx, err, 0)
		return 0, fmt.Errorf("%w: commit %d docs at version %d: %v", errs.ErrEngineIO, len(docs), version, err)
	}

	d.disk.SetVersion(version)
	metrics.DiskVersion.Set(float64(version))
	d.lastBatchSize.Store(int64(len(docs)))
	if d.scheduler.RecordFlush() {
		if err := d.Optimize(ctx, 0); err != nil {
			d.logger.Warn("scheduled optimize failed", "error", err)
		}
	}
	return version, nil
}

// LastBatchSize returns the document count absorbed by the most recently
// completed disk flush (admin surface getter, spec §6).
func (d *DiskLoader) LastBatchSize() int {
	return int(d.lastBatchSize.Load())
}

// LastOptimizeTime returns when Optimize last completed successfully, or
// the zero Time if it has never run (admin surface getter, spec §6).
func (d *DiskLoader) LastOptimizeTime() time.Time {
	d.optimizeMu.Lock()
	defer d.optimizeMu.Unlock()
	return d.lastOptimize
}

// Optimize requests the engine merge down to at most targetSegments
// segments (spec §4.4). A targetSegments of 0 defers entirely to the
// engine's own default.
func (d *DiskLoader) Optimize(ctx context.Context, targetSegments int) error {
	if err := d.disk.Engine.Optimize(targetSegments); err != nil {
		return fmt.Errorf("%w: optimize: %v", errs.ErrEngineIO, err)
	}
	d.optimizeMu.Lock()
	d.lastOptimize = time.Now()
	d.optimizeMu.Unlock()
	return nil
}

// ExpungeDeletes forces removal of tombstoned documents (spec §4.4).
func (d *DiskLoader) ExpungeDeletes(ctx context.Context) error {
	if err := d.disk.Engine.ExpungeDeletes(); err != nil {
		return fmt.Errorf("%w: expunge deletes: %v", errs.ErrEngineIO, err)
	}
	return nil
}

// ExportSnapshot byte-streams a consistent Disk snapshot to sink (spec
// §4.4's exportSnapshot).
func (d *DiskLoader) ExportSnapshot(ctx context.Context, sink io.Writer) error {
	if err := d.disk.Engine.SnapshotTo(sink); err != nil {
		return fmt.Errorf("%w: export snapshot: %v", errs.ErrEngineIO, err)
	}
	return nil
}

// ImportSnapshot replaces Disk contents atomically from source and bumps
// the Disk version accordingly (spec §4.4's importSnapshot). A corrupt
// stream fails atomically, leaving the prior Disk contents untouched.
func (d *DiskLoader) ImportSnapshot(ctx context.Context, source io.Reader) error {
	version, err := d.disk.Engine.RestoreFrom(source)
	if err != nil {
		return err // already wrapped in errs.ErrInvalidSnapshot by the engine
	}
	d.disk.SetVersion(version)
	metrics.DiskVersion.Set(float64(version))
	return nil
}
