// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/corvidx/corvid/internal/config"
	"github.com/corvidx/corvid/internal/errs"
	"github.com/corvidx/corvid/internal/events"
	"github.com/corvidx/corvid/internal/index"
	"github.com/corvidx/corvid/internal/interpreter"
	"github.com/corvidx/corvid/internal/logging"
	"github.com/corvidx/corvid/internal/metrics"
)

// pollInterval is how often FlushEvents/WaitForVersion re-check progress
// while waiting for a target version to be absorbed.
const pollInterval = 10 * time.Millisecond

// checkInterval bounds how often the background worker re-evaluates the
// batchDelay age trigger even with no new Consume calls.
const checkInterval = 50 * time.Millisecond

// BatchedLoader buffers events in a staging list and periodically flushes
// them to the Disk partition via the Mem-to-Disk hand-off protocol (spec
// §4.2). A single background worker performs the flush; only one flush is
// in flight at a time, and concurrent triggers while a flush runs are
// coalesced into the next cycle.
type BatchedLoader struct {
	mgr  *index.SearchIndexManager
	disk *DiskLoader
	cfg  config.LoaderConfig

	logger *logging.PipelineLogger
	events *events.Registry

	mu           sync.Mutex
	cond         *sync.Cond
	staging      []interpreter.Indexable
	stagingVer   uint64
	windowStart  time.Time
	pendingFlush *index.Partition

	flushing atomic.Bool
	closed   atomic.Bool
	started  atomic.Bool

	memAbsorbed atomic.Uint64

	triggerCh chan struct{}
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewBatchedLoader constructs a BatchedLoader. cfg.BatchSize is silently
// clamped to >= 1 (spec §4.2).
func NewBatchedLoader(mgr *index.SearchIndexManager, disk *DiskLoader, cfg config.LoaderConfig, logger *logging.PipelineLogger, registry *events.Registry) *BatchedLoader {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	if registry == nil {
		registry = events.NewRegistry()
	}
	l := &BatchedLoader{
		mgr:       mgr,
		disk:      disk,
		cfg:       cfg,
		logger:    logger,
		events:    registry,
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// Start launches the background flush worker. Idempotent.
func (l *BatchedLoader) Start(ctx context.Context) {
	if l.started.Swap(true) {
		return
	}
	go l.run(ctx)
}

// Consume stages batch for the next flush, applying backpressure once the
// staging list reaches MaxBatchSize (spec §4.2).
func (l *BatchedLoader) Consume(ctx context.Context, batch []interpreter.Indexable, version uint64) error {
	l.mu.Lock()
	for len(l.staging) >= l.cfg.MaxBatchSize && !l.closed.Load() {
		l.cond.Wait()
	}
	if l.closed.Load() {
		l.mu.Unlock()
		return errs.ErrConsumerClosed
	}
	if len(l.staging) == 0 {
		l.windowStart = time.Now()
	}
	l.staging = append(l.staging, batch...)
	if version > l.stagingVer {
		l.stagingVer = version
	}
	size := len(l.staging)
	l.mu.Unlock()

	l.logger.LogBatchConsumed(ctx, len(batch), version)
	metrics.StagingBufferSize.Set(float64(size))

	if size >= l.cfg.BatchSize {
		l.trigger()
	}
	return nil
}

// Events returns the registry MemApply/DiskFlush/Error hooks are emitted
// on, for the admin surface to subscribe to.
func (l *BatchedLoader) Events() *events.Registry {
	return l.events
}

// BatchSize returns the currently configured flush trigger threshold.
func (l *BatchedLoader) BatchSize() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cfg.BatchSize
}

// SetBatchSize updates the flush trigger threshold (admin surface setter,
// spec §6). Silently clamped to >= 1.
func (l *BatchedLoader) SetBatchSize(n int) {
	if n < 1 {
		n = 1
	}
	l.mu.Lock()
	l.cfg.BatchSize = n
	l.mu.Unlock()
}

// MaxBatchSize returns the currently configured backpressure ceiling.
func (l *BatchedLoader) MaxBatchSize() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cfg.MaxBatchSize
}

// SetMaxBatchSize updates the backpressure ceiling (admin surface setter,
// spec §6) and wakes any Consume calls currently blocked on the old limit.
func (l *BatchedLoader) SetMaxBatchSize(n int) {
	l.mu.Lock()
	l.cfg.MaxBatchSize = n
	l.cond.Broadcast()
	l.mu.Unlock()
}

// BatchDelay returns the currently configured max staleness window.
func (l *BatchedLoader) BatchDelay() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cfg.BatchDelay
}

// SetBatchDelay updates the max staleness window (admin surface setter,
// spec §6).
func (l *BatchedLoader) SetBatchDelay(d time.Duration) {
	l.mu.Lock()
	l.cfg.BatchDelay = d
	l.mu.Unlock()
}

// StagingSize returns the number of events currently buffered in memory
// awaiting the next flush (admin surface's "current mem batch size"
// getter, spec §6).
func (l *BatchedLoader) StagingSize() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.staging)
}

// AbsorbedVersion returns the highest version applied to a memory
// partition so far (the "memory tier" watermark spec §4.1's
// syncWithVersion waits on).
func (l *BatchedLoader) AbsorbedVersion() uint64 {
	return l.memAbsorbed.Load()
}

// FlushEvents blocks until every event staged before this call has been
// absorbed into a memory partition, or until timeout elapses (spec §4.1).
func (l *BatchedLoader) FlushEvents(ctx context.Context, timeout time.Duration) error {
	l.mu.Lock()
	target := l.stagingVer
	empty := len(l.staging) == 0 && l.pendingFlush == nil
	l.mu.Unlock()
	if empty {
		return nil
	}

	l.trigger()
	return l.waitForVersion(ctx, timeout, target, metrics.FlushTimeouts, errs.ErrFlushTimeout)
}

// WaitForVersion blocks until the memory-absorbed watermark reaches at
// least version, or until timeout elapses.
func (l *BatchedLoader) WaitForVersion(ctx context.Context, timeout time.Duration, version uint64) error {
	return l.waitForVersion(ctx, timeout, version, metrics.SyncTimeouts, errs.ErrSyncTimeout)
}

func (l *BatchedLoader) waitForVersion(ctx context.Context, timeout time.Duration, target uint64, timeoutCounter interface{ Inc() }, timeoutErr error) error {
	if l.memAbsorbed.Load() >= target {
		return nil
	}
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		if l.memAbsorbed.Load() >= target {
			return nil
		}
		if time.Now().After(deadline) {
			timeoutCounter.Inc()
			return timeoutErr
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ForceDiskFlush triggers an out-of-band Mem-to-Disk flush cycle and
// blocks until the Disk partition's version reflects the currently staged
// watermark, or until timeout elapses (admin surface's flushToDiskIndex
// command, spec §6).
func (l *BatchedLoader) ForceDiskFlush(ctx context.Context, timeout time.Duration) error {
	l.mu.Lock()
	target := l.stagingVer
	l.mu.Unlock()
	if target == 0 {
		target = l.mgr.Active().Version()
	}

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		if l.mgr.Disk().Version() >= target {
			return nil
		}
		if l.flushing.CompareAndSwap(false, true) {
			go func() {
				defer l.flushing.Store(false)
				if err := l.flush(ctx); err != nil {
					l.logger.Warn("forced flush attempt failed", "error", err)
				}
			}()
		}
		if time.Now().After(deadline) {
			metrics.FlushTimeouts.Inc()
			return errs.ErrFlushTimeout
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close stops the background worker and performs a final synchronous
// flush of any remaining staged events. Idempotent.
func (l *BatchedLoader) Close(ctx context.Context) error {
	if l.closed.Swap(true) {
		return nil
	}
	l.mu.Lock()
	l.cond.Broadcast()
	l.mu.Unlock()

	if l.started.Load() {
		close(l.stopCh)
		<-l.doneCh
	}
	return l.flush(ctx)
}

func (l *BatchedLoader) trigger() {
	select {
	case l.triggerCh <- struct{}{}:
	default:
	}
}

func (l *BatchedLoader) run(ctx context.Context) {
	defer close(l.doneCh)
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()
	for {
		select {
		case <-l.stopCh:
			return
		case <-l.triggerCh:
			l.maybeFlush(ctx)
		case <-ticker.C:
			l.maybeFlush(ctx)
		}
	}
}

func (l *BatchedLoader) maybeFlush(ctx context.Context) {
	l.mu.Lock()
	size := len(l.staging)
	due := l.pendingFlush != nil || (size > 0 && (size >= l.cfg.BatchSize || time.Since(l.windowStart) >= l.cfg.BatchDelay))
	l.mu.Unlock()
	if !due {
		return
	}
	if !l.flushing.CompareAndSwap(false, true) {
		return // a flush is already in flight; this trigger is coalesced
	}
	go func() {
		defer l.flushing.Store(false)
		if err := l.flush(ctx); err != nil {
			l.logger.Warn("flush attempt failed, will retry", "error", err)
		}
	}()
}

// flush performs one Mem-to-Disk hand-off cycle.
func (l *BatchedLoader) flush(ctx context.Context) error {
	l.mu.Lock()
	batch := l.staging
	version := l.stagingVer
	pending := l.pendingFlush
	if len(batch) == 0 && pending == nil {
		l.mu.Unlock()
		return nil
	}
	l.staging = nil
	l.stagingVer = 0
	l.windowStart = time.Time{}
	l.cond.Broadcast()
	l.mu.Unlock()

	metrics.StagingBufferSize.Set(0)
	start := time.Now()
	l.logger.LogFlushStarted(ctx, len(batch))

	var target *index.Partition
	if pending != nil {
		target = pending
		if len(batch) > 0 {
			if _, err := target.Engine.ApplyBatch(batch, version); err != nil {
				wrapped := fmt.Errorf("%w: re-apply staged batch to retrying partition: %v", errs.ErrEngineIO, err)
				l.events.Emit(events.Event{Kind: events.Error, Partition: target.ID.String(), Err: wrapped})
				return wrapped
			}
			if version > target.Version() {
				target.SetVersion(version)
			}
			l.bumpAbsorbed(version)
			l.events.Emit(events.Event{Kind: events.MemApply, Partition: target.ID.String(), Version: version, Count: len(batch)})
		}
	} else {
		active := l.mgr.Active()
		if len(batch) > 0 {
			if _, err := active.Engine.ApplyBatch(batch, version); err != nil {
				wrapped := fmt.Errorf("%w: apply staged batch to active partition: %v", errs.ErrEngineIO, err)
				l.events.Emit(events.Event{Kind: events.Error, Partition: active.ID.String(), Err: wrapped})
				return wrapped
			}
			if version > active.Version() {
				active.SetVersion(version)
			}
			l.bumpAbsorbed(version)
			l.events.Emit(events.Event{Kind: events.MemApply, Partition: active.ID.String(), Version: version, Count: len(batch)})
		}
		flushing, newActive, err := l.mgr.Swap()
		if err != nil {
			return err
		}
		l.logger.LogPartitionSwap(ctx, active.ID.String(), newActive.ID.String())
		metrics.PartitionSwapsTotal.Inc()
		target = flushing
	}

	diskVersion, err := l.disk.LoadFromIndex(ctx, target)
	dur := time.Since(start)
	metrics.RecordFlush(dur, len(batch), err)
	if err != nil {
		l.mu.Lock()
		l.pendingFlush = target
		l.mu.Unlock()
		l.mgr.RetryFlush(target)
		l.events.Emit(events.Event{Kind: events.Error, Partition: target.ID.String(), Err: err})
		return err
	}

	l.mgr.CommitFlush(target, diskVersion)
	l.mu.Lock()
	l.pendingFlush = nil
	l.mu.Unlock()
	l.logger.LogFlushCompleted(ctx, len(batch), dur.Milliseconds(), diskVersion)
	l.events.Emit(events.Event{Kind: events.DiskFlush, Partition: target.ID.String(), Version: diskVersion, Count: len(batch)})
	return nil
}

func (l *BatchedLoader) bumpAbsorbed(version uint64) {
	for {
		cur := l.memAbsorbed.Load()
		if version <= cur {
			return
		}
		if l.memAbsorbed.CompareAndSwap(cur, version) {
			return
		}
	}
}
