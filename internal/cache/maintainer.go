// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/corvidx/corvid/internal/index"
	"github.com/corvidx/corvid/internal/logging"
	"github.com/corvidx/corvid/internal/metrics"
)

// Maintainer is a suture.Service that keeps a ReaderCache fresh: on every
// tick it acquires a new snapshot from the SearchIndexManager, publishes
// it, and drains whatever readers the previous tick's consumers have since
// returned (spec §4.7).
type Maintainer struct {
	cache     *ReaderCache
	mgr       *index.SearchIndexManager
	freshness atomic.Int64 // nanoseconds; admin surface's freshness setter mutates this live
	resetCh   chan time.Duration
	logger    *logging.PipelineLogger
}

// NewMaintainer constructs a Maintainer that ticks at least every
// freshness interval.
func NewMaintainer(cache *ReaderCache, mgr *index.SearchIndexManager, freshness time.Duration, logger *logging.PipelineLogger) *Maintainer {
	m := &Maintainer{
		cache:   cache,
		mgr:     mgr,
		resetCh: make(chan time.Duration, 1),
		logger:  logger,
	}
	m.freshness.Store(int64(freshness))
	return m
}

// Freshness returns the currently configured refresh interval.
func (m *Maintainer) Freshness() time.Duration {
	return time.Duration(m.freshness.Load())
}

// SetFreshness updates the refresh interval; the running ticker picks up
// the new value before its next tick (admin surface setter, spec §6).
func (m *Maintainer) SetFreshness(d time.Duration) {
	m.freshness.Store(int64(d))
	select {
	case m.resetCh <- d:
	default:
	}
}

// Serve runs the refresh loop until ctx is canceled, satisfying
// suture.Service.
func (m *Maintainer) Serve(ctx context.Context) error {
	ticker := time.NewTicker(m.Freshness())
	defer ticker.Stop()

	m.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case d := <-m.resetCh:
			ticker.Reset(d)
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

// Tick forces an immediate snapshot acquire/publish/drain cycle outside
// the regular ticker, backing the admin surface's refreshDiskReader
// command (spec §6).
func (m *Maintainer) Tick(ctx context.Context) {
	m.tick(ctx)
}

func (m *Maintainer) tick(ctx context.Context) {
	start := time.Now()

	snap, err := m.mgr.AcquireSnapshot()
	if err != nil {
		m.logger.ErrorContext(ctx, "reader cache refresh failed to acquire snapshot", "error", err)
		return
	}

	m.cache.Publish(snap)
	drained := m.cache.DrainReturned()

	diskVersion := m.mgr.Disk().Version()
	memVersion := m.mgr.Active().Version()
	m.logger.LogReaderCacheRefresh(diskVersion, memVersion, time.Since(start).Milliseconds())
	metrics.CacheRefreshesTotal.Inc()
	metrics.ReaderCacheDrainedTotal.Add(float64(drained))
}
