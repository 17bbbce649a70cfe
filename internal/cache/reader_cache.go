// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/corvidx/corvid/internal/errs"
	"github.com/corvidx/corvid/internal/index"
	"github.com/corvidx/corvid/internal/metrics"
)

// refreshPollInterval bounds how long RefreshCache waits between checks
// of the publication timestamp (spec §4.7: "in ≤200ms chunks").
const refreshPollInterval = 200 * time.Millisecond

// ReaderCache holds the single currently-published ReaderSnapshot and its
// publication timestamp (spec §4.6). GetIndexReaders is the hot,
// non-blocking read path; ReturnIndexReaders defers all refcount work to
// the Maintainer via a lock-free return queue.
type ReaderCache struct {
	mu          sync.RWMutex
	current     *index.ReaderSnapshot
	publishedAt time.Time

	sla        atomic.Int64 // nanoseconds; admin surface's SLA setter mutates this live
	queue      *returnQueue
	refreshSeq atomic.Uint64
}

// NewReaderCache returns an empty ReaderCache; GetIndexReaders fails until
// the first Publish call.
func NewReaderCache(sla time.Duration) *ReaderCache {
	c := &ReaderCache{
		queue: newReturnQueue(),
	}
	c.sla.Store(int64(sla))
	return c
}

// SLA returns the currently configured getIndexReaders latency budget.
func (c *ReaderCache) SLA() time.Duration {
	return time.Duration(c.sla.Load())
}

// SetSLA updates the getIndexReaders latency budget (admin surface
// setter, spec §6).
func (c *ReaderCache) SetSLA(d time.Duration) {
	c.sla.Store(int64(d))
}

// GetIndexReaders acquires a read lock, copies the current snapshot,
// increments each reader's refcount, releases the lock, and returns (spec
// §4.6). Exceeding the configured SLA is recorded but never fails the
// call.
func (c *ReaderCache) GetIndexReaders() (*index.ReaderSnapshot, error) {
	start := time.Now()

	c.mu.RLock()
	cur := c.current
	if cur != nil {
		cur.IncRefAll()
	}
	c.mu.RUnlock()

	if cur == nil {
		return nil, fmt.Errorf("%w: no reader snapshot has been published yet", errs.ErrInvalidSnapshot)
	}

	borrowed := &index.ReaderSnapshot{Readers: cur.Readers}

	metrics.RecordGetReaders(time.Since(start), int(c.SLA()/time.Millisecond))
	return borrowed, nil
}

// ReturnIndexReaders appends list to the lock-free return queue and
// returns immediately; the refcount decrement is deferred to the
// Maintainer (spec §4.6).
func (c *ReaderCache) ReturnIndexReaders(list *index.ReaderSnapshot) {
	if list == nil {
		return
	}
	c.mu.RLock()
	c.queue.Push(list)
	c.mu.RUnlock()
}

// Publish installs snap as the current snapshot, advances the publication
// timestamp and refresh sequence, and enqueues the previously-current
// snapshot for the Maintainer to drain.
func (c *ReaderCache) Publish(snap *index.ReaderSnapshot) {
	c.mu.Lock()
	old := c.current
	c.current = snap
	c.publishedAt = time.Now()
	c.mu.Unlock()

	c.refreshSeq.Add(1)
	if old != nil {
		c.queue.Push(old)
	}
}

// PublicationTime returns the timestamp of the most recently published
// snapshot.
func (c *ReaderCache) PublicationTime() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.publishedAt
}

// DrainReturned decrements the reference count of every snapshot
// currently sitting in the return queue and reports how many were
// drained. Called by the Maintainer on every tick.
func (c *ReaderCache) DrainReturned() int {
	snaps := c.queue.DrainAll()
	for _, s := range snaps {
		s.DecRefAll()
	}
	return len(snaps)
}

// RefreshCache blocks until a snapshot published after this call began is
// visible (publishedAt advances past the timestamp observed at entry), or
// until timeout elapses (spec §4.7's refresh barrier, used by
// syncWithVersion).
func (c *ReaderCache) RefreshCache(ctx context.Context, timeout time.Duration) error {
	t0 := c.PublicationTime()
	deadline := time.Now().Add(timeout)

	for {
		if c.PublicationTime().After(t0) {
			return nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return errs.ErrRefreshTimeout
		}
		wait := refreshPollInterval
		if remaining < wait {
			wait = remaining
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
