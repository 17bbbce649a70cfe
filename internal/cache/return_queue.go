// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"sync/atomic"

	"github.com/corvidx/corvid/internal/index"
	"github.com/corvidx/corvid/internal/metrics"
)

// returnQueue is a lock-free (Treiber stack) queue of returned reader
// snapshots awaiting a deferred reference-count decrement. Pushing never
// blocks, which is what keeps returnIndexReaders non-blocking on the hot
// path (spec §4.6); the Maintainer drains it on its own schedule.
type returnQueue struct {
	head  atomic.Pointer[returnNode]
	depth atomic.Int64
}

type returnNode struct {
	snapshot *index.ReaderSnapshot
	next     *returnNode
}

func newReturnQueue() *returnQueue {
	return &returnQueue{}
}

// Push appends snapshot to the queue without blocking.
func (q *returnQueue) Push(snapshot *index.ReaderSnapshot) {
	n := &returnNode{snapshot: snapshot}
	for {
		old := q.head.Load()
		n.next = old
		if q.head.CompareAndSwap(old, n) {
			depth := q.depth.Add(1)
			metrics.ReturnQueueDepth.Set(float64(depth))
			return
		}
	}
}

// DrainAll atomically detaches every queued snapshot and returns them in
// arbitrary order; the caller decrements each one's reference count.
func (q *returnQueue) DrainAll() []*index.ReaderSnapshot {
	head := q.head.Swap(nil)
	var out []*index.ReaderSnapshot
	for n := head; n != nil; n = n.next {
		out = append(out, n.snapshot)
	}
	q.depth.Store(0)
	metrics.ReturnQueueDepth.Set(0)
	return out
}
