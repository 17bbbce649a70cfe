// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"sync"
	"testing"

	"github.com/corvidx/corvid/internal/index"
)

func TestReturnQueuePushDrain(t *testing.T) {
	q := newReturnQueue()
	a := &index.ReaderSnapshot{}
	b := &index.ReaderSnapshot{}
	q.Push(a)
	q.Push(b)

	drained := q.DrainAll()
	if len(drained) != 2 {
		t.Fatalf("expected 2 drained snapshots, got %d", len(drained))
	}

	if more := q.DrainAll(); len(more) != 0 {
		t.Fatalf("expected empty queue after drain, got %d", len(more))
	}
}

func TestReturnQueueConcurrentPush(t *testing.T) {
	q := newReturnQueue()
	var wg sync.WaitGroup
	const n = 200
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Push(&index.ReaderSnapshot{})
		}()
	}
	wg.Wait()

	drained := q.DrainAll()
	if len(drained) != n {
		t.Fatalf("expected %d drained snapshots, got %d", n, len(drained))
	}
}
