// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

package consumer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/corvidx/corvid/internal/config"
	"github.com/corvidx/corvid/internal/engine"
	"github.com/corvidx/corvid/internal/errs"
	"github.com/corvidx/corvid/internal/index"
	"github.com/corvidx/corvid/internal/interpreter"
	"github.com/corvidx/corvid/internal/logging"
)

type fakeLoader struct {
	mu       sync.Mutex
	received []uint64
	absorbed atomic.Uint64
	failNext atomic.Bool
}

func (l *fakeLoader) Consume(ctx context.Context, events []interpreter.Indexable, version uint64) error {
	if l.failNext.CompareAndSwap(true, false) {
		return errors.New("injected failure")
	}
	l.mu.Lock()
	l.received = append(l.received, version)
	l.mu.Unlock()
	l.absorbed.Store(version)
	return nil
}

func (l *fakeLoader) FlushEvents(ctx context.Context, timeout time.Duration) error { return nil }

func (l *fakeLoader) WaitForVersion(ctx context.Context, timeout time.Duration, version uint64) error {
	deadline := time.Now().Add(timeout)
	for l.absorbed.Load() < version {
		if time.Now().After(deadline) {
			return errors.New("wait for version timeout")
		}
		time.Sleep(time.Millisecond)
	}
	return nil
}

type fakeRefreshBarrier struct {
	calls atomic.Int32
}

func (b *fakeRefreshBarrier) RefreshCache(ctx context.Context, timeout time.Duration) error {
	b.calls.Add(1)
	return nil
}

func newTestFront(t *testing.T, loader Loader, barrier RefreshBarrier) *AsyncConsumerFront {
	t.Helper()
	disk := index.NewPartition(index.Disk, engine.NewMemEngine(), index.StateActive)
	cfg := config.ConsumerConfig{
		HighWaterMark: 4,
		FlushTimeout:  time.Second,
		SyncTimeout:   time.Second,
	}
	f, err := NewAsyncConsumerFront(cfg, loader, barrier, disk, logging.NewPipelineLogger())
	if err != nil {
		t.Fatalf("NewAsyncConsumerFront: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := f.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return f
}

func TestConsumeForwardsToLoader(t *testing.T) {
	loader := &fakeLoader{}
	f := newTestFront(t, loader, &fakeRefreshBarrier{})

	if err := f.Consume(context.Background(), []interpreter.Indexable{{UID: 1}}, 7); err != nil {
		t.Fatalf("Consume: %v", err)
	}

	deadline := time.After(time.Second)
	for loader.absorbed.Load() != 7 {
		select {
		case <-deadline:
			t.Fatal("loader never observed the consumed batch")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestConsumeFailsAfterShutdown(t *testing.T) {
	loader := &fakeLoader{}
	f := newTestFront(t, loader, &fakeRefreshBarrier{})

	if err := f.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	if err := f.Consume(context.Background(), nil, 1); !errors.Is(err, errs.ErrConsumerClosed) {
		t.Fatalf("expected ErrConsumerClosed, got %v", err)
	}
}

func TestSyncWithVersionTriggersRefreshBarrier(t *testing.T) {
	loader := &fakeLoader{}
	barrier := &fakeRefreshBarrier{}
	f := newTestFront(t, loader, barrier)

	if err := f.Consume(context.Background(), []interpreter.Indexable{{UID: 1}}, 3); err != nil {
		t.Fatalf("Consume: %v", err)
	}

	if err := f.SyncWithVersion(context.Background(), time.Second, 3); err != nil {
		t.Fatalf("SyncWithVersion: %v", err)
	}
	if barrier.calls.Load() != 1 {
		t.Fatalf("expected refresh barrier to be invoked once, got %d", barrier.calls.Load())
	}
}

func TestGetVersionDegradesToZeroWithoutDisk(t *testing.T) {
	loader := &fakeLoader{}
	cfg := config.ConsumerConfig{HighWaterMark: 1, FlushTimeout: time.Second, SyncTimeout: time.Second}
	f, err := NewAsyncConsumerFront(cfg, loader, &fakeRefreshBarrier{}, nil, logging.NewPipelineLogger())
	if err != nil {
		t.Fatalf("NewAsyncConsumerFront: %v", err)
	}
	if v := f.GetVersion(); v != 0 {
		t.Fatalf("expected degraded version 0, got %d", v)
	}
}
