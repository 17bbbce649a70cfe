// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"context"
	"fmt"

	"github.com/corvidx/corvid/internal/errs"
	"github.com/corvidx/corvid/internal/events"
	"github.com/corvidx/corvid/internal/interpreter"
)

// RealtimeLoader extends BatchedLoader: each consumed batch is applied
// directly to the active memory partition before being staged for
// eventual Disk flush, so events are queryable without waiting for the
// next flush cycle (spec §4.3).
//
// Within a single Consume call events are applied to memory in the order
// given, via one ApplyBatch call; across Consume calls, FIFO from a
// single caller is preserved because Consume is not reentered
// concurrently by a well-behaved caller (the Async Consumer Front
// serializes per-caller submission).
type RealtimeLoader struct {
	*BatchedLoader
}

// NewRealtimeLoader wraps an existing BatchedLoader with realtime
// application semantics.
func NewRealtimeLoader(b *BatchedLoader) *RealtimeLoader {
	return &RealtimeLoader{BatchedLoader: b}
}

// Consume applies batch to the active partition immediately, then defers
// to BatchedLoader.Consume for staging and the eventual Disk flush.
func (r *RealtimeLoader) Consume(ctx context.Context, batch []interpreter.Indexable, version uint64) error {
	if len(batch) > 0 {
		active := r.mgr.Active()
		if _, err := active.Engine.ApplyBatch(batch, version); err != nil {
			wrapped := fmt.Errorf("%w: apply batch to active partition: %v", errs.ErrEngineIO, err)
			r.events.Emit(events.Event{Kind: events.Error, Partition: active.ID.String(), Err: wrapped})
			return wrapped
		}
		if version > active.Version() {
			active.SetVersion(version)
		}
		for _, ind := range batch {
			active.TrackUID(ind.UID)
		}
		r.bumpAbsorbed(version)
		r.events.Emit(events.Event{Kind: events.MemApply, Partition: active.ID.String(), Version: version, Count: len(batch)})
	}
	return r.BatchedLoader.Consume(ctx, batch, version)
}
