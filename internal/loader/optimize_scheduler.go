// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import "sync/atomic"

// OptimizeScheduler decides when the Disk Loader is allowed to run an
// engine optimize() pass (spec §4.4): after a configured number of
// flushes, or whenever the caller reports the pipeline is idle.
type OptimizeScheduler struct {
	flushesPerOptimize int64
	flushesSinceLast   atomic.Int64
}

// NewOptimizeScheduler returns a scheduler that permits one optimize pass
// every flushesPerOptimize flushes. A value <= 0 disables the flush-count
// trigger entirely (optimize only runs when explicitly requested or on
// idle).
func NewOptimizeScheduler(flushesPerOptimize int) *OptimizeScheduler {
	return &OptimizeScheduler{flushesPerOptimize: int64(flushesPerOptimize)}
}

// RecordFlush tells the scheduler a flush just completed. Returns true if
// this flush count now warrants an optimize pass.
func (s *OptimizeScheduler) RecordFlush() bool {
	if s.flushesPerOptimize <= 0 {
		return false
	}
	count := s.flushesSinceLast.Add(1)
	if count >= s.flushesPerOptimize {
		s.flushesSinceLast.Store(0)
		return true
	}
	return false
}

// AllowIdleOptimize reports whether an optimize pass may run now because
// the caller has observed the pipeline sitting idle (no pending staged
// events, no in-flight flush).
func (s *OptimizeScheduler) AllowIdleOptimize(stagingEmpty, flushInFlight bool) bool {
	return stagingEmpty && !flushInFlight
}
