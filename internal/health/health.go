// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

// Package health carries the process-wide health code (spec §7). It is
// deliberately a single tri-state signal rather than a per-component map:
// this core has one logical health concern (can the engine still be
// written to), not a fleet of independently-checked services the way the
// teacher's ComponentHealth/HealthChecker pattern tracks for its many
// external integrations.
package health

import (
	"sync/atomic"

	"github.com/corvidx/corvid/internal/metrics"
)

// Code is the process-wide health signal.
type Code int32

const (
	// OK indicates normal operation.
	OK Code = iota
	// WARN indicates a degraded but still-functioning condition, such as
	// a single recoverable EngineIO failure.
	WARN
	// FATAL indicates the engine is no longer accepting writes, typically
	// after a circuit breaker trips on repeated EngineIO failures.
	FATAL
)

func (c Code) String() string {
	switch c {
	case OK:
		return "OK"
	case WARN:
		return "WARN"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// Tracker holds the current health code, safe for concurrent use from the
// Disk Loader's circuit breaker, the admin surface's resetHealth command,
// and any getter that reports it.
type Tracker struct {
	code atomic.Int32
}

// NewTracker returns a Tracker initialized to OK.
func NewTracker() *Tracker {
	t := &Tracker{}
	t.code.Store(int32(OK))
	return t
}

// Get returns the current health code.
func (t *Tracker) Get() Code {
	return Code(t.code.Load())
}

// Set updates the health code and mirrors it onto the health_code gauge.
// A transition is only ever reported, never rejected: FATAL can be set
// even if already WARN, and resetHealth can move FATAL back to OK.
func (t *Tracker) Set(c Code) {
	t.code.Store(int32(c))
	metrics.HealthCode.Set(float64(c))
}

// Reset restores the health code to OK. Backs the admin surface's
// resetHealth command.
func (t *Tracker) Reset() {
	t.Set(OK)
}
