// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

// Package events carries the three produced event-listener hooks (spec
// §6): successful memory-index apply, successful disk flush, and errors.
// Listeners are appended to a concurrent list and invoked in registration
// order; a panicking listener is caught and swallowed rather than taking
// down the caller, mirroring the recover-and-continue idiom the admin
// HTTP transport's own middleware uses around handlers.
package events

import (
	"sync"

	"github.com/corvidx/corvid/internal/logging"
)

// Kind names which hook fired.
type Kind int

const (
	// MemApply fires after a batch is successfully applied to the active
	// memory partition.
	MemApply Kind = iota
	// DiskFlush fires after a memory partition is successfully committed
	// to Disk.
	DiskFlush
	// Error fires when applying a batch to a memory partition or flushing
	// a partition to Disk fails. Barrier timeouts do not emit it.
	Error
)

func (k Kind) String() string {
	switch k {
	case MemApply:
		return "mem_apply"
	case DiskFlush:
		return "disk_flush"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Event describes a single hook invocation.
type Event struct {
	Kind      Kind
	Partition string
	Version   uint64
	Count     int
	Err       error
}

// Listener receives events in registration order.
type Listener func(Event)

// Registry is a concurrent, ordered list of Listeners.
type Registry struct {
	mu        sync.Mutex
	listeners []Listener
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends fn to the registry; registration order is invocation
// order.
func (r *Registry) Register(fn Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Emit invokes every registered listener in order, catching and
// swallowing any panic so one misbehaving listener cannot affect the
// pipeline or its siblings.
func (r *Registry) Emit(e Event) {
	r.mu.Lock()
	listeners := make([]Listener, len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.Unlock()

	for _, fn := range listeners {
		r.invoke(fn, e)
	}
}

func (r *Registry) invoke(fn Listener, e Event) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.Error().
				Str("kind", e.Kind.String()).
				Interface("recovered", rec).
				Msg("event listener panicked")
		}
	}()
	fn(e)
}
