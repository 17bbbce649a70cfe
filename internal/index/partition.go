// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

// Package index implements the Search Index Manager (spec §4.5): it owns
// the three partitions (Disk, Mem-A, Mem-B), runs the partition state
// machine, and produces reference-counted reader snapshots.
package index

import (
	"sync/atomic"

	"github.com/corvidx/corvid/internal/engine"
)

// PartitionID names one of the three partitions.
type PartitionID int

const (
	// Disk is the persistent partition.
	Disk PartitionID = iota
	// MemA is the first in-memory partition.
	MemA
	// MemB is the second in-memory partition.
	MemB
)

func (p PartitionID) String() string {
	switch p {
	case Disk:
		return "disk"
	case MemA:
		return "mem-a"
	case MemB:
		return "mem-b"
	default:
		return "unknown"
	}
}

// PartitionState is a memory partition's position in the state machine
// from spec §4.5:
//
//	EMPTY --writes--> ACTIVE --swap--> FLUSHING --commit--> EMPTY
//	                                            --fail----> FLUSHING (retry)
//
// The Disk partition has no state machine of its own; it is always
// logically "committed" and is represented here only so Partition can be
// shared between Disk and the memory partitions.
type PartitionState int32

const (
	// StateEmpty means the partition holds no uncommitted writes and is
	// not currently receiving them.
	StateEmpty PartitionState = iota
	// StateActive means the partition is the current write target.
	StateActive
	// StateFlushing means the partition is frozen and being drained to
	// Disk; it no longer accepts writes.
	StateFlushing
)

func (s PartitionState) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateActive:
		return "active"
	case StateFlushing:
		return "flushing"
	default:
		return "unknown"
	}
}

// Partition holds one engine instance plus its state-machine position and
// the highest version it has absorbed (spec §3).
type Partition struct {
	ID      PartitionID
	Engine  engine.Engine
	state   atomic.Int32
	version atomic.Uint64
	minUID  atomic.Uint64
	maxUID  atomic.Uint64
	hasUID  atomic.Bool
}

// NewPartition wraps eng as a Partition in the given initial state.
func NewPartition(id PartitionID, eng engine.Engine, initial PartitionState) *Partition {
	p := &Partition{ID: id, Engine: eng}
	p.state.Store(int32(initial))
	return p
}

// State returns the partition's current state-machine position.
func (p *Partition) State() PartitionState {
	return PartitionState(p.state.Load())
}

// Version returns the highest version this partition has absorbed.
func (p *Partition) Version() uint64 {
	return p.version.Load()
}

// SetVersion records the highest version absorbed so far.
func (p *Partition) SetVersion(v uint64) {
	p.version.Store(v)
}

// TrackUID folds uid into the partition's observed min/max UID range,
// used by the admin surface's "min/max UID across all partitions" getter.
func (p *Partition) TrackUID(uid uint64) {
	if !p.hasUID.Load() {
		p.minUID.Store(uid)
		p.maxUID.Store(uid)
		p.hasUID.Store(true)
		return
	}
	for {
		cur := p.minUID.Load()
		if uid >= cur {
			break
		}
		if p.minUID.CompareAndSwap(cur, uid) {
			break
		}
	}
	for {
		cur := p.maxUID.Load()
		if uid <= cur {
			break
		}
		if p.maxUID.CompareAndSwap(cur, uid) {
			break
		}
	}
}

// UIDRange returns the observed (min, max, ok) UID range; ok is false if
// no UID has been tracked yet.
func (p *Partition) UIDRange() (min, max uint64, ok bool) {
	return p.minUID.Load(), p.maxUID.Load(), p.hasUID.Load()
}

// resetUIDRange clears observed UID tracking, called by PurgeAll.
func (p *Partition) resetUIDRange() {
	p.minUID.Store(0)
	p.maxUID.Store(0)
	p.hasUID.Store(false)
}
