// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

/*
Package loader implements the Batched Loader, Realtime Loader, and Disk
Loader (spec §4.2–§4.4): the stage between the Async Consumer Front and
the Search Index Manager that buffers events, hands frozen memory
partitions off to Disk, and drives the engine's optimize/expunge/snapshot
operations.

# Flush protocol

A BatchedLoader stages incoming batches until batchSize or batchDelay is
reached, then runs the Mem-to-Disk hand-off:

 1. The staged batch is applied to the Search Index Manager's current
    active partition.
 2. The manager swaps that partition to FLUSHING and promotes the other
    (empty) partition to ACTIVE.
 3. The Disk Loader merges the flushing partition's contents into Disk
    and commits.
 4. On success the flushing partition is cleared back to EMPTY. On
    failure it is left FLUSHING, and the next flush re-attempts with the
    union of its contents and anything staged since.

A RealtimeLoader additionally applies each consumed batch directly to the
active partition at consume time, so events are queryable immediately
rather than only after the next flush.

# Circuit breaking

DiskLoader wraps engine I/O in a github.com/sony/gobreaker/v2 circuit
breaker; repeated EngineIO failures trip the breaker and mark the
process-wide health code FATAL.
*/
package loader
