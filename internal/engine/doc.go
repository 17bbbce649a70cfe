// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

/*
Package engine implements the Engine and DirectoryManager external
interfaces (spec §6).

# Implementations

BadgerEngine backs the Disk partition: a github.com/dgraph-io/badger/v4
instance durable across restarts, with FSDirectoryManager tracking the
last committed Version in a small marker file next to Badger's own data
(Badger has no notion of this core's Version watermark).

MemEngine backs the Mem-A and Mem-B partitions: a plain guarded map with
no durability, since memory partitions are frozen and flushed to Disk
rather than recovered from their own storage after a crash. It is also
used directly in unit tests wherever a fast, deterministic engine is
preferable to a real Badger instance.

# Reference counting

Both Reader implementations start with a reference count of 1 when
published by OpenReader, matching spec §3's Reference Count invariant.
IncRef/DecRef must be paired by the caller; BadgerEngine's reader discards
its underlying *badger.Txn once the count reaches zero, while MemEngine's
reader — a plain slice snapshot — has nothing further to release.
*/
package engine
