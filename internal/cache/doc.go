// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

/*
Package cache implements the Reader Cache and its Maintainer (spec
§4.6–§4.7): a single currently-published reader snapshot, refreshed on a
ticker by a background suture.Service, with reference-counted readers
returned through a lock-free queue and drained on the maintainer's own
schedule so the hot getIndexReaders/returnIndexReaders path never blocks
on engine I/O.
*/
package cache
