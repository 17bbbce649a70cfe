// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

/*
Package consumer implements the Async Consumer Front (spec §4.1): the
entry point that accepts versioned event batches, forwards them to the
loader over an internal bounded bus, and exposes the flush/sync barriers
callers use to observe absorption.
*/
package consumer
