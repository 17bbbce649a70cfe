// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

// Package errs defines the sentinel error kinds shared across the indexing
// pipeline (spec §7). Every package wraps these with fmt.Errorf("...: %w")
// at the call site rather than declaring its own competing sentinel, so
// callers can errors.Is() against one stable set regardless of which
// component raised the error.
package errs

import "errors"

var (
	// ErrFlushTimeout is returned by flushEvents when the flush barrier
	// does not complete before the caller's timeout.
	ErrFlushTimeout = errors.New("flush timeout")

	// ErrRefreshTimeout is returned by the reader cache's refresh barrier
	// when the maintainer has not published a fresh snapshot in time.
	ErrRefreshTimeout = errors.New("refresh timeout")

	// ErrSyncTimeout is returned by syncWithVersion when the target
	// version is not absorbed before the caller's timeout.
	ErrSyncTimeout = errors.New("sync timeout")

	// ErrConsumerClosed is returned by consume once the consumer front has
	// been shut down, and by a loader's Consume once it has been closed.
	ErrConsumerClosed = errors.New("consumer closed")

	// ErrEngineIO wraps underlying engine or directory manager failures.
	// Repeated occurrences drive the process health code to FATAL.
	ErrEngineIO = errors.New("engine io error")

	// ErrInvalidSnapshot is returned when a snapshot import fails its
	// integrity check. On-disk state is left unchanged.
	ErrInvalidSnapshot = errors.New("invalid snapshot")

	// ErrConfigError is returned by constructors given a nil directory,
	// nil interpreter, or other invalid required dependency.
	ErrConfigError = errors.New("configuration error")
)
