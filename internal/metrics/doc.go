// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

/*
Package metrics provides Prometheus metrics collection and export for the
indexing core.

# Overview

The package instruments the four pipeline stages described in the system
design:

  - Consumer Front: batch sizes, backpressure wait time, flush/sync timeouts
  - Loader: flush duration, events committed, flush errors, staging buffer
    depth
  - Search Index Manager: Disk/active-mem version watermarks, partition
    swap count
  - Reader Cache: getIndexReaders() latency against the configured SLA,
    maintainer refresh count, return-queue depth

plus a process-wide health code gauge mirroring the internal/health
tri-state signal.

ConsumeBatchSize, ConsumeBackpressureWaitSeconds, ActiveMemVersion and
ReaderRefcountLeaks are registered, but no component updates them.

# Metrics Endpoint

The collectors register with the Prometheus default registry through
promauto. This module mounts no HTTP handler for them: the admin HTTP
surface has no /metrics route.

# Naming

All metric names use the corvid_ prefix. Durations are seconds, sizes are
raw counts, consistent with Prometheus naming conventions.
*/
package metrics
