// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the indexing core. Several of them track the same
// state as the admin surface's read-only getters (§6); the getters read
// the pipeline components directly, not these collectors.

var (
	// Consumer Front metrics.
	ConsumeBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "corvid_consume_batch_size",
			Help:    "Size of event batches passed to consume()",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	ConsumeBackpressureWaitSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "corvid_consume_backpressure_wait_seconds",
			Help:    "Time producers spend blocked on consume() backpressure",
			Buckets: prometheus.DefBuckets,
		},
	)

	FlushTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "corvid_flush_timeouts_total",
			Help: "Total number of flushEvents() calls that hit their timeout",
		},
	)

	SyncTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "corvid_sync_timeouts_total",
			Help: "Total number of syncWithVersion() calls that hit their timeout",
		},
	)

	// Loader metrics.
	FlushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "corvid_flush_duration_seconds",
			Help:    "Duration of Mem-to-Disk flush operations",
			Buckets: prometheus.DefBuckets,
		},
	)

	FlushEventsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "corvid_flush_events_total",
			Help: "Total number of events committed to the Disk partition",
		},
	)

	FlushErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "corvid_flush_errors_total",
			Help: "Total number of EngineIO failures encountered during flush",
		},
	)

	StagingBufferSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "corvid_staging_buffer_size",
			Help: "Current number of events staged for the next flush",
		},
	)

	// Search Index Manager metrics.
	DiskVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "corvid_disk_version",
			Help: "Current Disk partition version (watermark)",
		},
	)

	ActiveMemVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "corvid_active_mem_version",
			Help: "Current active memory partition version",
		},
	)

	PartitionSwapsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "corvid_partition_swaps_total",
			Help: "Total number of Mem-A/Mem-B active/flushing swaps",
		},
	)

	// Reader Cache metrics.
	GetReadersLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "corvid_get_readers_latency_seconds",
			Help:    "Latency of getIndexReaders() calls",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.003, 0.01, 0.05, 0.1, 0.5},
		},
	)

	GetReadersSLAExceeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "corvid_get_readers_sla_exceeded_total",
			Help: "Total number of getIndexReaders() calls that exceeded the configured SLA",
		},
	)

	CacheRefreshesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "corvid_cache_refreshes_total",
			Help: "Total number of Reader Cache Maintainer publish cycles",
		},
	)

	ReturnQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "corvid_return_queue_depth",
			Help: "Number of returned reader lists awaiting decrement",
		},
	)

	ReaderCacheDrainedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "corvid_reader_cache_drained_total",
			Help: "Total number of returned reader lists decremented by the Maintainer",
		},
	)

	ReaderRefcountLeaks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "corvid_reader_refcount_leaks_total",
			Help: "Readers whose refcount never reached zero during a maintainer drain cycle (diagnostic only)",
		},
	)

	// Process health.
	HealthCode = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "corvid_health_code",
			Help: "Process-wide health code: 0=OK, 1=WARN, 2=FATAL",
		},
	)
)

// RecordFlush records the outcome of a single Mem-to-Disk flush.
func RecordFlush(d time.Duration, eventCount int, err error) {
	FlushDuration.Observe(d.Seconds())
	if err != nil {
		FlushErrorsTotal.Inc()
		return
	}
	FlushEventsTotal.Add(float64(eventCount))
}

// RecordGetReaders records a getIndexReaders() call against its SLA budget.
func RecordGetReaders(d time.Duration, slaMillis int) {
	GetReadersLatency.Observe(d.Seconds())
	if d > time.Duration(slaMillis)*time.Millisecond {
		GetReadersSLAExceeded.Inc()
	}
}
