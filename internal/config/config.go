// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

package config

import "time"

// Config is the root configuration object for the indexing core. Fields map
// directly onto the constructor parameters of the Consumer Front, Batched/
// Realtime Loader, Search Index Manager and Reader Cache.
type Config struct {
	// Engine controls the persistent storage layer (Disk partition).
	Engine EngineConfig `koanf:"engine" validate:"required"`

	// Loader controls batching, flush cadence, and realtime-indexing mode.
	Loader LoaderConfig `koanf:"loader" validate:"required"`

	// Cache controls the Reader Cache Maintainer.
	Cache CacheConfig `koanf:"cache" validate:"required"`

	// Consumer controls the Async Consumer Front's backpressure behavior.
	Consumer ConsumerConfig `koanf:"consumer" validate:"required"`

	// Admin controls the administrative HTTP/WebSocket surface.
	Admin AdminConfig `koanf:"admin" validate:"required"`

	// Logging controls the global zerolog logger.
	Logging LoggingConfig `koanf:"logging" validate:"required"`

	// Supervisor controls the suture supervisor tree's restart behavior.
	Supervisor SupervisorConfig `koanf:"supervisor" validate:"required"`
}

// EngineConfig configures the persistent storage engine backing the Disk
// partition.
type EngineConfig struct {
	// DataDir is the directory the engine persists segments under.
	DataDir string `koanf:"data_dir" validate:"required"`

	// DocIDMapperFactory selects the strategy for mapping external UIDs to
	// internal document IDs. "default" uses a simple in-memory map.
	DocIDMapperFactory string `koanf:"docid_mapper_factory" validate:"required,oneof=default"`

	// Analyzer names the text analysis chain applied to indexed fields.
	Analyzer string `koanf:"analyzer" validate:"required"`

	// Similarity names the scoring model used at query time.
	Similarity string `koanf:"similarity" validate:"required"`
}

// LoaderConfig configures the Batched/Realtime Loader.
type LoaderConfig struct {
	// BatchSize is the staging-buffer size that triggers a flush.
	BatchSize int `koanf:"batch_size" validate:"required,gt=0"`

	// MaxBatchSize is the hard ceiling on staged events before a flush is
	// forced regardless of BatchDelay.
	MaxBatchSize int `koanf:"max_batch_size" validate:"required,gtefield=BatchSize"`

	// BatchDelay is the maximum age of the oldest staged event before a
	// flush is triggered.
	BatchDelay time.Duration `koanf:"batch_delay" validate:"required,gt=0"`

	// RTIndexing selects the Realtime Loader (events land in the active
	// memory partition immediately) over the plain Batched Loader.
	RTIndexing bool `koanf:"rt_indexing"`

	// VersionComparator names an ordering rule for out-of-order event
	// versions: "monotonic" or "last-write-wins". The value is validated,
	// but no loader reads it: every consumed batch is applied whatever its
	// version, in arrival order.
	VersionComparator string `koanf:"version_comparator" validate:"required,oneof=monotonic last-write-wins"`

	// OptimizeTargetSegments is passed by cmd/indexd to
	// loader.NewOptimizeScheduler, where it sets how many Disk flushes pass
	// between scheduled optimize() calls (0 disables them). Scheduled calls
	// pass a target of 0 to the engine; this value is not used as a
	// segment target.
	OptimizeTargetSegments int `koanf:"optimize_target_segments" validate:"gte=0"`
}

// CacheConfig configures the Reader Cache Maintainer.
type CacheConfig struct {
	// Freshness is the maximum staleness of the published reader snapshot;
	// the Maintainer ticks at least this often.
	Freshness time.Duration `koanf:"freshness" validate:"required,gt=0"`

	// SLA is the latency budget for getIndexReaders(); exceeding it is
	// recorded but never blocks the call.
	SLA time.Duration `koanf:"sla" validate:"required,gt=0"`
}

// ConsumerConfig configures the Async Consumer Front.
type ConsumerConfig struct {
	// HighWaterMark is the queue depth at which consume() blocks the
	// caller until the loader drains events.
	HighWaterMark int `koanf:"high_water_mark" validate:"required,gt=0"`

	// FlushTimeout bounds flushEvents() calls.
	FlushTimeout time.Duration `koanf:"flush_timeout" validate:"required,gt=0"`

	// SyncTimeout bounds syncWithVersion() calls.
	SyncTimeout time.Duration `koanf:"sync_timeout" validate:"required,gt=0"`
}

// AdminConfig configures the administrative HTTP/WebSocket surface.
type AdminConfig struct {
	// ListenAddr is the address the admin HTTP server binds to.
	ListenAddr string `koanf:"listen_addr" validate:"required"`

	// ShutdownTimeout bounds graceful HTTP server shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"required,gt=0"`

	// RateLimitPerMinute is the per-client request budget on the admin
	// surface, enforced by httprate.
	RateLimitPerMinute int `koanf:"rate_limit_per_minute" validate:"required,gt=0"`

	// CORSAllowedOrigins lists origins permitted to call the admin surface.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
}

// LoggingConfig configures the global zerolog logger.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level" validate:"required,oneof=trace debug info warn error"`

	// Format is the output encoding: json or console.
	Format string `koanf:"format" validate:"required,oneof=json console"`

	// Caller includes the calling file:line in each log entry.
	Caller bool `koanf:"caller"`
}

// SupervisorConfig configures the suture supervisor tree.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold" validate:"required,gt=0"`
	FailureDecay     float64       `koanf:"failure_decay" validate:"required,gt=0"`
	FailureBackoff   time.Duration `koanf:"failure_backoff" validate:"required,gt=0"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout" validate:"required,gt=0"`
}

// Default returns a Config populated with sensible defaults. These are the
// first layer of the koanf load order: defaults, then config file, then
// environment variables.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			DataDir:            "/data/corvid",
			DocIDMapperFactory: "default",
			Analyzer:           "standard",
			Similarity:         "bm25",
		},
		Loader: LoaderConfig{
			BatchSize:              1000,
			MaxBatchSize:           10000,
			BatchDelay:             1 * time.Second,
			RTIndexing:             true,
			VersionComparator:      "monotonic",
			OptimizeTargetSegments: 1,
		},
		Cache: CacheConfig{
			Freshness: 1 * time.Second,
			SLA:       5 * time.Millisecond,
		},
		Consumer: ConsumerConfig{
			HighWaterMark: 50000,
			FlushTimeout:  10 * time.Second,
			SyncTimeout:   10 * time.Second,
		},
		Admin: AdminConfig{
			ListenAddr:         ":9200",
			ShutdownTimeout:    10 * time.Second,
			RateLimitPerMinute: 600,
			CORSAllowedOrigins: []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5.0,
			FailureDecay:     30.0,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}
