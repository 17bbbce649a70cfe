// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

/*
Package config provides layered configuration loading for the indexing core
using koanf v2.

# Overview

Config is loaded from three layers, in ascending priority:

 1. Defaults — Default() returns a Config with production-sane values for
    every field.
 2. Config file — an optional YAML file, located via CONFIG_PATH or the
    search paths in DefaultConfigPaths.
 3. Environment variables — CORVID_-prefixed variables override any
    setting loaded so far (e.g. CORVID_LOADER_BATCH_SIZE).

Call Load() to run all three layers and validate the result:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

# Validation

Config.Validate() runs go-playground/validator struct tags over every
field. Load() calls Validate() automatically; callers constructing a Config
by hand (e.g. in tests) should call it explicitly.

# Sections

  - EngineConfig: the persistent storage engine backing the Disk partition.
  - LoaderConfig: Batched/Realtime Loader batching and flush thresholds.
  - CacheConfig: Reader Cache Maintainer freshness and SLA.
  - ConsumerConfig: Async Consumer Front backpressure and timeout behavior.
  - AdminConfig: the administrative HTTP/WebSocket surface.
  - LoggingConfig: the global zerolog logger.
  - SupervisorConfig: the suture supervisor tree's restart behavior.
*/
package config
