// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

// Package main is the entry point for indexd, the real-time
// search-indexing core.
//
// indexd wires the Consumer Front, Batched/Realtime Loader, Search Index
// Manager, Reader Cache, and administrative surface into a single
// process, supervised by a two-layer suture tree:
//
//	corvid
//	├── pipeline-layer
//	│   ├── batched-loader-flush-worker
//	│   └── reader-cache-maintainer
//	└── api-layer
//	    ├── admin-websocket-hub
//	    └── http-server (admin surface)
//
// Configuration is loaded via koanf with layered sources: built-in
// defaults, an optional YAML file, then CORVID_-prefixed environment
// variables. See internal/config for the full schema.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/corvidx/corvid/internal/admin"
	"github.com/corvidx/corvid/internal/cache"
	"github.com/corvidx/corvid/internal/config"
	"github.com/corvidx/corvid/internal/consumer"
	"github.com/corvidx/corvid/internal/engine"
	"github.com/corvidx/corvid/internal/events"
	"github.com/corvidx/corvid/internal/health"
	"github.com/corvidx/corvid/internal/index"
	"github.com/corvidx/corvid/internal/loader"
	"github.com/corvidx/corvid/internal/logging"
	"github.com/corvidx/corvid/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("starting indexd with supervisor tree")

	dir, err := engine.NewFSDirectoryManager(cfg.Engine.DataDir)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize data directory")
	}

	mgr, err := index.NewSearchIndexManager(
		engine.NewBadgerEngine(),
		engine.NewMemEngine(),
		engine.NewMemEngine(),
		dir,
		index.ManagerConfig{
			DocIDMapperFactory: cfg.Engine.DocIDMapperFactory,
			Policy: index.SegmentPolicy{
				NumLargeSegments: 1,
				MaxSmallSegments: 10,
				MergeFactor:      10,
				MaxMergeDocs:     1 << 31,
				UseCompoundFile:  false,
			},
		},
	)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize search index manager")
	}
	logging.Info().Str("data_dir", cfg.Engine.DataDir).Msg("search index manager initialized")

	tracker := health.NewTracker()
	registry := events.NewRegistry()

	diskLoader := loader.NewDiskLoader(
		mgr.Disk(),
		3,
		loader.NewOptimizeScheduler(cfg.Loader.OptimizeTargetSegments),
		tracker,
		logging.NewPipelineLogger(),
	)

	batch := loader.NewBatchedLoader(mgr, diskLoader, cfg.Loader, logging.NewPipelineLogger(), registry)

	var feedLoader consumer.Loader = batch
	if cfg.Loader.RTIndexing {
		feedLoader = loader.NewRealtimeLoader(batch)
		logging.Info().Msg("realtime indexing enabled")
	}

	readerCache := cache.NewReaderCache(cfg.Cache.SLA)
	maint := cache.NewMaintainer(readerCache, mgr, cfg.Cache.Freshness, logging.NewPipelineLogger())

	front, err := consumer.NewAsyncConsumerFront(cfg.Consumer, feedLoader, readerCache, mgr.Disk(), logging.NewPipelineLogger())
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize consumer front")
	}

	surface := admin.NewPipelineSurface(mgr, batch, diskLoader, readerCache, maint, tracker, dir, cfg.Loader.RTIndexing)
	hub := admin.NewHub()
	hub.BridgeEvents(registry)
	router := admin.NewRouter(surface, hub, cfg.Admin)
	httpServer := admin.NewServer(cfg.Admin.ListenAddr, router)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	slogLogger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.TreeConfig{
		FailureThreshold: cfg.Supervisor.FailureThreshold,
		FailureDecay:     cfg.Supervisor.FailureDecay,
		FailureBackoff:   cfg.Supervisor.FailureBackoff,
		ShutdownTimeout:  cfg.Supervisor.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create supervisor tree")
	}

	tree.AddPipelineService(loader.NewFlushWorkerService(batch, cfg.Consumer.FlushTimeout))
	tree.AddPipelineService(maint)
	tree.AddAPIService(admin.NewHubService(hub))
	tree.AddAPIService(supervisor.NewHTTPServerService(httpServer, cfg.Admin.ShutdownTimeout))
	logging.Info().Msg("pipeline and API services added to supervisor tree")

	if err := front.Start(ctx); err != nil {
		logging.Fatal().Err(err).Msg("failed to start consumer front")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Consumer.FlushTimeout)
		defer shutdownCancel()
		if err := front.Shutdown(shutdownCtx); err != nil {
			logging.Error().Err(err).Msg("error shutting down consumer front")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", cfg.Admin.ListenAddr).Msg("starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("service failed to stop")
		}
	}

	logging.Info().Msg("indexd stopped gracefully")
}
