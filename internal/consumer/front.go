// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

package consumer

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/corvidx/corvid/internal/config"
	"github.com/corvidx/corvid/internal/errs"
	"github.com/corvidx/corvid/internal/index"
	"github.com/corvidx/corvid/internal/interpreter"
	"github.com/corvidx/corvid/internal/logging"
)

// eventsTopic is the single topic the internal bus carries: versioned
// event batches flowing from consume() to the loader.
const eventsTopic = "corvid.consumer.events"

// handlerName identifies the router's no-publisher handler for logging
// and metrics attribution.
const handlerName = "consumer-to-loader"

// busPollInterval is how often FlushEvents re-checks whether the bus has
// caught up to the publish count recorded before the call.
const busPollInterval = 10 * time.Millisecond

// Loader is the subset of the Batched/Realtime Loader's contract the
// consumer front drives.
type Loader interface {
	Consume(ctx context.Context, events []interpreter.Indexable, version uint64) error
	FlushEvents(ctx context.Context, timeout time.Duration) error
	WaitForVersion(ctx context.Context, timeout time.Duration, version uint64) error
}

// RefreshBarrier is satisfied by *cache.ReaderCache; syncWithVersion calls
// into it once the loader has absorbed the requested version.
type RefreshBarrier interface {
	RefreshCache(ctx context.Context, timeout time.Duration) error
}

// batchEnvelope is the wire shape carried over the internal bus.
type batchEnvelope struct {
	Events  []interpreter.Indexable `json:"events"`
	Version uint64                  `json:"version"`
}

// AsyncConsumerFront is the entry point of the indexing pipeline (spec
// §4.1). Accepted batches are published onto a bounded in-process bus;
// Publish blocks once the bus's buffer is full, which is the
// backpressure consume() promises at the configured high-water mark.
type AsyncConsumerFront struct {
	cfg    config.ConsumerConfig
	loader Loader
	cache  RefreshBarrier
	disk   *index.Partition
	logger *logging.PipelineLogger

	bus    *gochannel.GoChannel
	router *message.Router

	// published counts batches handed to bus.Publish; handled counts
	// batches handle() has passed to loader.Consume. FlushEvents waits
	// for handled to catch up to the published count it observed before
	// delegating to the loader, so events still sitting on the bus are
	// absorbed before the barrier returns.
	published atomic.Uint64
	handled   atomic.Uint64

	closed  atomic.Bool
	started atomic.Bool
}

// NewAsyncConsumerFront wires the internal bus and the retry/recover
// middleware stack around a single handler that forwards to loader.
func NewAsyncConsumerFront(cfg config.ConsumerConfig, loader Loader, cache RefreshBarrier, disk *index.Partition, logger *logging.PipelineLogger) (*AsyncConsumerFront, error) {
	wlog := watermill.NewStdLogger(false, false)

	bus := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: int64(cfg.HighWaterMark),
	}, wlog)

	router, err := message.NewRouter(message.RouterConfig{}, wlog)
	if err != nil {
		return nil, fmt.Errorf("consumer: new router: %w", err)
	}

	f := &AsyncConsumerFront{
		cfg:    cfg,
		loader: loader,
		cache:  cache,
		disk:   disk,
		logger: logger,
		bus:    bus,
		router: router,
	}

	router.AddMiddleware(
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 50 * time.Millisecond,
			MaxInterval:     time.Second,
			Multiplier:      2,
			Logger:          wlog,
		}.Middleware,
	)
	router.AddNoPublisherHandler(handlerName, eventsTopic, bus, f.handle)

	return f, nil
}

// handle is the router's sole handler: it unmarshals a batch envelope and
// forwards it to the loader. A returned error triggers the retry
// middleware and, if retries are exhausted, a Nack the bus does not
// redeliver. handled is bumped exactly once per message, on whichever
// terminal path the message takes, so FlushEvents' bus-drain wait always
// converges.
func (f *AsyncConsumerFront) handle(msg *message.Message) error {
	var env batchEnvelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		f.logger.ErrorContext(msg.Context(), "consumer: malformed event envelope", "error", err)
		f.handled.Add(1)
		return nil
	}
	err := f.loader.Consume(msg.Context(), env.Events, env.Version)
	if err == nil {
		f.handled.Add(1)
	}
	return err
}

// Start runs the router in the background and blocks until it reports
// itself running or ctx is canceled.
func (f *AsyncConsumerFront) Start(ctx context.Context) error {
	if !f.started.CompareAndSwap(false, true) {
		return nil
	}
	go func() {
		if err := f.router.Run(ctx); err != nil {
			f.logger.ErrorContext(ctx, "consumer router stopped", "error", err)
		}
	}()
	select {
	case <-f.router.Running():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume enqueues a versioned event batch onto the internal bus,
// blocking if the bus's buffer is at the configured high-water mark
// (spec §4.1). Returns ErrConsumerClosed once Shutdown has been called.
func (f *AsyncConsumerFront) Consume(ctx context.Context, events []interpreter.Indexable, version uint64) error {
	if f.closed.Load() {
		return errs.ErrConsumerClosed
	}

	payload, err := json.Marshal(batchEnvelope{Events: events, Version: version})
	if err != nil {
		return fmt.Errorf("consumer: marshal event batch: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)
	msg.SetContext(ctx)

	if err := f.bus.Publish(eventsTopic, msg); err != nil {
		return fmt.Errorf("consumer: publish event batch: %w", err)
	}
	f.published.Add(1)

	f.logger.LogBatchConsumed(ctx, len(events), version)
	return nil
}

// FlushEvents blocks until every event enqueued before the call has been
// absorbed by the loader's memory tier, or until timeout elapses (spec
// §4.1). It first waits for the bus to deliver every batch Consume has
// already published to the loader — otherwise a batch still sitting on
// the bus would be invisible to the loader's own staging-buffer barrier
// and FlushEvents could return before it was absorbed.
func (f *AsyncConsumerFront) FlushEvents(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	if err := f.waitForBusDrain(ctx, deadline); err != nil {
		return err
	}
	remaining := time.Until(deadline)
	if remaining < 0 {
		remaining = 0
	}
	return f.loader.FlushEvents(ctx, remaining)
}

// waitForBusDrain blocks until every batch published before this call has
// reached handle(), or until deadline elapses.
func (f *AsyncConsumerFront) waitForBusDrain(ctx context.Context, deadline time.Time) error {
	target := f.published.Load()
	if f.handled.Load() >= target {
		return nil
	}
	ticker := time.NewTicker(busPollInterval)
	defer ticker.Stop()
	for {
		if f.handled.Load() >= target {
			return nil
		}
		if time.Now().After(deadline) {
			return errs.ErrFlushTimeout
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// SyncWithVersion blocks until the loader reports absorption of a version
// at least as high as version, then triggers a reader-cache refresh
// barrier (spec §4.7).
func (f *AsyncConsumerFront) SyncWithVersion(ctx context.Context, timeout time.Duration, version uint64) error {
	f.logger.LogSyncWaiting(ctx, version, f.GetVersion())
	if err := f.loader.WaitForVersion(ctx, timeout, version); err != nil {
		return err
	}
	return f.cache.RefreshCache(ctx, timeout)
}

// GetVersion returns the current Disk version. Per spec, a missing Disk
// partition degrades to version 0 with a logged error rather than
// propagating a failure.
func (f *AsyncConsumerFront) GetVersion() uint64 {
	if f.disk == nil {
		f.logger.Error("consumer: getVersion called with no disk partition attached")
		return 0
	}
	return f.disk.Version()
}

// Shutdown idempotently drains in-flight events, stops the router, and
// closes the internal bus.
func (f *AsyncConsumerFront) Shutdown(ctx context.Context) error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}

	if err := f.FlushEvents(ctx, f.cfg.FlushTimeout); err != nil {
		f.logger.ErrorContext(ctx, "consumer: flush on shutdown failed", "error", err)
	}

	if err := f.router.Close(); err != nil {
		f.logger.ErrorContext(ctx, "consumer: router close failed", "error", err)
	}

	return f.bus.Close()
}
