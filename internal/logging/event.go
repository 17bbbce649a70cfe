// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// PipelineLogger provides specialized logging for the consumer/loader/index
// pipeline, with domain-specific methods for the common lifecycle events of
// a batch moving from consume() through to a committed Disk partition.
type PipelineLogger struct {
	logger zerolog.Logger
}

// NewPipelineLogger creates a logger configured for pipeline components,
// built on the global logger with a component field.
func NewPipelineLogger() *PipelineLogger {
	return &PipelineLogger{
		logger: With().Str("component", "pipeline").Logger(),
	}
}

// NewPipelineLoggerWithLogger creates a PipelineLogger with a custom logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value (copy-on-write semantics)
func NewPipelineLoggerWithLogger(logger zerolog.Logger) *PipelineLogger {
	return &PipelineLogger{
		logger: logger.With().Str("component", "pipeline").Logger(),
	}
}

// WithFields returns a new PipelineLogger with additional default fields.
func (e *PipelineLogger) WithFields(fields map[string]interface{}) *PipelineLogger {
	ctx := e.logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &PipelineLogger{logger: ctx.Logger()}
}

// Debug logs a debug message.
func (e *PipelineLogger) Debug(msg string, fields ...interface{}) {
	event := e.logger.Debug()
	event = addFieldPairs(event, fields)
	event.Msg(msg)
}

// Info logs an info message.
func (e *PipelineLogger) Info(msg string, fields ...interface{}) {
	event := e.logger.Info()
	event = addFieldPairs(event, fields)
	event.Msg(msg)
}

// Warn logs a warning message.
func (e *PipelineLogger) Warn(msg string, fields ...interface{}) {
	event := e.logger.Warn()
	event = addFieldPairs(event, fields)
	event.Msg(msg)
}

// Error logs an error message.
func (e *PipelineLogger) Error(msg string, fields ...interface{}) {
	event := e.logger.Error()
	event = addFieldPairs(event, fields)
	event.Msg(msg)
}

// DebugContext logs a debug message with context (for correlation ID).
func (e *PipelineLogger) DebugContext(ctx context.Context, msg string, fields ...interface{}) {
	logger := e.loggerWithContext(ctx)
	event := logger.Debug()
	event = addFieldPairs(event, fields)
	event.Msg(msg)
}

// InfoContext logs an info message with context.
func (e *PipelineLogger) InfoContext(ctx context.Context, msg string, fields ...interface{}) {
	logger := e.loggerWithContext(ctx)
	event := logger.Info()
	event = addFieldPairs(event, fields)
	event.Msg(msg)
}

// WarnContext logs a warning message with context.
func (e *PipelineLogger) WarnContext(ctx context.Context, msg string, fields ...interface{}) {
	logger := e.loggerWithContext(ctx)
	event := logger.Warn()
	event = addFieldPairs(event, fields)
	event.Msg(msg)
}

// ErrorContext logs an error message with context.
func (e *PipelineLogger) ErrorContext(ctx context.Context, msg string, fields ...interface{}) {
	logger := e.loggerWithContext(ctx)
	event := logger.Error()
	event = addFieldPairs(event, fields)
	event.Msg(msg)
}

// loggerWithContext returns a logger with context fields added.
func (e *PipelineLogger) loggerWithContext(ctx context.Context) zerolog.Logger {
	logCtx := e.logger.With()

	if correlationID := CorrelationIDFromContext(ctx); correlationID != "" {
		logCtx = logCtx.Str("correlation_id", correlationID)
	}

	if requestID := RequestIDFromContext(ctx); requestID != "" {
		logCtx = logCtx.Str("request_id", requestID)
	}

	return logCtx.Logger()
}

// ============================================================
// Domain-Specific Pipeline Logging Methods
// ============================================================

// LogBatchConsumed logs when a batch is accepted by the Consumer Front.
func (e *PipelineLogger) LogBatchConsumed(ctx context.Context, size int, version uint64) {
	e.InfoContext(ctx, "batch consumed",
		"batch_size", size,
		"version", version,
	)
}

// LogBackpressureApplied logs when consume() blocks a producer above the
// high-water mark.
func (e *PipelineLogger) LogBackpressureApplied(ctx context.Context, queueDepth, highWaterMark int) {
	e.WarnContext(ctx, "consumer backpressure applied",
		"queue_depth", queueDepth,
		"high_water_mark", highWaterMark,
	)
}

// LogFlushStarted logs when the loader begins flushing its staging buffer.
func (e *PipelineLogger) LogFlushStarted(ctx context.Context, eventCount int) {
	e.InfoContext(ctx, "flush started",
		"event_count", eventCount,
	)
}

// LogFlushCompleted logs a successful flush to the Disk partition.
func (e *PipelineLogger) LogFlushCompleted(ctx context.Context, eventCount int, durationMs int64, newVersion uint64) {
	e.InfoContext(ctx, "flush completed",
		"event_count", eventCount,
		"duration_ms", durationMs,
		"new_version", newVersion,
	)
}

// LogFlushFailed logs a flush that failed with an EngineIO error.
func (e *PipelineLogger) LogFlushFailed(ctx context.Context, err error, retryCount int) {
	logger := e.loggerWithContext(ctx)
	event := logger.Error().
		Err(err).
		Int("retry_count", retryCount)
	event.Msg("flush failed")
}

// LogPartitionSwap logs a Mem-A/Mem-B active/flushing swap.
func (e *PipelineLogger) LogPartitionSwap(ctx context.Context, fromPartition, toPartition string) {
	e.DebugContext(ctx, "partition swap",
		"from", fromPartition,
		"to", toPartition,
	)
}

// LogSyncWaiting logs when syncWithVersion blocks waiting for a watermark.
func (e *PipelineLogger) LogSyncWaiting(ctx context.Context, targetVersion, currentVersion uint64) {
	e.DebugContext(ctx, "sync waiting for version",
		"target_version", targetVersion,
		"current_version", currentVersion,
	)
}

// LogReaderCacheRefresh logs a Reader Cache Maintainer publish cycle.
func (e *PipelineLogger) LogReaderCacheRefresh(diskVersion, memVersion uint64, durationMs int64) {
	e.Info("reader cache refreshed",
		"disk_version", diskVersion,
		"mem_version", memVersion,
		"duration_ms", durationMs,
	)
}
