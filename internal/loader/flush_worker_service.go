// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"context"
	"fmt"
	"time"
)

// FlushWorkerService adapts a BatchedLoader's Start/Close lifecycle to
// suture's Serve pattern, so the background flush worker can sit in the
// supervisor tree's pipeline layer alongside the Reader Cache Maintainer.
type FlushWorkerService struct {
	loader       *BatchedLoader
	closeTimeout time.Duration
}

// NewFlushWorkerService returns a FlushWorkerService wrapping loader.
// closeTimeout bounds the final flush Close performs on shutdown.
func NewFlushWorkerService(loader *BatchedLoader, closeTimeout time.Duration) *FlushWorkerService {
	return &FlushWorkerService{loader: loader, closeTimeout: closeTimeout}
}

// Serve implements suture.Service: starts the background worker, blocks
// until ctx is canceled, then closes the loader, flushing staged events.
func (s *FlushWorkerService) Serve(ctx context.Context) error {
	s.loader.Start(ctx)

	<-ctx.Done()

	closeCtx, cancel := context.WithTimeout(context.Background(), s.closeTimeout)
	defer cancel()
	if err := s.loader.Close(closeCtx); err != nil {
		return fmt.Errorf("flush worker close failed: %w", err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logging.
func (s *FlushWorkerService) String() string {
	return "batched-loader-flush-worker"
}
