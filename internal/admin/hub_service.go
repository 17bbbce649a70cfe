// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

package admin

import "context"

// HubService wraps a *Hub as a supervised suture.Service, so the
// supervisor tree's API layer can restart the websocket event stream
// independently of the HTTP server that serves it.
type HubService struct {
	hub *Hub
}

// NewHubService returns a HubService delegating to hub.RunWithContext.
func NewHubService(hub *Hub) *HubService {
	return &HubService{hub: hub}
}

// Serve implements suture.Service.
func (s *HubService) Serve(ctx context.Context) error {
	return s.hub.RunWithContext(ctx)
}

// String implements fmt.Stringer for supervisor logging.
func (s *HubService) String() string {
	return "admin-websocket-hub"
}
