// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

package admin

import (
	"context"
	"sort"
	"sync"

	"github.com/corvidx/corvid/internal/events"
	"github.com/corvidx/corvid/internal/logging"
)

// Message is the wire shape streamed to every connected websocket client:
// one of the loader's event listener hooks (spec §6's "event listeners
// produced"), translated to JSON.
type Message struct {
	Type      string `json:"type"`
	Partition string `json:"partition,omitempty"`
	Version   uint64 `json:"version,omitempty"`
	Count     int    `json:"count,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Hub maintains the set of connected admin-surface websocket clients and
// broadcasts event-listener messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// BridgeEvents subscribes the hub to registry, translating every emitted
// event into a broadcast Message. Intended to be called once at
// composition time with the loader's event registry.
func (h *Hub) BridgeEvents(registry *events.Registry) {
	registry.Register(func(e events.Event) {
		msg := Message{
			Type:      e.Kind.String(),
			Partition: e.Partition,
			Version:   e.Version,
			Count:     e.Count,
		}
		if e.Err != nil {
			msg.Error = e.Err.Error()
		}
		h.BroadcastJSON(msg)
	})
}

// BroadcastJSON enqueues msg for delivery to every connected client,
// dropping it if the broadcast channel is full rather than blocking the
// event producer.
func (h *Hub) BroadcastJSON(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		logging.Warn().Str("message_type", msg.Type).Msg("admin websocket broadcast channel full, dropping message")
	}
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RunWithContext runs the hub's event loop until ctx is canceled,
// satisfying suture.Service.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.closeAllClients()
			return ctx.Err()
		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			logging.Info().Int("total_clients", h.GetClientCount()).Msg("admin websocket client connected")
		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			logging.Info().Int("total_clients", h.GetClientCount()).Msg("admin websocket client disconnected")
		case msg := <-h.broadcast:
			h.broadcastToClients(msg)
		}
	}
}

// broadcastToClients sends msg to every connected client in deterministic
// (ID-sorted) order, dropping clients whose send buffer is full.
func (h *Hub) broadcastToClients(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })

	var stale []*Client
	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			stale = append(stale, c)
		}
	}
	for _, c := range stale {
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })

	for _, c := range clients {
		close(c.send)
		delete(h.clients, c)
	}
}
