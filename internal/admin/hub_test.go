// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

package admin

import (
	"context"
	"testing"
	"time"

	"github.com/corvidx/corvid/internal/events"
)

func TestHubBridgeEventsBroadcastsRegistryEmissions(t *testing.T) {
	hub := NewHub()
	registry := events.NewRegistry()
	hub.BridgeEvents(registry)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.RunWithContext(ctx)

	client := &Client{id: 1, hub: hub, send: make(chan Message, 4)}
	hub.Register <- client
	waitForCount(t, hub, 1)

	registry.Emit(events.Event{Kind: events.MemApply, Partition: "mem-a", Version: 1, Count: 3})

	select {
	case msg := <-client.send:
		if msg.Type != events.MemApply.String() || msg.Partition != "mem-a" {
			t.Fatalf("unexpected broadcast message: %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for bridged event broadcast")
	}
}

func TestHubRegisterUnregisterTracksClientCount(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.RunWithContext(ctx)

	client := &Client{id: 1, hub: hub, send: make(chan Message, 1)}
	hub.Register <- client
	waitForCount(t, hub, 1)

	hub.Unregister <- client
	waitForCount(t, hub, 0)
}

func waitForCount(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if hub.GetClientCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("client count did not reach %d, got %d", want, hub.GetClientCount())
}
