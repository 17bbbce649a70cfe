// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

// Package admin implements the administrative surface (spec §6): a Go
// interface exposing every getter, setter, and command the spec names,
// plus one concrete transport — a chi-routed HTTP+WebSocket server that
// exposes the surface as JSON endpoints and streams the loader's event
// listener hooks (mem-apply, disk-flush, error) to connected clients.
package admin
