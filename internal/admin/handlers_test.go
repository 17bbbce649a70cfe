// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

package admin

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/corvidx/corvid/internal/config"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	surface, _, _ := newTestSurface(t)
	hub := NewHub()
	go hub.RunWithContext(context.Background())
	cfg := config.AdminConfig{
		ListenAddr:         ":0",
		RateLimitPerMinute: 1000,
		CORSAllowedOrigins: []string{"*"},
	}
	return NewRouter(surface, hub, cfg)
}

func TestHandleStatusReturnsJSON(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/v1/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d want 200, body=%s", rec.Code, rec.Body.String())
	}
	var resp statusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode status response: %v", err)
	}
	if !resp.RealtimeMode {
		t.Fatalf("expected realtime_mode true in status response")
	}
}

func TestHandleConfigAppliesPartialUpdate(t *testing.T) {
	router := newTestRouter(t)

	body, _ := json.Marshal(configRequest{FreshnessMillis: int64Ptr(500)})
	req := httptest.NewRequest(http.MethodPost, "/admin/v1/config", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("config: got %d want 204, body=%s", rec.Code, rec.Body.String())
	}
}

func TestHandleCommandResetHealth(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/admin/v1/commands/resetHealth", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("resetHealth: got %d want 204, body=%s", rec.Code, rec.Body.String())
	}
}

func TestHandleCommandUnknownReturnsNotFound(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/admin/v1/commands/doesNotExist", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown command: got %d want 404", rec.Code)
	}
}

func int64Ptr(v int64) *int64 { return &v }
