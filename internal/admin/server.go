// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

package admin

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/corvidx/corvid/internal/config"
)

// Handler holds the dependencies every admin HTTP/WebSocket handler needs.
type Handler struct {
	surface        Surface
	hub            *Hub
	commandTimeout time.Duration
	corsOrigins    []string
}

// checkOrigin validates a websocket upgrade's Origin header against the
// configured CORS allow-list. A missing Origin header is rejected:
// legitimate browser websockets always send one.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return false
	}
	for _, allowed := range h.corsOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// NewRouter builds the chi-routed admin HTTP handler: JSON status/config/
// command endpoints plus a websocket event stream, grounded on the
// teacher's ChiMiddleware/chi_router.go layering (global recoverer + CORS,
// per-route rate limiting).
func NewRouter(surface Surface, hub *Hub, cfg config.AdminConfig) http.Handler {
	h := &Handler{
		surface:        surface,
		hub:            hub,
		commandTimeout: 30 * time.Second,
		corsOrigins:    cfg.CORSAllowedOrigins,
	}

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	})

	rateLimit := httprate.Limit(cfg.RateLimitPerMinute, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsHandler)

	r.Route("/admin/v1", func(r chi.Router) {
		r.Use(rateLimit)
		r.Get("/status", h.handleStatus)
		r.Post("/config", h.handleConfig)
		r.Post("/commands/{name}", h.handleCommand)
		r.Get("/ws", h.handleWebSocket)
	})

	return r
}

// NewServer builds the *http.Server to wrap in a
// supervisor.HTTPServerService alongside the Hub's own suture.Service.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
