// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

package admin

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/corvidx/corvid/internal/logging"
)

// statusResponse bundles every admin surface getter into one JSON document
// (spec §6 describes getters/setters/commands by kind only, with no
// transport assumed; bundling getters avoids one round trip per field).
type statusResponse struct {
	DiskVersion           uint64 `json:"disk_version"`
	MemASegments          int    `json:"mem_a_segments"`
	MemBSegments          int    `json:"mem_b_segments"`
	DiskSegments          int    `json:"disk_segments"`
	MemAVersion           uint64 `json:"mem_a_version"`
	MemBVersion           uint64 `json:"mem_b_version"`
	MemASizeBytes         int64  `json:"mem_a_size_bytes"`
	MemBSizeBytes         int64  `json:"mem_b_size_bytes"`
	DiskSizeBytes         int64  `json:"disk_size_bytes"`
	FreeDiskBytes         int64  `json:"free_disk_bytes"`
	RealtimeMode          bool   `json:"realtime_mode"`
	LastOptimizeTime      string `json:"last_optimize_time,omitempty"`
	LastModifiedTime      string `json:"last_modified_time,omitempty"`
	CurrentMemBatchSize   int    `json:"current_mem_batch_size"`
	CurrentDiskBatchSize  int    `json:"current_disk_batch_size"`
	MinUID                uint64 `json:"min_uid,omitempty"`
	MaxUID                uint64 `json:"max_uid,omitempty"`
	FreshnessMillis       int64  `json:"freshness_ms"`
	SLAMillis             int64  `json:"sla_ms"`
	HealthCode            string `json:"health_code"`
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	memA, memB, disk := h.surface.SegmentCounts()
	memAVer, memBVer := h.surface.MemVersions()
	memASize, memBSize := h.surface.MemSizes()
	free, err := h.surface.FreeDiskBytes()
	if err != nil {
		logging.Warn().Err(err).Msg("admin: free disk bytes getter failed")
	}
	minUID, maxUID, _ := h.surface.MinMaxUID()

	resp := statusResponse{
		DiskVersion:          h.surface.DiskVersion(),
		MemASegments:         memA,
		MemBSegments:         memB,
		DiskSegments:         disk,
		MemAVersion:          memAVer,
		MemBVersion:          memBVer,
		MemASizeBytes:        memASize,
		MemBSizeBytes:        memBSize,
		DiskSizeBytes:        h.surface.DiskSizeBytes(),
		FreeDiskBytes:        free,
		RealtimeMode:         h.surface.RealtimeMode(),
		CurrentMemBatchSize:  h.surface.CurrentMemBatchSize(),
		CurrentDiskBatchSize: h.surface.CurrentDiskBatchSize(),
		MinUID:               minUID,
		MaxUID:               maxUID,
		FreshnessMillis:      h.surface.Freshness().Milliseconds(),
		SLAMillis:            h.surface.SLA().Milliseconds(),
		HealthCode:           h.surface.HealthCode().String(),
	}
	if t := h.surface.LastOptimizeTime(); !t.IsZero() {
		resp.LastOptimizeTime = t.Format(time.RFC3339)
	}
	if t := h.surface.LastModifiedTime(); !t.IsZero() {
		resp.LastModifiedTime = t.Format(time.RFC3339)
	}

	writeJSON(w, http.StatusOK, resp)
}

// configRequest carries a partial update; only non-nil fields are applied
// (spec §6's setters: batch size, batch delay, max batch size, merge
// factor, max merge docs, use-compound-file, num large segments, max small
// segments, freshness, SLA).
type configRequest struct {
	BatchSize        *int   `json:"batch_size"`
	BatchDelayMillis *int64 `json:"batch_delay_ms"`
	MaxBatchSize     *int   `json:"max_batch_size"`
	MergeFactor      *int   `json:"merge_factor"`
	MaxMergeDocs     *int   `json:"max_merge_docs"`
	UseCompoundFile  *bool  `json:"use_compound_file"`
	NumLargeSegments *int   `json:"num_large_segments"`
	MaxSmallSegments *int   `json:"max_small_segments"`
	FreshnessMillis  *int64 `json:"freshness_ms"`
	SLAMillis        *int64 `json:"sla_ms"`
}

func (h *Handler) handleConfig(w http.ResponseWriter, r *http.Request) {
	var req configRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if req.BatchSize != nil {
		h.surface.SetBatchSize(*req.BatchSize)
	}
	if req.BatchDelayMillis != nil {
		h.surface.SetBatchDelay(time.Duration(*req.BatchDelayMillis) * time.Millisecond)
	}
	if req.MaxBatchSize != nil {
		h.surface.SetMaxBatchSize(*req.MaxBatchSize)
	}
	if req.MergeFactor != nil {
		h.surface.SetMergeFactor(*req.MergeFactor)
	}
	if req.MaxMergeDocs != nil {
		h.surface.SetMaxMergeDocs(*req.MaxMergeDocs)
	}
	if req.UseCompoundFile != nil {
		h.surface.SetUseCompoundFile(*req.UseCompoundFile)
	}
	if req.NumLargeSegments != nil {
		h.surface.SetNumLargeSegments(*req.NumLargeSegments)
	}
	if req.MaxSmallSegments != nil {
		h.surface.SetMaxSmallSegments(*req.MaxSmallSegments)
	}
	if req.FreshnessMillis != nil {
		h.surface.SetFreshness(time.Duration(*req.FreshnessMillis) * time.Millisecond)
	}
	if req.SLAMillis != nil {
		h.surface.SetSLA(time.Duration(*req.SLAMillis) * time.Millisecond)
	}

	w.WriteHeader(http.StatusNoContent)
}

// commandRequest carries the optional argument a handful of commands take
// (optimize's target segment count).
type commandRequest struct {
	TargetSegments int `json:"target_segments"`
}

func (h *Handler) handleCommand(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	ctx := r.Context()

	switch name {
	case "refreshDiskReader":
		h.surface.RefreshDiskReader(ctx)
	case "flushToDiskIndex":
		if err := h.surface.FlushToDiskIndex(ctx, h.commandTimeout); err != nil {
			writeError(w, http.StatusGatewayTimeout, err)
			return
		}
	case "flushToMemoryIndex":
		if err := h.surface.FlushToMemoryIndex(ctx, h.commandTimeout); err != nil {
			writeError(w, http.StatusGatewayTimeout, err)
			return
		}
	case "optimize":
		var req commandRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if err := h.surface.Optimize(ctx, req.TargetSegments); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	case "expungeDeletes":
		if err := h.surface.ExpungeDeletes(ctx); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	case "purgeIndex":
		if err := h.surface.PurgeIndex(ctx); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	case "resetHealth":
		h.surface.ResetHealth()
	default:
		writeError(w, http.StatusNotFound, errors.New("unknown admin command"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error().Err(err).Msg("admin websocket: upgrade failed")
		return
	}
	client := NewClient(h.hub, conn)
	h.hub.Register <- client
	client.Start()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
