// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	json "github.com/goccy/go-json"

	"github.com/corvidx/corvid/internal/errs"
	"github.com/corvidx/corvid/internal/interpreter"
)

// MemEngine is a non-persistent, in-memory Engine implementation. It backs
// the Mem-A/Mem-B partitions (spec §4.5) — which never need Badger's
// durability, only fast apply-and-read — and doubles as the fake engine
// unit tests use for deterministic, disk-free behavior.
type MemEngine struct {
	mu      sync.RWMutex
	docs    map[uint64][]byte
	deleted map[uint64]struct{}
	version atomic.Uint64
}

// NewMemEngine returns an empty, ready-to-use MemEngine.
func NewMemEngine() *MemEngine {
	return &MemEngine{docs: make(map[uint64][]byte), deleted: make(map[uint64]struct{})}
}

// Open implements Engine. MemEngine ignores dir entirely; it has no
// persistent state to open.
func (m *MemEngine) Open(dir DirectoryManager) error {
	return nil
}

// ApplyBatch implements Engine.
func (m *MemEngine) ApplyBatch(batch []interpreter.Indexable, version uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ind := range batch {
		switch ind.Op {
		case interpreter.OpDelete:
			delete(m.docs, ind.UID)
			m.deleted[ind.UID] = struct{}{}
		default:
			m.docs[ind.UID] = ind.Doc
			delete(m.deleted, ind.UID)
		}
	}
	return version, nil
}

// Commit implements Engine. MemEngine applies writes synchronously, so
// Commit only needs to publish the new watermark.
func (m *MemEngine) Commit(version uint64) error {
	m.version.Store(version)
	return nil
}

// OpenReader implements Engine.
func (m *MemEngine) OpenReader() (Reader, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	uids := make([]uint64, 0, len(m.docs))
	for uid := range m.docs {
		uids = append(uids, uid)
	}
	deleted := make([]uint64, 0, len(m.deleted))
	for uid := range m.deleted {
		deleted = append(deleted, uid)
	}
	r := &memReader{uids: uids, deleted: deleted}
	r.refcount.Store(1)
	return r, nil
}

// Optimize implements Engine as a no-op: an in-memory map has no segments
// to merge.
func (m *MemEngine) Optimize(targetSegments int) error { return nil }

// ExpungeDeletes implements Engine as a no-op: the deleted-UID tombstones
// this engine tracks exist only to survive the trip through Export into
// the Disk partition, not to be merged away in place.
func (m *MemEngine) ExpungeDeletes() error { return nil }

// SnapshotTo implements Engine.
func (m *MemEngine) SnapshotTo(sink io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := memSnapshot{Version: m.version.Load(), Docs: m.docs}
	enc, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("%w: encode snapshot: %v", errs.ErrEngineIO, err)
	}
	if _, err := sink.Write(enc); err != nil {
		return fmt.Errorf("%w: write snapshot: %v", errs.ErrEngineIO, err)
	}
	return nil
}

// RestoreFrom implements Engine.
func (m *MemEngine) RestoreFrom(source io.Reader) (uint64, error) {
	raw, err := io.ReadAll(source)
	if err != nil {
		return 0, fmt.Errorf("%w: read snapshot: %v", errs.ErrInvalidSnapshot, err)
	}
	var snap memSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return 0, fmt.Errorf("%w: decode snapshot: %v", errs.ErrInvalidSnapshot, err)
	}
	if snap.Docs == nil {
		return 0, fmt.Errorf("%w: snapshot has no document map", errs.ErrInvalidSnapshot)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = snap.Docs
	m.deleted = make(map[uint64]struct{})
	m.version.Store(snap.Version)
	return snap.Version, nil
}

// SegmentCount implements Engine. MemEngine models itself as a single
// segment whenever it holds any documents.
func (m *MemEngine) SegmentCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.docs) == 0 {
		return 0
	}
	return 1
}

// SizeBytes implements Engine.
func (m *MemEngine) SizeBytes() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var total int64
	for _, doc := range m.docs {
		total += int64(len(doc))
	}
	return total
}

// Version implements Engine.
func (m *MemEngine) Version() uint64 {
	return m.version.Load()
}

// Close implements Engine as a no-op: there is nothing to release.
func (m *MemEngine) Close() error { return nil }

// Export implements Engine. Every document removed since the last Clear
// is emitted as an OpDelete tombstone alongside the live OpAdd entries,
// so the Mem-to-Disk hand-off (disk_loader.go's LoadFromIndex) propagates
// deletes instead of silently dropping them.
func (m *MemEngine) Export() ([]interpreter.Indexable, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]interpreter.Indexable, 0, len(m.docs)+len(m.deleted))
	for uid, doc := range m.docs {
		out = append(out, interpreter.Indexable{UID: uid, Doc: doc, Op: interpreter.OpAdd})
	}
	for uid := range m.deleted {
		out = append(out, interpreter.Indexable{UID: uid, Op: interpreter.OpDelete})
	}
	return out, nil
}

// Clear empties the engine and resets its version to 0. Called by the
// Search Index Manager when a flushing Mem partition is cleared after a
// successful Disk commit (spec §4.2 step 3).
func (m *MemEngine) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = make(map[uint64][]byte)
	m.deleted = make(map[uint64]struct{})
	m.version.Store(0)
}

type memSnapshot struct {
	Version uint64
	Docs    map[uint64][]byte
}

type memReader struct {
	uids     []uint64
	deleted  []uint64
	refcount atomic.Int32
}

func (r *memReader) IncRef() { r.refcount.Add(1) }

func (r *memReader) DecRef() { r.refcount.Add(-1) }

func (r *memReader) UIDs() []uint64 { return r.uids }

// DeletedUIDs returns the UIDs removed since this engine was last Cleared.
// ReaderSnapshot.UIDs uses this to keep a realtime delete of a
// Disk-resident document from reappearing in the union before the delete
// has been flushed through to Disk.
func (r *memReader) DeletedUIDs() []uint64 { return r.deleted }

func (r *memReader) Segments() int {
	if len(r.uids) == 0 {
		return 0
	}
	return 1
}
