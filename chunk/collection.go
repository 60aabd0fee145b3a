// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package chunk

import (
	"reflect"
	"sync"
	"sync/atomic"
)

// A Collection is an append-only, column-oriented buffer. Appends go
// through a per-writer AppendHandle; once appending has stopped, the
// collection can be scanned in parallel by many readers sharing a
// GlobalScanState, each with its own LocalScanState.
//
// Append and scan are data-race-free given disjoint handles/cursors.
// Combine is not safe to call concurrently with appends on either side.
type Collection struct {
	types []reflect.Type

	mu     sync.Mutex
	chunks []Chunk
	rows   int64
}

// NewCollection returns an empty collection with the given column types.
func NewCollection(types []reflect.Type) *Collection {
	return &Collection{types: append([]reflect.Type(nil), types...)}
}

// Types returns the collection's column types.
func (c *Collection) Types() []reflect.Type { return c.types }

// Count returns the number of rows appended to the collection so far.
func (c *Collection) Count() int64 {
	return atomic.LoadInt64(&c.rows)
}

// An AppendHandle is a per-writer handle used to append chunks into a
// Collection. Handles from the same collection may be used concurrently
// from different goroutines.
type AppendHandle struct {
	coll *Collection
}

// NewAppendHandle returns a new append handle for the collection.
func (c *Collection) NewAppendHandle() *AppendHandle {
	return &AppendHandle{coll: c}
}

// Append appends chunk's rows to the collection.
func (h *AppendHandle) Append(chunk Chunk) {
	if chunk.NumRows() == 0 {
		return
	}
	h.coll.mu.Lock()
	h.coll.chunks = append(h.coll.chunks, chunk)
	h.coll.mu.Unlock()
	atomic.AddInt64(&h.coll.rows, int64(chunk.NumRows()))
}

// Combine moves other's chunks into c, leaving other empty. It is not
// thread-safe with concurrent appends on either collection; callers must
// serialize Combine against any in-flight AppendHandle use, typically by
// holding a higher-level lock (see physical.GlobalSinkState).
func (c *Collection) Combine(other *Collection) {
	other.mu.Lock()
	moved := other.chunks
	movedRows := other.rows
	other.chunks = nil
	other.rows = 0
	other.mu.Unlock()

	c.mu.Lock()
	c.chunks = append(c.chunks, moved...)
	c.mu.Unlock()
	atomic.AddInt64(&c.rows, movedRows)
}

// A GlobalScanState is shared by all workers scanning a collection in
// parallel. It holds a snapshot of the collection's chunk list, taken
// once at initialization, plus a lock-free cursor into it. Because the
// collection is immutable once scanning begins (invariant of the
// sink/source lifecycle), readers never need to touch the collection's
// own mutex.
type GlobalScanState struct {
	chunks []Chunk
	cursor int64
}

// InitScan snapshots the collection's chunks and returns a fresh global
// scan state. It is the only scan operation that touches the
// collection's mutex; subsequent scans are lock-free.
func (c *Collection) InitScan() *GlobalScanState {
	c.mu.Lock()
	snapshot := append([]Chunk(nil), c.chunks...)
	c.mu.Unlock()
	return &GlobalScanState{chunks: snapshot}
}

// A LocalScanState is a per-worker cursor cooperating with a
// GlobalScanState to scan a collection in parallel. It carries no state
// of its own beyond what's needed for diagnostics, since chunk
// assignment is entirely driven by the shared atomic cursor.
type LocalScanState struct {
	scanned int64
}

// NewLocalScanState returns a new local scan state for the given global
// scan state.
func (c *Collection) NewLocalScanState(*GlobalScanState) *LocalScanState {
	return &LocalScanState{}
}

// Scan writes the next chunk owned by this worker into out and returns
// the number of rows written. It returns 0 when the collection has been
// fully scanned. A worker never holds a lock across more than one
// chunk's worth of scanning: chunk assignment is a single atomic
// increment.
func (c *Collection) Scan(g *GlobalScanState, l *LocalScanState, out *Chunk) (int, error) {
	idx := atomic.AddInt64(&g.cursor, 1) - 1
	if idx >= int64(len(g.chunks)) {
		return 0, nil
	}
	*out = g.chunks[idx]
	l.scanned++
	return out.NumRows(), nil
}
