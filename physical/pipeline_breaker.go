// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package physical

import (
	"context"
	"reflect"
	"sync"

	"github.com/bushyquery/bushyquery/chunk"
)

// PipelineBreaker is simultaneously a sink and a source: its sink
// pipeline materializes its child's output into a chunk collection, and
// its source pipeline scans that collection in parallel as the start of
// the next pipeline. Both roles are parallelizable.
//
// A PipelineBreaker owns, for the duration of one query, a single
// GlobalSinkState and, once the sink pipeline has finished combining,
// a single GlobalSourceState. It must not be reused across queries.
type PipelineBreaker struct {
	types       []reflect.Type
	cardinality int64

	mu   sync.Mutex
	sink *GlobalSinkState
	src  *GlobalSourceState
}

// NewPipelineBreaker returns a breaker over a child whose physical plan
// produces the given column types, with an estimated row count carried
// through purely for planning diagnostics.
func NewPipelineBreaker(types []reflect.Type, cardinality int64) *PipelineBreaker {
	return &PipelineBreaker{types: types, cardinality: cardinality}
}

// Types returns the breaker's input (and output) column types.
func (b *PipelineBreaker) Types() []reflect.Type { return b.types }

// Cardinality returns the estimated row count captured when the breaker
// was lowered from its logical plan.
func (b *PipelineBreaker) Cardinality() int64 { return b.cardinality }

func (b *PipelineBreaker) IsSink() bool         { return true }
func (b *PipelineBreaker) ParallelSink() bool   { return true }
func (b *PipelineBreaker) IsSource() bool       { return true }
func (b *PipelineBreaker) ParallelSource() bool { return true }

// A GlobalSinkState is shared by every worker in the breaker's sink
// pipeline. It owns the global collection lazily: the first worker to
// Combine a non-empty local collection becomes its owner; later workers
// merge into it.
type GlobalSinkState struct {
	mu   sync.Mutex
	coll *chunk.Collection
}

// A LocalSinkState is owned by a single worker for the duration of the
// sink pipeline. Sink never touches the global collection; only Combine
// does.
type LocalSinkState struct {
	coll   *chunk.Collection
	handle *chunk.AppendHandle
}

// GetGlobalSinkState allocates the breaker's global sink state. The
// executor calls this once per query, before the sink pipeline starts.
func (b *PipelineBreaker) GetGlobalSinkState(context.Context) *GlobalSinkState {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sink = &GlobalSinkState{}
	return b.sink
}

// GetLocalSinkState allocates a fresh, privately-owned collection for
// one worker in the sink pipeline.
func (b *PipelineBreaker) GetLocalSinkState(context.Context) *LocalSinkState {
	coll := chunk.NewCollection(b.types)
	return &LocalSinkState{coll: coll, handle: coll.NewAppendHandle()}
}

// Sink appends chunk into the worker's local collection. It always
// requests more input: a PipelineBreaker never short-circuits its
// child.
func (b *PipelineBreaker) Sink(_ context.Context, c chunk.Chunk, local *LocalSinkState) SinkResult {
	local.handle.Append(c)
	return NeedMoreInput
}

// Combine folds a worker's local collection into the global one. If the
// local collection never received any rows, Combine is a no-op; this
// keeps empty workers from taking the global lock at all.
func (b *PipelineBreaker) Combine(_ context.Context, global *GlobalSinkState, local *LocalSinkState) CombineResult {
	if local.coll.Count() == 0 {
		return Finished
	}
	global.mu.Lock()
	defer global.mu.Unlock()
	if global.coll == nil {
		global.coll = local.coll
	} else {
		global.coll.Combine(local.coll)
	}
	return Finished
}

// Finalize declares the breaker ready; all the real work happened in
// Combine.
func (b *PipelineBreaker) Finalize(context.Context) FinalizeResult { return Ready }

// A GlobalSourceState is shared by every worker in the breaker's source
// pipeline. Its scan cursor is initialized exactly once, under the
// global mutex. GetData takes that mutex on every call only to check and
// read the initialized state; the chunk handout itself runs with no lock
// held.
type GlobalSourceState struct {
	mu          sync.Mutex
	initialized bool
	coll        *chunk.Collection
	scan        *chunk.GlobalScanState
}

// A LocalSourceState is a per-worker scan cursor cooperating with a
// GlobalSourceState.
type LocalSourceState struct {
	local *chunk.LocalScanState
}

// GetGlobalSourceState allocates the breaker's global source state. The
// executor calls this once per query, after the sink pipeline (and its
// Combine calls) has fully completed.
func (b *PipelineBreaker) GetGlobalSourceState(context.Context) *GlobalSourceState {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.src = &GlobalSourceState{}
	return b.src
}

// GetLocalSourceState allocates a fresh per-worker cursor for the
// source pipeline.
func (b *PipelineBreaker) GetLocalSourceState(context.Context, *GlobalSourceState) *LocalSourceState {
	return &LocalSourceState{}
}

// GetData writes the next chunk owned by this worker into out. It
// returns SourceFinished once the materialized collection has been
// fully scanned.
func (b *PipelineBreaker) GetData(ctx context.Context, out *chunk.Chunk, global *GlobalSourceState, local *LocalSourceState) SourceResult {
	global.mu.Lock()
	if !global.initialized {
		coll := b.sink.coll
		if coll == nil {
			// The sink pipeline never received any rows.
			coll = chunk.NewCollection(b.types)
		}
		global.coll = coll
		global.scan = coll.InitScan()
		global.initialized = true
	}
	coll, scan := global.coll, global.scan
	global.mu.Unlock()

	if local.local == nil {
		local.local = coll.NewLocalScanState(scan)
	}
	n, _ := coll.Scan(scan, local.local, out)
	if n == 0 {
		return SourceFinished
	}
	return HaveMoreOutput
}
