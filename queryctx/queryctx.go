// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package queryctx bundles the per-query services that the rest of
// this module treats as ambient: the tuner registry, the thread
// scheduler, and the stage profiler. A Context is created once per
// query and threaded explicitly to every operator that needs one of
// these services, rather than reached for through package-level state.
package queryctx

import (
	"sync"

	"github.com/grailbio/base/status"

	"github.com/bushyquery/bushyquery/profiler"
	"github.com/bushyquery/bushyquery/schedule"
	"github.com/bushyquery/bushyquery/tuner"
)

// A Context is a query's handle onto its tuner registry, thread
// scheduler, stage profiler, and (optionally) a status group for
// progress reporting. It is not safe to share a Context across queries
// that run concurrently: ResetAll on its Tuner and Reset on its
// Scheduler both mutate process-wide-looking state that is scoped to
// one query's lifetime.
type Context struct {
	Tuner     *tuner.Registry
	Scheduler *schedule.ThreadScheduler
	Profiler  *profiler.StageProfiler
	Status    *status.Group
}

// An Option configures a Context constructed by New.
type Option func(*Context)

// WithStatus attaches a status.Group that operators can report progress
// through. Without it, Status is nil and reporting is skipped.
func WithStatus(g *status.Group) Option {
	return func(c *Context) { c.Status = g }
}

// New returns a fresh per-query Context. defaultWorkers seeds the
// thread scheduler's fallback parallelism for stages no rule matches.
func New(defaultWorkers int, opts ...Option) *Context {
	c := &Context{
		Tuner:     tuner.NewRegistry(),
		Scheduler: schedule.NewThreadScheduler(defaultWorkers),
		Profiler:  profiler.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close releases the query's services: it dumps and drops the tuner's
// bandit histories and clears the scheduler's rule table. The profiler
// is left untouched since its timings typically outlive the query (e.g.
// for a benchmark harness that reads them after Close).
func (c *Context) Close() {
	c.Tuner.ResetAll()
	c.Scheduler.Reset()
}

var (
	defaultOnce sync.Once
	defaultCtx  *Context
)

// Default returns a process-global Context backed by a single set of
// services, for benchmarks and other single-query-at-a-time callers
// that have no query boundary to construct a Context against. Query
// execution proper should always use an explicit Context from New.
func Default() *Context {
	defaultOnce.Do(func() {
		defaultCtx = New(0)
	})
	return defaultCtx
}
