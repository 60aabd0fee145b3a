// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package profiler implements the stage profiler: a thread-safe
// start/end timer keyed by stage name, used both for benchmark
// reporting and as the tuner's reward signal.
package profiler

import (
	"sync"
	"time"

	"github.com/grailbio/base/stats"
)

// StageProfiler accumulates elapsed time per named stage. Exactly one
// stage is "current" at any time; Start while already inside that same
// stage, or End while in a different (or no) stage, is a no-op. Counts is
// a stats.Map tallying how many times each stage has been entered,
// exported alongside Timings for benchmark reporting.
type StageProfiler struct {
	mu sync.Mutex

	accum   map[string]time.Duration
	current string
	started time.Time

	Counts *stats.Map
}

// New returns an empty profiler.
func New() *StageProfiler {
	return &StageProfiler{accum: make(map[string]time.Duration), Counts: stats.NewMap()}
}

// Start records the current monotonic time as the start of name and
// makes it the current stage. It is a no-op if name is already current.
func (p *StageProfiler) Start(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == name {
		return
	}
	p.current = name
	p.started = time.Now()
	p.Counts.Int(name).Add(1)
}

// End accumulates the elapsed time since the matching Start into name's
// total and clears the current stage. It is a no-op if name is not the
// current stage.
func (p *StageProfiler) End(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != name {
		return
	}
	p.accum[name] += time.Since(p.started)
	p.current = ""
}

// Timings finalizes any in-flight stage against the current time and
// returns a snapshot of accumulated seconds per stage.
func (p *StageProfiler) Timings() map[string]float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != "" {
		p.accum[p.current] += time.Since(p.started)
		p.started = time.Now()
	}
	out := make(map[string]float64, len(p.accum))
	for name, d := range p.accum {
		out[name] = d.Seconds()
	}
	return out
}

// Clear drops all accumulated timings and the current stage.
func (p *StageProfiler) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accum = make(map[string]time.Duration)
	p.current = ""
}

// Reward converts a stage's accumulated elapsed time into a bandit
// reward by negation: the tuner always maximizes, so minimizing elapsed
// time means maximizing -elapsed. Reports 0 for a stage with no
// recorded time.
func (p *StageProfiler) Reward(name string) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == name {
		return -(p.accum[name] + time.Since(p.started)).Seconds()
	}
	return -p.accum[name].Seconds()
}
