// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package tuner

import (
	"sync"

	"github.com/grailbio/base/errors"
)

// ErrAlreadyRegistered is returned by Register when id has already been
// registered.
var ErrAlreadyRegistered = errors.E(errors.Invalid, "tuner: call site already registered")

// A Registry maps a stable call-site id to a Bandit over a fixed,
// ordered set of arm values. The registry knows nothing about what an
// id represents — it's reused across call-site kinds (an operator
// instance index, a pipeline id) by callers in queryctx.
//
// Registry is safe for concurrent use; Register/SelectArm/UpdateArm take
// the registry's own mutex only long enough to look up or install an
// entry, never while touching a Bandit.
type Registry struct {
	mu      sync.Mutex
	entries map[uint64]*entry
}

type entry struct {
	bandit *Bandit
	values []int
	index  map[int]int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[uint64]*entry)}
}

// Register allocates a bandit with K = len(arms) arms for id. arms are
// the caller-meaningful arm values (e.g. chunk-compaction widths, not
// bandit arm indices); initialMeans seeds the bandit's mean estimates
// and must be the same length.
func (r *Registry) Register(id uint64, arms []int, initialMeans []float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; ok {
		return ErrAlreadyRegistered
	}
	index := make(map[int]int, len(arms))
	for i, v := range arms {
		index[v] = i
	}
	r.entries[id] = &entry{
		bandit: New(initialMeans),
		values: append([]int(nil), arms...),
		index:  index,
	}
	return nil
}

// SelectArm returns the arm value chosen for id, and false if id has not
// been registered.
func (r *Registry) SelectArm(id uint64) (int, bool) {
	e, ok := r.lookup(id)
	if !ok {
		return 0, false
	}
	return e.values[e.bandit.Select()], true
}

// UpdateArm records a reward observation for id's chosen armValue. It is
// a no-op if id is unregistered or armValue is not one of id's arms.
func (r *Registry) UpdateArm(id uint64, armValue int, reward float64) {
	e, ok := r.lookup(id)
	if !ok {
		return
	}
	i, ok := e.index[armValue]
	if !ok {
		return
	}
	e.bandit.Update(i, reward)
}

func (r *Registry) lookup(id uint64) (*entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	return e, ok
}

// ResetAll drops every registered bandit and dumps its selection
// history to a CSV log file in a newly created directory. It is called
// once per query. A failure to create the log directory or write a log
// file is logged and otherwise ignored — bandit history is diagnostic,
// never load-bearing for query correctness.
func (r *Registry) ResetAll() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[uint64]*entry)
	r.mu.Unlock()

	dumpHistories(entries)
}
