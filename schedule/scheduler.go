// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package schedule implements the role-based thread scheduler: a small
// ordered table of rules mapping a pipeline stage's operator-type tags,
// and its relationship to the next stage, to a worker count.
package schedule

import (
	"strings"
	"sync"
)

// A Rule binds a worker count to a match against a pipeline stage's name
// and its relationship to the next stage's name. CurrentTags must all
// appear as substrings of the current stage's name. If Exclusive,
// NextTags must all appear as substrings of the next stage's name; if
// not Exclusive, none of NextTags may appear in it. An empty tag list
// always matches its side of the pair.
type Rule struct {
	CurrentTags []string
	NextTags    []string
	Exclusive   bool
	Workers     int
}

func (r Rule) matches(currentStage, nextStage string) bool {
	for _, tag := range r.CurrentTags {
		if !strings.Contains(currentStage, tag) {
			return false
		}
	}
	allPresent := true
	for _, tag := range r.NextTags {
		if !strings.Contains(nextStage, tag) {
			allPresent = false
			break
		}
	}
	if r.Exclusive {
		return allPresent
	}
	if len(r.NextTags) == 0 {
		return true
	}
	for _, tag := range r.NextTags {
		if strings.Contains(nextStage, tag) {
			return false
		}
	}
	return true
}

// ThreadScheduler holds an ordered list of rules. Lookup
// applies the first rule whose match succeeds; it is a pure function of
// the installed rules and the two stage names, so it is deterministic
// regardless of call order or concurrency.
type ThreadScheduler struct {
	mu             sync.RWMutex
	rules          []Rule
	defaultWorkers int
}

// NewThreadScheduler returns an empty scheduler that falls back to
// defaultWorkers when no rule matches.
func NewThreadScheduler(defaultWorkers int) *ThreadScheduler {
	return &ThreadScheduler{defaultWorkers: defaultWorkers}
}

// SetRule appends a rule to the end of the scheduler's match list.
// Rules are matched in registration order; an earlier rule that matches
// the same pair of stages always wins over a later one.
func (s *ThreadScheduler) SetRule(workers int, currentTags, nextTags []string, exclusive bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, Rule{
		CurrentTags: append([]string(nil), currentTags...),
		NextTags:    append([]string(nil), nextTags...),
		Exclusive:   exclusive,
		Workers:     workers,
	})
}

// Lookup returns the worker count for a stage named currentStage whose
// next stage is named nextStage: the Workers of the first matching
// rule, or the scheduler's default parallelism if none match.
func (s *ThreadScheduler) Lookup(currentStage, nextStage string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.rules {
		if r.matches(currentStage, nextStage) {
			return r.Workers
		}
	}
	return s.defaultWorkers
}

// Reset drops every installed rule, restoring the scheduler to
// default-parallelism-only behavior. Called between queries.
func (s *ThreadScheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = nil
}
