// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package tuner implements the UCB1-tuned multi-armed bandit used to
// pick per-operator vector-compaction widths from runtime feedback, and
// the registry that keeps one bandit per call site.
package tuner

import (
	"math"
	"sync"
)

const (
	// nCap bounds how much weight a running mean keeps on its previous
	// value: weight = min(n, nCap) / (min(n, nCap) + 1), so the most
	// recent observation always gets at least 1/(nCap+1).
	nCap = 15
	// warmupPerArm is how many times each arm is pulled round-robin
	// before UCB selection begins.
	warmupPerArm = 4
	// driftHeartbeat is how many selections elapse between drift checks
	// (and history snapshots).
	driftHeartbeat = 256
	// epsilon keeps the UCB terms finite when an arm has zero updates.
	epsilon = 0.1
)

// A HistoryRow is a snapshot of a Bandit's state, recorded every
// driftHeartbeat selections.
type HistoryRow struct {
	Step       int64
	Means      []float64
	Selections []int64
}

// Bandit is a UCB1-tuned multi-armed bandit over a fixed set of K arms,
// indexed 0..K-1. All fields are mutated only under mu; the critical
// section is a handful of float64 operations over K≈8 entries, so a
// single mutex is not a meaningful bottleneck.
type Bandit struct {
	mu sync.Mutex

	k       int
	means   []float64
	sqMeans []float64
	nSelect []int64
	nUpdate []int64

	totalSelect int64
	totalUpdate int64

	lastArm  int
	snapshot []float64

	heartbeat int64
	history   []HistoryRow
}

// New returns a bandit with K = len(initialMeans) arms, seeded with the
// given per-arm mean estimates (usually all zero).
func New(initialMeans []float64) *Bandit {
	k := len(initialMeans)
	return &Bandit{
		k:        k,
		means:    append([]float64(nil), initialMeans...),
		sqMeans:  make([]float64, k),
		nSelect:  make([]int64, k),
		nUpdate:  make([]int64, k),
		snapshot: append([]float64(nil), initialMeans...),
	}
}

// K returns the number of arms.
func (b *Bandit) K() int { return b.k }

// Select chooses an arm index. For the first K*warmupPerArm selections
// it round-robins so that every arm is pulled at least warmupPerArm
// times; afterward it chooses argmax(mean + UCB-tuned), breaking ties
// by lowest index.
func (b *Bandit) Select() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	var arm int
	if b.totalSelect < int64(b.k)*warmupPerArm {
		arm = int(b.totalSelect % int64(b.k))
	} else {
		arm = b.argmaxLocked()
	}
	b.nSelect[arm]++
	b.totalSelect++

	b.heartbeat++
	if b.heartbeat >= driftHeartbeat {
		b.heartbeat = 0
		b.recordHistoryLocked()
		b.checkDriftLocked()
	}
	return arm
}

func (b *Bandit) argmaxLocked() int {
	t := b.totalUpdate
	if t < 1 {
		// No updates have landed yet; treat log(T) as log(1) rather
		// than propagating -Inf through every arm's UCB term.
		t = 1
	}
	lnT := math.Log(float64(t))

	best, bestValue := 0, math.Inf(-1)
	for i := 0; i < b.k; i++ {
		n := float64(b.nUpdate[i])
		variance := b.sqMeans[i] - b.means[i]*b.means[i] + math.Sqrt(2*lnT/(n+epsilon))
		ucb := math.Sqrt(lnT / (n + epsilon) * math.Min(0.25, variance))
		value := b.means[i] + ucb
		if value > bestValue {
			bestValue = value
			best = i
		}
	}
	return best
}

// Update records a reward observation for arm, exponentially weighting
// it against the arm's running mean and squared-mean estimates.
func (b *Bandit) Update(arm int, reward float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if arm < 0 || arm >= b.k {
		panic("tuner: update_arm index out of range")
	}

	n := b.nUpdate[arm]
	weight := float64(n)
	if weight > nCap {
		weight = nCap
	}
	r := weight / (weight + 1)
	b.means[arm] = r*b.means[arm] + (1-r)*reward
	b.sqMeans[arm] = r*b.sqMeans[arm] + (1-r)*reward*reward
	b.nUpdate[arm]++
	b.totalUpdate++
	b.lastArm = arm
}

func (b *Bandit) recordHistoryLocked() {
	b.history = append(b.history, HistoryRow{
		Step:       b.totalSelect,
		Means:      append([]float64(nil), b.means...),
		Selections: append([]int64(nil), b.nSelect...),
	})
}

// checkDriftLocked resets the bandit if the last-updated arm's mean has
// doubled or halved since the previous heartbeat's snapshot. A zero
// baseline is never considered drifted: there's no meaningful ratio to
// compare against.
func (b *Bandit) checkDriftLocked() {
	arm := b.lastArm
	prev := b.snapshot[arm]
	cur := b.means[arm]
	if prev != 0 && (cur >= 2*prev || cur <= prev/2) {
		b.resetLocked()
	}
	b.snapshot = append([]float64(nil), b.means...)
}

// resetLocked zeroes mean/squared-mean/update-count state and restarts
// the round-robin warm-up, leaving the history log intact.
func (b *Bandit) resetLocked() {
	for i := range b.means {
		b.means[i] = 0
		b.sqMeans[i] = 0
		b.nUpdate[i] = 0
		b.nSelect[i] = 0
	}
	b.totalUpdate = 0
	b.totalSelect = 0
}

// History returns a copy of the bandit's recorded heartbeat snapshots.
func (b *Bandit) History() []HistoryRow {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]HistoryRow(nil), b.history...)
}

// Means returns a copy of the bandit's current per-arm mean estimates.
func (b *Bandit) Means() []float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]float64(nil), b.means...)
}
