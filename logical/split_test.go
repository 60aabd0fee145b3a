// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package logical

import "testing"

// leftDeepSpine builds a left-deep chain of n comparison joins:
// J(J(J(...J(G_0, G_1), G_2)...), G_n).
func leftDeepSpine(n int) Node {
	var plan Node = get("t0")
	for i := 1; i <= n; i++ {
		plan = &Join{Left: plan, Right: get(tname(i))}
	}
	return plan
}

func tname(i int) string {
	return string(rune('a' + i))
}

// E3: a left-deep spine of 8 joins produces exactly one breaker, placed
// as the left child of the 7th join counted from the top (root), i.e.
// directly above the 8th.
func TestSplitPipelineOptimizerSpineOfEight(t *testing.T) {
	plan := leftDeepSpine(8)
	out := NewSplitPipelineOptimizer().Rewrite(plan)

	if got, want := countBreakers(out), 1; got != want {
		t.Fatalf("got %d breakers, want %d", got, want)
	}

	// Walk down the left spine counting joins until we hit the breaker.
	n := out
	joins := 0
	for {
		j, ok := n.(*Join)
		if !ok {
			break
		}
		joins++
		if _, ok := j.Left.(*PipelineBreaker); ok {
			break
		}
		n = j.Left
	}
	if got, want := joins, 7; got != want {
		t.Fatalf("breaker found after %d joins from the root, want %d", got, want)
	}
}

// Invariant 6 (second half): never more than one breaker per seven
// consecutive joins on the left spine. The bottom of a left-deep spine
// is always a plain Get, so the last group of up to seven joins never
// wraps: the count is floor((n-1)/7), not floor(n/7).
func TestSplitPipelineOptimizerAtMostOnePerSeven(t *testing.T) {
	for _, n := range []int{7, 13, 14, 20} {
		plan := leftDeepSpine(n)
		out := NewSplitPipelineOptimizer().Rewrite(plan)
		got := countBreakers(out)
		want := (n - 1) / 7
		if got != want {
			t.Fatalf("spine of %d joins: got %d breakers, want %d", n, got, want)
		}
	}
}

// A left child that is already a plain GET is never wrapped, even once
// the join counter reaches the threshold.
func TestSplitPipelineOptimizerSkipsPlainScanLeft(t *testing.T) {
	plan := leftDeepSpine(splitThreshold)
	out := NewSplitPipelineOptimizer().Rewrite(plan)
	if got, want := countBreakers(out), 0; got != want {
		t.Fatalf("got %d breakers, want %d", got, want)
	}
}
