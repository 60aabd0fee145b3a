// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package logical

// BushyOrderOptimizer walks a comparison-join tree and wraps a join in a
// PipelineBreaker whenever its parent's build (right) side was not
// itself a cheap, already-pipelined scan — that's what makes the join a
// worthwhile probe-side subtree to materialize and turns a left-deep
// plan into a bushy one. The decision for a join is made by its parent,
// not by the join itself: a join only ever gets wrapped as someone
// else's left child.
//
// The rewrite never wraps the root: the initial call descends with
// can_break=false, so the topmost join is left alone and only the
// result of the final join streams directly to the caller.
type BushyOrderOptimizer struct{}

// Rewrite returns the rewritten plan rooted at n.
func (BushyOrderOptimizer) Rewrite(n Node) Node {
	return rewriteBushy(n, false)
}

func rewriteBushy(n Node, canBreak bool) Node {
	join, ok := n.(*Join)
	if !ok {
		// A non-join node doesn't touch canBreak at all: it passes
		// through whatever its own parent call decided, exactly as the
		// original's default case recurses without assigning can_break.
		children := n.Children()
		for i, c := range children {
			children[i] = rewriteBushy(c, canBreak)
		}
		n.SetChildren(children)
		return n
	}

	// canBreakRecord is whatever our parent decided when it set up our
	// own call: it governs whether *we* get wrapped, not our children.
	canBreakRecord := canBreak
	// Whether our own right (build) side is a cheap scan decides what
	// our left (probe) child inherits: if the build side is non-trivial
	// the probe side already has to materialize a hash table, so
	// breaking the plan beneath it is worthwhile.
	leftInherits := !isPlainScan(join.Right)

	join.Left = rewriteBushy(join.Left, leftInherits)
	join.Right = rewriteBushy(join.Right, false)

	var out Node = join
	if canBreakRecord {
		out = &PipelineBreaker{Child: join}
	}
	return out
}
