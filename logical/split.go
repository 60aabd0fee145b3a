// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package logical

// splitThreshold is the number of consecutive left-spine comparison
// joins after which SplitPipelineOptimizer forces a materialization
// boundary. Long probe pipelines thrash the build-side hash table's
// working set in cache; a breaker caps how much of the spine any one
// pipeline has to hold live at once.
const splitThreshold = 7

// SplitPipelineOptimizer walks a comparison-join tree and inserts a
// PipelineBreaker above the left child once splitThreshold consecutive
// joins have accumulated along a left spine, resetting the counter each
// time it does so or whenever it descends into a join's right child.
//
// A SplitPipelineOptimizer carries state across the whole rewrite and
// so, unlike BushyOrderOptimizer, must not be reused across plans.
type SplitPipelineOptimizer struct {
	numLeftJoins int
}

// NewSplitPipelineOptimizer returns a fresh optimizer ready to rewrite
// one plan.
func NewSplitPipelineOptimizer() *SplitPipelineOptimizer {
	return &SplitPipelineOptimizer{}
}

// Rewrite returns the rewritten plan rooted at n.
func (o *SplitPipelineOptimizer) Rewrite(n Node) Node {
	join, ok := n.(*Join)
	if !ok {
		children := n.Children()
		for i, c := range children {
			children[i] = o.Rewrite(c)
		}
		n.SetChildren(children)
		return n
	}

	o.numLeftJoins++
	if o.numLeftJoins >= splitThreshold && !isPlainScan(join.Left) {
		join.Left = &PipelineBreaker{Child: join.Left}
		o.numLeftJoins = 0
	}
	join.Left = o.Rewrite(join.Left)

	o.numLeftJoins = 0
	join.Right = o.Rewrite(join.Right)
	return join
}
