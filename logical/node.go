// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package logical implements the logical-plan node types bushyquery
// rewrites, and the two breaker-placement rewrites themselves
// (BushyOrderOptimizer, SplitPipelineOptimizer).
package logical

// A Node is a node in a logical query plan. Implementations are mutable:
// SetChildren replaces a node's children in place so that rewrites can
// walk and update a tree without reconstructing it wholesale.
type Node interface {
	// Children returns the node's children, in a fresh slice that the
	// caller may mutate freely; mutating it does not affect the node
	// until SetChildren is called with the result.
	Children() []Node
	// SetChildren replaces the node's children. len(children) must equal
	// len(Children()).
	SetChildren(children []Node)
	// Columns returns the names of the columns the node produces.
	Columns() []string
}

// Get is a base table scan. It has no children.
type Get struct {
	Table string
	Cols  []string
}

func (g *Get) Children() []Node { return nil }
func (g *Get) SetChildren(children []Node) {
	if len(children) != 0 {
		panic("logical: Get takes no children")
	}
}
func (g *Get) Columns() []string { return g.Cols }

// Filter applies a predicate to its child's rows without changing the
// schema.
type Filter struct {
	Child     Node
	Predicate string
}

func (f *Filter) Children() []Node { return []Node{f.Child} }
func (f *Filter) SetChildren(children []Node) {
	if len(children) != 1 {
		panic("logical: Filter takes exactly one child")
	}
	f.Child = children[0]
}
func (f *Filter) Columns() []string { return f.Child.Columns() }

// Projection computes a new set of columns from its child's columns.
type Projection struct {
	Child Node
	Exprs []string
}

func (p *Projection) Children() []Node { return []Node{p.Child} }
func (p *Projection) SetChildren(children []Node) {
	if len(children) != 1 {
		panic("logical: Projection takes exactly one child")
	}
	p.Child = children[0]
}
func (p *Projection) Columns() []string { return p.Exprs }

// Join is a binary comparison join: Left is the probe side, Right the
// build side.
type Join struct {
	Left, Right Node
	Predicate   string
}

func (j *Join) Children() []Node { return []Node{j.Left, j.Right} }
func (j *Join) SetChildren(children []Node) {
	if len(children) != 2 {
		panic("logical: Join takes exactly two children")
	}
	j.Left, j.Right = children[0], children[1]
}
func (j *Join) Columns() []string {
	return append(append([]string(nil), j.Left.Columns()...), j.Right.Columns()...)
}

// PipelineBreaker materializes its child's output into a column
// collection and re-exposes it as a parallel source. It produces its
// child's columns unchanged: inserting one never changes a plan's
// schema or row multiset.
type PipelineBreaker struct {
	Child Node
}

func (b *PipelineBreaker) Children() []Node { return []Node{b.Child} }
func (b *PipelineBreaker) SetChildren(children []Node) {
	if len(children) != 1 {
		panic("logical: PipelineBreaker takes exactly one child")
	}
	b.Child = children[0]
}
func (b *PipelineBreaker) Columns() []string { return b.Child.Columns() }

// isPlainScan reports whether n is a GET, a projection directly atop a
// GET, or a filter directly atop a GET — the broader of the two
// plain-scan predicates found in the original implementation, under
// which a filter stacked directly on a GET still counts as a plain
// scan and so still blocks a breaker from being inserted there.
func isPlainScan(n Node) bool {
	switch v := n.(type) {
	case *Get:
		return true
	case *Projection:
		_, ok := v.Child.(*Get)
		return ok
	case *Filter:
		_, ok := v.Child.(*Get)
		return ok
	default:
		return false
	}
}
