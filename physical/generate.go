// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package physical

import (
	"reflect"

	"github.com/grailbio/base/errors"

	"github.com/bushyquery/bushyquery/logical"
)

// ErrInvalidPlan is returned when a LogicalPipelineBreaker does not meet
// the invariants PlanGenerator requires to lower it: exactly one child,
// and that child a comparison join.
var ErrInvalidPlan = errors.E(errors.Invalid, "physical: invalid pipeline breaker plan")

// ChildPlanner is implemented by the rest of the physical planner: the
// scan, filter, projection and join lowering that is out of scope for
// this package. PlanGenerator consumes only the output column types and
// estimated cardinality of whatever it lowers.
type ChildPlanner interface {
	Plan(n logical.Node) (types []reflect.Type, cardinality int64, err error)
}

// PlanGenerator lowers LogicalPipelineBreaker nodes into
// PhysicalPipelineBreaker operators, deferring everything about the
// wrapped join to Children.
type PlanGenerator struct {
	Children ChildPlanner
}

// Lower lowers a single LogicalPipelineBreaker node. It asserts (returns
// ErrInvalidPlan) if n is not a breaker over a single comparison join.
// BushyOrderOptimizer only wraps joins; SplitPipelineOptimizer wraps any
// left child that is not a plain scan, so a breaker it places over a
// Filter or Projection is rejected here.
func (g *PlanGenerator) Lower(n logical.Node) (*PipelineBreaker, error) {
	breaker, ok := n.(*logical.PipelineBreaker)
	if !ok {
		return nil, ErrInvalidPlan
	}
	join, ok := breaker.Child.(*logical.Join)
	if !ok {
		return nil, ErrInvalidPlan
	}
	types, cardinality, err := g.Children.Plan(join)
	if err != nil {
		return nil, err
	}
	return NewPipelineBreaker(types, cardinality), nil
}
