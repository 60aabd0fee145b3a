// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package physical implements the pipeline-breaker physical operator and
// its lowering from the logical plan. Everything else in the physical
// plan — scans, hash joins, merge joins — is an external collaborator
// consumed only through the ChildPlanner interface.
package physical

// SinkResult is the result of a Sink call.
type SinkResult int

// NeedMoreInput is the only SinkResult a PipelineBreaker ever returns.
const NeedMoreInput SinkResult = 0

// CombineResult is the result of a Combine call.
type CombineResult int

// Finished is the only CombineResult a PipelineBreaker ever returns.
const Finished CombineResult = 0

// FinalizeResult is the result of a Finalize call.
type FinalizeResult int

// Ready is the only FinalizeResult a PipelineBreaker ever returns.
const Ready FinalizeResult = 0

// SourceResult is the result of a GetData call.
type SourceResult int

const (
	// HaveMoreOutput indicates a chunk was produced and more may follow.
	HaveMoreOutput SourceResult = iota
	// SourceFinished indicates the source is exhausted.
	SourceFinished
)

// Operator is the capability set the executor queries to decide how to
// schedule an operator: whether it terminates a pipeline as a sink,
// starts one as a source, and whether either role may be run by more
// than one worker at a time.
type Operator interface {
	IsSink() bool
	ParallelSink() bool
	IsSource() bool
	ParallelSource() bool
}
