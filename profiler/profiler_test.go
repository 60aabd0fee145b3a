// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package profiler

import (
	"testing"
	"time"
)

func TestStageProfilerAccumulatesElapsed(t *testing.T) {
	p := New()
	p.Start("scan")
	time.Sleep(2 * time.Millisecond)
	p.End("scan")

	timings := p.Timings()
	if timings["scan"] <= 0 {
		t.Fatalf("got %v, want positive elapsed for scan", timings["scan"])
	}
}

func TestStageProfilerStartSameStageIsNoop(t *testing.T) {
	p := New()
	p.Start("scan")
	first := p.started
	p.Start("scan")
	if !p.started.Equal(first) {
		t.Fatal("re-Start of the same stage reset the start time")
	}
}

func TestStageProfilerEndWrongStageIsNoop(t *testing.T) {
	p := New()
	p.Start("scan")
	p.End("filter")
	if p.current != "scan" {
		t.Fatalf("End of a non-current stage cleared current stage: %q", p.current)
	}
}

func TestStageProfilerTimingsFinalizesInFlightStage(t *testing.T) {
	p := New()
	p.Start("scan")
	time.Sleep(2 * time.Millisecond)
	timings := p.Timings()
	if timings["scan"] <= 0 {
		t.Fatal("Timings should finalize an in-flight stage")
	}
}

func TestStageProfilerClearDropsTimings(t *testing.T) {
	p := New()
	p.Start("scan")
	p.End("scan")
	p.Clear()
	timings := p.Timings()
	if len(timings) != 0 {
		t.Fatalf("got %v after Clear, want empty", timings)
	}
}

func TestStageProfilerCountsEntriesPerStage(t *testing.T) {
	p := New()
	p.Start("scan")
	p.End("scan")
	p.Start("scan")
	p.End("scan")
	p.Start("filter")
	p.End("filter")

	if got, want := p.Counts.Int("scan").Value(), int64(2); got != want {
		t.Fatalf("got %d scan entries, want %d", got, want)
	}
	if got, want := p.Counts.Int("filter").Value(), int64(1); got != want {
		t.Fatalf("got %d filter entries, want %d", got, want)
	}
}

func TestStageProfilerRewardIsNegativeElapsed(t *testing.T) {
	p := New()
	p.Start("scan")
	time.Sleep(time.Millisecond)
	p.End("scan")
	if r := p.Reward("scan"); r >= 0 {
		t.Fatalf("got reward %v, want negative", r)
	}
	if r := p.Reward("unseen"); r != 0 {
		t.Fatalf("got reward %v for unseen stage, want 0", r)
	}
}
