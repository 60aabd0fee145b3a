// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package chunk

import (
	"reflect"
	"testing"

	fuzz "github.com/google/gofuzz"
)

func fuzzChunk(fz *fuzz.Fuzzer, n int) Chunk {
	c := New([]reflect.Type{typeOfInt64}, n)
	col := c.Col(0)
	for i := 0; i < n; i++ {
		var v int64
		fz.Fuzz(&v)
		col.Index(i).SetInt(v)
	}
	return c
}

// Copy preserves fuzzed row values exactly, regardless of how many rows
// the destination can hold.
func TestCopyPreservesFuzzedRows(t *testing.T) {
	fz := fuzz.NewWithSeed(7)
	for trial := 0; trial < 20; trial++ {
		srcN := 1 + trial*3
		dstN := 1 + (trial*5)%(srcN+4)
		src := fuzzChunk(fz, srcN)
		dst := New([]reflect.Type{typeOfInt64}, dstN)

		n := Copy(dst, src)
		want := srcN
		if dstN < want {
			want = dstN
		}
		if n != want {
			t.Fatalf("trial %d: Copy returned %d, want %d", trial, n, want)
		}
		for i := 0; i < n; i++ {
			got := dst.Col(0).Index(i).Int()
			want := src.Col(0).Index(i).Int()
			if got != want {
				t.Fatalf("trial %d row %d: got %d, want %d", trial, i, got, want)
			}
		}
	}
}

// Slice over a fuzzed chunk exposes exactly the requested sub-range.
func TestSliceOverFuzzedChunk(t *testing.T) {
	fz := fuzz.NewWithSeed(99)
	c := fuzzChunk(fz, 200)
	sub := c.Slice(50, 120)
	if got, want := sub.NumRows(), 70; got != want {
		t.Fatalf("got %d rows, want %d", got, want)
	}
	for i := 0; i < sub.NumRows(); i++ {
		if got, want := sub.Col(0).Index(i).Int(), c.Col(0).Index(50+i).Int(); got != want {
			t.Fatalf("row %d: got %d, want %d", i, got, want)
		}
	}
}
