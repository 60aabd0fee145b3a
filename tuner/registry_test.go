// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package tuner

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRegistryRegisterTwiceFails(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(1, []int{8, 16}, []float64{0, 0}); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := r.Register(1, []int{8, 16}, []float64{0, 0}); err != ErrAlreadyRegistered {
		t.Fatalf("got %v, want ErrAlreadyRegistered", err)
	}
}

func TestRegistrySelectAndUpdateArm(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(7, []int{8, 16, 32}, []float64{0, 0, 0}); err != nil {
		t.Fatal(err)
	}
	v, ok := r.SelectArm(7)
	if !ok {
		t.Fatal("expected registered call site to select")
	}
	found := false
	for _, want := range []int{8, 16, 32} {
		if v == want {
			found = true
		}
	}
	if !found {
		t.Fatalf("SelectArm returned %d, not one of the registered arm values", v)
	}
	r.UpdateArm(7, v, 1.0)
}

func TestRegistryUnknownIDIsNoop(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.SelectArm(99); ok {
		t.Fatal("expected unregistered id to report not-ok")
	}
	r.UpdateArm(99, 8, 1.0) // must not panic
}

func TestRegistryUpdateArmUnknownValueIsNoop(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(3, []int{8, 16}, []float64{0, 0}); err != nil {
		t.Fatal(err)
	}
	r.UpdateArm(3, 1024, 1.0) // 1024 was never registered as an arm value
}

func TestRegistryResetAllDumpsHistoryAndClears(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	r := NewRegistry()
	if err := r.Register(42, []int{8, 16}, []float64{0, 0}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < driftHeartbeat+1; i++ {
		v, _ := r.SelectArm(42)
		r.UpdateArm(42, v, 1.0)
	}

	r.ResetAll()

	if _, ok := r.SelectArm(42); ok {
		t.Fatal("expected ResetAll to drop the registered bandit")
	}
	if err := r.Register(42, []int{8, 16}, []float64{0, 0}); err != nil {
		t.Fatalf("expected id to be re-registrable after ResetAll: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "bandit_log_0x*", "0x2a-Id-*.log"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 {
		t.Fatalf("got %d matching log files, want 1", len(matches))
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty history log")
	}
}
