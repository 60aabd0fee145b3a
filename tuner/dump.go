// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package tuner

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/grailbio/base/limiter"
	"github.com/grailbio/base/log"
)

// dumpConcurrency bounds how many log files are written at once, so that
// ResetAll on a query with hundreds of call sites doesn't open hundreds
// of file descriptors simultaneously.
const dumpConcurrency = 8

// dirSeq disambiguates bandit_log_0x<hex> directories created by
// multiple queries in the same process within the same nanosecond.
var dirSeq uint64

// randomDirSuffix returns a value unique to this process that is stable
// neither across runs nor meaningful on its own; it exists only to keep
// one query's log directory from colliding with another's.
func randomDirSuffix() uint64 {
	return uint64(time.Now().UnixNano()) ^ atomic.AddUint64(&dirSeq, 1)
}

// dumpHistories writes one CSV log per registered bandit under a fresh
// bandit_log_0x<hex> directory, named 0x<id>-Id-<n>.log. Every write
// runs through a limiter; a directory or file failure is logged via
// log.Error and otherwise swallowed, matching ResetAll's diagnostic
// (not correctness-bearing) role.
func dumpHistories(entries map[uint64]*entry) {
	if len(entries) == 0 {
		return
	}
	dir := fmt.Sprintf("bandit_log_0x%x", randomDirSuffix())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Error.Printf("tuner: creating log dir %s: %v", dir, err)
		return
	}

	lim := limiter.New()
	lim.Release(dumpConcurrency)

	ctx := context.Background()
	g, gctx := errgroup.WithContext(ctx)
	n := 0
	for id, e := range entries {
		id, e, idx := id, e, n
		n++
		g.Go(func() error {
			if err := lim.Acquire(gctx, 1); err != nil {
				return nil
			}
			defer lim.Release(1)
			if err := dumpOne(dir, id, idx, e); err != nil {
				log.Error.Printf("tuner: dumping history for call site 0x%x: %v", id, err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func dumpOne(dir string, id uint64, idx int, e *entry) error {
	path := filepath.Join(dir, fmt.Sprintf("0x%x-Id-%d.log", id, idx))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Column order matches the persisted-state layout: step, every arm's
	// mean, then every arm's selection count — not interleaved per arm.
	header := []string{"step"}
	for _, v := range e.values {
		header = append(header, fmt.Sprintf("mean(%d)", v))
	}
	for _, v := range e.values {
		header = append(header, fmt.Sprintf("sel(%d)", v))
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range e.bandit.History() {
		rec := []string{strconv.FormatInt(row.Step, 10)}
		for i := range e.values {
			rec = append(rec, strconv.FormatFloat(row.Means[i], 'g', -1, 64))
		}
		for i := range e.values {
			rec = append(rec, strconv.FormatInt(row.Selections[i], 10))
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return w.Error()
}
