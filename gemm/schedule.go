// SPDX-License-Identifier: MIT

// Package gemm: parallel block scheduling.
// Workers pull block indices from a shared atomic counter (work stealing
// over the row-major block list) inside an errgroup: the first failing block
// cancels the group, and workers stop before starting their next block.
// Output blocks are disjoint, so workers write C without locks.
package gemm

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/blockgemm/matrix"
)

func runParallel[T matrix.Element, A matrix.Accum](ctx context.Context, f *Feeder[T], c *matrix.Dense[T], o Options, st *Stats) error {
	_, bN, _ := f.Grid()
	total := int64(st.BlocksM * st.BlocksN)

	var next, blocks, steps atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for range st.Workers {
		g.Go(func() error {
			w, err := newWorker[T, A](f, c, o)
			if err != nil {
				return err
			}
			defer func() {
				blocks.Add(int64(w.drain.Drained()))
				steps.Add(int64(w.kernel.Steps()))
			}()
			for {
				if err = gctx.Err(); err != nil {
					return err
				}
				idx := next.Add(1) - 1
				if idx >= total {
					return nil
				}
				if err = w.block(int(idx)/bN, int(idx)%bN); err != nil {
					return err
				}
			}
		})
	}
	err := g.Wait()
	st.Blocks += int(blocks.Load())
	st.Steps += int(steps.Load())

	return err
}
