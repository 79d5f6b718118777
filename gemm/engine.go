// SPDX-License-Identifier: MIT

// Package gemm - MatMul facade.
//
// Purpose:
//   - Validate every precondition before any computation.
//   - Pick the accumulator type from the policy and run the block pipeline
//     Feeder → StreamingMatMul → ResultDrain, sequentially or on workers.
//
// Error priority (checked in this order, C untouched on failure):
// nil operand → dimension mismatch → aliased output → tile sizes / workers /
// narrowing → accumulation policy.

package gemm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/katalvlaran/blockgemm/accum"
	"github.com/katalvlaran/blockgemm/matrix"
)

// ErrAliasedOutput reports that C is the same matrix as A or B.
var ErrAliasedOutput = errors.New("gemm: output aliases an input")

// Stats describes one MatMul run.
type Stats struct {
	M, K, N int
	Tiles   Tiles
	Policy  AccumPolicy
	Narrow  NarrowPolicy
	Workers int

	BlocksM, BlocksN, StepsPerBlock int // tile grid

	Blocks int // output blocks drained
	Steps  int // (A-tile, B-tile) pairs accumulated

	// Zero padding added to boundary tiles along each dimension.
	PaddedRows, PaddedDepth, PaddedCols int

	Elapsed time.Duration
}

// FLOPs returns 2·M·K·N, the multiply-add count of the product.
func (s Stats) FLOPs() float64 { return 2 * float64(s.M) * float64(s.K) * float64(s.N) }

// MatMul computes C = A·B with the blocked streaming engine.
//
// Implementation:
//   - Stage 1: validate operands, configuration and policy (no writes).
//   - Stage 2: build the Feeder for the configured tiles.
//   - Stage 3: compute every output block and drain it into C.
//
// Behavior highlights:
//   - A and B are never mutated; C is overwritten block by block.
//   - A block is written only after all of its k-steps (atomic per block).
//   - ctx is checked between blocks; on cancellation, already drained
//     blocks remain in C and no block is partially written.
//
// Errors:
//   - ErrNilMatrix, ErrDimensionMismatch, ErrAliasedOutput,
//     ErrInvalidTileSize, ErrInvalidWorkers, ErrPolicyMismatch,
//     ErrNumericOverflow (*accum.OverflowError), ctx.Err().
//
// Complexity:
//   - Time O(M*K*N / workers), Space O(workers*(TM*TK + TK*TN + 2*TM*TN)).
func MatMul[T matrix.Element](ctx context.Context, a, b, c *matrix.Dense[T], opts ...Option) error {
	_, err := MatMulStats(ctx, a, b, c, opts...)

	return err
}

// MatMulTiled is MatMul with explicit tile sizes and accumulation policy.
func MatMulTiled[T matrix.Element](ctx context.Context, a, b, c *matrix.Dense[T], tileM, tileK, tileN int, policy AccumPolicy) error {
	return MatMul(ctx, a, b, c, WithTiles(tileM, tileK, tileN), WithAccumPolicy(policy))
}

// MatMulStats is MatMul returning run statistics. Stats are filled as far
// as the run progressed, also on error.
func MatMulStats[T matrix.Element](ctx context.Context, a, b, c *matrix.Dense[T], opts ...Option) (Stats, error) {
	if err := matrix.ValidateOutputShape(a, b, c); err != nil {
		return Stats{}, gemmErrorf(opMatMul, err)
	}
	if c == a || c == b {
		return Stats{}, gemmErrorf(opMatMul, ErrAliasedOutput)
	}
	o := gatherOptions(opts...)
	if err := o.validate(); err != nil {
		return Stats{}, gemmErrorf(opMatMul, err)
	}
	policy, forced := o.Policy()
	if !forced {
		policy = accum.PolicyFor[T]()
	}
	if err := accum.Check[T](policy); err != nil {
		return Stats{}, gemmErrorf(opMatMul, err)
	}

	f, err := NewFeeder(a, b, o.tiles)
	if err != nil {
		return Stats{}, gemmErrorf(opMatMul, err)
	}

	st := newStats(f, policy, o)
	switch policy {
	case WidenInt:
		err = run[T, int64](ctx, f, c, o, &st)
	default:
		err = run[T, float64](ctx, f, c, o, &st)
	}
	if err != nil {
		return st, gemmErrorf(opMatMul, err)
	}

	return st, nil
}

func newStats[T matrix.Element](f *Feeder[T], policy AccumPolicy, o Options) Stats {
	m, k, n := f.Dims()
	bM, bN, steps := f.Grid()
	t := f.Tiles()

	return Stats{
		M: m, K: k, N: n,
		Tiles:         t,
		Policy:        policy,
		Narrow:        o.narrow,
		Workers:       min(o.workers, bM*bN),
		BlocksM:       bM,
		BlocksN:       bN,
		StepsPerBlock: steps,
		PaddedRows:    bM*t.M - m,
		PaddedDepth:   steps*t.K - k,
		PaddedCols:    bN*t.N - n,
	}
}

// run executes the pipeline with accumulator type A.
func run[T matrix.Element, A matrix.Accum](ctx context.Context, f *Feeder[T], c *matrix.Dense[T], o Options, st *Stats) error {
	log := o.logger
	start := time.Now()
	log.V(2).Info("gemm plan",
		"m", st.M, "k", st.K, "n", st.N,
		"tiles", st.Tiles.String(),
		"policy", st.Policy.String(), "narrow", st.Narrow.String(),
		"blocks", st.BlocksM*st.BlocksN, "steps", st.StepsPerBlock,
		"workers", st.Workers)

	var err error
	if st.Workers <= 1 {
		err = runSequential[T, A](ctx, f, c, o, st)
	} else {
		err = runParallel[T, A](ctx, f, c, o, st)
	}
	st.Elapsed = time.Since(start)
	if err != nil {
		log.V(1).Info("gemm aborted", "err", err.Error(), "drained", st.Blocks)
		return err
	}
	log.V(2).Info("gemm done", "drained", st.Blocks, "elapsed", st.Elapsed.String())

	return nil
}

// runSequential is the single forward pass over blocks in row-major order.
func runSequential[T matrix.Element, A matrix.Accum](ctx context.Context, f *Feeder[T], c *matrix.Dense[T], o Options, st *Stats) error {
	w, err := newWorker[T, A](f, c, o)
	if err != nil {
		return err
	}
	defer func() {
		st.Blocks += w.drain.Drained()
		st.Steps += w.kernel.Steps()
	}()
	for bm, bn := range f.Blocks() {
		if err = ctx.Err(); err != nil {
			return err
		}
		if err = w.block(bm, bn); err != nil {
			return err
		}
	}

	return nil
}

// worker bundles the per-goroutine pipeline state: its own tile buffers
// (inside the kernel's stream), its ping-pong arena and its drain staging.
type worker[T matrix.Element, A matrix.Accum] struct {
	kernel *StreamingMatMul[T, A]
	drain  *ResultDrain[T, A]
	arena  *PingPong[A]
	opts   Options
}

func newWorker[T matrix.Element, A matrix.Accum](f *Feeder[T], c *matrix.Dense[T], o Options) (*worker[T, A], error) {
	k, err := NewStreamingMatMul[T, A](f)
	if err != nil {
		return nil, err
	}
	d, err := NewDrain[T, A](c, f.Tiles(), o.narrow)
	if err != nil {
		return nil, err
	}
	t := f.Tiles()

	return &worker[T, A]{kernel: k, drain: d, arena: NewPingPong[A](t.M, t.N), opts: o}, nil
}

// block accumulates block (bm, bn) into the active buffer, swaps, and drains
// the now-standby buffer.
func (w *worker[T, A]) block(bm, bn int) error {
	if err := w.kernel.ComputeBlock(bm, bn, w.arena.Active()); err != nil {
		return fmt.Errorf("block (%d,%d): %w", bm, bn, err)
	}
	w.arena.Swap()
	if err := w.drain.Drain(w.arena.Standby(), bm, bn); err != nil {
		return fmt.Errorf("block (%d,%d): %w", bm, bn, err)
	}
	w.opts.logger.V(4).Info("block drained", "bm", bm, "bn", bn, "next", w.arena.ActiveName())

	return nil
}
