// SPDX-License-Identifier: MIT

// Package gemm - StreamingMatMul.
//
// Purpose:
//   - For one output block, consume the feeder's k-step tile pairs and
//     accumulate C_block += A_tile · B_tile in accumulation precision.
//
// Determinism:
//   - Every output cell sums its products for k = 0..K-1 in ascending order,
//     whatever the tile sizes, so results are bit-identical across tilings.
//   - Padded cells hold zero on both operands; the kernel skips them because
//     they contribute exactly nothing to any sum.

package gemm

import (
	"fmt"
	"reflect"

	"github.com/katalvlaran/blockgemm/accum"
	"github.com/katalvlaran/blockgemm/matrix"
)

// StreamingMatMul accumulates tile products for one output block at a time.
// T is the element type, A the accumulation type (int64 for WidenInt,
// float64 for WidenFloatToDouble).
//
// A StreamingMatMul owns a Stream and is not safe for concurrent use; the
// engine builds one per worker.
type StreamingMatMul[T matrix.Element, A matrix.Accum] struct {
	feeder *Feeder[T]
	stream *Stream[T]
	mac    accum.MAC[A]
	steps  int // k-steps accumulated since construction
}

// NewStreamingMatMul binds a kernel to a feeder.
// Errors: ErrPolicyMismatch when A is not the accumulator of T's kind.
func NewStreamingMatMul[T matrix.Element, A matrix.Accum](f *Feeder[T]) (*StreamingMatMul[T, A], error) {
	if err := checkAccum[T, A](); err != nil {
		return nil, gemmErrorf(opKernel, err)
	}
	s, err := f.Stream(0, 0)
	if err != nil {
		return nil, gemmErrorf(opKernel, err)
	}

	return &StreamingMatMul[T, A]{feeder: f, stream: s, mac: accum.MACFor[A]()}, nil
}

// ComputeBlock resets blk and accumulates every k-step of block (bm, bn).
// blk must be TM×TN.
//
// Implementation:
//   - Stage 1: blk.Reset().
//   - Stage 2: walk the block's stream; Accumulate each (A-tile, B-tile).
//
// Errors:
//   - ErrBlockOutOfRange, ErrDimensionMismatch (blk shape),
//     *accum.OverflowError (integer accumulation overflow).
//
// Complexity:
//   - Time O(TM*K*TN), Space O(1) beyond the owned tile buffers.
func (s *StreamingMatMul[T, A]) ComputeBlock(bm, bn int, blk *AccumulatorBlock[A]) error {
	bM, bN, _ := s.feeder.Grid()
	if bm < 0 || bm >= bM || bn < 0 || bn >= bN {
		return fmt.Errorf("block (%d,%d): %w", bm, bn, ErrBlockOutOfRange)
	}
	t := s.feeder.Tiles()
	if blk == nil || blk.Rows != t.M || blk.Cols != t.N {
		return fmt.Errorf("accumulator block: %w", ErrDimensionMismatch)
	}
	blk.Reset()
	s.stream.Retarget(bm, bn)
	for s.stream.Next() {
		if err := s.Accumulate(blk, s.stream.TileA(), s.stream.TileB()); err != nil {
			return err
		}
	}

	return nil
}

// Accumulate adds ta·tb into blk.
// ta is TM×TK, tb is TK×TN, blk is TM×TN; only the valid (unpadded) region
// contributes. The loop order is i → k → j so the B row is streamed
// contiguously while each cell still sums in ascending k.
//
// Errors:
//   - ErrDimensionMismatch when the tile and block shapes do not chain.
//   - *accum.OverflowError with global output coordinates.
//
// Complexity:
//   - Time O(TM*TK*TN), Space O(1).
func (s *StreamingMatMul[T, A]) Accumulate(blk *AccumulatorBlock[A], ta, tb *Tile[T]) error {
	var (
		i, kk, j  int
		av        A
		ok        bool
		aRow, out int
		bRow      int
	)
	if err := checkTiles(blk, ta, tb); err != nil {
		return err
	}
	rows, depth, cols := ta.ValidRows, min(ta.ValidCols, tb.ValidRows), tb.ValidCols
	for i = 0; i < rows; i++ {
		aRow = i * ta.Cols
		out = i * blk.Cols
		for kk = 0; kk < depth; kk++ {
			av = A(ta.Data[aRow+kk])
			bRow = kk * tb.Cols
			for j = 0; j < cols; j++ {
				blk.Data[out+j], ok = s.mac(blk.Data[out+j], av, A(tb.Data[bRow+j]))
				if !ok {
					return &accum.OverflowError{
						Stage: accum.StageAccumulate,
						Row:   ta.Row0 + i,
						Col:   tb.Col0 + j,
						Type:  accTypeName[A](),
					}
				}
			}
		}
	}
	s.steps++

	return nil
}

// checkTiles verifies that ta (TM×TK), tb (TK×TN) and blk (TM×TN) chain and
// that every valid region lies inside its physical tile.
func checkTiles[T matrix.Element, A matrix.Accum](blk *AccumulatorBlock[A], ta, tb *Tile[T]) error {
	if blk == nil || ta == nil || tb == nil {
		return fmt.Errorf("accumulate: nil tile or block: %w", ErrDimensionMismatch)
	}
	if ta.Rows != blk.Rows || tb.Cols != blk.Cols || ta.Cols != tb.Rows ||
		len(blk.Data) != blk.Rows*blk.Cols || len(ta.Data) != ta.Rows*ta.Cols || len(tb.Data) != tb.Rows*tb.Cols {
		return fmt.Errorf("accumulate: A %dx%d, B %dx%d, block %dx%d: %w",
			ta.Rows, ta.Cols, tb.Rows, tb.Cols, blk.Rows, blk.Cols, ErrDimensionMismatch)
	}
	if ta.ValidRows < 0 || ta.ValidRows > ta.Rows || ta.ValidCols < 0 || ta.ValidCols > ta.Cols ||
		tb.ValidRows < 0 || tb.ValidRows > tb.Rows || tb.ValidCols < 0 || tb.ValidCols > tb.Cols {
		return fmt.Errorf("accumulate: valid region outside tile: %w", ErrDimensionMismatch)
	}

	return nil
}

// Steps returns the number of k-steps accumulated so far.
func (s *StreamingMatMul[T, A]) Steps() int { return s.steps }

// checkAccum verifies that A is the accumulator of T's kind.
func checkAccum[T matrix.Element, A matrix.Accum]() error {
	var z A
	_, isInt := any(z).(int64)
	switch kind := matrix.KindOf[T](); {
	case kind == matrix.KindInteger && !isInt, kind == matrix.KindFloat && isInt:
		return fmt.Errorf("%s elements with %s accumulator: %w", kind, accTypeName[A](), ErrPolicyMismatch)
	}

	return nil
}

func accTypeName[A matrix.Accum]() string { return reflect.TypeFor[A]().String() }
