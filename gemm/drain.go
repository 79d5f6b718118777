// SPDX-License-Identifier: MIT

// Package gemm - ResultDrain.
//
// Purpose:
//   - Copy a finished AccumulatorBlock into its region of C, narrowing every
//     value back to the element type under an explicit NarrowPolicy.
//
// Behavior highlights:
//   - All-or-nothing per block: values are narrowed into a staging buffer
//     first and C is written only when every value narrowed successfully.
//   - Only the valid part of a boundary block is written; padded cells are
//     dropped.

package gemm

import (
	"fmt"
	"reflect"

	"github.com/katalvlaran/blockgemm/accum"
	"github.com/katalvlaran/blockgemm/matrix"
)

// ResultDrain writes accumulator blocks into the output matrix.
// A ResultDrain owns its staging buffer and is not safe for concurrent use;
// distinct drains may write distinct blocks of the same C concurrently.
type ResultDrain[T matrix.Element, A matrix.Accum] struct {
	c       *matrix.Dense[T]
	tiles   Tiles
	narrow  accum.Narrow[T, A]
	staging []T
	drained int
}

// NewDrain binds a drain to C for the given tile sizes and narrowing policy.
// Errors: ErrNilMatrix, ErrInvalidTileSize, accum.ErrInvalidPolicy.
func NewDrain[T matrix.Element, A matrix.Accum](c *matrix.Dense[T], tiles Tiles, policy accum.NarrowPolicy) (*ResultDrain[T, A], error) {
	if err := matrix.ValidateNotNil(c); err != nil {
		return nil, gemmErrorf(opDrain, err)
	}
	if err := tiles.Validate(); err != nil {
		return nil, gemmErrorf(opDrain, err)
	}
	if !policy.Valid() {
		return nil, gemmErrorf(opDrain, fmt.Errorf("%s: %w", policy, accum.ErrInvalidPolicy))
	}

	return &ResultDrain[T, A]{
		c:       c,
		tiles:   tiles,
		narrow:  accum.NarrowerFor[T, A](policy),
		staging: make([]T, tiles.M*tiles.N),
	}, nil
}

// Drain writes blk to C[bm*TM:, bn*TN:].
//
// Implementation:
//   - Stage 1: clip the block to C's bounds.
//   - Stage 2: narrow every valid value into the staging buffer; stop at the
//     first overflow without touching C.
//   - Stage 3: copy staged rows into C.
//
// Errors:
//   - ErrBlockOutOfRange, ErrDimensionMismatch (blk shape),
//     *accum.OverflowError (StageNarrow) under NarrowError.
//
// Complexity:
//   - Time O(TM*TN), Space O(1) (staging is preallocated).
func (d *ResultDrain[T, A]) Drain(blk *AccumulatorBlock[A], bm, bn int) error {
	if blk == nil || blk.Rows != d.tiles.M || blk.Cols != d.tiles.N {
		return fmt.Errorf("accumulator block: %w", ErrDimensionMismatch)
	}
	cRows, cCols := d.c.Shape()
	r0, c0 := bm*d.tiles.M, bn*d.tiles.N
	if bm < 0 || bn < 0 || r0 >= cRows || c0 >= cCols {
		return fmt.Errorf("block (%d,%d): %w", bm, bn, ErrBlockOutOfRange)
	}
	rows := min(d.tiles.M, cRows-r0)
	cols := min(d.tiles.N, cCols-c0)

	var (
		i, j int
		v    T
		ok   bool
	)
	for i = 0; i < rows; i++ {
		for j = 0; j < cols; j++ {
			v, ok = d.narrow(blk.Data[i*blk.Cols+j])
			if !ok {
				return &accum.OverflowError{
					Stage: accum.StageNarrow,
					Row:   r0 + i,
					Col:   c0 + j,
					Type:  reflect.TypeFor[T]().String(),
				}
			}
			d.staging[i*cols+j] = v
		}
	}

	out := d.c.Raw()
	for i = 0; i < rows; i++ {
		copy(out[(r0+i)*cCols+c0:(r0+i)*cCols+c0+cols], d.staging[i*cols:(i+1)*cols])
	}
	d.drained++

	return nil
}

// Drained returns the number of blocks written so far.
func (d *ResultDrain[T, A]) Drained() int { return d.drained }
