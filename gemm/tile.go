// SPDX-License-Identifier: MIT

// Package gemm: Tile and AccumulatorBlock.
// Both are transient per-worker buffers: a Tile holds one zero-padded operand
// sub-block for one k-step, an AccumulatorBlock holds the running sums of one
// output block across all k-steps.
package gemm

import (
	"fmt"

	"github.com/katalvlaran/blockgemm/matrix"
)

// Tiles holds the tile dimensions: A tiles are M×K, B tiles are K×N and
// output blocks are M×N.
type Tiles struct {
	M, K, N int
}

// Validate reports ErrInvalidTileSize when any dimension is <= 0.
func (t Tiles) Validate() error {
	if t.M <= 0 || t.K <= 0 || t.N <= 0 {
		return fmt.Errorf("tiles %s: %w", t, ErrInvalidTileSize)
	}

	return nil
}

// String renders the tiles as "MxKxN".
func (t Tiles) String() string {
	return fmt.Sprintf("%dx%dx%d", t.M, t.K, t.N)
}

// Tile is a fixed-size Rows×Cols window of an operand.
// Cells beyond ValidRows/ValidCols are zero padding.
type Tile[T matrix.Element] struct {
	Rows, Cols           int // physical tile shape
	ValidRows, ValidCols int // part backed by the source matrix
	Row0, Col0           int // top-left corner in the source matrix
	Data                 []T // row-major, len == Rows*Cols
}

// NewTile allocates a zeroed rows×cols tile.
func NewTile[T matrix.Element](rows, cols int) *Tile[T] {
	return &Tile[T]{Rows: rows, Cols: cols, Data: make([]T, rows*cols)}
}

// At returns the tile element (i,j); padded cells read as zero.
// Indices must be inside the physical tile.
func (t *Tile[T]) At(i, j int) T { return t.Data[i*t.Cols+j] }

// load copies the window [r0:r0+Rows, c0:c0+Cols) of a rows×cols row-major
// source into the tile, zero-filling whatever lies outside the source.
func (t *Tile[T]) load(src []T, rows, cols, r0, c0 int) {
	t.Row0, t.Col0 = r0, c0
	t.ValidRows = max(0, min(t.Rows, rows-r0))
	t.ValidCols = max(0, min(t.Cols, cols-c0))
	var i, base int
	for i = 0; i < t.Rows; i++ {
		dst := t.Data[i*t.Cols : (i+1)*t.Cols]
		if i >= t.ValidRows {
			clear(dst)
			continue
		}
		base = (r0+i)*cols + c0
		copy(dst[:t.ValidCols], src[base:base+t.ValidCols])
		clear(dst[t.ValidCols:])
	}
}

// AccumulatorBlock is a Rows×Cols block of accumulation-precision sums.
// It is reset to zero at the start of each output block and drained once
// every k-step of that block has been accumulated.
type AccumulatorBlock[A matrix.Accum] struct {
	Rows, Cols int
	Data       []A // row-major, len == Rows*Cols
}

// NewAccumulatorBlock allocates a zeroed rows×cols block.
func NewAccumulatorBlock[A matrix.Accum](rows, cols int) *AccumulatorBlock[A] {
	return &AccumulatorBlock[A]{Rows: rows, Cols: cols, Data: make([]A, rows*cols)}
}

// Reset zeroes every cell.
func (b *AccumulatorBlock[A]) Reset() { clear(b.Data) }

// At returns cell (i,j).
func (b *AccumulatorBlock[A]) At(i, j int) A { return b.Data[i*b.Cols+j] }
