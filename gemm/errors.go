// SPDX-License-Identifier: MIT
// Package gemm: sentinel errors.
// Dimension and overflow sentinels are shared with the matrix and accum
// packages so a single errors.Is target works at every layer.

package gemm

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/blockgemm/accum"
	"github.com/katalvlaran/blockgemm/matrix"
)

var (
	// ErrDimensionMismatch reports A.Cols != B.Rows or a C of the wrong shape.
	ErrDimensionMismatch = matrix.ErrDimensionMismatch

	// ErrNilMatrix reports a nil operand.
	ErrNilMatrix = matrix.ErrNilMatrix

	// ErrInvalidTileSize reports a zero or negative tile dimension.
	ErrInvalidTileSize = errors.New("gemm: tile dimensions must be > 0")

	// ErrInvalidWorkers reports a non-positive worker count.
	ErrInvalidWorkers = errors.New("gemm: worker count must be > 0")

	// ErrBlockOutOfRange reports a block or k-step index outside the tile grid.
	ErrBlockOutOfRange = errors.New("gemm: block index out of range")

	// ErrNumericOverflow reports integer accumulation or narrowing overflow.
	ErrNumericOverflow = accum.ErrNumericOverflow

	// ErrPolicyMismatch reports an accumulation policy unfit for the element type.
	ErrPolicyMismatch = accum.ErrPolicyMismatch
)

// Operation name constants for unified error wrapping.
const (
	opMatMul    = "MatMul"
	opFeeder    = "NewFeeder"
	opTileA     = "TileA"
	opTileB     = "TileB"
	opStream    = "Stream"
	opDrain     = "Drain"
	opReference = "Reference"
	opKernel    = "NewStreamingMatMul"
)

// gemmErrorf wraps err with an operation tag, preserving it for errors.Is/As.
// Use only when err != nil.
func gemmErrorf(tag string, err error) error {
	return fmt.Errorf("gemm.%s: %w", tag, err)
}
