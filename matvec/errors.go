// SPDX-License-Identifier: MIT
// Package matvec: sentinel errors.

package matvec

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/blockgemm/accum"
	"github.com/katalvlaran/blockgemm/matrix"
)

var (
	// ErrInvalidBand reports a negative sub- or super-diagonal count.
	ErrInvalidBand = errors.New("matvec: band widths must be >= 0")

	// ErrInvalidTriangle reports an unknown Uplo or Diag value.
	ErrInvalidTriangle = errors.New("matvec: invalid triangle selector")

	// ErrNonSquare reports a non-square matrix passed to Trmv.
	ErrNonSquare = matrix.ErrNonSquare

	// ErrDimensionMismatch reports vector lengths that do not fit A.
	ErrDimensionMismatch = matrix.ErrDimensionMismatch

	// ErrNilMatrix reports a nil matrix or vector.
	ErrNilMatrix = matrix.ErrNilMatrix

	// ErrNumericOverflow reports integer accumulation or narrowing overflow.
	ErrNumericOverflow = accum.ErrNumericOverflow

	// ErrPolicyMismatch reports an accumulation policy unfit for the element type.
	ErrPolicyMismatch = accum.ErrPolicyMismatch
)

const (
	opGbmv = "Gbmv"
	opTrmv = "Trmv"
)

func matvecErrorf(tag string, err error) error {
	return fmt.Errorf("matvec.%s: %w", tag, err)
}
