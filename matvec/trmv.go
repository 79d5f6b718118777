// SPDX-License-Identifier: MIT

package matvec

import (
	"fmt"

	"github.com/katalvlaran/blockgemm/matrix"
)

// Uplo selects the triangle of A used by Trmv.
type Uplo int

const (
	// Upper uses A[i][j] for j >= i.
	Upper Uplo = iota
	// Lower uses A[i][j] for j <= i.
	Lower
)

func (u Uplo) String() string {
	switch u {
	case Upper:
		return "upper"
	case Lower:
		return "lower"
	default:
		return fmt.Sprintf("Uplo(%d)", int(u))
	}
}

// Diag selects whether the diagonal of A is read or taken as all ones.
type Diag int

const (
	// NonUnit reads the diagonal from A.
	NonUnit Diag = iota
	// Unit treats every diagonal element as 1 without reading it.
	Unit
)

func (d Diag) String() string {
	switch d {
	case NonUnit:
		return "non-unit"
	case Unit:
		return "unit"
	default:
		return fmt.Sprintf("Diag(%d)", int(d))
	}
}

// Trmv computes y = T·x where T is the uplo triangle of the square matrix A.
// With Unit the stored diagonal is ignored and 1 is used instead.
//
// Errors:
//   - ErrNilMatrix, ErrNonSquare, ErrInvalidTriangle, ErrDimensionMismatch,
//     ErrPolicyMismatch, accum.ErrInvalidPolicy, ErrNumericOverflow.
//
// Complexity:
//   - Time O(N²/2), Space O(N).
func Trmv[T matrix.Element](a *matrix.Dense[T], uplo Uplo, diag Diag, x, y []T, opts ...Option) error {
	if err := matrix.ValidateSquare(a); err != nil {
		return matvecErrorf(opTrmv, err)
	}
	if (uplo != Upper && uplo != Lower) || (diag != NonUnit && diag != Unit) {
		return matvecErrorf(opTrmv, fmt.Errorf("%s/%s: %w", uplo, diag, ErrInvalidTriangle))
	}
	n := a.Rows()
	if err := matrix.ValidateVecLen(x, n); err != nil {
		return matvecErrorf(opTrmv, fmt.Errorf("x: %w", err))
	}
	if err := matrix.ValidateVecLen(y, n); err != nil {
		return matvecErrorf(opTrmv, fmt.Errorf("y: %w", err))
	}
	o, err := resolve[T](opts)
	if err != nil {
		return matvecErrorf(opTrmv, err)
	}
	o.logger.V(4).Info("trmv", "n", n, "uplo", uplo.String(), "diag", diag.String())

	unit := diag == Unit
	span := func(i int) (int, int, bool) {
		if uplo == Upper {
			return i, n, unit
		}
		return 0, i + 1, unit
	}
	if err = dispatch(a, x, y, span, o); err != nil {
		return matvecErrorf(opTrmv, err)
	}

	return nil
}
