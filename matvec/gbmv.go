// SPDX-License-Identifier: MIT

package matvec

import (
	"fmt"

	"github.com/katalvlaran/blockgemm/matrix"
)

// Gbmv computes y = A·x for the band of the M×N matrix A with kl
// sub-diagonals and ku super-diagonals: A[i][j] contributes only when
// j-ku <= i <= j+kl.
//
// Implementation:
//   - Stage 1: validate A, band widths, len(x) == N and len(y) == M.
//   - Stage 2: resolve accumulation and narrowing policies for T.
//   - Stage 3: per row, accumulate columns max(0, i-kl) .. min(N-1, i+ku)
//     in ascending order, then narrow and write y.
//
// Errors:
//   - ErrNilMatrix, ErrInvalidBand, ErrDimensionMismatch, ErrPolicyMismatch,
//     accum.ErrInvalidPolicy, ErrNumericOverflow.
//
// Complexity:
//   - Time O(M*(kl+ku+1)), Space O(M).
func Gbmv[T matrix.Element](a *matrix.Dense[T], kl, ku int, x, y []T, opts ...Option) error {
	if err := matrix.ValidateNotNil(a); err != nil {
		return matvecErrorf(opGbmv, err)
	}
	if kl < 0 || ku < 0 {
		return matvecErrorf(opGbmv, fmt.Errorf("kl=%d ku=%d: %w", kl, ku, ErrInvalidBand))
	}
	rows, cols := a.Shape()
	if err := matrix.ValidateVecLen(x, cols); err != nil {
		return matvecErrorf(opGbmv, fmt.Errorf("x: %w", err))
	}
	if err := matrix.ValidateVecLen(y, rows); err != nil {
		return matvecErrorf(opGbmv, fmt.Errorf("y: %w", err))
	}
	o, err := resolve[T](opts)
	if err != nil {
		return matvecErrorf(opGbmv, err)
	}
	o.logger.V(4).Info("gbmv", "m", rows, "n", cols, "kl", kl, "ku", ku, "policy", o.policy.String())

	span := func(i int) (int, int, bool) {
		lo := max(0, i-kl)
		hi := min(cols, i+ku+1)
		return lo, max(lo, hi), false
	}
	if err = dispatch(a, x, y, span, o); err != nil {
		return matvecErrorf(opGbmv, err)
	}

	return nil
}
