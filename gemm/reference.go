// SPDX-License-Identifier: MIT

// Package gemm: naive reference product.
// Reference is the unblocked triple loop with the same widening and
// narrowing rules as MatMul; tests and the CLI compare MatMul against it.
package gemm

import (
	"fmt"
	"reflect"

	"github.com/katalvlaran/blockgemm/accum"
	"github.com/katalvlaran/blockgemm/matrix"
)

// Reference computes C = A·B with a plain i → j → k loop.
//
// Behavior highlights:
//   - Each cell sums k = 0..K-1 in ascending order with the policy's MAC, so
//     MatMul must match it bit for bit.
//   - C is written only after every cell narrowed successfully.
//
// Errors:
//   - ErrNilMatrix, ErrDimensionMismatch, ErrPolicyMismatch,
//     accum.ErrInvalidPolicy, ErrNumericOverflow.
//
// Complexity:
//   - Time O(M*K*N), Space O(M*N) staging.
func Reference[T matrix.Element](a, b, c *matrix.Dense[T], policy AccumPolicy, narrow NarrowPolicy) error {
	if err := matrix.ValidateOutputShape(a, b, c); err != nil {
		return gemmErrorf(opReference, err)
	}
	if err := accum.Check[T](policy); err != nil {
		return gemmErrorf(opReference, err)
	}
	if !narrow.Valid() {
		return gemmErrorf(opReference, fmt.Errorf("%s: %w", narrow, accum.ErrInvalidPolicy))
	}

	var err error
	switch policy {
	case WidenInt:
		err = reference[T, int64](a, b, c, narrow)
	default:
		err = reference[T, float64](a, b, c, narrow)
	}
	if err != nil {
		return gemmErrorf(opReference, err)
	}

	return nil
}

func reference[T matrix.Element, A matrix.Accum](a, b, c *matrix.Dense[T], narrow NarrowPolicy) error {
	mac := accum.MACFor[A]()
	nar := accum.NarrowerFor[T, A](narrow)
	m, k, n := a.Rows(), a.Cols(), b.Cols()
	ad, bd := a.Raw(), b.Raw()
	out := make([]T, m*n)

	var (
		i, j, kk int
		sum      A
		ok       bool
	)
	for i = 0; i < m; i++ {
		for j = 0; j < n; j++ {
			sum = 0
			for kk = 0; kk < k; kk++ {
				sum, ok = mac(sum, A(ad[i*k+kk]), A(bd[kk*n+j]))
				if !ok {
					return &accum.OverflowError{Stage: accum.StageAccumulate, Row: i, Col: j, Type: reflect.TypeFor[A]().String()}
				}
			}
			if out[i*n+j], ok = nar(sum); !ok {
				return &accum.OverflowError{Stage: accum.StageNarrow, Row: i, Col: j, Type: reflect.TypeFor[T]().String()}
			}
		}
	}
	copy(c.Raw(), out)

	return nil
}
