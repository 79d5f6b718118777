// SPDX-License-Identifier: MIT

// Package matvec: shared row kernel.
// Both products reduce to, for each output row i, a dot product of A's row i
// over a contiguous column range [lo, hi) with x, plus an optional implicit
// unit diagonal term. rowSpan describes that range per row.

package matvec

import (
	"reflect"

	"github.com/katalvlaran/blockgemm/accum"
	"github.com/katalvlaran/blockgemm/matrix"
)

// rowSpan returns the half-open column range of row i that contributes, and
// whether an implicit 1·x[i] term is added.
type rowSpan func(i int) (lo, hi int, unit bool)

// product computes y[i] = sum_{j in span(i)} A[i][j]·x[j] for every row of A
// with accumulator type A, narrowing into a staging slice before writing y.
//
// Complexity:
//   - Time O(sum of span lengths), Space O(len(y)).
func product[T matrix.Element, A matrix.Accum](a *matrix.Dense[T], x, y []T, span rowSpan, narrow accum.NarrowPolicy) error {
	mac := accum.MACFor[A]()
	nar := accum.NarrowerFor[T, A](narrow)
	rows, cols := a.Shape()
	data := a.Raw()
	out := make([]T, rows)

	var (
		i, j, lo, hi int
		unit, ok     bool
		sum          A
	)
	for i = 0; i < rows; i++ {
		lo, hi, unit = span(i)
		sum = 0
		for j = lo; j < hi; j++ {
			if unit && j == i {
				sum, ok = mac(sum, 1, A(x[j]))
			} else {
				sum, ok = mac(sum, A(data[i*cols+j]), A(x[j]))
			}
			if !ok {
				return &accum.OverflowError{Stage: accum.StageAccumulate, Row: i, Col: 0, Type: reflect.TypeFor[A]().String()}
			}
		}
		if out[i], ok = nar(sum); !ok {
			return &accum.OverflowError{Stage: accum.StageNarrow, Row: i, Col: 0, Type: reflect.TypeFor[T]().String()}
		}
	}
	copy(y, out)

	return nil
}

// dispatch runs product with the accumulator selected by o.policy.
func dispatch[T matrix.Element](a *matrix.Dense[T], x, y []T, span rowSpan, o options) error {
	if o.policy == accum.WidenInt {
		return product[T, int64](a, x, y, span, o.narrow)
	}

	return product[T, float64](a, x, y, span, o.narrow)
}
