// SPDX-License-Identifier: MIT

// Package accum: narrowing from accumulator precision back to the element type.
package accum

import (
	"math"

	"github.com/katalvlaran/blockgemm/matrix"
)

// Narrow converts an accumulator value to the output element type.
// ok is false only under NarrowError when v is outside the element range.
type Narrow[T matrix.Element, A matrix.Accum] func(v A) (out T, ok bool)

// NarrowerFor builds the narrowing function for (T, A) under policy p.
// The element range is resolved once here, not per value.
//
// Behavior highlights:
//   - Integer T: range is [-2^(b-1), 2^(b-1)-1] for the bit size b of T.
//   - float32 T: a finite value is out of range when float32 conversion
//     rounds it to ±Inf; values that round to ±MaxFloat32 fit. ±Inf and NaN
//     produced by the inputs themselves pass through unchanged.
//   - float64 T: identity.
//
// Complexity:
//   - O(1) to build, O(1) per value.
func NarrowerFor[T matrix.Element, A matrix.Accum](p NarrowPolicy) Narrow[T, A] {
	if matrix.KindOf[T]() == matrix.KindInteger {
		return narrowInt[T, A](p)
	}
	if matrix.BitSize[T]() == 64 {
		return func(v A) (T, bool) { return T(float64(v)), true }
	}

	return narrowFloat32[T, A](p)
}

func narrowInt[T matrix.Element, A matrix.Accum](p NarrowPolicy) Narrow[T, A] {
	b := matrix.BitSize[T]()
	hi := int64(math.MaxInt64 >> (64 - b))
	lo := -hi - 1

	return func(v A) (T, bool) {
		iv := int64(v)
		if iv >= lo && iv <= hi {
			return T(iv), true
		}
		switch p {
		case NarrowSaturate:
			if iv > hi {
				return T(hi), true
			}
			return T(lo), true
		case NarrowTruncate:
			return T(iv), true // two's complement wrap, chosen explicitly
		default:
			return 0, false
		}
	}
}

func narrowFloat32[T matrix.Element, A matrix.Accum](p NarrowPolicy) Narrow[T, A] {
	return func(v A) (T, bool) {
		fv := float64(v)
		r := float32(fv) // IEEE round-to-nearest; rounds to ±Inf only past MaxFloat32 + ulp/2
		if !math.IsInf(float64(r), 0) || math.IsInf(fv, 0) {
			return T(r), true
		}
		switch p {
		case NarrowSaturate:
			return T(math.Copysign(math.MaxFloat32, fv)), true
		case NarrowTruncate:
			return T(r), true
		default:
			return 0, false
		}
	}
}
