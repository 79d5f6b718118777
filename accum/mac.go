// SPDX-License-Identifier: MIT

// Package accum: multiply-accumulate primitives.
// The integer MAC is checked with math/bits so that an int64 overflow is
// reported instead of wrapping; the float MAC rounds the product explicitly
// so that no platform fuses it into an FMA and results stay bit-identical
// across architectures and code paths.
package accum

import (
	"math"
	"math/bits"

	"github.com/katalvlaran/blockgemm/matrix"
)

// MAC computes acc + x*y. ok is false when the result is not representable
// in the accumulator type (integer accumulators only).
type MAC[A matrix.Accum] func(acc, x, y A) (sum A, ok bool)

// MACFor returns the multiply-accumulate primitive for accumulator type A.
// Complexity: O(1).
func MACFor[A matrix.Accum]() MAC[A] {
	var z A
	if _, isInt := any(z).(int64); isInt {
		return checkedMAC[A]
	}

	return floatMAC[A]
}

// checkedMAC is acc + x*y on int64 with overflow detection.
func checkedMAC[A matrix.Accum](acc, x, y A) (A, bool) {
	p, ok := MulInt64(int64(x), int64(y))
	if !ok {
		return acc, false
	}
	s, ok := AddInt64(int64(acc), p)
	if !ok {
		return acc, false
	}

	return A(s), true
}

// floatMAC is acc + x*y on float64; the conversion forces the product to be
// rounded before the add.
func floatMAC[A matrix.Accum](acc, x, y A) (A, bool) {
	return acc + A(float64(x*y)), true
}

// MulInt64 returns a*b and whether it fits in int64.
// Complexity: O(1).
func MulInt64(a, b int64) (int64, bool) {
	neg := (a < 0) != (b < 0)
	hi, lo := bits.Mul64(absU64(a), absU64(b))
	if hi != 0 {
		return 0, false
	}
	if neg {
		if lo > 1<<63 {
			return 0, false
		}
		// lo == 1<<63 maps to math.MinInt64 through two's complement.
		return -int64(lo), true
	}
	if lo > math.MaxInt64 {
		return 0, false
	}

	return int64(lo), true
}

// AddInt64 returns a+b and whether it fits in int64.
// Complexity: O(1).
func AddInt64(a, b int64) (int64, bool) {
	s := a + b
	// Overflow iff both operands share a sign that the sum does not.
	if (a >= 0) == (b >= 0) && (s >= 0) != (a >= 0) {
		return 0, false
	}

	return s, true
}

func absU64(v int64) uint64 {
	if v < 0 {
		return uint64(-v) // MinInt64 negates to itself and converts to 1<<63
	}

	return uint64(v)
}
