// SPDX-License-Identifier: MIT

// Package matrix: element and accumulator type sets.
// Element lists every input type the kernels accept. Accum lists the two
// accumulation types: every Integer element accumulates in int64 and every
// Float element accumulates in float64, so the accumulator is always at least
// twice as wide as the narrowest input it serves.
package matrix

import "reflect"

// Integer is the set of fixed-width signed integer element types.
type Integer interface {
	~int8 | ~int16 | ~int32 | ~int64
}

// Float is the set of floating-point element types.
// Half precision enters as float32 (see FromFloat16).
type Float interface {
	~float32 | ~float64
}

// Element is any input/output element type of a Dense matrix.
type Element interface {
	Integer | Float
}

// Accum is the set of accumulation-precision types.
type Accum interface {
	int64 | float64
}

// Kind classifies an element type.
type Kind int

const (
	// KindInteger marks a fixed-width signed integer element type.
	KindInteger Kind = iota
	// KindFloat marks a floating-point element type.
	KindFloat
)

// String returns a short label for logs and CLI output.
func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	default:
		return "unknown"
	}
}

// KindOf reports whether T is an integer or floating-point element type.
// Complexity: O(1).
func KindOf[T Element]() Kind {
	var x T = 1
	x /= 2 // integer division truncates to zero
	if x != 0 {
		return KindFloat
	}

	return KindInteger
}

// BitSize returns the storage width of T in bits, including named types
// whose underlying type is one of the Element members.
// Complexity: O(1).
func BitSize[T Element]() int {
	return reflect.TypeFor[T]().Bits()
}
