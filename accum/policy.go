// SPDX-License-Identifier: MIT

// Package accum: accumulation and narrowing policy enums.
package accum

import (
	"fmt"

	"github.com/katalvlaran/blockgemm/matrix"
)

// Policy selects the accumulation precision.
type Policy int

const (
	// WidenInt accumulates integer inputs in int64 with overflow detection.
	WidenInt Policy = iota
	// WidenFloatToDouble accumulates float inputs in float64.
	WidenFloatToDouble
)

// String returns the policy label used in logs and CLI flags.
func (p Policy) String() string {
	switch p {
	case WidenInt:
		return "widen-int"
	case WidenFloatToDouble:
		return "widen-float-to-double"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// PolicyFor returns the natural policy for element type T.
func PolicyFor[T matrix.Element]() Policy {
	if matrix.KindOf[T]() == matrix.KindFloat {
		return WidenFloatToDouble
	}

	return WidenInt
}

// Check validates p and verifies that it fits element type T.
// Errors: ErrInvalidPolicy, ErrPolicyMismatch.
func Check[T matrix.Element](p Policy) error {
	switch p {
	case WidenInt:
		if matrix.KindOf[T]() != matrix.KindInteger {
			return fmt.Errorf("%s with %s elements: %w", p, matrix.KindOf[T](), ErrPolicyMismatch)
		}
	case WidenFloatToDouble:
		if matrix.KindOf[T]() != matrix.KindFloat {
			return fmt.Errorf("%s with %s elements: %w", p, matrix.KindOf[T](), ErrPolicyMismatch)
		}
	default:
		return fmt.Errorf("%s: %w", p, ErrInvalidPolicy)
	}

	return nil
}

// NarrowPolicy selects how accumulator values are written back to the
// output element type.
type NarrowPolicy int

const (
	// NarrowError reports ErrNumericOverflow for values outside the element range.
	NarrowError NarrowPolicy = iota
	// NarrowSaturate clamps values to the element range.
	NarrowSaturate
	// NarrowTruncate applies Go conversion semantics (integer wrap-around,
	// float32 overflow to ±Inf).
	NarrowTruncate
)

// String returns the narrowing label used in logs and CLI flags.
func (p NarrowPolicy) String() string {
	switch p {
	case NarrowError:
		return "error"
	case NarrowSaturate:
		return "saturate"
	case NarrowTruncate:
		return "truncate"
	default:
		return fmt.Sprintf("NarrowPolicy(%d)", int(p))
	}
}

// Valid reports whether p is one of the declared policies.
func (p NarrowPolicy) Valid() bool {
	return p >= NarrowError && p <= NarrowTruncate
}

// ParseNarrowPolicy maps a label produced by String back to a NarrowPolicy.
func ParseNarrowPolicy(s string) (NarrowPolicy, error) {
	for _, p := range []NarrowPolicy{NarrowError, NarrowSaturate, NarrowTruncate} {
		if p.String() == s {
			return p, nil
		}
	}

	return 0, fmt.Errorf("narrow policy %q: %w", s, ErrInvalidPolicy)
}
