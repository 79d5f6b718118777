// SPDX-License-Identifier: MIT
// Package accum: sentinel errors and the typed overflow error.

package accum

import (
	"errors"
	"fmt"
)

var (
	// ErrNumericOverflow reports that an integer accumulation or a narrowing
	// write exceeded the range of its target type.
	ErrNumericOverflow = errors.New("accum: numeric overflow")

	// ErrPolicyMismatch reports an accumulation policy that does not fit the
	// element kind (e.g., WidenInt with float32 inputs).
	ErrPolicyMismatch = errors.New("accum: policy does not match element kind")

	// ErrInvalidPolicy reports an out-of-range Policy or NarrowPolicy value.
	ErrInvalidPolicy = errors.New("accum: invalid policy")
)

// Stage names where an overflow can be detected.
const (
	StageAccumulate = "accumulate"
	StageNarrow     = "narrow"
)

// OverflowError carries the output coordinates and stage of an overflow.
// It matches ErrNumericOverflow under errors.Is.
type OverflowError struct {
	Stage string // StageAccumulate or StageNarrow
	Row   int    // output row (global coordinates)
	Col   int    // output column (global coordinates)
	Type  string // element or accumulator type that overflowed
}

// Error implements the error interface.
func (e *OverflowError) Error() string {
	return fmt.Sprintf("accum: %s overflow at (%d,%d) in %s", e.Stage, e.Row, e.Col, e.Type)
}

// Is makes errors.Is(err, ErrNumericOverflow) true for *OverflowError.
func (e *OverflowError) Is(target error) bool {
	return target == ErrNumericOverflow
}
