// SPDX-License-Identifier: MIT

// Package matrix: conversions into and out of Dense.
// Row slices, identity, transpose (the data-mover helper used to feed
// column-major consumers) and half-precision ingestion live here.
package matrix

import (
	"fmt"

	"github.com/x448/float16"
)

const (
	opFromRows    = "FromRows"
	opIdentity    = "Identity"
	opTranspose   = "Transpose"
	opFromFloat16 = "FromFloat16"
)

// FromRows builds a Dense from a rectangular [][]T (row-major copy).
// Errors: ErrInvalidDimensions (empty), ErrDimensionMismatch (ragged rows).
// Complexity: O(r*c).
func FromRows[T Element](rows [][]T) (*Dense[T], error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%s: %w", opFromRows, ErrInvalidDimensions)
	}
	r, c := len(rows), len(rows[0])
	m, err := NewDense[T](r, c)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opFromRows, err)
	}
	for i, row := range rows {
		if len(row) != c {
			return nil, fmt.Errorf("%s: row %d has %d cols, want %d: %w", opFromRows, i, len(row), c, ErrDimensionMismatch)
		}
		copy(m.data[i*c:(i+1)*c], row)
	}

	return m, nil
}

// Identity returns the n×n identity matrix.
// Errors: ErrInvalidDimensions when n <= 0.
// Complexity: O(n²).
func Identity[T Element](n int) (*Dense[T], error) {
	m, err := NewDense[T](n, n)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opIdentity, err)
	}
	for i := 0; i < n; i++ {
		m.data[i*n+i] = 1
	}

	return m, nil
}

// Transpose returns a new matrix with rows and columns swapped (mᵀ).
// The original matrix is never mutated.
//
// Implementation:
//   - Stage 1: ValidateNotNil(m). Allocate Dense(cols, rows).
//   - Stage 2: data[i*cols + j] → res.data[j*rows + i].
//
// Complexity:
//   - Time O(r*c), Space O(r*c) for the returned matrix.
func Transpose[T Element](m *Dense[T]) (*Dense[T], error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, fmt.Errorf("%s: %w", opTranspose, err)
	}
	res := &Dense[T]{r: m.c, c: m.r, data: make([]T, len(m.data))}
	var i, j, baseSrc int
	for i = 0; i < m.r; i++ {
		baseSrc = i * m.c
		for j = 0; j < m.c; j++ {
			res.data[j*m.r+i] = m.data[baseSrc+j]
		}
	}

	return res, nil
}

// FromFloat16 widens a row-major half-precision buffer into a float32 Dense.
// Every float16 value is exactly representable in float32, so the widening
// loses nothing; the gemm float policy then accumulates in float64.
//
// Errors: ErrInvalidDimensions, ErrDimensionMismatch (len(data) != rows*cols).
// Complexity: O(r*c).
func FromFloat16(rows, cols int, data []float16.Float16) (*Dense[float32], error) {
	m, err := NewDense[float32](rows, cols)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opFromFloat16, err)
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("%s: len(data)=%d, want %d: %w", opFromFloat16, len(data), rows*cols, ErrDimensionMismatch)
	}
	for i, h := range data {
		m.data[i] = h.Float32()
	}

	return m, nil
}

// ToFloat16 narrows a float32 Dense to half precision (round-to-nearest-even,
// overflow becomes ±Inf as defined by IEEE 754 binary16).
// Complexity: O(r*c).
func ToFloat16(m *Dense[float32]) ([]float16.Float16, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, err
	}
	out := make([]float16.Float16, len(m.data))
	for i, v := range m.data {
		out[i] = float16.Fromfloat32(v)
	}

	return out, nil
}
