// SPDX-License-Identifier: MIT
// Package gemm_test contains test helpers
//
// Purpose:
//   • Provide small, deterministic fixtures for feeder/kernel/drain tests.
//   • Keep random data seeded so every run sees the same matrices.

package gemm_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/blockgemm/accum"
	"github.com/katalvlaran/blockgemm/gemm"
	"github.com/katalvlaran/blockgemm/matrix"
)

// mustRows builds a Dense from rows or fails the test.
func mustRows[T matrix.Element](t testing.TB, rows [][]T) *matrix.Dense[T] {
	t.Helper()
	m, err := matrix.FromRows(rows)
	require.NoError(t, err)

	return m
}

// mustDense allocates an r×c zero matrix or fails the test.
func mustDense[T matrix.Element](t testing.TB, r, c int) *matrix.Dense[T] {
	t.Helper()
	m, err := matrix.NewDense[T](r, c)
	require.NoError(t, err)

	return m
}

// filled returns an r×c matrix with every element set to v.
func filled[T matrix.Element](t testing.TB, r, c int, v T) *matrix.Dense[T] {
	t.Helper()
	m := mustDense[T](t, r, c)
	m.Fill(v)

	return m
}

// randFloat fills an r×c float matrix with values in [-1, 1) from seed.
func randFloat[T matrix.Float](t testing.TB, r, c int, seed int64) *matrix.Dense[T] {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	data := make([]T, r*c)
	for i := range data {
		data[i] = T(rng.Float64()*2 - 1)
	}
	m, err := matrix.NewDenseFrom(r, c, data)
	require.NoError(t, err)

	return m
}

// randInt fills an r×c integer matrix with values in [-span, span] from seed.
func randInt[T matrix.Integer](t testing.TB, r, c int, span int, seed int64) *matrix.Dense[T] {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	data := make([]T, r*c)
	for i := range data {
		data[i] = T(rng.Intn(2*span+1) - span)
	}
	m, err := matrix.NewDenseFrom(r, c, data)
	require.NoError(t, err)

	return m
}

// reference computes A·B with gemm.Reference under the natural policy.
func reference[T matrix.Element](t testing.TB, a, b *matrix.Dense[T]) *matrix.Dense[T] {
	t.Helper()
	c := mustDense[T](t, a.Rows(), b.Cols())
	require.NoError(t, gemm.Reference(a, b, c, accum.PolicyFor[T](), gemm.NarrowError))

	return c
}
