// Package matvec provides banded and triangular matrix-vector products.
//
// Gbmv computes y = A·x using only the band of A with kl sub-diagonals and
// ku super-diagonals; Trmv computes y = T·x where T is the upper or lower
// triangle of a square A, optionally with an implicit unit diagonal.
//
// Both kernels follow the accumulation rules of package gemm: products are
// summed in int64 (integer elements, overflow reported) or float64 (float
// elements) in ascending column order, and the result is narrowed back to
// the element type under an explicit accum.NarrowPolicy. y is written only
// after every element narrowed successfully, so y may alias x.
//
// A is read in its ordinary row-major Dense form; cells outside the band or
// triangle are ignored, whatever they hold.
package matvec
