// Package accum defines the accumulation and narrowing rules shared by the
// gemm and matvec kernels.
//
// Every kernel multiplies Element inputs and sums the products in a wider
// accumulator (matrix.Accum): integer inputs accumulate in int64 with
// checked arithmetic, float inputs accumulate in float64. When the result is
// written back to the output element type, a NarrowPolicy decides what happens
// to values outside the element range.
//
// Neither widening nor narrowing is implicit: both are explicit, validated
// parameters, and integer overflow is always reported as ErrNumericOverflow
// rather than silently wrapped (unless NarrowTruncate is chosen explicitly
// for the final write).
package accum
