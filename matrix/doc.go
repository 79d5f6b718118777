// Package matrix provides the dense, row-major operand type used by the
// blocked GEMM engine and the matrix-vector kernels.
//
// The matrix package provides:
//
//   - Dense[T], a generic row-major matrix over fixed-width integer and
//     floating-point element types, with safe accessors that return errors
//     instead of panicking.
//   - Element and Accum type sets describing which input types exist and
//     which wider types they are accumulated in.
//   - Validators shared by every kernel (nil, shape, multiply compatibility).
//   - Conversions from row slices, identity construction, transpose and
//     half-precision ingestion (float16 → float32).
//
// Operands passed to the kernels are never mutated; only the output matrix
// supplied by the caller is written.
//
// See the gemm and matvec packages for the kernels consuming Dense.
package matrix
