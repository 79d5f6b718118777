// Package blockgemm is a CPU rendition of a systolic-array matrix multiply:
// the blocked, streaming GEMM of a hardware BLAS kernel expressed as plain,
// deterministic, optionally parallel Go.
//
// What is inside?
//
//	A (M×K) is cut into TM×TK tiles, B (K×N) into TK×TN tiles. For every
//	output block (bm, bn) the tile pairs of all k-steps are streamed into a
//	wide accumulator block, which is drained into C exactly once:
//
//		Feeder ──(A-tile, B-tile)──▶ StreamingMatMul ──block──▶ ResultDrain ──▶ C
//
//	  - Zero padding: dimensions need not be multiples of the tile sizes.
//	  - Widening: integers accumulate in int64 (overflow reported), floats
//	    in float64; narrowing back is an explicit policy.
//	  - Determinism: every cell sums k = 0..K-1 in order, so C is
//	    bit-identical for any tiling and any worker count.
//	  - Ping-pong: each worker accumulates into one buffer while draining
//	    the other.
//
// Subpackages:
//
//	matrix/        - generic row-major Dense[T], validators, float16 ingestion
//	accum/         - multiply-accumulate and narrowing policies
//	gemm/          - Feeder, StreamingMatMul, ResultDrain, MatMul engine
//	matvec/        - banded (Gbmv) and triangular (Trmv) matrix-vector products
//	cmd/gemmbench/ - CLI: run, verify and time a blocked product
//	examples/      - runnable scenarios
//
// Quick start:
//
//	c, _ := matrix.NewDense[float32](m, n)
//	err := gemm.MatMul(ctx, a, b, c, gemm.WithTiles(32, 64, 32), gemm.WithWorkers(4))
//
//	go get github.com/katalvlaran/blockgemm
package blockgemm
