// Package gemm implements a blocked, streaming matrix multiplication engine
// that reproduces the dataflow of a systolic GEMM array on the CPU.
//
// The engine is a linear pipeline with no feedback:
//
//	Feeder ──(A-tile, B-tile) per k-step──▶ StreamingMatMul ──block──▶ ResultDrain
//
//   - Feeder splits A (M×K) and B (K×N) into TM×TK and TK×TN tiles, zero-padding
//     boundary tiles when a dimension is not a multiple of its tile size.
//   - StreamingMatMul accumulates A_tile·B_tile for every k-step of one output
//     block into an AccumulatorBlock held in accumulation precision.
//   - ResultDrain narrows a finished block back to the element type and writes
//     it to C in one step, so a block is never partially visible.
//
// Distinct output blocks write disjoint regions of C, so MatMul can run them
// on several workers without locking. A and B are read-only and shared.
//
// The skewed shift-register feed of the hardware array is a latency-hiding
// device with no software counterpart; a blocked triple loop is the whole
// algorithm here, and there is no lower bound on K relative to TM+TN.
package gemm
