// SPDX-License-Identifier: MIT

// Package gemm - BlockFeeder.
//
// Purpose:
//   - Decompose A (M×K) and B (K×N) into TM×TK and TK×TN tiles.
//   - Fix the traversal order: output blocks row-major over (bm, bn); within a
//     block, k-steps ascending, each yielding one (A-tile, B-tile) pair.
//   - Zero-pad boundary tiles instead of rejecting non-multiple dimensions.
//
// The feeder is a pure view over the caller's matrices: it never writes to A
// or B, and every sequence it hands out is lazy, finite and restartable.

package gemm

import (
	"fmt"
	"iter"

	"github.com/katalvlaran/blockgemm/matrix"
)

// Feeder produces operand tiles for the blocked product A·B.
// A Feeder is immutable after construction and safe for concurrent use; the
// tiles it fills belong to the caller.
type Feeder[T matrix.Element] struct {
	a, b    *matrix.Dense[T]
	m, k, n int
	tiles   Tiles

	blocksM, blocksN, steps int
}

// NewFeeder validates the operands and tile sizes and builds the tile grid.
//
// Implementation:
//   - Stage 1: ValidateMulCompatible(a, b) → ErrNilMatrix / ErrDimensionMismatch.
//   - Stage 2: tiles.Validate() → ErrInvalidTileSize.
//   - Stage 3: grid = ceil(M/TM) × ceil(N/TN) blocks, ceil(K/TK) k-steps.
//
// Complexity:
//   - Time O(1), Space O(1); no operand data is touched.
func NewFeeder[T matrix.Element](a, b *matrix.Dense[T], tiles Tiles) (*Feeder[T], error) {
	if err := matrix.ValidateMulCompatible(a, b); err != nil {
		return nil, gemmErrorf(opFeeder, err)
	}
	if err := tiles.Validate(); err != nil {
		return nil, gemmErrorf(opFeeder, err)
	}
	m, k, n := a.Rows(), a.Cols(), b.Cols()

	return &Feeder[T]{
		a: a, b: b,
		m: m, k: k, n: n,
		tiles:   tiles,
		blocksM: ceilDiv(m, tiles.M),
		blocksN: ceilDiv(n, tiles.N),
		steps:   ceilDiv(k, tiles.K),
	}, nil
}

// Dims returns M, K and N of the product.
func (f *Feeder[T]) Dims() (m, k, n int) { return f.m, f.k, f.n }

// Tiles returns the tile dimensions.
func (f *Feeder[T]) Tiles() Tiles { return f.tiles }

// Grid returns the number of output blocks along M and N and the number of
// k-steps per block.
func (f *Feeder[T]) Grid() (blocksM, blocksN, steps int) {
	return f.blocksM, f.blocksN, f.steps
}

// NewTileA allocates a buffer shaped for A tiles.
func (f *Feeder[T]) NewTileA() *Tile[T] { return NewTile[T](f.tiles.M, f.tiles.K) }

// NewTileB allocates a buffer shaped for B tiles.
func (f *Feeder[T]) NewTileB() *Tile[T] { return NewTile[T](f.tiles.K, f.tiles.N) }

// TileA fills dst with the A tile of block row bm at k-step ks.
// Errors: ErrBlockOutOfRange, ErrDimensionMismatch (dst shape).
// Complexity: O(TM*TK).
func (f *Feeder[T]) TileA(bm, ks int, dst *Tile[T]) error {
	if bm < 0 || bm >= f.blocksM || ks < 0 || ks >= f.steps {
		return gemmErrorf(opTileA, fmt.Errorf("(%d,%d): %w", bm, ks, ErrBlockOutOfRange))
	}
	if dst == nil || dst.Rows != f.tiles.M || dst.Cols != f.tiles.K {
		return gemmErrorf(opTileA, ErrDimensionMismatch)
	}
	dst.load(f.a.Raw(), f.m, f.k, bm*f.tiles.M, ks*f.tiles.K)

	return nil
}

// TileB fills dst with the B tile of k-step ks and block column bn.
// Errors: ErrBlockOutOfRange, ErrDimensionMismatch (dst shape).
// Complexity: O(TK*TN).
func (f *Feeder[T]) TileB(ks, bn int, dst *Tile[T]) error {
	if bn < 0 || bn >= f.blocksN || ks < 0 || ks >= f.steps {
		return gemmErrorf(opTileB, fmt.Errorf("(%d,%d): %w", ks, bn, ErrBlockOutOfRange))
	}
	if dst == nil || dst.Rows != f.tiles.K || dst.Cols != f.tiles.N {
		return gemmErrorf(opTileB, ErrDimensionMismatch)
	}
	dst.load(f.b.Raw(), f.k, f.n, ks*f.tiles.K, bn*f.tiles.N)

	return nil
}

// Blocks yields every output block (bm, bn) in row-major order.
func (f *Feeder[T]) Blocks() iter.Seq2[int, int] {
	return func(yield func(int, int) bool) {
		for bm := 0; bm < f.blocksM; bm++ {
			for bn := 0; bn < f.blocksN; bn++ {
				if !yield(bm, bn) {
					return
				}
			}
		}
	}
}

// Pairs yields the (A-tile, B-tile) pair of every k-step of block (bm, bn).
// The two tiles are reused between iterations: copy them if they must
// outlive the step. Out-of-range blocks yield nothing.
func (f *Feeder[T]) Pairs(bm, bn int) iter.Seq2[*Tile[T], *Tile[T]] {
	return func(yield func(*Tile[T], *Tile[T]) bool) {
		s, err := f.Stream(bm, bn)
		if err != nil {
			return
		}
		for s.Next() {
			if !yield(s.TileA(), s.TileB()) {
				return
			}
		}
	}
}

// Stream returns a restartable cursor over the k-steps of block (bm, bn).
// Errors: ErrBlockOutOfRange.
func (f *Feeder[T]) Stream(bm, bn int) (*Stream[T], error) {
	if bm < 0 || bm >= f.blocksM || bn < 0 || bn >= f.blocksN {
		return nil, gemmErrorf(opStream, fmt.Errorf("(%d,%d): %w", bm, bn, ErrBlockOutOfRange))
	}
	s := &Stream[T]{f: f, ta: f.NewTileA(), tb: f.NewTileB()}
	s.Retarget(bm, bn)

	return s, nil
}

// Stream walks the k-steps of one output block.
//
//	s, _ := f.Stream(bm, bn)
//	for s.Next() {
//		use(s.TileA(), s.TileB())
//	}
//
// A Stream owns its two tile buffers and is not safe for concurrent use.
type Stream[T matrix.Element] struct {
	f      *Feeder[T]
	bm, bn int
	step   int // index of the step loaded by the last Next, -1 before the first
	ta, tb *Tile[T]
}

// Retarget points the stream at block (bm, bn) and rewinds it, reusing the
// tile buffers. Indices are trusted: the engine only passes grid blocks.
func (s *Stream[T]) Retarget(bm, bn int) {
	s.bm, s.bn = bm, bn
	s.Reset()
}

// Reset rewinds the stream to before the first k-step.
func (s *Stream[T]) Reset() { s.step = -1 }

// Next loads the next (A-tile, B-tile) pair and reports whether one exists.
func (s *Stream[T]) Next() bool {
	if s.step+1 >= s.f.steps {
		return false
	}
	s.step++
	ks := s.step
	tm, tk, tn := s.f.tiles.M, s.f.tiles.K, s.f.tiles.N
	s.ta.load(s.f.a.Raw(), s.f.m, s.f.k, s.bm*tm, ks*tk)
	s.tb.load(s.f.b.Raw(), s.f.k, s.f.n, ks*tk, s.bn*tn)

	return true
}

// Step returns the index of the current k-step (-1 before the first Next).
func (s *Stream[T]) Step() int { return s.step }

// Block returns the output block the stream walks.
func (s *Stream[T]) Block() (bm, bn int) { return s.bm, s.bn }

// TileA returns the A tile of the current step.
func (s *Stream[T]) TileA() *Tile[T] { return s.ta }

// TileB returns the B tile of the current step.
func (s *Stream[T]) TileB() *Tile[T] { return s.tb }

func ceilDiv(a, b int) int { return (a + b - 1) / b }
