package gemm_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-logr/logr/funcr"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/katalvlaran/blockgemm/accum"
	"github.com/katalvlaran/blockgemm/gemm"
	"github.com/katalvlaran/blockgemm/matrix"
)

// MatMulSuite exercises MatMul end to end under the documented scenarios.
type MatMulSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *MatMulSuite) SetupTest() { s.ctx = context.Background() }

// TestTwoByTwo checks [[1,2],[3,4]]·[[5,6],[7,8]] = [[19,22],[43,50]].
func (s *MatMulSuite) TestTwoByTwo() {
	want := [][]float64{{19, 22}, {43, 50}}
	for _, tiles := range []gemm.Tiles{{M: 1, K: 1, N: 1}, {M: 2, K: 2, N: 2}, {M: 3, K: 5, N: 4}} {
		a := mustRows(s.T(), [][]float64{{1, 2}, {3, 4}})
		b := mustRows(s.T(), [][]float64{{5, 6}, {7, 8}})
		c := mustDense[float64](s.T(), 2, 2)
		require.NoError(s.T(), gemm.MatMulTiled(s.ctx, a, b, c, tiles.M, tiles.K, tiles.N, gemm.WidenFloatToDouble))
		require.True(s.T(), c.Equal(mustRows(s.T(), want)), "tiles %s:\n%s", tiles, c)
	}

	ai := mustRows(s.T(), [][]int8{{1, 2}, {3, 4}})
	bi := mustRows(s.T(), [][]int8{{5, 6}, {7, 8}})
	ci := mustDense[int8](s.T(), 2, 2)
	require.NoError(s.T(), gemm.MatMulTiled(s.ctx, ai, bi, ci, 2, 1, 2, gemm.WidenInt))
	require.Equal(s.T(), []int8{19, 22, 43, 50}, ci.Raw())
}

// TestIdentity checks I·B = B exactly.
func (s *MatMulSuite) TestIdentity() {
	id, err := matrix.Identity[float32](3)
	require.NoError(s.T(), err)
	b := mustRows(s.T(), [][]float32{{1.5, -2, 3.25}, {0, 7, -0.125}, {1e-3, 42, 9}})
	c := mustDense[float32](s.T(), 3, 3)
	require.NoError(s.T(), gemm.MatMul(s.ctx, id, b, c, gemm.WithTiles(2, 2, 2)))
	require.True(s.T(), c.Equal(b), "\n%s", c)
}

// TestOnes checks ones(4×5)·ones(5×3) = 5 everywhere.
func (s *MatMulSuite) TestOnes() {
	a := filled[int32](s.T(), 4, 5, 1)
	b := filled[int32](s.T(), 5, 3, 1)
	c := mustDense[int32](s.T(), 4, 3)
	require.NoError(s.T(), gemm.MatMul(s.ctx, a, b, c, gemm.WithTiles(3, 2, 2)))
	for _, v := range c.Raw() {
		require.Equal(s.T(), int32(5), v)
	}
}

// TestSingleContraction checks K=1, the case a systolic array refuses.
func (s *MatMulSuite) TestSingleContraction() {
	a := mustRows(s.T(), [][]float64{{2}, {-3}, {4}})
	b := mustRows(s.T(), [][]float64{{1, 10, 100, 1000}})
	c := mustDense[float64](s.T(), 3, 4)
	require.NoError(s.T(), gemm.MatMul(s.ctx, a, b, c, gemm.WithTiles(8, 8, 8)))
	require.Equal(s.T(), []float64{2, 20, 200, 2000, -3, -30, -300, -3000, 4, 40, 400, 4000}, c.Raw())
}

// TestParallelMatchesSequential checks bit-identical output for any worker count.
func (s *MatMulSuite) TestParallelMatchesSequential() {
	a := randFloat[float32](s.T(), 97, 61, 1)
	b := randFloat[float32](s.T(), 61, 83, 2)
	seq := mustDense[float32](s.T(), 97, 83)
	require.NoError(s.T(), gemm.MatMul(s.ctx, a, b, seq, gemm.WithTiles(16, 8, 16)))
	for _, workers := range []int{2, 3, 8, 64} {
		par := mustDense[float32](s.T(), 97, 83)
		st, err := gemm.MatMulStats(s.ctx, a, b, par, gemm.WithTiles(16, 8, 16), gemm.WithWorkers(workers))
		require.NoError(s.T(), err)
		require.True(s.T(), par.Equal(seq), "workers=%d", workers)
		require.Equal(s.T(), st.BlocksM*st.BlocksN, st.Blocks)
		require.Equal(s.T(), st.Blocks*st.StepsPerBlock, st.Steps)
	}
}

// TestCancelledBeforeStart leaves C untouched.
func (s *MatMulSuite) TestCancelledBeforeStart() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	a := filled[float64](s.T(), 8, 8, 1)
	b := filled[float64](s.T(), 8, 8, 1)
	for _, workers := range []int{1, 4} {
		c := mustDense[float64](s.T(), 8, 8)
		st, err := gemm.MatMulStats(ctx, a, b, c, gemm.WithTiles(2, 2, 2), gemm.WithWorkers(workers))
		require.ErrorIs(s.T(), err, context.Canceled)
		require.Zero(s.T(), st.Blocks)
		for _, v := range c.Raw() {
			require.Zero(s.T(), v)
		}
	}
}

func TestMatMulSuite(t *testing.T) {
	suite.Run(t, new(MatMulSuite))
}

// TestMatMulMatchesReference covers dividing and non-dividing tile sizes
// for every element type.
func TestMatMulMatchesReference(t *testing.T) {
	shapes := []struct{ m, k, n int }{{1, 1, 1}, {4, 5, 3}, {33, 17, 29}, {64, 64, 64}, {70, 3, 5}}
	tiles := []gemm.Tiles{{M: 1, K: 1, N: 1}, {M: 4, K: 4, N: 4}, {M: 7, K: 5, N: 3}, {M: 32, K: 64, N: 16}, {M: 100, K: 100, N: 100}}
	for _, sh := range shapes {
		for _, tl := range tiles {
			name := fmt.Sprintf("%dx%dx%d/%s", sh.m, sh.k, sh.n, tl)
			t.Run(name+"/float64", func(t *testing.T) {
				checkAgainstReference(t, randFloat[float64](t, sh.m, sh.k, 11), randFloat[float64](t, sh.k, sh.n, 12), tl)
			})
			t.Run(name+"/float32", func(t *testing.T) {
				checkAgainstReference(t, randFloat[float32](t, sh.m, sh.k, 21), randFloat[float32](t, sh.k, sh.n, 22), tl)
			})
			t.Run(name+"/int16", func(t *testing.T) {
				checkAgainstReference(t, randInt[int16](t, sh.m, sh.k, 40, 31), randInt[int16](t, sh.k, sh.n, 40, 32), tl)
			})
			t.Run(name+"/int64", func(t *testing.T) {
				checkAgainstReference(t, randInt[int64](t, sh.m, sh.k, 1<<20, 41), randInt[int64](t, sh.k, sh.n, 1<<20, 42), tl)
			})
		}
	}
}

func checkAgainstReference[T matrix.Element](t *testing.T, a, b *matrix.Dense[T], tl gemm.Tiles) {
	t.Helper()
	want := reference(t, a, b)
	got := mustDense[T](t, a.Rows(), b.Cols())
	require.NoError(t, gemm.MatMul(context.Background(), a, b, got, gemm.WithTiles(tl.M, tl.K, tl.N)))
	require.True(t, got.Equal(want), "blocked result differs from reference")

	// Determinism: a second run into a fresh buffer is bit-identical.
	again := mustDense[T](t, a.Rows(), b.Cols())
	require.NoError(t, gemm.MatMul(context.Background(), a, b, again, gemm.WithTiles(tl.M, tl.K, tl.N), gemm.WithWorkers(3)))
	require.True(t, again.Equal(got))
}

func TestMatMulDoesNotMutateInputs(t *testing.T) {
	a := randFloat[float64](t, 9, 7, 5)
	b := randFloat[float64](t, 7, 11, 6)
	a0, b0 := a.Clone(), b.Clone()
	c := mustDense[float64](t, 9, 11)
	require.NoError(t, gemm.MatMul(context.Background(), a, b, c, gemm.WithTiles(4, 3, 4), gemm.WithWorkers(2)))
	require.True(t, a.Equal(a0))
	require.True(t, b.Equal(b0))
}

func TestMatMulPreconditions(t *testing.T) {
	ctx := context.Background()
	a := filled[float64](t, 2, 3, 1)
	b := filled[float64](t, 3, 4, 1)
	c := mustDense[float64](t, 2, 4)

	cases := []struct {
		name    string
		run     func() error
		wantErr error
	}{
		{"nil A", func() error { return gemm.MatMul(ctx, nil, b, c) }, gemm.ErrNilMatrix},
		{"nil C", func() error { return gemm.MatMul(ctx, a, b, nil) }, gemm.ErrNilMatrix},
		{"A.cols != B.rows", func() error { return gemm.MatMul(ctx, a, filled[float64](t, 4, 4, 1), c) }, gemm.ErrDimensionMismatch},
		{"C rows", func() error { return gemm.MatMul(ctx, a, b, mustDense[float64](t, 3, 4)) }, gemm.ErrDimensionMismatch},
		{"C cols", func() error { return gemm.MatMul(ctx, a, b, mustDense[float64](t, 2, 5)) }, gemm.ErrDimensionMismatch},
		{"aliased", func() error {
			sq := filled[float64](t, 3, 3, 1)
			return gemm.MatMul(ctx, sq, sq, sq)
		}, gemm.ErrAliasedOutput},
		{"zero tile", func() error { return gemm.MatMulTiled(ctx, a, b, c, 0, 1, 1, gemm.WidenFloatToDouble) }, gemm.ErrInvalidTileSize},
		{"negative tile", func() error { return gemm.MatMulTiled(ctx, a, b, c, 1, -2, 1, gemm.WidenFloatToDouble) }, gemm.ErrInvalidTileSize},
		{"workers", func() error { return gemm.MatMul(ctx, a, b, c, gemm.WithWorkers(0)) }, gemm.ErrInvalidWorkers},
		{"narrow policy", func() error { return gemm.MatMul(ctx, a, b, c, gemm.WithNarrowPolicy(gemm.NarrowPolicy(9))) }, accum.ErrInvalidPolicy},
		{"int policy on floats", func() error { return gemm.MatMulTiled(ctx, a, b, c, 2, 2, 2, gemm.WidenInt) }, gemm.ErrPolicyMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, tc.run(), tc.wantErr)
			for _, v := range c.Raw() {
				require.Zero(t, v, "C must stay untouched")
			}
		})
	}

	// Dimension errors take priority over tile errors.
	err := gemm.MatMulTiled(ctx, a, filled[float64](t, 4, 4, 1), c, 0, 0, 0, gemm.WidenFloatToDouble)
	require.ErrorIs(t, err, gemm.ErrDimensionMismatch)
	require.NotErrorIs(t, err, gemm.ErrInvalidTileSize)

	ai := filled[int32](t, 2, 2, 1)
	ci := mustDense[int32](t, 2, 2)
	require.ErrorIs(t, gemm.MatMulTiled(ctx, ai, ai.Clone(), ci, 1, 1, 1, gemm.WidenFloatToDouble), gemm.ErrPolicyMismatch)
}

func TestMatMulAccumulationOverflow(t *testing.T) {
	a := mustRows(t, [][]int64{{math.MaxInt64 / 2, math.MaxInt64 / 2}})
	b := mustRows(t, [][]int64{{1}, {2}})
	c := mustDense[int64](t, 1, 1)
	err := gemm.MatMul(context.Background(), a, b, c, gemm.WithTiles(1, 1, 1))
	require.ErrorIs(t, err, gemm.ErrNumericOverflow)

	var oe *accum.OverflowError
	require.True(t, errors.As(err, &oe))
	require.Equal(t, accum.StageAccumulate, oe.Stage)
	require.Equal(t, 0, oe.Row)
	require.Equal(t, 0, oe.Col)
	require.Zero(t, c.Raw()[0])

	// The product itself overflowing is caught as well.
	big := mustRows(t, [][]int64{{math.MaxInt64}})
	require.ErrorIs(t, gemm.MatMul(context.Background(), big, mustRows(t, [][]int64{{2}}), c), gemm.ErrNumericOverflow)
}

func TestMatMulNarrowPolicies(t *testing.T) {
	ctx := context.Background()
	// 100*2 = 200 does not fit int8.
	a := mustRows(t, [][]int8{{100, 1}})
	b := mustRows(t, [][]int8{{2, 1}, {0, 1}})

	c := mustDense[int8](t, 1, 2)
	err := gemm.MatMul(ctx, a, b, c, gemm.WithTiles(1, 2, 2))
	require.ErrorIs(t, err, gemm.ErrNumericOverflow)
	var oe *accum.OverflowError
	require.ErrorAs(t, err, &oe)
	require.Equal(t, accum.StageNarrow, oe.Stage)
	require.Equal(t, []int8{0, 0}, c.Raw(), "block must not be partially written")

	require.NoError(t, gemm.MatMul(ctx, a, b, c, gemm.WithTiles(1, 2, 2), gemm.WithNarrowPolicy(gemm.NarrowSaturate)))
	require.Equal(t, []int8{127, 101}, c.Raw())

	require.NoError(t, gemm.MatMul(ctx, a, b, c, gemm.WithTiles(1, 2, 2), gemm.WithNarrowPolicy(gemm.NarrowTruncate)))
	require.Equal(t, []int8{-56, 101}, c.Raw())

	// float32 results beyond MaxFloat32 follow the same policies.
	fa := mustRows(t, [][]float32{{3e38, 3e38}})
	fb := mustRows(t, [][]float32{{1}, {1}})
	fc := mustDense[float32](t, 1, 1)
	require.ErrorIs(t, gemm.MatMul(ctx, fa, fb, fc), gemm.ErrNumericOverflow)
	require.NoError(t, gemm.MatMul(ctx, fa, fb, fc, gemm.WithNarrowPolicy(gemm.NarrowSaturate)))
	require.Equal(t, float32(math.MaxFloat32), fc.Raw()[0])
	require.NoError(t, gemm.MatMul(ctx, fa, fb, fc, gemm.WithNarrowPolicy(gemm.NarrowTruncate)))
	require.True(t, math.IsInf(float64(fc.Raw()[0]), 1))
}

func TestMatMulWidensFloat32(t *testing.T) {
	// Each 2^-24 term is lost when added to 1 in float32; float64 accumulation
	// keeps all of them until the final narrowing.
	k := 1 << 12
	a := filled[float32](t, 1, k, 1)
	b := filled[float32](t, k, 1, 1.0/(1<<24))
	b.Raw()[0] = 1
	c := mustDense[float32](t, 1, 1)
	require.NoError(t, gemm.MatMul(context.Background(), a, b, c, gemm.WithTiles(1, 64, 1)))
	want := float32(1 + float64(k-1)/(1<<24))
	require.Equal(t, want, c.Raw()[0])
}

func TestMatMulStatsPadding(t *testing.T) {
	a := filled[float64](t, 10, 7, 1)
	b := filled[float64](t, 7, 5, 1)
	c := mustDense[float64](t, 10, 5)
	st, err := gemm.MatMulStats(context.Background(), a, b, c, gemm.WithTiles(4, 3, 2))
	require.NoError(t, err)
	require.Equal(t, 3, st.BlocksM)
	require.Equal(t, 3, st.BlocksN)
	require.Equal(t, 3, st.StepsPerBlock)
	require.Equal(t, 2, st.PaddedRows)
	require.Equal(t, 2, st.PaddedDepth)
	require.Equal(t, 1, st.PaddedCols)
	require.Equal(t, 9, st.Blocks)
	require.Equal(t, 27, st.Steps)
	require.Equal(t, 1, st.Workers)
	require.Equal(t, gemm.WidenFloatToDouble, st.Policy)
	require.InDelta(t, 700.0, st.FLOPs(), 0)
}

func TestMatMulHalfPrecisionInputs(t *testing.T) {
	a := mustRows(t, [][]float32{{0.5, -1.25}, {2, 4}})
	b := mustRows(t, [][]float32{{8, 0.25}, {1, -2}})
	ha, err := matrix.ToFloat16(a)
	require.NoError(t, err)
	hb, err := matrix.ToFloat16(b)
	require.NoError(t, err)

	a16, err := matrix.FromFloat16(2, 2, ha)
	require.NoError(t, err)
	b16, err := matrix.FromFloat16(2, 2, hb)
	require.NoError(t, err)
	c := mustDense[float32](t, 2, 2)
	require.NoError(t, gemm.MatMul(context.Background(), a16, b16, c, gemm.WithTiles(1, 1, 1)))
	require.Equal(t, []float32{2.75, 2.625, 20, -7.5}, c.Raw())
}

// blockStates classifies every tiles.M×tiles.N block of got against want:
// a block must be either identical to want or entirely zero.
func blockStates[T matrix.Element](t *testing.T, got, want *matrix.Dense[T], tm, tn int) (written []bool) {
	t.Helper()
	rows, cols := got.Shape()
	g, w := got.Raw(), want.Raw()
	for r0 := 0; r0 < rows; r0 += tm {
		for c0 := 0; c0 < cols; c0 += tn {
			full, zero := true, true
			for i := r0; i < min(r0+tm, rows); i++ {
				for j := c0; j < min(c0+tn, cols); j++ {
					full = full && g[i*cols+j] == w[i*cols+j]
					zero = zero && g[i*cols+j] == 0
				}
			}
			require.True(t, full || zero, "block at (%d,%d) partially written", r0, c0)
			written = append(written, full)
		}
	}

	return written
}

func TestMatMulParallelFailureLeavesWholeBlocks(t *testing.T) {
	// int16 ones everywhere except A[9][0] = B[0][9] = 200: C[9][9] = 40015
	// overflows int16, every other cell fits and is non-zero.
	a := filled[int16](t, 16, 16, 1)
	b := filled[int16](t, 16, 16, 1)
	require.NoError(t, a.Set(9, 0, 200))
	require.NoError(t, b.Set(0, 9, 200))
	want := mustDense[int16](t, 16, 16)
	require.NoError(t, gemm.Reference(a, b, want, gemm.WidenInt, gemm.NarrowSaturate))

	for trial := range 100 {
		c := mustDense[int16](t, 16, 16)
		st, err := gemm.MatMulStats(context.Background(), a, b, c, gemm.WithTiles(4, 4, 4), gemm.WithWorkers(4))
		require.ErrorIs(t, err, gemm.ErrNumericOverflow, "trial %d", trial)

		written := blockStates(t, c, want, 4, 4)
		require.False(t, written[2*4+2], "failing block must not be written")
		require.Equal(t, st.Blocks, countTrue(written))
	}
}

func TestMatMulCancelAfterBlocks(t *testing.T) {
	a := randFloat[float64](t, 24, 9, 1)
	b := randFloat[float64](t, 9, 20, 2)
	want := reference(t, a, b)
	const stopAfter = 5

	for _, workers := range []int{1, 3} {
		ctx, cancel := context.WithCancel(context.Background())
		var drained atomic.Int32
		logger := funcr.New(func(_, args string) {
			if strings.Contains(args, "block drained") && drained.Add(1) == stopAfter {
				cancel()
			}
		}, funcr.Options{Verbosity: 4})

		c := mustDense[float64](t, 24, 20)
		st, err := gemm.MatMulStats(ctx, a, b, c, gemm.WithTiles(4, 3, 4), gemm.WithWorkers(workers), gemm.WithLogger(logger))
		cancel()
		require.ErrorIs(t, err, context.Canceled, "workers=%d", workers)

		written := blockStates(t, c, want, 4, 4)
		require.Equal(t, st.Blocks, countTrue(written))
		require.GreaterOrEqual(t, st.Blocks, stopAfter)
		require.Less(t, st.Blocks, len(written))
		if workers == 1 {
			// Sequential: exactly the first blocks in row-major order.
			require.Equal(t, stopAfter, st.Blocks)
			for i, w := range written {
				require.Equal(t, i < stopAfter, w, "block %d", i)
			}
		}
	}
}

func countTrue(v []bool) int {
	n := 0
	for _, b := range v {
		if b {
			n++
		}
	}

	return n
}
