// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"k8s.io/klog/v2"

	"github.com/katalvlaran/blockgemm/accum"
	"github.com/katalvlaran/blockgemm/gemm"
	"github.com/katalvlaran/blockgemm/matrix"
)

// Verification modes.
const (
	verifyNaive = "naive"
	verifyGonum = "gonum"
	verifyNone  = "none"
)

var (
	supportedTypes  = []string{"float32", "float64", "int8", "int16", "int32", "int64"}
	supportedVerify = []string{verifyNaive, verifyGonum, verifyNone}

	errVerify = errors.New("verification failed")
)

// runConfig holds the parsed flags of the run subcommand.
type runConfig struct {
	m, k, n  int
	tiles    string
	workers  int
	elemType string
	seed     uint64
	verify   string
	narrow   string

	narrowSet bool // --narrow given explicitly
}

func newRunCmd() *cobra.Command {
	cfg := runConfig{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Multiply two random matrices and verify the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg.narrowSet = cmd.Flags().Changed("narrow")
			return cfg.run(cmd.Context(), cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.IntVar(&cfg.m, "m", 256, "rows of A and C")
	f.IntVar(&cfg.k, "k", 256, "cols of A, rows of B")
	f.IntVar(&cfg.n, "n", 256, "cols of B and C")
	f.StringVar(&cfg.tiles, "tiles", "", "tile sizes TM,TK,TN (default: tuned for the host)")
	f.IntVar(&cfg.workers, "workers", gemm.DefaultWorkers, "workers computing output blocks")
	f.StringVar(&cfg.elemType, "type", "float32", "element type: "+strings.Join(supportedTypes, "|"))
	f.Uint64Var(&cfg.seed, "seed", 1, "random seed for the operands")
	f.StringVar(&cfg.verify, "verify", verifyNaive, "verification: "+strings.Join(supportedVerify, "|"))
	f.StringVar(&cfg.narrow, "narrow", accum.NarrowError.String(),
		"narrowing policy: error|saturate|truncate (integer types default to saturate)")

	return cmd
}

// options validates the flags and turns them into gemm options.
func (c runConfig) options() ([]gemm.Option, gemm.NarrowPolicy, error) {
	if !lo.Contains(supportedTypes, c.elemType) {
		return nil, 0, fmt.Errorf("--type %q: want one of %v", c.elemType, supportedTypes)
	}
	if !lo.Contains(supportedVerify, c.verify) {
		return nil, 0, fmt.Errorf("--verify %q: want one of %v", c.verify, supportedVerify)
	}
	label := c.narrow
	if !c.narrowSet && !strings.HasPrefix(c.elemType, "float") {
		label = accum.NarrowSaturate.String()
	}
	narrow, err := accum.ParseNarrowPolicy(label)
	if err != nil {
		return nil, 0, fmt.Errorf("--narrow: %w", err)
	}
	opts := []gemm.Option{gemm.WithWorkers(c.workers), gemm.WithNarrowPolicy(narrow), gemm.WithLogger(klog.Background())}
	if c.tiles != "" {
		t, err := parseTiles(c.tiles)
		if err != nil {
			return nil, 0, err
		}
		opts = append(opts, gemm.WithTiles(t.M, t.K, t.N))
	}

	return opts, narrow, nil
}

func (c runConfig) run(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	opts, narrow, err := c.options()
	if err != nil {
		return err
	}
	switch c.elemType {
	case "float32":
		return bench[float32](ctx, out, c, opts, narrow)
	case "float64":
		return bench[float64](ctx, out, c, opts, narrow)
	case "int8":
		return bench[int8](ctx, out, c, opts, narrow)
	case "int16":
		return bench[int16](ctx, out, c, opts, narrow)
	case "int32":
		return bench[int32](ctx, out, c, opts, narrow)
	default:
		return bench[int64](ctx, out, c, opts, narrow)
	}
}

// parseTiles parses "TM,TK,TN".
func parseTiles(s string) (gemm.Tiles, error) {
	parts := lo.Map(strings.Split(s, ","), func(p string, _ int) string { return strings.TrimSpace(p) })
	if len(parts) != 3 {
		return gemm.Tiles{}, fmt.Errorf("--tiles %q: want TM,TK,TN", s)
	}
	var vals [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return gemm.Tiles{}, fmt.Errorf("--tiles %q: %w", s, err)
		}
		vals[i] = v
	}
	t := gemm.Tiles{M: vals[0], K: vals[1], N: vals[2]}

	return t, t.Validate()
}

// bench multiplies random operands of type T, prints the run summary and
// verifies the product.
func bench[T matrix.Element](ctx context.Context, out io.Writer, cfg runConfig, opts []gemm.Option, narrow gemm.NarrowPolicy) error {
	rng := rand.New(rand.NewPCG(cfg.seed, cfg.seed^0x9e3779b97f4a7c15))
	a, err := randomDense[T](rng, cfg.m, cfg.k, cfg.k)
	if err != nil {
		return err
	}
	b, err := randomDense[T](rng, cfg.k, cfg.n, cfg.k)
	if err != nil {
		return err
	}
	c, err := matrix.NewDense[T](cfg.m, cfg.n)
	if err != nil {
		return err
	}

	st, err := gemm.MatMulStats(ctx, a, b, c, opts...)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%dx%dx%d %s tiles=%s workers=%d policy=%s narrow=%s\n",
		st.M, st.K, st.N, cfg.elemType, st.Tiles, st.Workers, st.Policy, st.Narrow)
	fmt.Fprintf(out, "blocks=%d steps=%d padding=%d/%d/%d elapsed=%s gflops=%.3f\n",
		st.Blocks, st.Steps, st.PaddedRows, st.PaddedDepth, st.PaddedCols, st.Elapsed, gflops(st))

	switch cfg.verify {
	case verifyNone:
		return nil
	case verifyGonum:
		return verifyWithGonum(out, a, b, c)
	default:
		ref, err := matrix.NewDense[T](cfg.m, cfg.n)
		if err != nil {
			return err
		}
		if err = gemm.Reference(a, b, ref, accum.PolicyFor[T](), narrow); err != nil {
			return err
		}
		d := maxAbsDiff(c.Raw(), ref.Raw())
		fmt.Fprintf(out, "verify=naive max_abs_diff=%g\n", d)
		if !c.Equal(ref) {
			return fmt.Errorf("naive reference differs (max abs diff %g): %w", d, errVerify)
		}

		return nil
	}
}

// gflops returns the throughput of a run, or 0 when it took no measurable time.
func gflops(st gemm.Stats) float64 {
	if st.Elapsed <= 0 {
		return 0
	}

	return st.FLOPs() / st.Elapsed.Seconds() / 1e9
}

// intSpan returns the largest s <= 8 such that a length-k dot product of
// values in [-s, s] fits T, and at least 1.
func intSpan[T matrix.Element](k int) int {
	limit := int64(math.MaxInt64 >> (64 - matrix.BitSize[T]()))
	s := int64(math.Sqrt(float64(limit / int64(max(k, 1)))))
	for s > 0 && s*s*int64(k) > limit {
		s--
	}

	return int(max(1, min(8, s)))
}

// randomDense draws floats from [-1, 1) and integers from [-s, s], where s
// is intSpan for contraction depth k.
func randomDense[T matrix.Element](rng *rand.Rand, r, c, k int) (*matrix.Dense[T], error) {
	m, err := matrix.NewDense[T](r, c)
	if err != nil {
		return nil, fmt.Errorf("%dx%d: %w", r, c, err)
	}
	data := m.Raw()
	isFloat := matrix.KindOf[T]() == matrix.KindFloat
	span := intSpan[T](k)
	for i := range data {
		if isFloat {
			data[i] = T(rng.Float64()*2 - 1)
		} else {
			data[i] = T(rng.IntN(2*span+1) - span)
		}
	}

	return m, nil
}

// verifyWithGonum checks a float product against gonum's Dgemm within a
// relative tolerance (Dgemm may use a different summation order).
func verifyWithGonum[T matrix.Element](out io.Writer, a, b, c *matrix.Dense[T]) error {
	if matrix.KindOf[T]() != matrix.KindFloat {
		return fmt.Errorf("--verify=gonum needs a float type")
	}
	m, k, n := a.Rows(), a.Cols(), b.Cols()
	want := blas64.General{Rows: m, Cols: n, Stride: n, Data: make([]float64, m*n)}
	blas64.Gemm(blas.NoTrans, blas.NoTrans, 1,
		blas64.General{Rows: m, Cols: k, Stride: k, Data: toFloat64(a.Raw())},
		blas64.General{Rows: k, Cols: n, Stride: n, Data: toFloat64(b.Raw())},
		0, want)

	tol := 1e-9
	if matrix.BitSize[T]() == 32 {
		tol = 1e-5
	}
	got := toFloat64(c.Raw())
	d := maxAbsDiff(got, want.Data)
	fmt.Fprintf(out, "verify=gonum max_abs_diff=%g\n", d)
	if d > tol*float64(k) {
		return fmt.Errorf("gonum Dgemm differs (max abs diff %g): %w", d, errVerify)
	}

	return nil
}

func toFloat64[T matrix.Element](s []T) []float64 {
	return lo.Map(s, func(v T, _ int) float64 { return float64(v) })
}

func maxAbsDiff[T matrix.Element](x, y []T) float64 {
	d := 0.0
	for i := range x {
		d = math.Max(d, math.Abs(float64(x[i])-float64(y[i])))
	}

	return d
}
