package gemm_test

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/katalvlaran/blockgemm/gemm"
)

func TestDetectCPU(t *testing.T) {
	p := gemm.DetectCPU()
	assert.Equal(t, runtime.GOARCH, p.Arch)
	assert.Contains(t, []int{128, 256, 512}, p.VectorBits)
	assert.Positive(t, p.CacheLine)
}

func TestDefaultTiles(t *testing.T) {
	tl := gemm.DefaultTiles()
	assert.NoError(t, tl.Validate())
	assert.Equal(t, 32, tl.M)
	assert.Equal(t, 64, tl.K)
	assert.GreaterOrEqual(t, tl.N, 16)
	assert.LessOrEqual(t, tl.N, 64)

	o := gemm.NewOptions()
	assert.Equal(t, tl, o.Tiles())
	assert.Equal(t, gemm.DefaultWorkers, o.Workers())
	assert.Equal(t, gemm.DefaultNarrowPolicy, o.Narrow())
	_, forced := o.Policy()
	assert.False(t, forced)
}

func TestOptionsLastWriterWins(t *testing.T) {
	o := gemm.NewOptions(
		gemm.WithTiles(1, 2, 3), gemm.WithTiles(4, 5, 6),
		gemm.WithWorkers(2), gemm.WithMaxWorkers(),
		gemm.WithAccumPolicy(gemm.WidenInt),
		gemm.WithNarrowPolicy(gemm.NarrowSaturate),
	)
	assert.Equal(t, gemm.Tiles{M: 4, K: 5, N: 6}, o.Tiles())
	assert.Equal(t, "4x5x6", o.Tiles().String())
	assert.Equal(t, runtime.GOMAXPROCS(0), o.Workers())
	p, forced := o.Policy()
	assert.True(t, forced)
	assert.Equal(t, gemm.WidenInt, p)
	assert.Equal(t, gemm.NarrowSaturate, o.Narrow())
}
