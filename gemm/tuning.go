// SPDX-License-Identifier: MIT

// Package gemm: default tile sizes from the host CPU.
// The widest available vector unit decides the output block width so that a
// row of the accumulator block spans a whole number of vector registers of
// float64; the contracting depth is sized so an A tile row stays within a
// few cache lines.
package gemm

import (
	"runtime"
	"unsafe"

	"golang.org/x/sys/cpu"
)

// Tile size bounds applied to detected defaults.
const (
	defaultTileM = 32
	defaultTileK = 64
	minTileN     = 16
	maxTileN     = 64
)

// CPUProfile summarizes the host features used for tuning.
type CPUProfile struct {
	Arch       string
	VectorBits int      // widest usable SIMD register
	CacheLine  int      // bytes
	Features   []string // detected feature names, in detection order
}

// DetectCPU reads the host feature bits.
func DetectCPU() CPUProfile {
	p := CPUProfile{
		Arch:       runtime.GOARCH,
		VectorBits: 128, // SSE2 / ASIMD baseline
		CacheLine:  int(unsafe.Sizeof(cpu.CacheLinePad{})),
	}
	switch runtime.GOARCH {
	case "amd64", "386":
		if cpu.X86.HasAVX2 {
			p.VectorBits = 256
			p.Features = append(p.Features, "avx2")
		}
		if cpu.X86.HasFMA {
			p.Features = append(p.Features, "fma")
		}
		if cpu.X86.HasAVX512F {
			p.VectorBits = 512
			p.Features = append(p.Features, "avx512f")
		}
	case "arm64":
		if cpu.ARM64.HasASIMD {
			p.Features = append(p.Features, "asimd")
		}
		if cpu.ARM64.HasSVE {
			p.Features = append(p.Features, "sve")
		}
	}

	return p
}

// DefaultTiles returns tile sizes tuned for the host: TN covers eight float64
// vectors, clamped to [16, 64]; TM and TK are fixed.
func DefaultTiles() Tiles {
	p := DetectCPU()
	n := p.VectorBits / 64 * 8
	n = max(minTileN, min(maxTileN, n))

	return Tiles{M: defaultTileM, K: defaultTileK, N: n}
}
