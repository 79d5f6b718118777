// SPDX-License-Identifier: MIT

// Package gemm: ping-pong accumulator arena.
// Two named blocks and an active index swapped atomically: a worker
// accumulates into Active, swaps, then drains Standby while the next block
// accumulates into the other buffer. The arena is owned by one worker; the
// atomic index only makes the active/standby flag safe to read from a
// monitoring goroutine.
package gemm

import (
	"sync/atomic"

	"github.com/katalvlaran/blockgemm/matrix"
)

// Names of the two arena buffers.
const (
	BufferPing = "ping"
	BufferPong = "pong"
)

// PingPong holds two accumulator blocks with an active/standby flag.
type PingPong[A matrix.Accum] struct {
	bufs   [2]*AccumulatorBlock[A]
	active atomic.Uint32 // index into bufs
	swaps  atomic.Uint64
}

// NewPingPong allocates two rows×cols accumulator blocks; ping starts active.
func NewPingPong[A matrix.Accum](rows, cols int) *PingPong[A] {
	return &PingPong[A]{bufs: [2]*AccumulatorBlock[A]{
		NewAccumulatorBlock[A](rows, cols),
		NewAccumulatorBlock[A](rows, cols),
	}}
}

// Active returns the block currently accumulating.
func (p *PingPong[A]) Active() *AccumulatorBlock[A] { return p.bufs[p.active.Load()] }

// Standby returns the block not currently accumulating.
func (p *PingPong[A]) Standby() *AccumulatorBlock[A] { return p.bufs[p.active.Load()^1] }

// ActiveName reports which buffer is active (BufferPing or BufferPong).
func (p *PingPong[A]) ActiveName() string {
	if p.active.Load() == 0 {
		return BufferPing
	}

	return BufferPong
}

// Swap exchanges the active and standby roles.
func (p *PingPong[A]) Swap() {
	for {
		cur := p.active.Load()
		if p.active.CompareAndSwap(cur, cur^1) {
			p.swaps.Add(1)
			return
		}
	}
}

// Swaps returns the number of swaps performed.
func (p *PingPong[A]) Swaps() uint64 { return p.swaps.Load() }
