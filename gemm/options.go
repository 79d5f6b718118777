// SPDX-License-Identifier: MIT

// Package gemm: functional configuration for MatMul.
// This file defines:
//   - Option / Options (functional options with internal state),
//   - documented defaults (constants),
//   - WithX constructors,
//   - gatherOptions / validate helpers.
//
// Design goals:
//   - Deterministic behavior: no global state, no implicit randomness.
//   - Tile sizes and worker counts are runtime configuration, so nonsensical
//     values are reported by MatMul as errors (ErrInvalidTileSize,
//     ErrInvalidWorkers) before any computation, never by panicking here.
//   - Widening and narrowing are explicit: the accumulation policy defaults
//     to the natural one for the element type and is always validated.
package gemm

import (
	"fmt"
	"runtime"

	"k8s.io/klog/v2"

	"github.com/katalvlaran/blockgemm/accum"
)

// AccumPolicy selects the accumulation precision (see accum.Policy).
type AccumPolicy = accum.Policy

// Accumulation policies.
const (
	WidenInt           = accum.WidenInt
	WidenFloatToDouble = accum.WidenFloatToDouble
)

// NarrowPolicy selects how results are written back (see accum.NarrowPolicy).
type NarrowPolicy = accum.NarrowPolicy

// Narrowing policies.
const (
	NarrowError    = accum.NarrowError
	NarrowSaturate = accum.NarrowSaturate
	NarrowTruncate = accum.NarrowTruncate
)

// ---------- Defaults (single source of truth) ----------

const (
	// DefaultWorkers runs the product as a single forward pass.
	DefaultWorkers = 1

	// DefaultNarrowPolicy reports out-of-range results instead of altering them.
	DefaultNarrowPolicy = accum.NarrowError
)

// Option mutates internal options. Safe to apply repeatedly (last writer wins).
type Option func(*Options)

// Options stores the effective configuration after applying Option setters.
// Fields are unexported; public entry points accept ...Option.
type Options struct {
	tiles    Tiles // zero value ⇒ DefaultTiles()
	tilesSet bool

	workers int // DefaultWorkers

	policy    accum.Policy // zero value ignored unless policySet
	policySet bool

	narrow accum.NarrowPolicy // DefaultNarrowPolicy

	logger klog.Logger
}

// WithTiles sets the tile dimensions: A tiles are m×k, B tiles k×n.
func WithTiles(m, k, n int) Option {
	return func(o *Options) {
		o.tiles = Tiles{M: m, K: k, N: n}
		o.tilesSet = true
	}
}

// WithWorkers sets the number of workers computing output blocks.
// 1 is the sequential single pass.
func WithWorkers(n int) Option {
	return func(o *Options) { o.workers = n }
}

// WithMaxWorkers uses one worker per available CPU (GOMAXPROCS).
func WithMaxWorkers() Option {
	return func(o *Options) { o.workers = runtime.GOMAXPROCS(0) }
}

// WithAccumPolicy forces the accumulation policy. MatMul rejects a policy
// that does not match the element type with ErrPolicyMismatch.
func WithAccumPolicy(p AccumPolicy) Option {
	return func(o *Options) {
		o.policy = p
		o.policySet = true
	}
}

// WithNarrowPolicy sets how accumulator values are narrowed into C.
func WithNarrowPolicy(p NarrowPolicy) Option {
	return func(o *Options) { o.narrow = p }
}

// WithLogger routes engine logs to l instead of klog's global logger.
func WithLogger(l klog.Logger) Option {
	return func(o *Options) { o.logger = l }
}

// NewOptions resolves opts into an Options value (exported for callers that
// want to inspect the effective configuration, e.g. the CLI).
func NewOptions(opts ...Option) Options { return gatherOptions(opts...) }

// Tiles returns the effective tile dimensions.
func (o Options) Tiles() Tiles { return o.tiles }

// Workers returns the effective worker count.
func (o Options) Workers() int { return o.workers }

// Narrow returns the effective narrowing policy.
func (o Options) Narrow() NarrowPolicy { return o.narrow }

// Policy returns the forced accumulation policy and whether one was set.
func (o Options) Policy() (AccumPolicy, bool) { return o.policy, o.policySet }

// gatherOptions applies user setters over the defaults.
func gatherOptions(user ...Option) Options {
	o := Options{
		workers: DefaultWorkers,
		narrow:  DefaultNarrowPolicy,
		logger:  klog.Background(),
	}
	for _, set := range user {
		set(&o) // apply in order; last-writer-wins semantics
	}
	if !o.tilesSet {
		o.tiles = DefaultTiles()
	}

	return o
}

// validate checks every configuration value; it runs before any computation.
// Errors: ErrInvalidTileSize, ErrInvalidWorkers, accum.ErrInvalidPolicy.
func (o Options) validate() error {
	if err := o.tiles.Validate(); err != nil {
		return err
	}
	if o.workers <= 0 {
		return fmt.Errorf("workers=%d: %w", o.workers, ErrInvalidWorkers)
	}
	if !o.narrow.Valid() {
		return fmt.Errorf("%s: %w", o.narrow, accum.ErrInvalidPolicy)
	}

	return nil
}
