// SPDX-License-Identifier: MIT

package matvec

import (
	"fmt"

	"k8s.io/klog/v2"

	"github.com/katalvlaran/blockgemm/accum"
	"github.com/katalvlaran/blockgemm/matrix"
)

// Option configures Gbmv and Trmv.
type Option func(*options)

type options struct {
	policy    accum.Policy
	policySet bool
	narrow    accum.NarrowPolicy
	logger    klog.Logger
}

// WithAccumPolicy forces the accumulation policy; it must match the element
// type (ErrPolicyMismatch otherwise).
func WithAccumPolicy(p accum.Policy) Option {
	return func(o *options) {
		o.policy = p
		o.policySet = true
	}
}

// WithNarrowPolicy sets how results are narrowed into y (default NarrowError).
func WithNarrowPolicy(p accum.NarrowPolicy) Option {
	return func(o *options) { o.narrow = p }
}

// WithLogger routes kernel logs to l.
func WithLogger(l klog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// resolve applies opts over the defaults and validates them for element T.
func resolve[T matrix.Element](opts []Option) (options, error) {
	o := options{narrow: accum.NarrowError, logger: klog.Background()}
	for _, set := range opts {
		set(&o)
	}
	if !o.policySet {
		o.policy = accum.PolicyFor[T]()
	}
	if err := accum.Check[T](o.policy); err != nil {
		return o, err
	}
	if !o.narrow.Valid() {
		return o, fmt.Errorf("%s: %w", o.narrow, accum.ErrInvalidPolicy)
	}

	return o, nil
}
