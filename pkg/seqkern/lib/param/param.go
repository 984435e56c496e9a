// Copyright 2026 Strandlab, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package param implements the learnable-parameter store used by kernels.
// A Parameter keeps an unconstrained raw value and exposes a constrained view
// through a constraint.Transform; an optional prior supports Bayesian
// inference machinery outside this library.
package param

import (
	"errors"
	"fmt"

	"github.com/strandlab/seqkern/pkg/seqkern/lib/constraint"
)

// Prior is a log-density attached to a parameter's constrained value.
// gonum's stat/distuv distributions satisfy it directly.
type Prior interface {
	LogProb(x float64) float64
}

// Parameter is a single scalar quantity stored in unconstrained form.
// Reads go through the transform's forward map, writes through its inverse,
// so the constrained view is always inside the transform's range.
type Parameter struct {
	name      string
	raw       float64
	transform constraint.Transform
	prior     Prior
}

// Option configures a Parameter at construction time.
type Option func(*options)

type options struct {
	transform constraint.Transform
	prior     Prior
	value     *float64
	raw       *float64
}

// WithTransform replaces the default Positive constraint.
func WithTransform(t constraint.Transform) Option {
	return func(o *options) { o.transform = t }
}

// WithValue seeds the parameter with a constrained value, routed through the
// transform's inverse. Construction fails if the value is outside the
// transform's domain.
func WithValue(v float64) Option {
	return func(o *options) { o.value = &v }
}

// WithRaw seeds the parameter's unconstrained value directly.
func WithRaw(raw float64) Option {
	return func(o *options) { o.raw = &raw }
}

// WithPrior attaches a prior density evaluated on the constrained value.
func WithPrior(p Prior) Option {
	return func(o *options) { o.prior = p }
}

// New creates a parameter. The default transform is constraint.Positive and
// the default raw value is 0, so an untouched positive parameter reads as
// softplus(0) = ln 2.
func New(name string, opts ...Option) (*Parameter, error) {
	o := options{transform: constraint.Positive{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.value != nil && o.raw != nil {
		return nil, errors.New("parameter: WithValue and WithRaw are mutually exclusive")
	}

	p := &Parameter{
		name:      name,
		transform: o.transform,
		prior:     o.prior,
	}
	if o.raw != nil {
		p.raw = *o.raw
	}
	if o.value != nil {
		if err := p.SetValue(*o.value); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Name returns the parameter's name.
func (p *Parameter) Name() string { return p.name }

// Value returns the constrained value, transform.Forward(raw).
func (p *Parameter) Value() float64 { return p.transform.Forward(p.raw) }

// SetValue stores a new constrained value through the transform's inverse.
// Nothing is stored when the inverse fails.
func (p *Parameter) SetValue(v float64) error {
	raw, err := p.transform.Inverse(v)
	if err != nil {
		return fmt.Errorf("setting parameter %q: %w", p.name, err)
	}
	p.raw = raw
	return nil
}

// Raw returns the unconstrained value, for optimizers working in raw space.
func (p *Parameter) Raw() float64 { return p.raw }

// SetRaw stores an unconstrained value directly. Any real value is valid.
func (p *Parameter) SetRaw(raw float64) { p.raw = raw }

// Transform returns the parameter's constraint transform.
func (p *Parameter) Transform() constraint.Transform { return p.transform }

// SetPrior attaches or replaces the parameter's prior. A nil prior detaches.
func (p *Parameter) SetPrior(prior Prior) { p.prior = prior }

// Prior returns the attached prior, or nil.
func (p *Parameter) Prior() Prior { return p.prior }

// LogPrior evaluates the attached prior at the constrained value.
// The second return is false when no prior is attached; the forward
// computation never depends on it.
func (p *Parameter) LogPrior() (float64, bool) {
	if p.prior == nil {
		return 0, false
	}
	return p.prior.LogProb(p.Value()), true
}
