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

package kernels

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/strandlab/seqkern/pkg/seqkern/lib/param"
)

// Sum is the pointwise sum of its part kernels. Sums of positive-definite
// kernels stay positive definite.
type Sum struct {
	parts []Kernel
}

var _ Kernel = (*Sum)(nil)

// NewSum combines kernels additively. Nested sums are flattened into a
// single part list.
func NewSum(parts ...Kernel) (*Sum, error) {
	flat, err := flatten(parts, func(k Kernel) ([]Kernel, bool) {
		s, ok := k.(*Sum)
		if !ok {
			return nil, false
		}
		return s.parts, true
	})
	if err != nil {
		return nil, fmt.Errorf("sum kernel: %w", err)
	}
	return &Sum{parts: flat}, nil
}

func (s *Sum) Matrix(x, y mat.Matrix) (*mat.Dense, error) {
	out, err := s.parts[0].Matrix(x, y)
	if err != nil {
		return nil, err
	}
	for _, p := range s.parts[1:] {
		m, err := p.Matrix(x, y)
		if err != nil {
			return nil, err
		}
		out.Add(out, m)
	}
	return out, nil
}

func (s *Sum) Diagonal(x, y mat.Matrix) ([]float64, error) {
	out, err := s.parts[0].Diagonal(x, y)
	if err != nil {
		return nil, err
	}
	for _, p := range s.parts[1:] {
		d, err := p.Diagonal(x, y)
		if err != nil {
			return nil, err
		}
		for i := range out {
			out[i] += d[i]
		}
	}
	return out, nil
}

func (s *Sum) Params() []*param.Parameter { return collectParams(s.parts) }

// Product is the pointwise product of its part kernels. Products of
// positive-definite kernels stay positive definite (Schur product theorem).
type Product struct {
	parts []Kernel
}

var _ Kernel = (*Product)(nil)

// NewProduct combines kernels multiplicatively. Nested products are
// flattened into a single part list.
func NewProduct(parts ...Kernel) (*Product, error) {
	flat, err := flatten(parts, func(k Kernel) ([]Kernel, bool) {
		p, ok := k.(*Product)
		if !ok {
			return nil, false
		}
		return p.parts, true
	})
	if err != nil {
		return nil, fmt.Errorf("product kernel: %w", err)
	}
	return &Product{parts: flat}, nil
}

func (p *Product) Matrix(x, y mat.Matrix) (*mat.Dense, error) {
	out, err := p.parts[0].Matrix(x, y)
	if err != nil {
		return nil, err
	}
	for _, part := range p.parts[1:] {
		m, err := part.Matrix(x, y)
		if err != nil {
			return nil, err
		}
		out.MulElem(out, m)
	}
	return out, nil
}

func (p *Product) Diagonal(x, y mat.Matrix) ([]float64, error) {
	out, err := p.parts[0].Diagonal(x, y)
	if err != nil {
		return nil, err
	}
	for _, part := range p.parts[1:] {
		d, err := part.Diagonal(x, y)
		if err != nil {
			return nil, err
		}
		for i := range out {
			out[i] *= d[i]
		}
	}
	return out, nil
}

func (p *Product) Params() []*param.Parameter { return collectParams(p.parts) }

// Scaled multiplies a kernel by a learnable positive output scale.
type Scaled struct {
	inner Kernel
	scale *param.Parameter
}

var _ Kernel = (*Scaled)(nil)

// NewScaled wraps a kernel with an output scale seeded at the given positive
// value.
func NewScaled(inner Kernel, scale float64) (*Scaled, error) {
	if inner == nil {
		return nil, errors.New("scaled kernel: nil inner kernel")
	}
	p, err := param.New("scale", param.WithValue(scale))
	if err != nil {
		return nil, fmt.Errorf("scaled kernel: %w", err)
	}
	return &Scaled{inner: inner, scale: p}, nil
}

func (s *Scaled) Matrix(x, y mat.Matrix) (*mat.Dense, error) {
	m, err := s.inner.Matrix(x, y)
	if err != nil {
		return nil, err
	}
	m.Scale(s.scale.Value(), m)
	return m, nil
}

func (s *Scaled) Diagonal(x, y mat.Matrix) ([]float64, error) {
	d, err := s.inner.Diagonal(x, y)
	if err != nil {
		return nil, err
	}
	sc := s.scale.Value()
	for i := range d {
		d[i] *= sc
	}
	return d, nil
}

func (s *Scaled) Params() []*param.Parameter {
	return append([]*param.Parameter{s.scale}, s.inner.Params()...)
}

// Scale returns the output-scale parameter.
func (s *Scaled) Scale() *param.Parameter { return s.scale }

func flatten(parts []Kernel, explode func(Kernel) ([]Kernel, bool)) ([]Kernel, error) {
	if len(parts) == 0 {
		return nil, errors.New("needs at least one part")
	}
	flat := make([]Kernel, 0, len(parts))
	for _, p := range parts {
		if p == nil {
			return nil, errors.New("nil part")
		}
		if sub, ok := explode(p); ok {
			flat = append(flat, sub...)
			continue
		}
		flat = append(flat, p)
	}
	return flat, nil
}

func collectParams(parts []Kernel) []*param.Parameter {
	var out []*param.Parameter
	for _, p := range parts {
		out = append(out, p.Params()...)
	}
	return out
}
