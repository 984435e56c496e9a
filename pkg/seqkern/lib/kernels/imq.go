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
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/strandlab/seqkern/pkg/seqkern/lib/constraint"
	"github.com/strandlab/seqkern/pkg/seqkern/lib/encoding"
	"github.com/strandlab/seqkern/pkg/seqkern/lib/hamming"
	"github.com/strandlab/seqkern/pkg/seqkern/lib/param"
)

// HammingIMQ is the inverse multiquadratic kernel on Hamming distance,
//
//	k(a, b) = ((1 + alpha) / (alpha + d(a, b))) ^ beta
//
// with learnable alpha, beta > 0. It is maximal at distance zero, where it
// equals ((1+alpha)/alpha)^beta, and strictly decreasing in the distance.
type HammingIMQ struct {
	vocab    int
	alpha    *param.Parameter
	beta     *param.Parameter
	engine   *hamming.Engine
	observer func(*mat.Dense)
}

var _ Kernel = (*HammingIMQ)(nil)

// Option configures a HammingIMQ kernel.
type Option func(*imqOptions)

type imqOptions struct {
	alphaOpts []param.Option
	betaOpts  []param.Option
	backend   hamming.BackendType
	observer  func(*mat.Dense)
}

// WithAlpha seeds alpha with a constrained value, routed through the alpha
// transform's inverse.
func WithAlpha(v float64) Option {
	return func(o *imqOptions) { o.alphaOpts = append(o.alphaOpts, param.WithValue(v)) }
}

// WithBeta seeds beta with a constrained value.
func WithBeta(v float64) Option {
	return func(o *imqOptions) { o.betaOpts = append(o.betaOpts, param.WithValue(v)) }
}

// WithAlphaTransform replaces alpha's default Positive constraint.
func WithAlphaTransform(t constraint.Transform) Option {
	return func(o *imqOptions) { o.alphaOpts = append(o.alphaOpts, param.WithTransform(t)) }
}

// WithBetaTransform replaces beta's default Positive constraint.
func WithBetaTransform(t constraint.Transform) Option {
	return func(o *imqOptions) { o.betaOpts = append(o.betaOpts, param.WithTransform(t)) }
}

// WithAlphaPrior attaches a prior density to alpha.
func WithAlphaPrior(p param.Prior) Option {
	return func(o *imqOptions) { o.alphaOpts = append(o.alphaOpts, param.WithPrior(p)) }
}

// WithBetaPrior attaches a prior density to beta.
func WithBetaPrior(p param.Prior) Option {
	return func(o *imqOptions) { o.betaOpts = append(o.betaOpts, param.WithPrior(p)) }
}

// WithEngineBackend pins the distance engine to a specific compute backend.
func WithEngineBackend(t hamming.BackendType) Option {
	return func(o *imqOptions) { o.backend = t }
}

// WithDistanceObserver installs a hook that receives every pairwise distance
// matrix after clamping and diagonal correction, before the kernel transform
// is applied. Intended for debugging and instrumentation; the hook must not
// retain or mutate the matrix.
func WithDistanceObserver(fn func(*mat.Dense)) Option {
	return func(o *imqOptions) { o.observer = fn }
}

// NewHammingIMQ builds the kernel for sequences over a vocabulary of the
// given size. Both parameters default to softplus(0) = ln 2.
func NewHammingIMQ(vocab int, opts ...Option) (*HammingIMQ, error) {
	if vocab < 1 {
		return nil, fmt.Errorf("vocab size must be positive, got %d: %w", vocab, encoding.ErrShape)
	}

	var o imqOptions
	for _, opt := range opts {
		opt(&o)
	}

	alpha, err := param.New("alpha", o.alphaOpts...)
	if err != nil {
		return nil, fmt.Errorf("hamming-imq alpha: %w", err)
	}
	beta, err := param.New("beta", o.betaOpts...)
	if err != nil {
		return nil, fmt.Errorf("hamming-imq beta: %w", err)
	}

	var engineOpts []hamming.Option
	if o.backend != "" {
		engineOpts = append(engineOpts, hamming.WithBackend(o.backend))
	}
	engine, err := hamming.NewEngine(engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("hamming-imq engine: %w", err)
	}

	return &HammingIMQ{
		vocab:    vocab,
		alpha:    alpha,
		beta:     beta,
		engine:   engine,
		observer: o.observer,
	}, nil
}

// Matrix un-flattens both inputs against the vocabulary size, computes the
// pairwise Hamming distances and applies the IMQ transform elementwise.
func (k *HammingIMQ) Matrix(x, y mat.Matrix) (*mat.Dense, error) {
	bx, by, err := k.unflatten(x, y)
	if err != nil {
		return nil, err
	}

	d, err := k.engine.Pairwise(bx, by)
	if err != nil {
		return nil, err
	}
	if k.observer != nil {
		k.observer(d)
	}

	a, b := k.alpha.Value(), k.beta.Value()
	r, c := d.Dims()
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, imqValue(d.At(i, j), a, b))
		}
	}
	return out, nil
}

// Diagonal returns k(x[i], y[i]) for each row index. When the two inputs are
// element-wise identical every distance is zero by construction, so the
// distance engine is skipped and the maximum ((1+alpha)/alpha)^beta is
// broadcast instead.
func (k *HammingIMQ) Diagonal(x, y mat.Matrix) ([]float64, error) {
	bx, by, err := k.unflatten(x, y)
	if err != nil {
		return nil, err
	}

	a, b := k.alpha.Value(), k.beta.Value()
	if bx.Equal(by) {
		out := make([]float64, bx.NumSeqs())
		v := imqValue(0, a, b)
		for i := range out {
			out[i] = v
		}
		return out, nil
	}

	d, err := k.engine.Paired(bx, by)
	if err != nil {
		return nil, err
	}
	for i, di := range d {
		d[i] = imqValue(di, a, b)
	}
	return d, nil
}

// Params returns alpha and beta, in that order.
func (k *HammingIMQ) Params() []*param.Parameter {
	return []*param.Parameter{k.alpha, k.beta}
}

// Alpha returns the alpha parameter.
func (k *HammingIMQ) Alpha() *param.Parameter { return k.alpha }

// Beta returns the beta parameter.
func (k *HammingIMQ) Beta() *param.Parameter { return k.beta }

// VocabSize returns the vocabulary size inputs are un-flattened against.
func (k *HammingIMQ) VocabSize() int { return k.vocab }

func (k *HammingIMQ) unflatten(x, y mat.Matrix) (*encoding.Batch, *encoding.Batch, error) {
	bx, err := encoding.FromMatrix(x, k.vocab)
	if err != nil {
		return nil, nil, fmt.Errorf("left operand: %w", err)
	}
	by, err := encoding.FromMatrix(y, k.vocab)
	if err != nil {
		return nil, nil, fmt.Errorf("right operand: %w", err)
	}
	return bx, by, nil
}

func imqValue(d, alpha, beta float64) float64 {
	return math.Pow((1+alpha)/(alpha+d), beta)
}
