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

package hamming

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/strandlab/seqkern/pkg/seqkern/lib/encoding"
)

// Engine computes Hamming distances through a chosen backend.
type Engine struct {
	backend Backend
}

// Option configures an Engine.
type Option func(*Engine) error

// WithBackend selects a specific compute backend instead of the
// highest-priority one.
func WithBackend(t BackendType) Option {
	return func(e *Engine) error {
		b, err := Select(t)
		if err != nil {
			return err
		}
		e.backend = b
		return nil
	}
}

// NewEngine returns an Engine backed by the highest-priority available
// backend unless an option overrides it.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	if e.backend == nil {
		e.backend = Active()
	}
	if e.backend == nil {
		return nil, fmt.Errorf("no hamming backend available")
	}
	return e, nil
}

// Backend returns the backend the engine computes with.
func (e *Engine) Backend() Backend { return e.backend }

// Pairwise returns the (N1, N2) matrix of Hamming distances between every
// sequence in x and every sequence in y. The distance is the number of
// positions at which the two sequences disagree. Rounding noise from the
// match-count product is clamped so distances never go negative, and when
// x and y are the same data the diagonal is exactly zero.
func (e *Engine) Pairwise(x, y *encoding.Batch) (*mat.Dense, error) {
	if err := compatible(x, y); err != nil {
		return nil, err
	}

	seqLen := float64(x.SeqLen())
	m := e.backend.MatchCounts(x, y)

	n1, n2 := m.Dims()
	d := mat.NewDense(n1, n2, nil)
	for i := 0; i < n1; i++ {
		for j := 0; j < n2; j++ {
			dv := seqLen - m.At(i, j)
			if dv < 0 {
				dv = 0
			}
			d.Set(i, j, dv)
		}
	}

	if x.Equal(y) {
		for i := 0; i < n1; i++ {
			d.Set(i, i, 0)
		}
	}
	return d, nil
}

// Paired returns the length-N vector of Hamming distances between x[i] and
// y[i]. The batches must hold the same number of sequences.
func (e *Engine) Paired(x, y *encoding.Batch) ([]float64, error) {
	if err := compatible(x, y); err != nil {
		return nil, err
	}
	if x.NumSeqs() != y.NumSeqs() {
		return nil, fmt.Errorf("paired distance needs equal batch sizes, got %d and %d: %w",
			x.NumSeqs(), y.NumSeqs(), encoding.ErrShape)
	}

	// A sequence is at distance zero from itself by convention, regardless
	// of how the match counts round.
	if x.Equal(y) {
		return make([]float64, x.NumSeqs()), nil
	}

	seqLen := float64(x.SeqLen())
	m := e.backend.PairedMatchCounts(x, y)
	for i, mi := range m {
		dv := seqLen - mi
		if dv < 0 {
			dv = 0
		}
		m[i] = dv
	}
	return m, nil
}

// Pairwise computes distances with the default backend.
func Pairwise(x, y *encoding.Batch) (*mat.Dense, error) {
	e, err := NewEngine()
	if err != nil {
		return nil, err
	}
	return e.Pairwise(x, y)
}

// Paired computes per-index distances with the default backend.
func Paired(x, y *encoding.Batch) ([]float64, error) {
	e, err := NewEngine()
	if err != nil {
		return nil, err
	}
	return e.Paired(x, y)
}

func compatible(x, y *encoding.Batch) error {
	if x.SeqLen() != y.SeqLen() {
		return fmt.Errorf("sequence lengths differ, %d vs %d: %w",
			x.SeqLen(), y.SeqLen(), encoding.ErrShape)
	}
	if x.VocabSize() != y.VocabSize() {
		return fmt.Errorf("vocabulary sizes differ, %d vs %d: %w",
			x.VocabSize(), y.VocabSize(), encoding.ErrShape)
	}
	return nil
}
