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

// Package encoding represents batches of fixed-length discrete sequences in
// one-hot form. A batch holds N sequences of T positions over a vocabulary of
// size V; each position is a length-V indicator vector. Kernels receive the
// flattened (N, T*V) view and un-flatten it here, which is where all shape
// validation happens.
package encoding

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrShape is returned when batch dimensions are invalid or incompatible,
	// including a flattened width not divisible by the vocabulary size.
	ErrShape = errors.New("incompatible batch shape")

	// ErrTokenRange is returned when a token id falls outside [0, vocab).
	ErrTokenRange = errors.New("token outside vocabulary range")
)

// Batch is a dense (N, T, V) one-hot tensor stored row-major.
// The documented invariant is that every length-V slice along the last axis
// is a one-hot indicator; construction from tokens guarantees it, and
// Validate checks it for externally supplied data. The kernel hot path never
// re-validates.
type Batch struct {
	n, t, v int
	data    []float64
}

// New allocates a zeroed batch of n sequences, t positions, vocabulary v.
func New(n, t, v int) (*Batch, error) {
	if n < 1 || t < 1 || v < 1 {
		return nil, fmt.Errorf("batch dims must be positive, got (%d, %d, %d): %w", n, t, v, ErrShape)
	}
	return &Batch{n: n, t: t, v: v, data: make([]float64, n*t*v)}, nil
}

// FromMatrix un-flattens an (N, T*V) matrix into a batch, copying the data.
// This is the entry point for kernel inputs: it fails when the flattened
// width is not divisible by vocab, or vocab is not positive.
func FromMatrix(m mat.Matrix, vocab int) (*Batch, error) {
	if vocab < 1 {
		return nil, fmt.Errorf("vocab size must be positive, got %d: %w", vocab, ErrShape)
	}
	rows, cols := m.Dims()
	if cols == 0 || cols%vocab != 0 {
		return nil, fmt.Errorf("flattened width %d not divisible by vocab size %d: %w", cols, vocab, ErrShape)
	}

	b := &Batch{n: rows, t: cols / vocab, v: vocab, data: make([]float64, rows*cols)}
	if d, ok := m.(*mat.Dense); ok {
		raw := d.RawMatrix()
		for i := 0; i < rows; i++ {
			copy(b.data[i*cols:(i+1)*cols], raw.Data[i*raw.Stride:i*raw.Stride+cols])
		}
		return b, nil
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			b.data[i*cols+j] = m.At(i, j)
		}
	}
	return b, nil
}

// FromTokens one-hot encodes integer token sequences. All sequences must
// share a common length and every token must lie in [0, vocab).
func FromTokens(seqs [][]int, vocab int) (*Batch, error) {
	if vocab < 1 {
		return nil, fmt.Errorf("vocab size must be positive, got %d: %w", vocab, ErrShape)
	}
	if len(seqs) == 0 {
		return nil, fmt.Errorf("at least one sequence required: %w", ErrShape)
	}
	t := len(seqs[0])
	if t == 0 {
		return nil, fmt.Errorf("sequences must be non-empty: %w", ErrShape)
	}

	b, err := New(len(seqs), t, vocab)
	if err != nil {
		return nil, err
	}
	for i, seq := range seqs {
		if len(seq) != t {
			return nil, fmt.Errorf("sequence %d has length %d, want %d: %w", i, len(seq), t, ErrShape)
		}
		for pos, tok := range seq {
			if tok < 0 || tok >= vocab {
				return nil, fmt.Errorf("sequence %d position %d: token %d with vocab size %d: %w",
					i, pos, tok, vocab, ErrTokenRange)
			}
			b.data[(i*t+pos)*vocab+tok] = 1
		}
	}
	return b, nil
}

// NumSeqs returns N, the number of sequences.
func (b *Batch) NumSeqs() int { return b.n }

// SeqLen returns T, the number of positions per sequence.
func (b *Batch) SeqLen() int { return b.t }

// VocabSize returns V.
func (b *Batch) VocabSize() int { return b.v }

// At returns the indicator value for sequence i, position t, symbol v.
func (b *Batch) At(i, t, v int) float64 {
	return b.data[(i*b.t+t)*b.v+v]
}

// Set writes the indicator value for sequence i, position t, symbol v.
func (b *Batch) Set(i, t, v int, x float64) {
	b.data[(i*b.t+t)*b.v+v] = x
}

// Row returns the flattened one-hot encoding of sequence i, sharing the
// batch's backing data.
func (b *Batch) Row(i int) []float64 {
	w := b.t * b.v
	return b.data[i*w : (i+1)*w]
}

// Flat returns the (N, T*V) matrix view handed to kernels. The matrix shares
// the batch's backing data.
func (b *Batch) Flat() *mat.Dense {
	return mat.NewDense(b.n, b.t*b.v, b.data)
}

// Slice returns the sub-batch of sequences [i, j), sharing backing data.
// It panics when the range is out of bounds, matching gonum's slicing
// contract.
func (b *Batch) Slice(i, j int) *Batch {
	if i < 0 || j > b.n || i >= j {
		panic(fmt.Sprintf("encoding: slice bounds [%d, %d) out of range for %d sequences", i, j, b.n))
	}
	w := b.t * b.v
	return &Batch{n: j - i, t: b.t, v: b.v, data: b.data[i*w : j*w]}
}

// Equal reports element-wise equality of two batches. Aliased backing data
// with matching dims short-circuits to true; this is the identity check the
// self-comparison fast paths rely on.
func (b *Batch) Equal(other *Batch) bool {
	if other == nil || b.n != other.n || b.t != other.t || b.v != other.v {
		return false
	}
	if len(b.data) > 0 && len(other.data) > 0 && &b.data[0] == &other.data[0] {
		return true
	}
	for i, x := range b.data {
		if x != other.data[i] {
			return false
		}
	}
	return true
}

// Validate checks the one-hot invariant: every entry is exactly 0 or 1 and
// every position has exactly one 1. Advisory; kernels do not call it.
func (b *Batch) Validate() error {
	for i := 0; i < b.n; i++ {
		for t := 0; t < b.t; t++ {
			ones := 0
			for v := 0; v < b.v; v++ {
				switch b.At(i, t, v) {
				case 0:
				case 1:
					ones++
				default:
					return fmt.Errorf("sequence %d position %d symbol %d: entry %v is not 0 or 1: %w",
						i, t, v, b.At(i, t, v), ErrShape)
				}
			}
			if ones != 1 {
				return fmt.Errorf("sequence %d position %d: %d entries set, want exactly 1: %w",
					i, t, ones, ErrShape)
			}
		}
	}
	return nil
}

// Tokens decodes the batch back to integer sequences by argmax per position.
// Exact inverse of FromTokens on valid one-hot data.
func (b *Batch) Tokens() [][]int {
	seqs := make([][]int, b.n)
	for i := 0; i < b.n; i++ {
		seq := make([]int, b.t)
		for t := 0; t < b.t; t++ {
			best, bestVal := 0, b.At(i, t, 0)
			for v := 1; v < b.v; v++ {
				if x := b.At(i, t, v); x > bestVal {
					best, bestVal = v, x
				}
			}
			seq[t] = best
		}
		seqs[i] = seq
	}
	return seqs
}
