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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/strandlab/seqkern/pkg/seqkern/lib/constraint"
	"github.com/strandlab/seqkern/pkg/seqkern/lib/encoding"
	"github.com/strandlab/seqkern/pkg/seqkern/lib/hamming"
	"github.com/strandlab/seqkern/pkg/seqkern/lib/param"
)

func flatTokens(t *testing.T, tokens [][]int, vocab int) *mat.Dense {
	t.Helper()
	b, err := encoding.FromTokens(tokens, vocab)
	require.NoError(t, err)
	return b.Flat()
}

func TestHammingIMQDefaults(t *testing.T) {
	k, err := NewHammingIMQ(8)
	require.NoError(t, err)

	params := k.Params()
	require.Len(t, params, 2)
	assert.Equal(t, "alpha", params[0].Name())
	assert.Equal(t, "beta", params[1].Name())
	assert.InDelta(t, math.Ln2, params[0].Value(), 1e-12)
	assert.InDelta(t, math.Ln2, params[1].Value(), 1e-12)
	assert.Equal(t, 8, k.VocabSize())
}

func TestHammingIMQTwoSequences(t *testing.T) {
	// Vocabulary of 8, two length-5 sequences differing at three positions.
	x := flatTokens(t, [][]int{
		{3, 2, 1, 7, 5},
		{3, 2, 3, 4, 2},
	}, 8)

	k, err := NewHammingIMQ(8)
	require.NoError(t, err)

	gram, err := k.Matrix(x, x)
	require.NoError(t, err)

	r, c := gram.Dims()
	require.Equal(t, 2, r)
	require.Equal(t, 2, c)

	a := math.Ln2
	diag := math.Pow((1+a)/a, a)
	off := math.Pow((1+a)/(a+3), a)

	assert.InDelta(t, diag, gram.At(0, 0), 1e-12)
	assert.InDelta(t, diag, gram.At(1, 1), 1e-12)
	assert.InDelta(t, off, gram.At(0, 1), 1e-12)
	assert.InDelta(t, off, gram.At(1, 0), 1e-12)
	assert.Greater(t, gram.At(0, 0), gram.At(0, 1))
}

func TestHammingIMQPositiveAndDecreasing(t *testing.T) {
	tests := []struct {
		name        string
		alpha, beta float64
	}{
		{"defaults", math.Ln2, math.Ln2},
		{"wide", 5.0, 0.3},
		{"sharp", 0.1, 4.0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			prev := math.Inf(1)
			for d := 0.0; d <= 12; d++ {
				v := imqValue(d, tc.alpha, tc.beta)
				if v <= 0 {
					t.Fatalf("imq(%v) = %v, want positive", d, v)
				}
				if v >= prev {
					t.Fatalf("imq(%v) = %v, not below %v", d, v, prev)
				}
				prev = v
			}
			if got, want := imqValue(0, tc.alpha, tc.beta), math.Pow((1+tc.alpha)/tc.alpha, tc.beta); math.Abs(got-want) > 1e-12 {
				t.Fatalf("imq(0) = %v, want %v", got, want)
			}
		})
	}
}

func TestHammingIMQDiagonalFastPath(t *testing.T) {
	x := flatTokens(t, [][]int{
		{0, 1, 2},
		{2, 1, 0},
		{1, 1, 1},
	}, 3)

	k, err := NewHammingIMQ(3, WithAlpha(1.5), WithBeta(2))
	require.NoError(t, err)

	d, err := k.Diagonal(x, x)
	require.NoError(t, err)
	require.Len(t, d, 3)

	want := math.Pow((1+1.5)/1.5, 2)
	for i, v := range d {
		assert.InDelta(t, want, v, 1e-12, "entry %d", i)
	}
}

func TestHammingIMQDiagonalCross(t *testing.T) {
	x := flatTokens(t, [][]int{{3, 2, 1, 7, 5}}, 8)
	y := flatTokens(t, [][]int{{3, 2, 3, 4, 2}}, 8)

	k, err := NewHammingIMQ(8, WithAlpha(2), WithBeta(1))
	require.NoError(t, err)

	d, err := k.Diagonal(x, y)
	require.NoError(t, err)
	require.Len(t, d, 1)
	assert.InDelta(t, (1.0+2)/(2+3), d[0], 1e-12)
}

func TestHammingIMQSeededParameters(t *testing.T) {
	k, err := NewHammingIMQ(4, WithAlpha(2.5), WithBeta(0.75))
	require.NoError(t, err)
	assert.InDelta(t, 2.5, k.Alpha().Value(), 1e-12)
	assert.InDelta(t, 0.75, k.Beta().Value(), 1e-12)

	_, err = NewHammingIMQ(4, WithAlpha(-1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, constraint.ErrOutOfDomain))
}

func TestHammingIMQCustomTransform(t *testing.T) {
	k, err := NewHammingIMQ(4,
		WithAlphaTransform(constraint.GreaterThan{Lower: 1}),
		WithAlpha(1.5),
	)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, k.Alpha().Value(), 1e-12)

	// Values at or below the lower bound are outside the new domain.
	err = k.Alpha().SetValue(0.5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, constraint.ErrOutOfDomain))
}

func TestHammingIMQPriors(t *testing.T) {
	k, err := NewHammingIMQ(4,
		WithAlphaPrior(param.GammaPrior(2, 1)),
		WithBetaPrior(param.LogNormalPrior(0, 1)),
	)
	require.NoError(t, err)

	for _, p := range k.Params() {
		lp, ok := p.LogPrior()
		require.True(t, ok, "parameter %s has no prior", p.Name())
		assert.False(t, math.IsNaN(lp))
	}
}

func TestHammingIMQDistanceObserver(t *testing.T) {
	var seen []*mat.Dense
	k, err := NewHammingIMQ(8, WithDistanceObserver(func(d *mat.Dense) {
		seen = append(seen, d)
	}))
	require.NoError(t, err)

	x := flatTokens(t, [][]int{{3, 2, 1, 7, 5}}, 8)
	y := flatTokens(t, [][]int{{3, 2, 3, 4, 2}}, 8)

	_, err = k.Matrix(x, y)
	require.NoError(t, err)

	require.Len(t, seen, 1)
	assert.Equal(t, 3.0, seen[0].At(0, 0))
}

func TestHammingIMQShapeErrors(t *testing.T) {
	k, err := NewHammingIMQ(3)
	require.NoError(t, err)

	// Width 10 does not divide into vocabulary slots of 3.
	bad := mat.NewDense(1, 10, nil)
	good := flatTokens(t, [][]int{{0, 1}}, 3)

	_, err = k.Matrix(bad, good)
	require.Error(t, err)
	assert.True(t, errors.Is(err, encoding.ErrShape))

	_, err = k.Matrix(good, bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, encoding.ErrShape))

	// Diagonal needs equal batch sizes.
	x := flatTokens(t, [][]int{{0, 1}, {1, 0}, {2, 2}}, 3)
	y := flatTokens(t, [][]int{{0, 1}, {1, 0}}, 3)
	_, err = k.Diagonal(x, y)
	require.Error(t, err)
	assert.True(t, errors.Is(err, encoding.ErrShape))

	_, err = NewHammingIMQ(0)
	require.Error(t, err)
}

func TestHammingIMQSuffixInvariance(t *testing.T) {
	k, err := NewHammingIMQ(8)
	require.NoError(t, err)

	x := flatTokens(t, [][]int{{3, 2, 1, 7, 5}}, 8)
	y := flatTokens(t, [][]int{{3, 2, 3, 4, 2}}, 8)
	xs := flatTokens(t, [][]int{{3, 2, 1, 7, 5, 6, 0}}, 8)
	ys := flatTokens(t, [][]int{{3, 2, 3, 4, 2, 6, 0}}, 8)

	base, err := k.Matrix(x, y)
	require.NoError(t, err)
	extended, err := k.Matrix(xs, ys)
	require.NoError(t, err)

	assert.InDelta(t, base.At(0, 0), extended.At(0, 0), 1e-12)
}

func TestHammingIMQEngineBackends(t *testing.T) {
	x := flatTokens(t, [][]int{{0, 1, 2, 3}, {3, 2, 1, 0}, {0, 0, 0, 0}}, 4)

	loops, err := NewHammingIMQ(4, WithEngineBackend(hamming.BackendLoops))
	require.NoError(t, err)
	blas, err := NewHammingIMQ(4, WithEngineBackend(hamming.BackendBLAS))
	require.NoError(t, err)

	gl, err := loops.Matrix(x, x)
	require.NoError(t, err)
	gb, err := blas.Matrix(x, x)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(gl, gb, 1e-12))
}

func TestForwardModes(t *testing.T) {
	x := flatTokens(t, [][]int{{0, 1}, {1, 0}}, 2)
	k, err := NewHammingIMQ(2)
	require.NoError(t, err)

	full, err := Forward(k, x, x, false)
	require.NoError(t, err)
	r, c := full.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)

	col, err := Forward(k, x, x, true)
	require.NoError(t, err)
	r, c = col.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 1, c)
	assert.Equal(t, full.At(0, 0), col.At(0, 0))
}
