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

package gp

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gonum.org/v1/gonum/mat"

	"github.com/strandlab/seqkern/pkg/seqkern/lib/encoding"
	"github.com/strandlab/seqkern/pkg/seqkern/lib/kernels"
	"github.com/strandlab/seqkern/pkg/seqkern/lib/param"
)

func flatTokens(t *testing.T, tokens [][]int, vocab int) *mat.Dense {
	t.Helper()
	b, err := encoding.FromTokens(tokens, vocab)
	require.NoError(t, err)
	return b.Flat()
}

func trainingSet(t *testing.T) (*mat.Dense, []float64) {
	t.Helper()
	x := flatTokens(t, [][]int{
		{0, 1, 2, 3},
		{3, 2, 1, 0},
		{0, 0, 0, 0},
		{1, 3, 1, 3},
		{2, 2, 0, 1},
	}, 4)
	y := []float64{0.5, -1.2, 2.0, 0.0, -0.7}
	return x, y
}

func TestFitPredictReproducesTargets(t *testing.T) {
	k, err := kernels.NewHammingIMQ(4)
	require.NoError(t, err)
	x, y := trainingSet(t)

	r, err := New(k, Config{NoiseVariance: 1e-8}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, r.Fit(x, y))

	mean, variance, err := r.Predict(x)
	require.NoError(t, err)
	require.Len(t, mean, len(y))
	require.Len(t, variance, len(y))

	for i := range y {
		assert.InDelta(t, y[i], mean[i], 1e-4, "mean at training point %d", i)
		assert.GreaterOrEqual(t, variance[i], 0.0)
		assert.Less(t, variance[i], 1e-4, "variance at training point %d", i)
	}
}

func TestPredictNovelPoints(t *testing.T) {
	k, err := kernels.NewHammingIMQ(4)
	require.NoError(t, err)
	x, y := trainingSet(t)

	r, err := New(k, Config{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, r.Fit(x, y))

	z := flatTokens(t, [][]int{
		{0, 1, 2, 0},
		{3, 3, 3, 3},
	}, 4)
	mean, variance, err := r.Predict(z)
	require.NoError(t, err)
	require.Len(t, mean, 2)

	a := math.Ln2
	prior := math.Pow((1+a)/a, a)
	for i, v := range variance {
		assert.GreaterOrEqual(t, v, 0.0, "variance %d", i)
		assert.LessOrEqual(t, v, prior+1e-9, "variance %d cannot exceed the prior", i)
	}
}

func TestLogMarginalLikelihoodSinglePoint(t *testing.T) {
	k, err := kernels.NewHammingIMQ(4)
	require.NoError(t, err)
	x := flatTokens(t, [][]int{{0, 1, 2, 3}}, 4)
	y := []float64{1.5}

	noise := 0.01
	r, err := New(k, Config{NoiseVariance: noise}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, r.Fit(x, y))

	a := math.Ln2
	k0 := math.Pow((1+a)/a, a) + noise
	want := -0.5*y[0]*y[0]/k0 - 0.5*math.Log(k0) - 0.5*math.Log(2*math.Pi)

	got, err := r.LogMarginalLikelihood()
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-10)
}

func TestLogPosteriorAddsPriors(t *testing.T) {
	alphaPrior := param.GammaPrior(2, 1)
	betaPrior := param.LogNormalPrior(0, 1)
	k, err := kernels.NewHammingIMQ(4,
		kernels.WithAlphaPrior(alphaPrior),
		kernels.WithBetaPrior(betaPrior),
	)
	require.NoError(t, err)
	x, y := trainingSet(t)

	r, err := New(k, Config{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, r.Fit(x, y))

	lml, err := r.LogMarginalLikelihood()
	require.NoError(t, err)
	lp, err := r.LogPosterior()
	require.NoError(t, err)

	want := lml + alphaPrior.LogProb(k.Alpha().Value()) + betaPrior.LogProb(k.Beta().Value())
	assert.InDelta(t, want, lp, 1e-12)
}

func TestNotFittedErrors(t *testing.T) {
	k, err := kernels.NewHammingIMQ(4)
	require.NoError(t, err)
	r, err := New(k, Config{}, nil)
	require.NoError(t, err)

	_, _, err = r.Predict(flatTokens(t, [][]int{{0, 1, 2, 3}}, 4))
	assert.True(t, errors.Is(err, ErrNotFitted))

	_, err = r.LogMarginalLikelihood()
	assert.True(t, errors.Is(err, ErrNotFitted))

	_, err = r.LogPosterior()
	assert.True(t, errors.Is(err, ErrNotFitted))
}

func TestFitValidation(t *testing.T) {
	k, err := kernels.NewHammingIMQ(4)
	require.NoError(t, err)
	r, err := New(k, Config{}, nil)
	require.NoError(t, err)

	x, _ := trainingSet(t)
	err = r.Fit(x, []float64{1, 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "targets")

	_, err = New(k, Config{NoiseVariance: -1}, nil)
	require.Error(t, err)

	_, err = New(nil, Config{}, nil)
	require.Error(t, err)
}

// indefiniteKernel returns a symmetric matrix with a negative eigenvalue, so
// factorization must fail.
type indefiniteKernel struct{}

func (indefiniteKernel) Matrix(x, y mat.Matrix) (*mat.Dense, error) {
	return mat.NewDense(2, 2, []float64{1, 2, 2, 1}), nil
}

func (indefiniteKernel) Diagonal(x, y mat.Matrix) ([]float64, error) {
	return []float64{1, 1}, nil
}

func (indefiniteKernel) Params() []*param.Parameter { return nil }

func TestFitRejectsIndefiniteKernel(t *testing.T) {
	r, err := New(indefiniteKernel{}, Config{NoiseVariance: 1e-9}, zaptest.NewLogger(t))
	require.NoError(t, err)

	err = r.Fit(mat.NewDense(2, 4, nil), []float64{1, -1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotPositiveDefinite))
}
