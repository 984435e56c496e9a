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

// Package gp implements exact Gaussian-process regression over encoded
// sequences, the downstream consumer of the covariance kernels. Training
// solves the kernel system once through a Cholesky factorization; prediction
// reuses the factor for posterior means and variances.
package gp

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/strandlab/seqkern/pkg/seqkern/lib/kernels"
)

var (
	// ErrNotFitted is returned when prediction or likelihood queries run
	// before Fit.
	ErrNotFitted = errors.New("gp: model not fitted")

	// ErrNotPositiveDefinite is returned when the noisy kernel matrix has
	// no Cholesky factorization.
	ErrNotPositiveDefinite = errors.New("gp: kernel matrix not positive definite")
)

// DefaultNoiseVariance is the observation noise used when the config leaves
// it at zero. It also acts as jitter keeping near-duplicate inputs factorable.
const DefaultNoiseVariance = 1e-6

// Config holds regressor settings.
type Config struct {
	// NoiseVariance is the i.i.d. Gaussian observation noise added to the
	// kernel diagonal. 0 uses DefaultNoiseVariance.
	NoiseVariance float64
}

// Regressor is a zero-mean exact GP over encoded sequences.
type Regressor struct {
	kernel kernels.Kernel
	noise  float64
	logger *zap.Logger

	fitted bool
	x      *mat.Dense
	chol   mat.Cholesky
	coef   *mat.VecDense
	logML  float64
}

// New creates a regressor around the given kernel. A nil logger disables
// logging.
func New(k kernels.Kernel, cfg Config, logger *zap.Logger) (*Regressor, error) {
	if k == nil {
		return nil, errors.New("gp: nil kernel")
	}
	if cfg.NoiseVariance < 0 {
		return nil, fmt.Errorf("gp: noise variance must be non-negative, got %v", cfg.NoiseVariance)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	noise := cfg.NoiseVariance
	if noise == 0 {
		noise = DefaultNoiseVariance
	}
	return &Regressor{kernel: k, noise: noise, logger: logger}, nil
}

// Kernel returns the covariance function the regressor uses.
func (r *Regressor) Kernel() kernels.Kernel { return r.kernel }

// NoiseVariance returns the observation noise added to the kernel diagonal.
func (r *Regressor) NoiseVariance() float64 { return r.noise }

// Fit conditions the GP on training inputs x, one encoded sequence per row,
// and targets y. It factorizes K(x, x) + noise*I and caches everything
// prediction needs; refitting replaces the previous state.
func (r *Regressor) Fit(x *mat.Dense, y []float64) error {
	n, _ := x.Dims()
	if n == 0 {
		return errors.New("gp: no training points")
	}
	if n != len(y) {
		return fmt.Errorf("gp: %d inputs but %d targets", n, len(y))
	}

	k, err := r.kernel.Matrix(x, x)
	if err != nil {
		return fmt.Errorf("gp: training covariance: %w", err)
	}

	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := k.At(i, j)
			if i == j {
				v += r.noise
			}
			sym.SetSym(i, j, v)
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return ErrNotPositiveDefinite
	}

	yVec := mat.NewVecDense(n, append([]float64(nil), y...))
	coef := mat.NewVecDense(n, nil)
	if err := chol.SolveVecTo(coef, yVec); err != nil {
		return fmt.Errorf("gp: solving kernel system: %w", err)
	}

	// log p(y | x) = -1/2 y'K^-1y - 1/2 log|K| - n/2 log 2pi
	logML := -0.5*mat.Dot(yVec, coef) - 0.5*chol.LogDet() - 0.5*float64(n)*math.Log(2*math.Pi)

	r.fitted = true
	r.x = mat.DenseCopyOf(x)
	r.chol = chol
	r.coef = coef
	r.logML = logML

	r.logger.Debug("fitted gp regressor",
		zap.Int("points", n),
		zap.Float64("noiseVariance", r.noise),
		zap.Float64("logMarginalLikelihood", logML))
	return nil
}

// Predict returns the posterior mean and variance at each row of z. The
// variance is clamped at zero against round-off.
func (r *Regressor) Predict(z *mat.Dense) (mean, variance []float64, err error) {
	if !r.fitted {
		return nil, nil, ErrNotFitted
	}

	kzx, err := r.kernel.Matrix(z, r.x)
	if err != nil {
		return nil, nil, fmt.Errorf("gp: cross covariance: %w", err)
	}

	m, _ := z.Dims()
	meanVec := mat.NewVecDense(m, nil)
	meanVec.MulVec(kzx, r.coef)
	mean = append([]float64(nil), meanVec.RawVector().Data...)

	prior, err := r.kernel.Diagonal(z, z)
	if err != nil {
		return nil, nil, fmt.Errorf("gp: prior variance: %w", err)
	}

	// w = K^-1 K(x, z); the variance reduction at z[i] is the dot of
	// column i of w with row i of K(z, x).
	var w mat.Dense
	if err := r.chol.SolveTo(&w, kzx.T()); err != nil {
		return nil, nil, fmt.Errorf("gp: variance solve: %w", err)
	}

	variance = make([]float64, m)
	for i := 0; i < m; i++ {
		v := prior[i] - mat.Dot(kzx.RowView(i), w.ColView(i))
		if v < 0 {
			v = 0
		}
		variance[i] = v
	}
	return mean, variance, nil
}

// LogMarginalLikelihood returns log p(y | x) under the fitted model.
func (r *Regressor) LogMarginalLikelihood() (float64, error) {
	if !r.fitted {
		return 0, ErrNotFitted
	}
	return r.logML, nil
}

// LogPosterior returns the unnormalized log posterior over kernel
// parameters: the log marginal likelihood plus every attached log prior.
// Parameters without priors contribute nothing.
func (r *Regressor) LogPosterior() (float64, error) {
	if !r.fitted {
		return 0, ErrNotFitted
	}
	lp := r.logML
	for _, p := range r.kernel.Params() {
		if v, ok := p.LogPrior(); ok {
			lp += v
		}
	}
	return lp, nil
}
