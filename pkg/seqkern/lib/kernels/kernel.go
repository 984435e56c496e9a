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

// Package kernels provides positive-definite covariance functions over
// one-hot encoded sequence batches, for use in Gaussian-process models.
// Inputs are flattened (N, T*V) matrices; kernels un-flatten them against
// their configured vocabulary size before computing distances.
package kernels

import (
	"gonum.org/v1/gonum/mat"

	"github.com/strandlab/seqkern/pkg/seqkern/lib/param"
)

// Kernel is a covariance function between two batches of encoded sequences.
type Kernel interface {
	// Matrix returns the full (N1, N2) Gram matrix between x and y.
	Matrix(x, y mat.Matrix) (*mat.Dense, error)

	// Diagonal returns only k(x[i], y[i]) for each index. Both inputs
	// must hold the same number of rows.
	Diagonal(x, y mat.Matrix) ([]float64, error)

	// Params returns the kernel's trainable parameters, in a stable order.
	Params() []*param.Parameter
}

// Forward evaluates a kernel in either mode: the full Gram matrix, or the
// diagonal as an (N, 1) column when diag is set.
func Forward(k Kernel, x, y mat.Matrix, diag bool) (*mat.Dense, error) {
	if diag {
		d, err := k.Diagonal(x, y)
		if err != nil {
			return nil, err
		}
		return mat.NewDense(len(d), 1, d), nil
	}
	return k.Matrix(x, y)
}
