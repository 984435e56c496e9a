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
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/strandlab/seqkern/pkg/seqkern/lib/encoding"
)

func init() {
	Register(&blasBackend{})
}

// blasBackend computes all match counts in a single matrix product,
// M = X * Y^T over the flattened (N, T*V) encodings. gonum routes the
// product through its BLAS implementation.
type blasBackend struct{}

var _ Backend = (*blasBackend)(nil)

func (*blasBackend) Type() BackendType { return BackendBLAS }

func (*blasBackend) Name() string { return "gonum BLAS" }

func (*blasBackend) Available() bool { return true }

func (*blasBackend) Priority() int { return 50 }

func (*blasBackend) MatchCounts(x, y *encoding.Batch) *mat.Dense {
	m := mat.NewDense(x.NumSeqs(), y.NumSeqs(), nil)
	m.Mul(x.Flat(), y.Flat().T())
	return m
}

func (*blasBackend) PairedMatchCounts(x, y *encoding.Batch) []float64 {
	n := x.NumSeqs()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = floats.Dot(x.Row(i), y.Row(i))
	}
	return out
}
