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
	"gonum.org/v1/gonum/mat"

	"github.com/strandlab/seqkern/pkg/seqkern/lib/encoding"
)

func init() {
	Register(&loopsBackend{})
}

// loopsBackend is the dependency-free reference implementation. It
// multiply-accumulates over every position and symbol without exploiting
// the one-hot structure, which makes it the ground truth the BLAS backend
// is checked against.
type loopsBackend struct{}

var _ Backend = (*loopsBackend)(nil)

func (*loopsBackend) Type() BackendType { return BackendLoops }

func (*loopsBackend) Name() string { return "Pure Go loops" }

func (*loopsBackend) Available() bool { return true }

// Always usable but slower than BLAS, so it only wins when nothing
// else is registered.
func (*loopsBackend) Priority() int { return 10 }

func (*loopsBackend) MatchCounts(x, y *encoding.Batch) *mat.Dense {
	n1, n2 := x.NumSeqs(), y.NumSeqs()
	width := x.SeqLen() * x.VocabSize()

	m := mat.NewDense(n1, n2, nil)
	for i := 0; i < n1; i++ {
		xi := x.Row(i)
		for j := 0; j < n2; j++ {
			yj := y.Row(j)
			var acc float64
			for k := 0; k < width; k++ {
				acc += xi[k] * yj[k]
			}
			m.Set(i, j, acc)
		}
	}
	return m
}

func (*loopsBackend) PairedMatchCounts(x, y *encoding.Batch) []float64 {
	n := x.NumSeqs()
	width := x.SeqLen() * x.VocabSize()

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		xi, yi := x.Row(i), y.Row(i)
		var acc float64
		for k := 0; k < width; k++ {
			acc += xi[k] * yi[k]
		}
		out[i] = acc
	}
	return out
}
