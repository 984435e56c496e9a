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

// Package hamming computes pairwise Hamming distances between one-hot
// encoded sequence batches. For one-hot data the number of matching
// positions between two sequences is the dot product of their flattened
// encodings, so the full distance matrix is T minus a single matrix product.
// Two interchangeable compute backends provide that product: a pure-Go
// reference implementation and a gonum/BLAS one.
package hamming

import (
	"fmt"
	"sort"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/strandlab/seqkern/pkg/seqkern/lib/encoding"
)

// BackendType identifies a compute backend.
type BackendType string

const (
	// BackendBLAS computes match counts with a gonum matrix product.
	BackendBLAS BackendType = "blas"

	// BackendLoops is the pure-Go multiply-accumulate reference.
	BackendLoops BackendType = "loops"
)

// Backend computes shared-position counts between one-hot batches.
// Implementations are stateless and safe for concurrent use.
type Backend interface {
	// Type returns the backend identifier.
	Type() BackendType

	// Name returns a human-readable backend name.
	Name() string

	// Available reports whether the backend can run in this process.
	Available() bool

	// Priority orders backend selection; the highest available wins.
	Priority() int

	// MatchCounts returns the (N1, N2) matrix of shared-position counts,
	// M[i,j] = sum over positions and symbols of x[i]*y[j].
	MatchCounts(x, y *encoding.Batch) *mat.Dense

	// PairedMatchCounts returns the length-N vector of shared-position
	// counts between x[i] and y[i]. Batches must have equal N.
	PairedMatchCounts(x, y *encoding.Batch) []float64
}

var (
	backendsMu sync.RWMutex
	backends   = make(map[BackendType]Backend)
)

// Register adds a backend to the registry. Later registrations with the same
// type replace earlier ones.
func Register(b Backend) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[b.Type()] = b
}

// Select returns the backend with the given type, or an error when it is
// unknown or unavailable.
func Select(t BackendType) (Backend, error) {
	backendsMu.RLock()
	defer backendsMu.RUnlock()

	b, ok := backends[t]
	if !ok {
		return nil, fmt.Errorf("unknown hamming backend %q (have %v)", t, typeNamesLocked())
	}
	if !b.Available() {
		return nil, fmt.Errorf("hamming backend %q is not available", t)
	}
	return b, nil
}

// Active returns the highest-priority available backend.
func Active() Backend {
	backendsMu.RLock()
	defer backendsMu.RUnlock()

	var best Backend
	for _, b := range backends {
		if !b.Available() {
			continue
		}
		if best == nil || b.Priority() > best.Priority() {
			best = b
		}
	}
	return best
}

// Types lists registered backend types, sorted for stable logs.
func Types() []BackendType {
	backendsMu.RLock()
	defer backendsMu.RUnlock()

	out := make([]BackendType, 0, len(backends))
	for t := range backends {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func typeNamesLocked() []BackendType {
	out := make([]BackendType, 0, len(backends))
	for t := range backends {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
