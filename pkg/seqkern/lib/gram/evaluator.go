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

// Package gram evaluates kernel Gram matrices, splitting large evaluations
// into row blocks computed by a bounded worker pool. The evaluator adds no
// semantics of its own: its output is always identical to a single direct
// kernel call.
package gram

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"gonum.org/v1/gonum/mat"

	"github.com/strandlab/seqkern/pkg/seqkern/lib/kernels"
)

// Metrics for Gram matrix evaluation
var (
	evaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seqkern_gram_evaluations_total",
			Help: "Total Gram evaluations by mode and status",
		},
		[]string{"mode", "status"},
	)

	evaluationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "seqkern_gram_evaluation_duration_seconds",
			Help:    "Gram evaluation latency by mode",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"mode"},
	)

	lastMatrixEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "seqkern_gram_last_matrix_entries",
			Help: "Entry count of the most recently evaluated Gram matrix",
		},
	)
)

// DefaultBlockRows is the number of Gram rows a single worker task computes.
const DefaultBlockRows = 32

// Config holds evaluator settings.
type Config struct {
	// Workers bounds the number of concurrent row-block tasks.
	// 0 uses runtime.NumCPU(); 1 disables parallelism.
	Workers int

	// BlockRows is the row-block height. 0 uses DefaultBlockRows.
	BlockRows int
}

// Evaluator computes Gram matrices for a kernel.
type Evaluator struct {
	kernel  kernels.Kernel
	workers int
	block   int
	logger  *zap.Logger
}

// New creates an evaluator for the given kernel. A nil logger disables
// logging.
func New(k kernels.Kernel, cfg Config, logger *zap.Logger) (*Evaluator, error) {
	if k == nil {
		return nil, fmt.Errorf("gram: nil kernel")
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("gram: workers must be non-negative, got %d", cfg.Workers)
	}
	if cfg.BlockRows < 0 {
		return nil, fmt.Errorf("gram: block rows must be non-negative, got %d", cfg.BlockRows)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	block := cfg.BlockRows
	if block == 0 {
		block = DefaultBlockRows
	}

	return &Evaluator{
		kernel:  k,
		workers: workers,
		block:   block,
		logger:  logger,
	}, nil
}

// Kernel returns the kernel the evaluator wraps.
func (e *Evaluator) Kernel() kernels.Kernel { return e.kernel }

// Matrix computes the full (N1, N2) Gram matrix between x and y. Large
// inputs are split into row blocks evaluated concurrently; small inputs and
// single-worker configurations go straight to the kernel.
func (e *Evaluator) Matrix(ctx context.Context, x, y mat.Matrix) (*mat.Dense, error) {
	start := time.Now()
	out, err := e.matrix(ctx, x, y)
	e.observe("matrix", start, out, err)
	return out, err
}

// Diagonal computes k(x[i], y[i]) for each row index.
func (e *Evaluator) Diagonal(ctx context.Context, x, y mat.Matrix) ([]float64, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		e.observe("diagonal", start, nil, err)
		return nil, err
	}

	d, err := e.kernel.Diagonal(x, y)
	if err != nil {
		e.observe("diagonal", start, nil, err)
		return nil, err
	}

	evaluationsTotal.WithLabelValues("diagonal", "ok").Inc()
	evaluationLatency.WithLabelValues("diagonal").Observe(time.Since(start).Seconds())
	lastMatrixEntries.Set(float64(len(d)))
	e.logger.Debug("evaluated kernel diagonal",
		zap.Int("entries", len(d)),
		zap.Duration("duration", time.Since(start)))
	return d, nil
}

func (e *Evaluator) matrix(ctx context.Context, x, y mat.Matrix) (*mat.Dense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, _ := x.Dims()
	if e.workers <= 1 || rows <= e.block {
		return e.kernel.Matrix(x, y)
	}

	xd := denseOf(x)
	yd := denseOf(y)
	if sameData(xd, yd) {
		return e.selfMatrix(ctx, xd)
	}
	return e.crossMatrix(ctx, xd, yd)
}

// crossMatrix fills the output stripe by stripe, each stripe being one row
// block of x against all of y.
func (e *Evaluator) crossMatrix(ctx context.Context, x, y *mat.Dense) (*mat.Dense, error) {
	n1, _ := x.Dims()
	n2, _ := y.Dims()
	out := mat.NewDense(n1, n2, nil)

	err := e.runBlocks(ctx, n1, func(r0, r1 int) error {
		stripe, err := e.kernel.Matrix(rowSlice(x, r0, r1), y)
		if err != nil {
			return fmt.Errorf("rows %d-%d: %w", r0, r1, err)
		}
		copyStripe(out, stripe, r0, 0)
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("evaluated gram matrix",
		zap.Int("rows", n1),
		zap.Int("cols", n2),
		zap.Bool("self", false),
		zap.Int("workers", e.workers))
	return out, nil
}

// selfMatrix exploits symmetry: each row block is evaluated only against the
// columns at or past its own start, the result is mirrored, and the diagonal
// is taken from the kernel's diagonal mode so the exact self-comparison
// values survive the block slicing.
func (e *Evaluator) selfMatrix(ctx context.Context, x *mat.Dense) (*mat.Dense, error) {
	n, _ := x.Dims()
	out := mat.NewDense(n, n, nil)

	err := e.runBlocks(ctx, n, func(r0, r1 int) error {
		stripe, err := e.kernel.Matrix(rowSlice(x, r0, r1), rowSlice(x, r0, n))
		if err != nil {
			return fmt.Errorf("rows %d-%d: %w", r0, r1, err)
		}
		copyStripe(out, stripe, r0, r0)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			out.Set(j, i, out.At(i, j))
		}
	}

	diag, err := e.kernel.Diagonal(x, x)
	if err != nil {
		return nil, err
	}
	for i, v := range diag {
		out.Set(i, i, v)
	}

	e.logger.Debug("evaluated gram matrix",
		zap.Int("rows", n),
		zap.Int("cols", n),
		zap.Bool("self", true),
		zap.Int("workers", e.workers))
	return out, nil
}

// runBlocks runs fn over row blocks with at most e.workers tasks in flight.
// The first error cancels pending blocks; in-flight blocks are always
// drained before returning.
func (e *Evaluator) runBlocks(ctx context.Context, rows int, fn func(r0, r1 int) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := semaphore.NewWeighted(int64(e.workers))
	var (
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
	}

	for r0 := 0; r0 < rows; r0 += e.block {
		r1 := min(r0+e.block, rows)
		if err := sem.Acquire(ctx, 1); err != nil {
			fail(fmt.Errorf("acquiring worker slot: %w", err))
			break
		}
		go func(r0, r1 int) {
			defer sem.Release(1)
			if err := fn(r0, r1); err != nil {
				fail(err)
			}
		}(r0, r1)
	}

	// Wait for in-flight blocks by taking every slot.
	if err := sem.Acquire(context.Background(), int64(e.workers)); err != nil {
		return fmt.Errorf("draining worker slots: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	return firstErr
}

func (e *Evaluator) observe(mode string, start time.Time, out *mat.Dense, err error) {
	if err != nil {
		evaluationsTotal.WithLabelValues(mode, "error").Inc()
		e.logger.Warn("gram evaluation failed", zap.String("mode", mode), zap.Error(err))
		return
	}
	if out == nil {
		return
	}
	r, c := out.Dims()
	evaluationsTotal.WithLabelValues(mode, "ok").Inc()
	evaluationLatency.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	lastMatrixEntries.Set(float64(r * c))
}

func denseOf(m mat.Matrix) *mat.Dense {
	if d, ok := m.(*mat.Dense); ok {
		return d
	}
	return mat.DenseCopyOf(m)
}

func sameData(x, y *mat.Dense) bool {
	if x == y {
		return true
	}
	xr, xc := x.Dims()
	yr, yc := y.Dims()
	return xr == yr && xc == yc && mat.Equal(x, y)
}

func rowSlice(m *mat.Dense, r0, r1 int) mat.Matrix {
	_, cols := m.Dims()
	return m.Slice(r0, r1, 0, cols)
}

func copyStripe(dst *mat.Dense, stripe *mat.Dense, rowOff, colOff int) {
	r, c := stripe.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			dst.Set(rowOff+i, colOff+j, stripe.At(i, j))
		}
	}
}
