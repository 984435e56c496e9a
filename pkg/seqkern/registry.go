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

package seqkern

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/strandlab/seqkern/pkg/seqkern/lib/kernels"
)

// Factory builds a kernel from a validated config.
type Factory func(cfg Config, logger *zap.Logger) (kernels.Kernel, error)

// Registry maps kernel names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	logger    *zap.Logger
}

// NewRegistry creates a registry with the built-in kernels registered.
// A nil logger disables logging.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		factories: make(map[string]Factory),
		logger:    logger,
	}
	r.factories[KernelHammingIMQ] = newHammingIMQ
	r.factories[KernelHammingIMQScaled] = newHammingIMQScaled
	return r
}

// Register adds a kernel factory under the given name, replacing any
// existing registration.
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return errors.New("kernel name must not be empty")
	}
	if factory == nil {
		return fmt.Errorf("nil factory for kernel %q", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		r.logger.Warn("Replacing registered kernel factory", zap.String("name", name))
	}
	r.factories[name] = factory
	return nil
}

// New constructs the named kernel. An empty name uses DefaultKernel.
func (r *Registry) New(name string, cfg Config) (kernels.Kernel, error) {
	if name == "" {
		name = DefaultKernel
	}

	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("kernel not found: %s", name)
	}

	k, err := factory(cfg, r.logger.Named(name))
	if err != nil {
		return nil, fmt.Errorf("building kernel %q: %w", name, err)
	}
	return k, nil
}

// List returns all registered kernel names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newHammingIMQ(cfg Config, logger *zap.Logger) (kernels.Kernel, error) {
	opts := []kernels.Option{
		kernels.WithDistanceObserver(func(d *mat.Dense) {
			rows, cols := d.Dims()
			logger.Debug("Computed Hamming distance matrix",
				zap.Int("rows", rows),
				zap.Int("cols", cols))
		}),
	}
	if cfg.Alpha > 0 {
		opts = append(opts, kernels.WithAlpha(cfg.Alpha))
	}
	if cfg.Beta > 0 {
		opts = append(opts, kernels.WithBeta(cfg.Beta))
	}
	return kernels.NewHammingIMQ(cfg.VocabSize, opts...)
}

func newHammingIMQScaled(cfg Config, logger *zap.Logger) (kernels.Kernel, error) {
	inner, err := newHammingIMQ(cfg, logger)
	if err != nil {
		return nil, err
	}
	return kernels.NewScaled(inner, 1)
}
