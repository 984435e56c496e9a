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

// Package seqkern ties the covariance kernels, the encoding layer and the
// Gram evaluator together behind a named-kernel registry, one service handle
// per configuration.
package seqkern

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/strandlab/seqkern/pkg/seqkern/lib/encoding"
	"github.com/strandlab/seqkern/pkg/seqkern/lib/gram"
	"github.com/strandlab/seqkern/pkg/seqkern/lib/kernels"
)

// Built-in kernel names.
const (
	KernelHammingIMQ       = "hamming-imq"
	KernelHammingIMQScaled = "hamming-imq-scaled"
)

// DefaultKernel is used when a config leaves the kernel name empty.
const DefaultKernel = KernelHammingIMQ

// Config holds the service configuration.
type Config struct {
	// VocabSize is the vocabulary size sequences are one-hot encoded
	// against. Required.
	VocabSize int

	// Kernel names the registered kernel to construct. Empty uses
	// DefaultKernel.
	Kernel string

	// Alpha and Beta seed the kernel parameters. 0 keeps the kernel's
	// defaults (softplus(0) = ln 2).
	Alpha float64
	Beta  float64

	// Workers bounds concurrent Gram row blocks. 0 uses all CPUs.
	Workers int
}

// Validate checks the config for values no kernel can accept.
func (c *Config) Validate() error {
	if c.VocabSize < 1 {
		return fmt.Errorf("vocab size must be positive, got %d", c.VocabSize)
	}
	if c.Alpha < 0 {
		return fmt.Errorf("alpha seed must be positive, got %v", c.Alpha)
	}
	if c.Beta < 0 {
		return fmt.Errorf("beta seed must be positive, got %v", c.Beta)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}
	return nil
}

// Service is a configured kernel plus its Gram evaluator.
type Service struct {
	cfg       Config
	kernel    kernels.Kernel
	evaluator *gram.Evaluator
	logger    *zap.Logger
}

// Open validates the config, constructs the named kernel from a registry of
// built-ins and wraps it in a Gram evaluator. A nil logger disables logging.
func Open(cfg Config, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	registry := NewRegistry(logger)
	k, err := registry.New(cfg.Kernel, cfg)
	if err != nil {
		return nil, err
	}

	evaluator, err := gram.New(k, gram.Config{Workers: cfg.Workers}, logger.Named("gram"))
	if err != nil {
		return nil, err
	}

	name := cfg.Kernel
	if name == "" {
		name = DefaultKernel
	}
	logger.Info("Opened kernel service",
		zap.String("kernel", name),
		zap.Int("vocabSize", cfg.VocabSize),
		zap.Int("workers", cfg.Workers))

	return &Service{
		cfg:       cfg,
		kernel:    k,
		evaluator: evaluator,
		logger:    logger,
	}, nil
}

// Config returns the service configuration.
func (s *Service) Config() Config { return s.cfg }

// Kernel returns the configured kernel.
func (s *Service) Kernel() kernels.Kernel { return s.kernel }

// Evaluator returns the Gram evaluator wrapping the kernel.
func (s *Service) Evaluator() *gram.Evaluator { return s.evaluator }

// Encode one-hot encodes token sequences against the configured vocabulary.
func (s *Service) Encode(seqs [][]int) (*encoding.Batch, error) {
	return encoding.FromTokens(seqs, s.cfg.VocabSize)
}

// Gram computes the self-comparison Gram matrix of the given sequences.
func (s *Service) Gram(ctx context.Context, seqs [][]int) (*mat.Dense, error) {
	b, err := s.Encode(seqs)
	if err != nil {
		return nil, err
	}
	flat := b.Flat()
	return s.evaluator.Matrix(ctx, flat, flat)
}

// GramDiagonal computes only the self-comparison diagonal of the given
// sequences, skipping the distance engine.
func (s *Service) GramDiagonal(ctx context.Context, seqs [][]int) ([]float64, error) {
	b, err := s.Encode(seqs)
	if err != nil {
		return nil, err
	}
	flat := b.Flat()
	return s.evaluator.Diagonal(ctx, flat, flat)
}
