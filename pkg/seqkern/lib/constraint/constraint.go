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

// Package constraint provides bijective transforms between unconstrained raw
// parameter values and their constrained domains. Learnable kernel parameters
// are stored raw and exposed through a transform, so external optimizers can
// work in an unconstrained space while the kernel always sees valid values.
package constraint

import (
	"errors"
	"fmt"
	"math"
)

// ErrOutOfDomain is returned when a value cannot be mapped back to the
// unconstrained space because it lies outside the transform's range.
var ErrOutOfDomain = errors.New("value outside constraint domain")

// Transform maps between an unconstrained raw value and a constrained one.
// Forward must be monotonic and Inverse must be its exact preimage on the
// transform's range; Inverse fails for values outside that range.
type Transform interface {
	// Forward maps a raw unconstrained value into the constrained domain.
	Forward(raw float64) float64

	// Inverse maps a constrained value back to its raw preimage.
	Inverse(value float64) (float64, error)

	// Name identifies the transform in errors and logs.
	Name() string
}

// Compile-time interface checks.
var (
	_ Transform = Positive{}
	_ Transform = GreaterThan{}
	_ Transform = Identity{}
)

// Positive maps raw values onto (0, +inf) via the softplus function.
// It is the default constraint for kernel scale parameters: softplus is
// monotonic, smooth, and close to identity for large raw values.
type Positive struct{}

// Name implements Transform.
func (Positive) Name() string { return "positive" }

// Forward implements Transform as softplus(raw) = log(1 + exp(raw)).
func (Positive) Forward(raw float64) float64 { return softplus(raw) }

// Inverse implements Transform. It fails with ErrOutOfDomain for any
// value <= 0, where the softplus preimage is undefined.
func (Positive) Inverse(value float64) (float64, error) {
	if !(value > 0) {
		return 0, fmt.Errorf("positive constraint requires value > 0, got %v: %w", value, ErrOutOfDomain)
	}
	return softplusInverse(value), nil
}

// GreaterThan maps raw values onto (Lower, +inf). GreaterThan{Lower: 0}
// behaves like Positive.
type GreaterThan struct {
	Lower float64
}

// Name implements Transform.
func (g GreaterThan) Name() string { return fmt.Sprintf("greater-than[%g]", g.Lower) }

// Forward implements Transform as Lower + softplus(raw).
func (g GreaterThan) Forward(raw float64) float64 { return g.Lower + softplus(raw) }

// Inverse implements Transform. It fails with ErrOutOfDomain for any
// value <= Lower.
func (g GreaterThan) Inverse(value float64) (float64, error) {
	if !(value > g.Lower) {
		return 0, fmt.Errorf("greater-than constraint requires value > %g, got %v: %w", g.Lower, value, ErrOutOfDomain)
	}
	return softplusInverse(value - g.Lower), nil
}

// Identity is the no-op transform for parameters that need no constraint.
// Its Inverse never fails.
type Identity struct{}

// Name implements Transform.
func (Identity) Name() string { return "identity" }

// Forward implements Transform.
func (Identity) Forward(raw float64) float64 { return raw }

// Inverse implements Transform.
func (Identity) Inverse(value float64) (float64, error) { return value, nil }

// softplus computes log(1 + exp(x)) in a form that does not overflow for
// large positive x: max(x, 0) + log1p(exp(-|x|)).
func softplus(x float64) float64 {
	return math.Max(x, 0) + math.Log1p(math.Exp(-math.Abs(x)))
}

// softplusInverse computes the preimage of y > 0 under softplus,
// log(exp(y) - 1), rearranged as y + log1p(-exp(-y)) so it stays finite
// for large y.
func softplusInverse(y float64) float64 {
	return y + math.Log1p(-math.Exp(-y))
}
