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

package param

import (
	"gonum.org/v1/gonum/stat/distuv"
)

// Convenience constructors for the priors commonly placed on positive kernel
// parameters. Callers with other needs can attach any distuv distribution, or
// anything else implementing Prior.

// GammaPrior returns a Gamma(shape, rate) prior.
func GammaPrior(shape, rate float64) Prior {
	return distuv.Gamma{Alpha: shape, Beta: rate}
}

// LogNormalPrior returns a log-normal prior with the given location and scale
// of the underlying normal.
func LogNormalPrior(mu, sigma float64) Prior {
	return distuv.LogNormal{Mu: mu, Sigma: sigma}
}

// NormalPrior returns a normal prior. Mostly useful with an Identity
// transform, where the constrained value can take any sign.
func NormalPrior(mu, sigma float64) Prior {
	return distuv.Normal{Mu: mu, Sigma: sigma}
}
