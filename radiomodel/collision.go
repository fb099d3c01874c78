// Copyright (c) 2025-2026, The LBSIM Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package radiomodel

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"

	. "github.com/lorabandit/lbsim/types"
)

// TxContext is the information a collision model may consider for one attempt.
type TxContext struct {
	Params     TxParameters
	TotalSent  uint64       // packets sent so far, run-wide (offered load proxy)
	Concurrent TxParameters // parameters of a concurrently active transmission
	HasConcurrent bool
}

// CollisionModel samples the external collision indicator for one transmission attempt.
// The exact interference model is deliberately injectable; none of the studied schemes
// is authoritative.
type CollisionModel interface {
	Sample(ctx TxContext, rnd *rand.Rand) bool
}

// NewCollisionModel creates the named collision model.
// Known names: "none", "density", "sfproximity".
func NewCollisionModel(name string) (CollisionModel, error) {
	switch name {
	case "none":
		return noCollision{}, nil
	case "", "density":
		return &densityProportional{Cap: 0.3, Scale: 10000.0}, nil
	case "sfproximity":
		return &sfProximity{FreqToleranceHz: 1e6}, nil
	default:
		return nil, errors.Errorf("unknown collision model: %s", name)
	}
}

// noCollision never reports a collision.
type noCollision struct{}

func (noCollision) Sample(TxContext, *rand.Rand) bool {
	return false
}

// densityProportional draws a Bernoulli with probability growing with the offered
// traffic, capped.
type densityProportional struct {
	Cap   float64
	Scale float64
}

func (m *densityProportional) Sample(ctx TxContext, rnd *rand.Rand) bool {
	p := math.Min(m.Cap, float64(ctx.TotalSent)/m.Scale)
	return rnd.Float64() < p
}

// sfProximity collides transmissions sharing a frequency band, certainly for equal SFs
// and probabilistically for nearby SFs (imperfect orthogonality).
type sfProximity struct {
	FreqToleranceHz float64
}

func (m *sfProximity) Sample(ctx TxContext, rnd *rand.Rand) bool {
	if !ctx.HasConcurrent {
		return false
	}
	if math.Abs(ctx.Params.FrequencyHz-ctx.Concurrent.FrequencyHz) >= m.FreqToleranceHz {
		return false
	}
	sfDiff := ctx.Params.Sf - ctx.Concurrent.Sf
	if sfDiff < 0 {
		sfDiff = -sfDiff
	}
	switch {
	case sfDiff == 0:
		return true
	case sfDiff <= 1:
		return rnd.Float64() < 0.3
	case sfDiff <= 2:
		return rnd.Float64() < 0.1
	default:
		return false
	}
}
