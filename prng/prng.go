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

// Package prng provides the simulator's random sources. All sources derive from a single
// root seed so that a run is fully reproducible given that seed.
package prng

import (
	"math/rand"
	"time"
)

type RandomSeed int64

var placementRandGenerator *rand.Rand
var shadowingSeedGenerator *rand.Rand
var collisionRandGenerator *rand.Rand
var trafficRandGenerator *rand.Rand
var policySeedGenerator *rand.Rand

// Init initializes the prng package, either with a fixed PRNG seed (rootSeed != 0) or a
// 'random' time-based PRNG seed (if rootSeed == 0). Returns the effective root seed.
func Init(rootSeed int64) int64 {
	if rootSeed == 0 {
		rootSeed = time.Now().UnixNano()
	}
	root := rand.New(rand.NewSource(rootSeed))

	placementRandGenerator = rand.New(rand.NewSource(rootSeed + int64(root.Intn(1e10))))
	shadowingSeedGenerator = rand.New(rand.NewSource(rootSeed + int64(root.Intn(1e10))))
	collisionRandGenerator = rand.New(rand.NewSource(rootSeed + int64(root.Intn(1e10))))
	trafficRandGenerator = rand.New(rand.NewSource(rootSeed + int64(root.Intn(1e10))))
	policySeedGenerator = rand.New(rand.NewSource(rootSeed + int64(root.Intn(1e10))))
	return rootSeed
}

// PlacementRand returns the generator used for device placement and mobility steps.
func PlacementRand() *rand.Rand {
	return placementRandGenerator
}

// NewShadowingRand creates a generator for per-link shadowing samples.
func NewShadowingRand() *rand.Rand {
	return rand.New(rand.NewSource(shadowingSeedGenerator.Int63()))
}

// CollisionRand returns the generator for collision Bernoulli draws.
func CollisionRand() *rand.Rand {
	return collisionRandGenerator
}

// TrafficRand returns the generator for inter-transmission intervals and start jitter.
func TrafficRand() *rand.Rand {
	return trafficRandGenerator
}

// NewPolicyRand creates a generator for one policy instance (epsilon draws,
// random baselines, tie breaking).
func NewPolicyRand() *rand.Rand {
	return rand.New(rand.NewSource(policySeedGenerator.Int63()))
}
