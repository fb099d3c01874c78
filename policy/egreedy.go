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

package policy

import (
	"math/rand"

	. "github.com/lorabandit/lbsim/types"
)

// epsilonGreedy explores a uniformly random arm with probability epsilon and
// exploits the best observed mean reward otherwise.
type epsilonGreedy struct {
	armSpace
	epsilon float64
	rnd     *rand.Rand
}

func newEpsilonGreedy(cfg Config, dims Dimensions, rnd *rand.Rand) *epsilonGreedy {
	return &epsilonGreedy{
		armSpace: newArmSpace(cfg.Name, dims, cfg.RewardMode),
		epsilon:  cfg.Epsilon,
		rnd:      rnd,
	}
}

func (e *epsilonGreedy) Select() TxParameters {
	e.t++
	if i := e.untriedArm(); i >= 0 {
		return e.arms[i]
	}
	if e.rnd.Float64() < e.epsilon {
		return e.arms[e.rnd.Intn(len(e.arms))]
	}
	best := 0
	for i := range e.arms {
		if e.stats[i].MeanReward > e.stats[best].MeanReward {
			best = i
		}
	}
	return e.arms[best]
}

func (e *epsilonGreedy) Update(p TxParameters, o Outcome) {
	e.record(p, o)
}
