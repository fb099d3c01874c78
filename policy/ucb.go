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
	"math"

	. "github.com/lorabandit/lbsim/types"
)

// ucb1 scores arms with the classic upper confidence bound
// mean + c*sqrt(ln(t+1)/(2n)). Ties break to the first-listed arm.
type ucb1 struct {
	armSpace
	c float64
}

func newUcb1(cfg Config, dims Dimensions) *ucb1 {
	return &ucb1{
		armSpace: newArmSpace(cfg.Name, dims, cfg.RewardMode),
		c:        cfg.ExplorationWeight,
	}
}

// Ucb1Score is the UCB1 upper confidence bound for one arm.
func Ucb1Score(meanReward float64, c float64, t int, n int) float64 {
	if n == 0 {
		return math.MaxFloat64
	}
	return meanReward + c*math.Sqrt(math.Log(float64(t)+1.0)/(2.0*float64(n)))
}

func (u *ucb1) Select() TxParameters {
	u.t++
	if i := u.untriedArm(); i >= 0 {
		return u.arms[i]
	}
	best, bestScore := 0, math.Inf(-1)
	for i := range u.arms {
		score := Ucb1Score(u.stats[i].MeanReward, u.c, u.t, u.stats[i].SelectionCount)
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return u.arms[best]
}

func (u *ucb1) Update(p TxParameters, o Outcome) {
	u.record(p, o)
}

// ucb1Tuned replaces the fixed exploration weight with the variance-based
// tuned bound: mean + sqrt((ln t / n) * min(1/4, V + sqrt(2 ln t / n))).
type ucb1Tuned struct {
	armSpace
}

func newUcb1Tuned(cfg Config, dims Dimensions) *ucb1Tuned {
	return &ucb1Tuned{armSpace: newArmSpace(cfg.Name, dims, cfg.RewardMode)}
}

func (u *ucb1Tuned) Select() TxParameters {
	u.t++
	if i := u.untriedArm(); i >= 0 {
		return u.arms[i]
	}
	lnT := math.Log(float64(u.t))
	best, bestScore := 0, math.Inf(-1)
	for i := range u.arms {
		n := float64(u.stats[i].SelectionCount)
		v := u.stats[i].Variance() + math.Sqrt(2.0*lnT/n)
		score := u.stats[i].MeanReward + math.Sqrt(lnT/n*math.Min(0.25, v))
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return u.arms[best]
}

func (u *ucb1Tuned) Update(p TxParameters, o Outcome) {
	u.record(p, o)
}
