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

// qoca implements the quality-of-channel bandit (QoC-A) and its discounted
// variant (DQoC-A). Scoring augments UCB with a quality bonus
// beta*(Q_i/Q_max - 1)*ln(W)/N_i. For the discounted variant every historical
// selection of age k contributes lambda^k (rewards) and lambdaQ^k (quality)
// instead of weight 1; with both discounts at 1.0 this reduces exactly to the
// plain QoC-A statistics.
type qoca struct {
	armSpace
	alpha   float64
	beta    float64
	lambda  float64
	lambdaQ float64

	// global selection history, ordered oldest first; ages are relative to its tail
	history []qocaObservation
}

type qocaObservation struct {
	arm     int
	reward  float64
	quality float64
}

func newQoca(cfg Config, dims Dimensions) *qoca {
	q := &qoca{
		armSpace: newArmSpace(cfg.Name, dims, cfg.RewardMode),
		alpha:    cfg.ExplorationWeight,
		beta:     cfg.QualityWeight,
		lambda:   cfg.DiscountLambda,
		lambdaQ:  cfg.DiscountLambdaQ,
	}
	// an unset discount means the plain, undiscounted statistics
	if q.lambda == 0 {
		q.lambda = 1.0
	}
	if q.lambdaQ == 0 {
		q.lambdaQ = 1.0
	}
	return q
}

// discountedStats recomputes the exponentially discounted per-arm aggregates from
// the full selection history. O(history), which is bounded by the run length.
func (q *qoca) discountedStats() (counts, rewardMeans, qualityMeans []float64, total float64) {
	nArms := len(q.arms)
	counts = make([]float64, nArms)
	rewardMeans = make([]float64, nArms)
	qualityMeans = make([]float64, nArms)
	qCounts := make([]float64, nArms)

	last := len(q.history) - 1
	wR, wQ := 1.0, 1.0
	for j := last; j >= 0; j-- {
		obs := q.history[j]
		counts[obs.arm] += wR
		rewardMeans[obs.arm] += wR * obs.reward
		qCounts[obs.arm] += wQ
		qualityMeans[obs.arm] += wQ * obs.quality
		wR *= q.lambda
		wQ *= q.lambdaQ
	}
	for i := 0; i < nArms; i++ {
		total += counts[i]
		if counts[i] > 0 {
			rewardMeans[i] /= counts[i]
		}
		if qCounts[i] > 0 {
			qualityMeans[i] /= qCounts[i]
		}
	}
	return counts, rewardMeans, qualityMeans, total
}

func (q *qoca) Select() TxParameters {
	q.t++
	if i := q.untriedArm(); i >= 0 {
		return q.arms[i]
	}

	counts, rewardMeans, qualityMeans, total := q.discountedStats()

	maxQuality := 0.0
	for _, mq := range qualityMeans {
		if mq > maxQuality {
			maxQuality = mq
		}
	}

	lnW := math.Log(total)
	best, bestScore := 0, math.Inf(-1)
	for i := range q.arms {
		n := counts[i]
		if n <= 0 {
			best = i
			break
		}
		score := rewardMeans[i] + q.alpha*math.Sqrt(lnW/n)
		if maxQuality > 0 {
			score += q.beta * (qualityMeans[i]/maxQuality - 1.0) * lnW / n
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return q.arms[best]
}

func (q *qoca) Update(p TxParameters, o Outcome) {
	q.record(p, o)
	if i, ok := q.index[p]; ok {
		q.history = append(q.history, qocaObservation{
			arm:     i,
			reward:  q.baseReward(o),
			quality: o.QualityMw,
		})
	}
}
