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
	. "github.com/lorabandit/lbsim/types"
)

// ArmStats holds the running aggregates of one arm. An arm with SelectionCount == 0
// has MeanReward == 0 and unbounded selection priority.
type ArmStats struct {
	SelectionCount int
	MeanReward     float64
	MeanQuality    float64
	RewardHistory  []float64 // bounded by run length; needed by variance-based policies

	qualitySum float64
}

// Record adds one observed reward (and quality signal) to the arm's aggregates.
func (s *ArmStats) Record(reward float64, quality float64) {
	s.SelectionCount++
	s.RewardHistory = append(s.RewardHistory, reward)
	s.MeanReward += (reward - s.MeanReward) / float64(s.SelectionCount)
	s.qualitySum += quality
	s.MeanQuality = s.qualitySum / float64(s.SelectionCount)
}

// Variance returns the sample variance of the arm's full reward history,
// 0 when fewer than two observations exist.
func (s *ArmStats) Variance() float64 {
	n := len(s.RewardHistory)
	if n < 2 {
		return 0.0
	}
	var acc float64
	for _, r := range s.RewardHistory {
		d := r - s.MeanReward
		acc += d * d
	}
	return acc / float64(n-1)
}

// armSpace is the shared state of the flat-arm policies: the ordered arm list,
// per-arm statistics and the monotonic decision index.
type armSpace struct {
	name  string
	arms  []TxParameters
	index map[TxParameters]int
	stats []ArmStats
	t     int // decisions made so far, across all arms

	rewardMode RewardMode
}

func newArmSpace(name string, dims Dimensions, mode RewardMode) armSpace {
	arms := dims.Combos()
	index := make(map[TxParameters]int, len(arms))
	for i, a := range arms {
		index[a] = i
	}
	return armSpace{
		name:       name,
		arms:       arms,
		index:      index,
		stats:      make([]ArmStats, len(arms)),
		rewardMode: mode,
	}
}

func (sp *armSpace) Name() string {
	return sp.name
}

// untriedArm returns the first never-selected arm in listed order, or -1 when
// the forced-exploration phase is over.
func (sp *armSpace) untriedArm() int {
	for i := range sp.stats {
		if sp.stats[i].SelectionCount == 0 {
			return i
		}
	}
	return -1
}

// baseReward maps an outcome to the configured reward convention.
func (sp *armSpace) baseReward(o Outcome) float64 {
	return baseReward(sp.rewardMode, o)
}

func baseReward(mode RewardMode, o Outcome) float64 {
	if !o.Success {
		return 0.0
	}
	if mode == RewardInverseEnergy {
		if o.EnergyMj <= 0 {
			return 0.0
		}
		return 1.0 / o.EnergyMj
	}
	return 1.0
}

// record updates the statistics of the arm selected for parameters p.
func (sp *armSpace) record(p TxParameters, o Outcome) {
	if i, ok := sp.index[p]; ok {
		sp.stats[i].Record(sp.baseReward(o), o.QualityMw)
	}
}

func (sp *armSpace) SelectionCounts() []SelectionCount {
	counts := make([]SelectionCount, len(sp.arms))
	for i, a := range sp.arms {
		counts[i] = SelectionCount{Label: a.String(), Count: uint64(sp.stats[i].SelectionCount)}
	}
	return counts
}
