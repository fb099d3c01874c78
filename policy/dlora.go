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
	"fmt"
	"math"

	. "github.com/lorabandit/lbsim/types"
)

// dimensionBandit is one independent UCB1 bandit over the values of a single
// transmission parameter dimension.
type dimensionBandit struct {
	labels []string
	counts []int
	means  []float64
	t      int
	c      float64
}

func newDimensionBandit(labels []string, c float64) dimensionBandit {
	return dimensionBandit{
		labels: labels,
		counts: make([]int, len(labels)),
		means:  make([]float64, len(labels)),
		c:      c,
	}
}

func (b *dimensionBandit) selectIndex() int {
	b.t++
	for i, n := range b.counts {
		if n == 0 {
			return i
		}
	}
	best, bestScore := 0, math.Inf(-1)
	for i := range b.labels {
		score := Ucb1Score(b.means[i], b.c, b.t, b.counts[i])
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

func (b *dimensionBandit) update(i int, reward float64) {
	b.counts[i]++
	b.means[i] += (reward - b.means[i]) / float64(b.counts[i])
}

// dlora selects spreading factor, bandwidth, frequency, and power as four
// independent bandits; the combined choice is the Cartesian tuple of the four
// selections. Per-dimension reward shaping biases each bandit toward throughput
// (xi), low energy (eta), or bandwidth (zeta) goals.
type dlora struct {
	name string
	dims Dimensions

	sfBandit dimensionBandit
	bwBandit dimensionBandit
	cfBandit dimensionBandit
	tpBandit dimensionBandit

	xi, eta, zeta float64
	rewardMode    RewardMode

	// normalization constants of the shaping terms
	sumSfRate float64 // sum over 2^SF'
	sumBw     float64
	sumTp     float64
}

func newDlora(cfg Config, dims Dimensions) *dlora {
	sfLabels := make([]string, len(dims.SfSet))
	for i, sf := range dims.SfSet {
		sfLabels[i] = fmt.Sprintf("SF%d", sf)
	}
	bwLabels := make([]string, len(dims.BwSet))
	for i, bw := range dims.BwSet {
		bwLabels[i] = fmt.Sprintf("BW%.0fk", bw/1e3)
	}
	cfLabels := make([]string, len(dims.CfSet))
	for i, cf := range dims.CfSet {
		cfLabels[i] = fmt.Sprintf("CF%.1fMHz", cf/1e6)
	}
	tpLabels := make([]string, len(dims.TpSet))
	for i, tp := range dims.TpSet {
		tpLabels[i] = fmt.Sprintf("TP%.0fdBm", tp)
	}

	d := &dlora{
		name:       cfg.Name,
		dims:       dims,
		sfBandit:   newDimensionBandit(sfLabels, cfg.ExplorationWeight),
		bwBandit:   newDimensionBandit(bwLabels, cfg.ExplorationWeight),
		cfBandit:   newDimensionBandit(cfLabels, cfg.ExplorationWeight),
		tpBandit:   newDimensionBandit(tpLabels, cfg.ExplorationWeight),
		xi:         cfg.Xi,
		eta:        cfg.Eta,
		zeta:       cfg.Zeta,
		rewardMode: cfg.RewardMode,
	}
	for _, sf := range dims.SfSet {
		d.sumSfRate += math.Pow(2, float64(sf))
	}
	for _, bw := range dims.BwSet {
		d.sumBw += bw
	}
	for _, tp := range dims.TpSet {
		d.sumTp += tp
	}
	return d
}

func (d *dlora) Name() string {
	return d.name
}

func (d *dlora) Select() TxParameters {
	return TxParameters{
		Sf:          d.dims.SfSet[d.sfBandit.selectIndex()],
		BandwidthHz: d.dims.BwSet[d.bwBandit.selectIndex()],
		FrequencyHz: d.dims.CfSet[d.cfBandit.selectIndex()],
		TxPowerDbm:  d.dims.TpSet[d.tpBandit.selectIndex()],
	}
}

func (d *dlora) Update(p TxParameters, o Outcome) {
	base := baseReward(d.rewardMode, o)

	if i := indexOfInt(d.dims.SfSet, p.Sf); i >= 0 {
		d.sfBandit.update(i, base+d.xi*math.Pow(2, float64(p.Sf))/d.sumSfRate)
	}
	if i := indexOfFloat(d.dims.BwSet, p.BandwidthHz); i >= 0 {
		d.bwBandit.update(i, base+d.zeta*p.BandwidthHz/d.sumBw)
	}
	if i := indexOfFloat(d.dims.CfSet, p.FrequencyHz); i >= 0 {
		d.cfBandit.update(i, base)
	}
	if i := indexOfFloat(d.dims.TpSet, p.TxPowerDbm); i >= 0 {
		d.tpBandit.update(i, base+d.eta*(1.0-p.TxPowerDbm/d.sumTp))
	}
}

func (d *dlora) SelectionCounts() []SelectionCount {
	var counts []SelectionCount
	for _, b := range []*dimensionBandit{&d.sfBandit, &d.bwBandit, &d.cfBandit, &d.tpBandit} {
		for i, label := range b.labels {
			counts = append(counts, SelectionCount{Label: label, Count: uint64(b.counts[i])})
		}
	}
	return counts
}

func indexOfInt(set []int, v int) int {
	for i, x := range set {
		if x == v {
			return i
		}
	}
	return -1
}

func indexOfFloat(set []float64, v float64) int {
	for i, x := range set {
		if x == v {
			return i
		}
	}
	return -1
}
