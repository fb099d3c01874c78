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

// adrLite walks a deterministic ladder of (power, channel) combinations, sorted
// worst-quality first. The search index starts at the last (highest-power) entry;
// a success halves the index toward the low-power end, a failure moves it to the
// midpoint between the current position and the high-power end. No per-arm
// statistics are kept.
type adrLite struct {
	name   string
	ladder []TxParameters
	idx    int
	counts []uint64
}

func newAdrLite(cfg Config, dims Dimensions) *adrLite {
	// TP ascending is the outer order; the channel set is assumed listed worst-first.
	ladder := make([]TxParameters, 0, len(dims.TpSet)*len(dims.CfSet))
	for _, tp := range dims.TpSet {
		for _, cf := range dims.CfSet {
			ladder = append(ladder, TxParameters{
				Sf:          dims.SfSet[0],
				BandwidthHz: dims.BwSet[0],
				FrequencyHz: cf,
				TxPowerDbm:  tp,
			})
		}
	}
	return &adrLite{
		name:   cfg.Name,
		ladder: ladder,
		idx:    len(ladder) - 1,
		counts: make([]uint64, len(ladder)),
	}
}

func (a *adrLite) Name() string {
	return a.name
}

func (a *adrLite) Select() TxParameters {
	a.counts[a.idx]++
	return a.ladder[a.idx]
}

func (a *adrLite) Update(p TxParameters, o Outcome) {
	if o.Success {
		a.idx = a.idx / 2
	} else {
		a.idx = (a.idx + len(a.ladder)) / 2
		if a.idx > len(a.ladder)-1 {
			a.idx = len(a.ladder) - 1
		}
	}
}

func (a *adrLite) SelectionCounts() []SelectionCount {
	counts := make([]SelectionCount, len(a.ladder))
	for i, p := range a.ladder {
		counts[i] = SelectionCount{Label: p.String(), Count: a.counts[i]}
	}
	return counts
}
