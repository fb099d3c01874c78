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

// baseline is the shared plumbing of the non-learning policies. Observed outcomes
// never influence future selection.
type baseline struct {
	name   string
	arms   []TxParameters
	counts []uint64
}

func newBaseline(name string, dims Dimensions) baseline {
	arms := dims.Combos()
	return baseline{name: name, arms: arms, counts: make([]uint64, len(arms))}
}

func (b *baseline) Name() string {
	return b.name
}

func (b *baseline) Update(TxParameters, Outcome) {
}

func (b *baseline) SelectionCounts() []SelectionCount {
	counts := make([]SelectionCount, len(b.arms))
	for i, a := range b.arms {
		counts[i] = SelectionCount{Label: a.String(), Count: b.counts[i]}
	}
	return counts
}

// fixed always selects the arm at deviceIndex mod |arms|.
type fixed struct {
	baseline
	idx int
}

func newFixed(cfg Config, dims Dimensions) *fixed {
	f := &fixed{baseline: newBaseline(cfg.Name, dims)}
	f.idx = cfg.DeviceIndex % len(f.arms)
	return f
}

func (f *fixed) Select() TxParameters {
	f.counts[f.idx]++
	return f.arms[f.idx]
}

// roundRobin cycles through the arm list in order.
type roundRobin struct {
	baseline
	next int
}

func newRoundRobin(cfg Config, dims Dimensions) *roundRobin {
	r := &roundRobin{baseline: newBaseline(cfg.Name, dims)}
	r.next = cfg.DeviceIndex % len(r.arms)
	return r
}

func (r *roundRobin) Select() TxParameters {
	i := r.next
	r.next = (r.next + 1) % len(r.arms)
	r.counts[i]++
	return r.arms[i]
}

// random draws a uniformly random arm each decision.
type random struct {
	baseline
	rnd *rand.Rand
}

func newRandom(cfg Config, dims Dimensions, rnd *rand.Rand) *random {
	return &random{baseline: newBaseline(cfg.Name, dims), rnd: rnd}
}

func (r *random) Select() TxParameters {
	i := r.rnd.Intn(len(r.arms))
	r.counts[i]++
	return r.arms[i]
}
