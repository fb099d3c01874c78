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

// tow implements tug-of-war dynamics: per-arm values pulled up on success and
// down by an adaptive penalty on failure, with a forced cosine oscillation
// breaking ties and a forgetting factor decaying effective pull counts every
// decision.
type tow struct {
	armSpace
	amplitude float64 // A, oscillation amplitude
	alpha     float64 // Q decay applied on each update of the selected arm
	beta      float64 // per-decision forgetting factor for all effective counts

	q        []float64 // tug-of-war arm values
	attempts []float64 // effective (forgetting-weighted) pull counts
	succ     []float64 // effective success counts
}

const towFallbackPenalty = 0.1

func newTow(cfg Config, dims Dimensions) *tow {
	sp := newArmSpace(cfg.Name, dims, cfg.RewardMode)
	n := len(sp.arms)
	return &tow{
		armSpace:  sp,
		amplitude: cfg.OscillationAmplitude,
		alpha:     cfg.TowAlpha,
		beta:      cfg.TowBeta,
		q:         make([]float64, n),
		attempts:  make([]float64, n),
		succ:      make([]float64, n),
	}
}

func (w *tow) Select() TxParameters {
	w.t++
	if i := w.untriedArm(); i >= 0 {
		return w.arms[i]
	}

	nArms := len(w.arms)
	var qSum float64
	for _, v := range w.q {
		qSum += v
	}

	best, bestScore := 0, math.Inf(-1)
	for k := 0; k < nArms; k++ {
		avgOthers := 0.0
		if nArms > 1 {
			avgOthers = (qSum - w.q[k]) / float64(nArms-1)
		}
		score := w.q[k] - avgOthers + w.amplitude*math.Cos(2.0*math.Pi*float64(w.t+k)/float64(nArms))
		if score > bestScore {
			best, bestScore = k, score
		}
	}
	return w.arms[best]
}

func (w *tow) Update(p TxParameters, o Outcome) {
	w.record(p, o)
	sel, ok := w.index[p]
	if !ok {
		return
	}

	if o.Success {
		w.q[sel] = w.alpha*w.q[sel] + 1.0
	} else {
		w.q[sel] = w.alpha*w.q[sel] - w.penalty()
	}

	// forgetting: all effective counts decay, the selected arm gains one fresh pull
	for i := range w.attempts {
		w.attempts[i] *= w.beta
		w.succ[i] *= w.beta
	}
	w.attempts[sel] += 1.0
	if o.Success {
		w.succ[sel] += 1.0
	}
}

// penalty derives the failure penalty from the two highest empirical success
// rates among arms with data: (p1+p2)/2 - (p1-p2). Falls back to a small fixed
// constant when fewer than two arms have data or the two best rates are equal.
func (w *tow) penalty() float64 {
	p1, p2 := -1.0, -1.0
	withData := 0
	for i := range w.attempts {
		if w.attempts[i] <= 0 {
			continue
		}
		withData++
		p := w.succ[i] / w.attempts[i]
		if p > p1 {
			p1, p2 = p, p1
		} else if p > p2 {
			p2 = p
		}
	}
	if withData < 2 || p1 == p2 {
		return towFallbackPenalty
	}
	return (p1+p2)/2.0 - (p1 - p2)
}
