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

package simulation

import (
	"github.com/lorabandit/lbsim/agent"
	. "github.com/lorabandit/lbsim/types"
)

// LostPoint is one sample of the cumulative lost-packet count over time.
type LostPoint struct {
	TimeUs         Timestamp
	CumulativeLost uint64
}

// RunAggregate accumulates run-level totals from device attempts. It is the
// only run-wide mutable state and is updated exclusively from Attempt records
// returned by the device agents.
type RunAggregate struct {
	PacketsSent      uint64
	PacketsDelivered uint64
	PacketsLost      uint64
	BytesDelivered   uint64
	EnergyMj         float64
	AirtimeSec       float64

	rssiSum float64
	snrSum  float64

	lostSeries   []LostPoint
	lostPeriodUs Timestamp
	nextLostTime Timestamp
}

func NewRunAggregate(lostPeriodSec float64) *RunAggregate {
	ra := &RunAggregate{}
	if lostPeriodSec > 0 {
		ra.lostPeriodUs = Timestamp(lostPeriodSec * float64(TimeUsPerSec))
		ra.nextLostTime = ra.lostPeriodUs
	}
	return ra
}

// Record folds one attempt into the aggregate and samples the lost series.
// Elapsed sample points flush before the attempt counts, so a sample stamped
// at time T never includes losses that happened after T.
func (ra *RunAggregate) Record(att agent.Attempt, payloadBytes int) {
	if ra.lostPeriodUs > 0 {
		for att.Time >= ra.nextLostTime {
			ra.lostSeries = append(ra.lostSeries, LostPoint{TimeUs: ra.nextLostTime, CumulativeLost: ra.PacketsLost})
			ra.nextLostTime += ra.lostPeriodUs
		}
	}

	ra.PacketsSent++
	ra.EnergyMj += att.Sample.EnergyMj
	ra.AirtimeSec += att.Sample.ToaSec
	ra.rssiSum += att.Sample.RssiDbm
	ra.snrSum += att.Sample.SnrDb
	if att.Sample.Delivered {
		ra.PacketsDelivered++
		ra.BytesDelivered += uint64(payloadBytes)
	} else {
		ra.PacketsLost++
	}
}

// CloseLostSeries appends the final sample at the run's end time.
func (ra *RunAggregate) CloseLostSeries(endTime Timestamp) {
	if ra.lostPeriodUs > 0 {
		ra.lostSeries = append(ra.lostSeries, LostPoint{TimeUs: endTime, CumulativeLost: ra.PacketsLost})
	}
}

func (ra *RunAggregate) LostSeries() []LostPoint {
	return ra.lostSeries
}

// Pdr returns the run packet delivery ratio, 0 when nothing was sent.
func (ra *RunAggregate) Pdr() float64 {
	if ra.PacketsSent == 0 {
		return 0.0
	}
	return float64(ra.PacketsDelivered) / float64(ra.PacketsSent)
}

// EnergyEfficiency returns delivered bits per millijoule, 0 when no energy was spent.
func (ra *RunAggregate) EnergyEfficiency() float64 {
	if ra.EnergyMj <= 0 {
		return 0.0
	}
	return float64(ra.BytesDelivered) * 8.0 / ra.EnergyMj
}

func (ra *RunAggregate) MeanToaSec() float64 {
	if ra.PacketsSent == 0 {
		return 0.0
	}
	return ra.AirtimeSec / float64(ra.PacketsSent)
}

func (ra *RunAggregate) MeanRssiDbm() float64 {
	if ra.PacketsSent == 0 {
		return 0.0
	}
	return ra.rssiSum / float64(ra.PacketsSent)
}

func (ra *RunAggregate) MeanSnrDb() float64 {
	if ra.PacketsSent == 0 {
		return 0.0
	}
	return ra.snrSum / float64(ra.PacketsSent)
}
