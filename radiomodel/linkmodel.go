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

// Package radiomodel implements the LoRa link metric model: path loss with shadowing,
// RSSI/SNR computation, frame airtime, transmit energy, and the success predicate.
package radiomodel

import (
	"math/rand"

	"github.com/lorabandit/lbsim/logger"
	. "github.com/lorabandit/lbsim/types"
)

// LinkSample is the computed link outcome of a single transmission attempt.
type LinkSample struct {
	RssiDbm    DbValue
	SnrDb      DbValue
	ToaSec     float64
	EnergyMj   float64
	SensOk     bool
	SinrOk     bool
	Collided   bool
	Delivered  bool
	Receivable bool // gateway listens on the chosen frequency
}

// LinkModel computes per-transmission link metrics. It is stateless apart from
// its shadowing random source.
type LinkModel struct {
	Params *LinkModelParams

	shadowRand  *rand.Rand
	degradedCnt uint64
}

// NewLinkModel creates a link model with the given parameters and shadowing source.
func NewLinkModel(params *LinkModelParams, shadowRand *rand.Rand) *LinkModel {
	logger.AssertNotNil(params)
	return &LinkModel{
		Params:     params,
		shadowRand: shadowRand,
	}
}

// shadowSample draws one lognormal shadowing sample (dB) for a transmission.
func (lm *LinkModel) shadowSample() DbValue {
	if lm.Params.ShadowSigmaDb == 0 {
		return 0.0
	}
	return lm.shadowRand.NormFloat64() * lm.Params.ShadowSigmaDb
}

// ComputeSample evaluates one transmission attempt. hasPosition=false degrades the
// RSSI to the configured default rather than failing the run. The collision flag is
// supplied by the caller, sampled from the run's CollisionModel.
func (lm *LinkModel) ComputeSample(devicePos Position, hasPosition bool, gatewayPos Position,
	params TxParameters, payloadBytes int, receivable bool, collided bool) LinkSample {

	var rssi DbValue
	if hasPosition {
		dist := Distance(devicePos, gatewayPos)
		rssi = ComputeRssi(dist, params.TxPowerDbm, lm.shadowSample(), lm.Params)
	} else {
		rssi = lm.Params.DegradedRssiDbm
		lm.degradedCnt++
		if lm.degradedCnt == 1 {
			logger.Warnf("no position data for RSSI computation, degrading to %.1f dBm", rssi)
		}
	}

	snr := rssi - NoiseFloorDbm(params.BandwidthHz, lm.Params)
	toa := TimeOnAir(params.Sf, params.BandwidthHz, payloadBytes, lm.Params)

	s := LinkSample{
		RssiDbm:    rssi,
		SnrDb:      snr,
		ToaSec:     toa,
		EnergyMj:   TxEnergyMj(params.TxPowerDbm, toa, lm.Params),
		SensOk:     rssi >= ReceiverSensitivityDbm(params.Sf, params.BandwidthHz),
		SinrOk:     snr >= SinrRequirementDb(params.Sf),
		Collided:   collided,
		Receivable: receivable,
	}
	s.Delivered = s.SensOk && s.SinrOk && s.Receivable && !s.Collided
	return s
}

// DegradedSampleCount returns how many samples were computed without position data.
func (lm *LinkModel) DegradedSampleCount() uint64 {
	return lm.degradedCnt
}
