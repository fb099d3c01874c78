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

package radiomodel

import (
	. "github.com/lorabandit/lbsim/types"
)

// Receiver sensitivity in dBm per (SF, bandwidth). Sensitivity improves (decreases)
// with higher SF and degrades with wider bandwidth.
var receiverSensitivityDbm = map[SpreadingFactor]map[float64]DbValue{
	7:  {125e3: -123, 250e3: -120, 500e3: -116},
	8:  {125e3: -126, 250e3: -123, 500e3: -119},
	9:  {125e3: -129, 250e3: -125, 500e3: -122},
	10: {125e3: -132, 250e3: -128, 500e3: -125},
	11: {125e3: -133, 250e3: -130, 500e3: -128},
	12: {125e3: -136, 250e3: -133, 500e3: -130},
}

// Minimal required SINR in dB per SF. Higher SFs demodulate below the noise floor.
var sinrRequirementDb = map[SpreadingFactor]DbValue{
	7:  -7.5,
	8:  -10.0,
	9:  -12.5,
	10: -15.0,
	11: -17.5,
	12: -20.0,
}

// ReceiverSensitivityDbm returns the gateway's receiver sensitivity for the given
// SF/bandwidth combination, or RssiInvalid when the combination is not demodulable.
func ReceiverSensitivityDbm(sf SpreadingFactor, bandwidthHz float64) DbValue {
	if bwTable, ok := receiverSensitivityDbm[sf]; ok {
		if sens, ok := bwTable[bandwidthHz]; ok {
			return sens
		}
	}
	return RssiInvalid
}

// SinrRequirementDb returns the minimal SINR for successful demodulation at the given SF,
// or RssiInvalid for an unsupported SF.
func SinrRequirementDb(sf SpreadingFactor) DbValue {
	if req, ok := sinrRequirementDb[sf]; ok {
		return req
	}
	return RssiInvalid
}
