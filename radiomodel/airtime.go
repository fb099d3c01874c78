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
	"math"

	. "github.com/lorabandit/lbsim/types"
)

// TimeOnAir computes the LoRa frame airtime in seconds for the given PHY settings,
// per the Semtech LoRa modem designer's guide airtime equation.
func TimeOnAir(sf SpreadingFactor, bandwidthHz float64, payloadBytes int, params *LinkModelParams) float64 {
	symbolDuration := math.Pow(2, float64(sf)) / bandwidthHz
	preambleDuration := (float64(params.PreambleSymbols) + 4.25) * symbolDuration

	crc := 0.0
	if params.CrcEnabled {
		crc = 1.0
	}
	implicitHeader := 1.0
	if params.ExplicitHeader {
		implicitHeader = 0.0
	}
	de := 0.0
	if params.LowDataRateOptimize {
		de = 1.0
	}

	num := 8.0*float64(payloadBytes) - 4.0*float64(sf) + 28.0 + 16.0*crc - 20.0*implicitHeader
	den := 4.0 * (float64(sf) - 2.0*de)
	payloadSymbols := 8.0 + math.Max(math.Ceil(num/den)*(float64(params.CodingRate)+4.0), 0.0)

	return preambleDuration + payloadSymbols*symbolDuration
}

// TxEnergyMj computes the energy in mJ spent transmitting at txPowerDbm for toaSeconds,
// including any fixed per-transmission overhead configured in params.
func TxEnergyMj(txPowerDbm DbValue, toaSeconds float64, params *LinkModelParams) float64 {
	txPowerMw := math.Pow(10.0, txPowerDbm/10.0)
	e := txPowerMw * toaSeconds // mW * s = mJ
	return e + params.WakeupEnergyMj + params.ProcessingEnergyMj + params.RxWindowEnergyMj
}
