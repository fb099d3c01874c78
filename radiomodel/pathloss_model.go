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

// Distance computes the device-to-gateway distance in meters, floored at 1 m
// to avoid the log-domain singularity of the path loss model.
func Distance(p1 Position, p2 Position) float64 {
	d := math.Sqrt(math.Pow(p1.X-p2.X, 2) + math.Pow(p1.Y-p2.Y, 2))
	return math.Max(d, 1.0)
}

// computePathLossDb computes the log-distance path loss for a link of length distMeters,
// with shadowDb an externally drawn lognormal shadowing sample (dB).
func computePathLossDb(distMeters float64, shadowDb DbValue, params *LinkModelParams) DbValue {
	distMeters = math.Max(distMeters, 1.0)
	return params.RefPathLossDb + 10.0*params.PathLossExponent*math.Log10(distMeters/params.RefDistanceM) + shadowDb
}

// ComputeRssi computes the RSSI at the gateway for a transmission at txPower over distMeters.
func ComputeRssi(distMeters float64, txPower DbValue, shadowDb DbValue, params *LinkModelParams) DbValue {
	return txPower - computePathLossDb(distMeters, shadowDb, params)
}

// NoiseFloorDbm computes the receiver noise floor for the given signal bandwidth.
func NoiseFloorDbm(bandwidthHz float64, params *LinkModelParams) DbValue {
	return -174.0 + 10.0*math.Log10(bandwidthHz) + params.NoiseFigureDb
}
