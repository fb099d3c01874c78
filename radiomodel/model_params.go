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

// default link model parameters (suburban log-distance calibration)
const (
	defaultRefPathLossDb    DbValue = 128.95 // path loss at the reference distance (dB)
	defaultRefDistanceM     float64 = 1000.0
	defaultPathLossExponent float64 = 2.32
	defaultShadowSigmaDb    DbValue = 7.8
	defaultNoiseFigureDb    DbValue = 6.0
	defaultPreambleSymbols  int     = 8
	defaultDegradedRssiDbm  DbValue = -100.0
)

// LinkModelParams stores the parameters of the link metric model.
type LinkModelParams struct {
	RefPathLossDb    DbValue // path loss (dB) at reference distance RefDistanceM
	RefDistanceM     float64 // reference distance D0 in meters
	PathLossExponent float64 // log-distance path loss exponent
	ShadowSigmaDb    DbValue // sigma (stddev) of lognormal shadowing, in dB
	NoiseFigureDb    DbValue // receiver noise figure (dB), added to the thermal noise floor

	PreambleSymbols     int  // preamble length in symbols
	CodingRate          int  // coding rate offset CR, denominator is 4+CR
	CrcEnabled          bool // payload CRC on (uplink default)
	ExplicitHeader      bool // explicit PHY header on
	LowDataRateOptimize bool // DE bit in the airtime equation

	// Fixed per-transmission energy overhead (mJ), on top of the TX energy.
	// Zero unless a class-A overhead preset is applied.
	WakeupEnergyMj     float64
	ProcessingEnergyMj float64
	RxWindowEnergyMj   float64

	// DegradedRssiDbm is returned when a device has no position data.
	DegradedRssiDbm DbValue
}

// newLinkModelParams gets a new set of parameters with default values, as a basis to configure further.
func newLinkModelParams() *LinkModelParams {
	return &LinkModelParams{
		RefPathLossDb:    defaultRefPathLossDb,
		RefDistanceM:     defaultRefDistanceM,
		PathLossExponent: defaultPathLossExponent,
		ShadowSigmaDb:    defaultShadowSigmaDb,
		NoiseFigureDb:    defaultNoiseFigureDb,
		PreambleSymbols:  defaultPreambleSymbols,
		CodingRate:       1,
		CrcEnabled:       true,
		ExplicitHeader:   true,
		DegradedRssiDbm:  defaultDegradedRssiDbm,
	}
}

// free-space reference model, useful for deterministic tests
func setFreeSpaceModelParams(params *LinkModelParams) {
	params.PathLossExponent = 2.0
	params.ShadowSigmaDb = 0.0
}

// class-A device energy overhead per transmission (wake-up, MCU processing, RX windows)
func setClassAOverheadParams(params *LinkModelParams) {
	params.WakeupEnergyMj = 56.1e-3
	params.ProcessingEnergyMj = 85.8e-3
	params.RxWindowEnergyMj = 66.0e-3
}

// NewLinkModelParams returns parameters for the named environment preset.
// Known presets: "suburban" (default), "freespace", "classa-overhead".
func NewLinkModelParams(preset string) *LinkModelParams {
	params := newLinkModelParams()
	switch preset {
	case "", "suburban", "default":
		break
	case "freespace":
		setFreeSpaceModelParams(params)
	case "classa-overhead":
		setClassAOverheadParams(params)
	default:
		return nil
	}
	return params
}
