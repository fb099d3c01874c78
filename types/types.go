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

// Package types holds the basic identifiers and units shared by all simulator packages.
package types

import "math"

type DeviceId = int
type ChannelId = int

const (
	MaxDeviceId     DeviceId = 0xffff
	InvalidDeviceId DeviceId = 0
)

// Timestamp is simulated time in microseconds since the start of the run.
type Timestamp = uint64

const (
	InvalidTimestamp Timestamp = math.MaxUint64
	// Ever is used as the timestamp for "never happens" scheduling.
	Ever Timestamp = math.MaxUint64 / 2

	TimeUsPerSec uint64 = 1000000
)

// DbValue is a quantity in dB or dBm. Values outside int8 range are legal mid-calculation.
type DbValue = float64

const (
	UndefinedDbValue DbValue = math.MaxFloat64

	RssiInvalid       DbValue = 127
	RssiMax           DbValue = 126
	RssiMin           DbValue = -126
	RssiMinusInfinity DbValue = -127
)
