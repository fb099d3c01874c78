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

import . "github.com/lorabandit/lbsim/types"

type KpiTimeUs struct {
	StartTimeUs uint64 `json:"start"`
	EndTimeUs   uint64 `json:"end"`
	PeriodUs    uint64 `json:"duration"`
}

type KpiTimeSec struct {
	StartTimeSec float64 `json:"start"`
	EndTimeSec   float64 `json:"end"`
	PeriodSec    float64 `json:"duration"`
}

// KpiNetwork holds the run-level aggregates over all devices.
type KpiNetwork struct {
	PacketsSent      uint64  `json:"tx_packets"`
	PacketsDelivered uint64  `json:"rx_packets"`
	PacketsLost      uint64  `json:"lost_packets"`
	Pdr              float64 `json:"pdr"`
	EnergyMj         float64 `json:"energy_mj"`
	BitsPerMj        float64 `json:"bits_per_mj"`
	MeanToaSec       float64 `json:"avg_toa_sec"`
	MeanRssiDbm      float64 `json:"avg_rssi_dbm"`
	MeanSnrDb        float64 `json:"avg_snr_db"`
	DegradedSamples  uint64  `json:"degraded_rssi_samples"`
}

// KpiDevice holds one device's final counters.
type KpiDevice struct {
	PacketsSent      uint64  `json:"tx_packets"`
	PacketsDelivered uint64  `json:"rx_packets"`
	Pdr              float64 `json:"pdr"`
	EnergyMj         float64 `json:"energy_mj"`
	BitsPerMj        float64 `json:"bits_per_mj"`
	MeanToaSec       float64 `json:"avg_toa_sec"`
	MeanRssiDbm      float64 `json:"avg_rssi_dbm"`
	MeanSnrDb        float64 `json:"avg_snr_db"`
}

// KpiArm is one arm's selection share across the whole run.
type KpiArm struct {
	Label string  `json:"label"`
	Count uint64  `json:"count"`
	Ratio float64 `json:"ratio"`
}

type Kpi struct {
	FileTime string                  `json:"created"`
	Status   string                  `json:"status"`
	Title    string                  `json:"title"`
	Policy   string                  `json:"policy"`
	Seed     int64                   `json:"seed"`
	TimeUs   KpiTimeUs               `json:"time_us"`
	TimeSec  KpiTimeSec              `json:"time_sec"`
	Network  KpiNetwork              `json:"network"`
	Devices  map[DeviceId]KpiDevice  `json:"devices"`
	Arms     []KpiArm                `json:"arms"`
}
