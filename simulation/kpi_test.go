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
	"encoding/json"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKpiFileAfterRun(t *testing.T) {
	cfg := testSimConfig(t)
	cfg.Title = "kpi-test"
	cfg.DurationSec = 600
	sim, err := NewSimulation(nil, cfg)
	require.Nil(t, err)

	km := sim.Kpi()
	km.Start()
	assert.True(t, km.IsRunning())
	sim.Run()
	km.Stop()
	assert.False(t, km.IsRunning())

	data := km.Data()
	assert.Equal(t, "ok", data.Status)
	assert.Equal(t, "kpi-test", data.Title)
	assert.Equal(t, cfg.Policy, data.Policy)
	assert.Equal(t, sim.Aggregate().PacketsSent, data.Network.PacketsSent)
	assert.Equal(t, sim.Aggregate().Pdr(), data.Network.Pdr)
	assert.Len(t, data.Devices, 10)
	assert.NotEmpty(t, data.Arms)

	var ratioSum float64
	for _, arm := range data.Arms {
		ratioSum += arm.Ratio
	}
	assert.InDelta(t, 1.0, ratioSum, 1e-9)

	fn := fmt.Sprintf("%s/%d_kpi.json", cfg.OutputDir, cfg.Id)
	raw, err := os.ReadFile(fn)
	require.Nil(t, err)
	var parsed Kpi
	require.Nil(t, json.Unmarshal(raw, &parsed))
	assert.Equal(t, data.Network.PacketsSent, parsed.Network.PacketsSent)
}

func TestKpiZeroTransmissions(t *testing.T) {
	cfg := testSimConfig(t)
	sim, err := NewSimulation(nil, cfg)
	require.Nil(t, err)

	km := sim.Kpi()
	km.Start()
	km.Stop() // no run in between

	data := km.Data()
	assert.Equal(t, uint64(0), data.Network.PacketsSent)
	assert.Equal(t, 0.0, data.Network.Pdr)
	assert.Equal(t, 0.0, data.Network.BitsPerMj)
}
