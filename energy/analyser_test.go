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

package energy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyserAccounting(t *testing.T) {
	ea := NewAnalyser()
	ea.AddDevice(1, 0)
	ea.AddDevice(2, 0)
	ea.AddDevice(1, 100) // duplicate add keeps the original record

	ea.RecordTx(1, 2.0, 0.05)
	ea.RecordTx(1, 2.0, 0.05)
	ea.RecordTx(2, 1.0, 0.1)

	dev := ea.GetDevice(1)
	require.NotNil(t, dev)
	assert.Equal(t, 4.0, dev.TxEnergyMj)
	assert.Equal(t, uint64(2), dev.PacketsSent)
	assert.InDelta(t, 0.1, dev.AirtimeSec, 1e-12)

	ea.StoreNetworkSnapshot(SnapshotPeriod)
	history := ea.NetworkHistory()
	require.Len(t, history, 1)
	assert.Equal(t, 5.0, history[0].TotalTxMj)
	assert.Equal(t, 2.5, history[0].MeanTxMjPerDev)
}

func TestAnalyserClearOnLastDelete(t *testing.T) {
	ea := NewAnalyser()
	ea.AddDevice(1, 0)
	ea.RecordTx(1, 1.0, 0.01)
	ea.StoreNetworkSnapshot(1000)
	require.Len(t, ea.NetworkHistory(), 1)

	ea.DeleteDevice(1)
	assert.Nil(t, ea.GetDevice(1))
	assert.Empty(t, ea.NetworkHistory())
}
