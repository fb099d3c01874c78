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

package telemetry

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorabandit/lbsim/agent"
)

func TestCollectorExposesMetrics(t *testing.T) {
	c := NewCollector()

	att := agent.Attempt{Device: 1, Time: 1000}
	att.Sample.Delivered = true
	att.Sample.ToaSec = 0.056
	att.Sample.SnrDb = 12.5
	c.ObserveAttempt("ucb1", att)

	att.Sample.Delivered = false
	c.ObserveAttempt("ucb1", att)
	c.ObserveClock(2_000_000, 10)

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.Nil(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.Nil(t, err)

	text := string(body)
	assert.True(t, strings.Contains(text, `lbsim_tx_attempts_total{outcome="delivered",policy="ucb1"} 1`), text)
	assert.True(t, strings.Contains(text, `lbsim_tx_attempts_total{outcome="lost",policy="ucb1"} 1`), text)
	assert.True(t, strings.Contains(text, "lbsim_simulated_seconds 2"), text)
	assert.True(t, strings.Contains(text, "lbsim_devices 10"), text)
	assert.True(t, strings.Contains(text, "lbsim_tx_airtime_seconds_count 2"), text)
}
