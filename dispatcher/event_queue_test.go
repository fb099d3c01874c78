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

package dispatcher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/lorabandit/lbsim/types"
)

func TestEventQueueOrdering(t *testing.T) {
	eq := NewEventQueue()
	eq.AddDevice(3, 300)
	eq.AddDevice(1, 100)
	eq.AddDevice(2, 200)

	id, ts := eq.NextDevice()
	assert.Equal(t, DeviceId(1), id)
	assert.Equal(t, Timestamp(100), ts)

	eq.SetTimestamp(1, 250)
	id, ts = eq.NextDevice()
	assert.Equal(t, DeviceId(2), id)
	assert.Equal(t, Timestamp(200), ts)
}

func TestEventQueueSameTimeBreaksToLowestId(t *testing.T) {
	eq := NewEventQueue()
	for id := 9; id >= 1; id-- {
		eq.AddDevice(id, 500)
	}

	for want := 1; want <= 9; want++ {
		id, ts := eq.NextDevice()
		assert.Equal(t, DeviceId(want), id)
		assert.Equal(t, Timestamp(500), ts)
		eq.SetTimestamp(id, 1000+Timestamp(id))
	}
}

func TestEventQueueParkAndDelete(t *testing.T) {
	eq := NewEventQueue()
	eq.AddDevice(1, 100)
	eq.AddDevice(2, 200)

	eq.Park(1)
	assert.Equal(t, Ever, eq.GetTimestamp(1))
	id, _ := eq.NextDevice()
	assert.Equal(t, DeviceId(2), id)

	eq.DeleteDevice(2)
	assert.Equal(t, 1, eq.Len())
	id, ts := eq.NextDevice()
	assert.Equal(t, InvalidDeviceId, id)
	assert.Equal(t, Ever, ts)
}

func TestEventQueueEmpty(t *testing.T) {
	eq := NewEventQueue()
	assert.Equal(t, Ever, eq.NextTimestamp())
	id, ts := eq.NextDevice()
	assert.Equal(t, InvalidDeviceId, id)
	assert.Equal(t, Ever, ts)
	assert.Equal(t, 0, eq.Len())
}
