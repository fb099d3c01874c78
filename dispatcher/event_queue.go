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

// Package dispatcher provides the single-threaded discrete-event queue that
// orders per-device decision events. Ties at the same timestamp break to the
// lowest device id, keeping shared-policy runs reproducible for a given seed.
package dispatcher

import (
	"container/heap"

	"github.com/lorabandit/lbsim/logger"
	. "github.com/lorabandit/lbsim/types"
)

type decisionEvent struct {
	DeviceId  DeviceId
	Timestamp Timestamp

	index int
}

type decisionQueue []*decisionEvent

func (dq decisionQueue) Len() int {
	return len(dq)
}

func (dq decisionQueue) Less(i, j int) bool {
	if dq[i].Timestamp != dq[j].Timestamp {
		return dq[i].Timestamp < dq[j].Timestamp
	}
	return dq[i].DeviceId < dq[j].DeviceId
}

func (dq decisionQueue) Swap(i, j int) {
	a, b := dq[i], dq[j]
	if a.index != i && b.index != j {
		logger.Panicf("wrong index")
	}

	dq[i], dq[j] = b, a             // swap the elements
	dq[i].index, dq[j].index = i, j // fix the indexes
}

func (dq *decisionQueue) Push(x interface{}) {
	e := x.(*decisionEvent)
	*dq = append(*dq, e)
	e.index = len(*dq) - 1
}

func (dq *decisionQueue) Pop() (elem interface{}) {
	dqlen := len(*dq)
	elem = (*dq)[dqlen-1]
	*dq = (*dq)[:dqlen-1]
	return
}

// EventQueue tracks each device's next decision time. A device whose next
// decision is Ever is parked and never dispatched.
type EventQueue struct {
	q      decisionQueue
	events map[DeviceId]*decisionEvent
}

func NewEventQueue() *EventQueue {
	eq := &EventQueue{
		q:      decisionQueue{},
		events: map[DeviceId]*decisionEvent{},
	}

	heap.Init(&eq.q)
	return eq
}

// AddDevice registers a device with its first decision time.
func (eq *EventQueue) AddDevice(id DeviceId, timestamp Timestamp) {
	e := eq.events[id]
	logger.AssertNil(e)

	e = &decisionEvent{
		DeviceId:  id,
		Timestamp: timestamp,
	}
	heap.Push(&eq.q, e)
	eq.events[id] = e
}

// SetTimestamp reschedules a device's next decision.
func (eq *EventQueue) SetTimestamp(id DeviceId, timestamp Timestamp) {
	e := eq.events[id]
	logger.AssertNotNil(e)

	if e.Timestamp != timestamp {
		e.Timestamp = timestamp
		heap.Fix(&eq.q, e.index)
	}
}

// Park drops a stopped device's pending decision without removing the device.
func (eq *EventQueue) Park(id DeviceId) {
	eq.SetTimestamp(id, Ever)
}

func (eq *EventQueue) GetTimestamp(id DeviceId) Timestamp {
	e := eq.events[id]
	logger.AssertNotNil(e)

	return e.Timestamp
}

// NextDevice returns the device holding the earliest pending decision and its
// timestamp, or (InvalidDeviceId, Ever) when nothing is pending.
func (eq *EventQueue) NextDevice() (DeviceId, Timestamp) {
	if len(eq.q) == 0 || eq.q[0].Timestamp == Ever {
		return InvalidDeviceId, Ever
	}

	return eq.q[0].DeviceId, eq.q[0].Timestamp
}

// NextTimestamp returns the earliest pending decision time, Ever when none.
func (eq *EventQueue) NextTimestamp() Timestamp {
	if len(eq.q) == 0 {
		return Ever
	}

	return eq.q[0].Timestamp
}

func (eq *EventQueue) DeleteDevice(id DeviceId) {
	e := eq.events[id]
	logger.AssertNotNil(e)
	heap.Remove(&eq.q, e.index)
	delete(eq.events, id)
}

func (eq *EventQueue) Len() int {
	return len(eq.events)
}
