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

// Package agent implements the per-device decision loop: select transmission
// parameters, attempt the transmission through the link model, feed the outcome
// back into the policy, and schedule the next attempt.
package agent

import (
	"math"
	"math/rand"

	"github.com/lorabandit/lbsim/logger"
	"github.com/lorabandit/lbsim/policy"
	"github.com/lorabandit/lbsim/radiomodel"
	. "github.com/lorabandit/lbsim/types"
)

// Environment supplies the per-decision inputs the device itself cannot know:
// where the gateway is, whether it listens on the chosen frequency, and whether
// the attempt collided with concurrent traffic.
type Environment interface {
	GatewayPosition() Position
	Receivable(freqHz float64) bool
	CollisionSample(params TxParameters) bool
}

// Attempt is the record of one transmission attempt, returned to the driver
// for run-level aggregation and tracing.
type Attempt struct {
	Device DeviceId
	Time   Timestamp
	Params TxParameters
	Sample radiomodel.LinkSample
}

// Config holds the static per-device settings fixed at device creation.
type Config struct {
	Id          DeviceId
	Position    Position
	HasPosition bool

	Mobile        bool
	MobilityStepM float64
	AreaWidthM    float64
	AreaHeightM   float64

	PayloadBytes    int
	MeanIntervalSec float64
	JitterSec       float64

	// TxBudget stops the device after this many transmissions; 0 means the
	// device runs until the simulation's stop time.
	TxBudget int

	// StartTime anchors the device's first decision; devices added mid-run
	// start from the current simulated time.
	StartTime Timestamp
}

// DeviceAgent drives one device. The inter-transmission interval is drawn once
// at creation from an exponential distribution and reused for the whole run;
// a small per-decision jitter desynchronizes devices that drew similar intervals.
type DeviceAgent struct {
	Id       DeviceId
	Position Position

	cfg    Config
	pol    policy.Policy
	link   *radiomodel.LinkModel
	rnd    *rand.Rand
	shared bool

	intervalUs Timestamp
	nextTime   Timestamp
	done       bool

	// running totals, read at teardown for result aggregation
	PacketsSent      uint64
	PacketsDelivered uint64
	PacketsLost      uint64
	BytesDelivered   uint64
	EnergyMj         float64
	AirtimeSec       float64

	rssiSum float64
	snrSum  float64
}

// NewDeviceAgent creates the device with its policy instance. When the policy is
// shared across devices the same instance is passed to each agent and shared
// must be set, for reporting purposes only; the decision loop is identical.
func NewDeviceAgent(cfg Config, pol policy.Policy, link *radiomodel.LinkModel, rnd *rand.Rand, shared bool) *DeviceAgent {
	logger.AssertNotNil(pol)
	logger.AssertTrue(cfg.MeanIntervalSec > 0)

	a := &DeviceAgent{
		Id:       cfg.Id,
		Position: cfg.Position,
		cfg:      cfg,
		pol:      pol,
		link:     link,
		rnd:      rnd,
		shared:   shared,
	}
	a.intervalUs = Timestamp(rnd.ExpFloat64() * cfg.MeanIntervalSec * float64(TimeUsPerSec))
	if a.intervalUs == 0 {
		a.intervalUs = 1
	}
	// first decision lands uniformly within one interval to spread device phases
	a.nextTime = cfg.StartTime + Timestamp(rnd.Int63n(int64(a.intervalUs)+1))
	return a
}

func (a *DeviceAgent) Policy() policy.Policy {
	return a.pol
}

func (a *DeviceAgent) IsSharedPolicy() bool {
	return a.shared
}

// NextTime returns the timestamp of the device's next scheduled decision,
// Ever once the device has stopped.
func (a *DeviceAgent) NextTime() Timestamp {
	if a.done {
		return Ever
	}
	return a.nextTime
}

func (a *DeviceAgent) Done() bool {
	return a.done
}

// Step runs one SelectAndTransmit cycle at logical time now and schedules the
// next one. The caller must invoke Step only at the device's NextTime.
func (a *DeviceAgent) Step(now Timestamp, env Environment) Attempt {
	logger.AssertFalse(a.done)

	if a.cfg.Mobile {
		a.walk()
	}

	params := a.pol.Select()
	receivable := env.Receivable(params.FrequencyHz)
	collided := env.CollisionSample(params)
	sample := a.link.ComputeSample(a.Position, a.cfg.HasPosition, env.GatewayPosition(),
		params, a.cfg.PayloadBytes, receivable, collided)

	a.PacketsSent++
	a.EnergyMj += sample.EnergyMj
	a.AirtimeSec += sample.ToaSec
	a.rssiSum += sample.RssiDbm
	a.snrSum += sample.SnrDb
	if sample.Delivered {
		a.PacketsDelivered++
		a.BytesDelivered += uint64(a.cfg.PayloadBytes)
	} else {
		a.PacketsLost++
	}

	a.pol.Update(params, policy.Outcome{
		Success:   sample.Delivered,
		EnergyMj:  sample.EnergyMj,
		QualityMw: math.Pow(10, sample.RssiDbm/10.0),
	})

	if a.cfg.TxBudget > 0 && a.PacketsSent >= uint64(a.cfg.TxBudget) {
		a.done = true
	} else {
		a.nextTime = now + a.intervalUs + a.jitterUs()
	}

	return Attempt{Device: a.Id, Time: now, Params: params, Sample: sample}
}

// Stop drops the device's pending next decision; it will never execute.
func (a *DeviceAgent) Stop() {
	a.done = true
}

func (a *DeviceAgent) jitterUs() Timestamp {
	if a.cfg.JitterSec <= 0 {
		return 0
	}
	return Timestamp(a.rnd.Float64() * a.cfg.JitterSec * float64(TimeUsPerSec))
}

// walk takes one bounded random-walk step, reflecting at the area edges.
func (a *DeviceAgent) walk() {
	step := a.cfg.MobilityStepM
	if step <= 0 {
		return
	}
	angle := a.rnd.Float64() * 2 * math.Pi
	a.Position.X = clampReflect(a.Position.X+step*math.Cos(angle), a.cfg.AreaWidthM)
	a.Position.Y = clampReflect(a.Position.Y+step*math.Sin(angle), a.cfg.AreaHeightM)
}

func clampReflect(v, max float64) float64 {
	if max <= 0 {
		return v
	}
	if v < 0 {
		return -v
	}
	if v > max {
		return 2*max - v
	}
	return v
}

// Pdr returns the device's packet delivery ratio, 0 when nothing was sent.
func (a *DeviceAgent) Pdr() float64 {
	if a.PacketsSent == 0 {
		return 0.0
	}
	return float64(a.PacketsDelivered) / float64(a.PacketsSent)
}

// EnergyEfficiency returns delivered bits per millijoule, 0 when no energy was spent.
func (a *DeviceAgent) EnergyEfficiency() float64 {
	if a.EnergyMj <= 0 {
		return 0.0
	}
	return float64(a.BytesDelivered) * 8.0 / a.EnergyMj
}

// MeanToaSec returns the average time-on-air per transmission, 0 when nothing was sent.
func (a *DeviceAgent) MeanToaSec() float64 {
	if a.PacketsSent == 0 {
		return 0.0
	}
	return a.AirtimeSec / float64(a.PacketsSent)
}

// MeanRssiDbm returns the average RSSI over all attempts, 0 when nothing was sent.
func (a *DeviceAgent) MeanRssiDbm() float64 {
	if a.PacketsSent == 0 {
		return 0.0
	}
	return a.rssiSum / float64(a.PacketsSent)
}

// MeanSnrDb returns the average SNR over all attempts, 0 when nothing was sent.
func (a *DeviceAgent) MeanSnrDb() float64 {
	if a.PacketsSent == 0 {
		return 0.0
	}
	return a.snrSum / float64(a.PacketsSent)
}
