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

// Package simulation is the discrete-event experiment driver: it creates the
// device population, advances the logical clock by dispatching each device's
// next decision in time order, aggregates results, and writes run reports.
package simulation

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/lorabandit/lbsim/agent"
	"github.com/lorabandit/lbsim/dispatcher"
	"github.com/lorabandit/lbsim/energy"
	"github.com/lorabandit/lbsim/logger"
	"github.com/lorabandit/lbsim/pcap"
	"github.com/lorabandit/lbsim/policy"
	"github.com/lorabandit/lbsim/prng"
	"github.com/lorabandit/lbsim/progctx"
	"github.com/lorabandit/lbsim/radiomodel"
	. "github.com/lorabandit/lbsim/types"
)

// AttemptObserver receives every dispatched attempt, for telemetry and tracing.
type AttemptObserver interface {
	ObserveAttempt(policyName string, att agent.Attempt)
	ObserveClock(timestamp Timestamp, devices int)
}

type envSwitch struct {
	at     Timestamp
	params *radiomodel.LinkModelParams
}

type Simulation struct {
	ctx     *progctx.ProgCtx
	cfg     *Config
	stopped bool

	agents map[DeviceId]*agent.DeviceAgent
	eq     *dispatcher.EventQueue

	link      *radiomodel.LinkModel
	collision radiomodel.CollisionModel

	gatewayPos Position
	receivable map[float64]bool // empty map means all frequencies

	sharedPolicy policy.Policy

	agg            *RunAggregate
	energyAnalyser *energy.Analyser
	kpi            *KpiManager
	observer       AttemptObserver
	pcapFile       pcap.File

	curTime       Timestamp
	stopTime      Timestamp
	nextSnapshot  Timestamp
	nextDeviceId  DeviceId
	collisionRand *rand.Rand
	trafficRand   *rand.Rand

	// last transmission still on air, for concurrency-aware collision models
	lastTxParams TxParameters
	lastTxEnd    Timestamp
}

// NewSimulation builds the simulation from the experiment configuration and
// places the configured device population.
func NewSimulation(ctx *progctx.ProgCtx, cfg *Config) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// 0 draws a time-based seed; the effective seed is kept for the run report
	cfg.Seed = prng.Init(cfg.Seed)

	linkParams := radiomodel.NewLinkModelParams(cfg.Environment)
	if linkParams == nil {
		return nil, errors.Errorf("unknown environment %q", cfg.Environment)
	}
	collision, err := radiomodel.NewCollisionModel(cfg.CollisionModel)
	if err != nil {
		return nil, err
	}

	s := &Simulation{
		ctx:            ctx,
		cfg:            cfg,
		agents:         map[DeviceId]*agent.DeviceAgent{},
		eq:             dispatcher.NewEventQueue(),
		link:           radiomodel.NewLinkModel(linkParams, prng.NewShadowingRand()),
		collision:      collision,
		gatewayPos:     Position{X: cfg.GatewayX, Y: cfg.GatewayY},
		receivable:     map[float64]bool{},
		agg:            NewRunAggregate(cfg.LostSeriesPeriodSec),
		energyAnalyser: energy.NewAnalyser(),
		kpi:            NewKpiManager(),
		stopTime:       Timestamp(cfg.DurationSec * float64(TimeUsPerSec)),
		nextSnapshot:   energy.SnapshotPeriod,
		collisionRand:  prng.CollisionRand(),
		trafficRand:    prng.TrafficRand(),
	}
	if cfg.DurationSec <= 0 {
		// budget-only run: no time limit, the queue drains when every
		// device has exhausted its transmission budget
		s.stopTime = Ever
	}
	for _, cf := range cfg.ReceivableCfSet {
		s.receivable[cf] = true
	}
	if cfg.Title != "" {
		s.energyAnalyser.SetTitle(cfg.Title)
	}
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, errors.Wrapf(err, "creating output directory %s", cfg.OutputDir)
	}
	// clear output files left over from an earlier run with this experiment id
	if err := removeAllFiles(filepath.Join(cfg.OutputDir, fmt.Sprintf("%d_*", cfg.Id))); err != nil {
		logger.Errorf("removing stale output files: %v", err)
	}

	if pcap.ParseFrameTypeStr(cfg.Pcap) == pcap.FrameTypeLoraTap {
		fn := filepath.Join(cfg.OutputDir, fmt.Sprintf("%d_trace.pcap", cfg.Id))
		s.pcapFile, err = pcap.NewFile(fn, pcap.FrameTypeLoraTap)
		if err != nil {
			return nil, err
		}
	}

	if cfg.SharedPolicy {
		pc, err := cfg.policyConfig(0)
		if err != nil {
			return nil, err
		}
		s.sharedPolicy, err = policy.New(pc, cfg.dimensions(), prng.NewPolicyRand())
		if err != nil {
			return nil, err
		}
	}

	placement := prng.PlacementRand()
	for i := 0; i < cfg.Devices; i++ {
		if _, err := s.AddDevice(placement); err != nil {
			return nil, err
		}
	}

	s.kpi.Init(s)
	logger.Infof("simulation created: %d devices, policy %s, %s environment",
		cfg.Devices, cfg.Policy, cfg.Environment)
	return s, nil
}

// AddDevice creates one device at a random position and schedules its first
// decision. Devices may be added mid-run from the console.
func (s *Simulation) AddDevice(placement *rand.Rand) (*agent.DeviceAgent, error) {
	idx := int(s.nextDeviceId)
	s.nextDeviceId++
	id := s.nextDeviceId

	pol := s.sharedPolicy
	if pol == nil {
		pc, err := s.cfg.policyConfig(idx)
		if err != nil {
			return nil, err
		}
		pol, err = policy.New(pc, s.cfg.dimensions(), prng.NewPolicyRand())
		if err != nil {
			return nil, err
		}
	}

	acfg := agent.Config{
		Id:              id,
		Position:        Position{X: placement.Float64() * s.cfg.AreaWidthM, Y: placement.Float64() * s.cfg.AreaHeightM},
		HasPosition:     placement.Float64() >= s.cfg.NoPositionFraction,
		Mobile:          placement.Float64() < s.cfg.MobileFraction,
		MobilityStepM:   s.cfg.MobilityStepM,
		AreaWidthM:      s.cfg.AreaWidthM,
		AreaHeightM:     s.cfg.AreaHeightM,
		PayloadBytes:    s.cfg.PayloadBytes,
		MeanIntervalSec: s.cfg.MeanIntervalSec,
		JitterSec:       s.cfg.JitterSec,
		TxBudget:        s.cfg.TxBudget,
		StartTime:       s.curTime,
	}
	a := agent.NewDeviceAgent(acfg, pol, s.link, s.trafficRand, s.sharedPolicy != nil)
	s.agents[id] = a
	s.eq.AddDevice(id, a.NextTime())
	s.energyAnalyser.AddDevice(id, s.curTime)
	return a, nil
}

// DeleteDevice removes a device; its pending decision is never executed.
func (s *Simulation) DeleteDevice(id DeviceId) error {
	a := s.agents[id]
	if a == nil {
		return errors.Errorf("device %d not found", id)
	}
	a.Stop()
	s.eq.DeleteDevice(id)
	s.energyAnalyser.DeleteDevice(id)
	delete(s.agents, id)
	return nil
}

func (s *Simulation) Agents() map[DeviceId]*agent.DeviceAgent {
	return s.agents
}

// DeviceIds returns all device ids in ascending order.
func (s *Simulation) DeviceIds() []DeviceId {
	ids := make([]DeviceId, 0, len(s.agents))
	for id := range s.agents {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (s *Simulation) CurTime() Timestamp   { return s.curTime }
func (s *Simulation) Config() *Config      { return s.cfg }
func (s *Simulation) Aggregate() *RunAggregate {
	return s.agg
}
func (s *Simulation) EnergyAnalyser() *energy.Analyser { return s.energyAnalyser }
func (s *Simulation) Kpi() *KpiManager                 { return s.kpi }
func (s *Simulation) Link() *radiomodel.LinkModel      { return s.link }

func (s *Simulation) SetObserver(obs AttemptObserver) {
	s.observer = obs
}

func (s *Simulation) SetSpeed(speed float64) {
	s.cfg.Speed = speed
}

// Stop ends the run; pending decisions are dropped.
func (s *Simulation) Stop() {
	s.stopped = true
	if s.pcapFile != nil {
		_ = s.pcapFile.Sync()
		_ = s.pcapFile.Close()
		s.pcapFile = nil
	}
}

func (s *Simulation) IsStopped() bool {
	return s.stopped
}

// GatewayPosition implements agent.Environment.
func (s *Simulation) GatewayPosition() Position {
	return s.gatewayPos
}

// Receivable implements agent.Environment: the gateway listens on the
// configured frequency subset, or on everything when none is configured.
func (s *Simulation) Receivable(freqHz float64) bool {
	if len(s.receivable) == 0 {
		return true
	}
	return s.receivable[freqHz]
}

// CollisionSample implements agent.Environment. A transmission overlapping the
// previous one still on air is exposed to the collision model as concurrent.
func (s *Simulation) CollisionSample(params TxParameters) bool {
	ctx := radiomodel.TxContext{
		Params:    params,
		TotalSent: s.agg.PacketsSent,
	}
	if s.curTime < s.lastTxEnd {
		ctx.Concurrent = s.lastTxParams
		ctx.HasConcurrent = true
	}
	return s.collision.Sample(ctx, s.collisionRand)
}

// Run advances the simulation until the configured duration elapses or every
// device has exhausted its transmission budget.
func (s *Simulation) Run() {
	s.RunUntil(s.stopTime)
	s.agg.CloseLostSeries(s.curTime)
}

// RunFor advances the simulation by the given number of simulated seconds.
func (s *Simulation) RunFor(durationSec float64) {
	s.RunUntil(s.curTime + Timestamp(durationSec*float64(TimeUsPerSec)))
}

// RunUntil dispatches decision events in time order up to the target time.
// Equal timestamps dispatch in ascending device id order.
func (s *Simulation) RunUntil(target Timestamp) {
	if target > s.stopTime && s.stopTime > 0 {
		target = s.stopTime
	}
	switches := s.pendingEnvSwitches()

	for !s.stopped {
		if s.ctx != nil && s.ctx.Err() != nil {
			break
		}

		id, ts := s.eq.NextDevice()
		if id == InvalidDeviceId {
			if target != Ever {
				s.curTime = target
			}
			break
		}
		if ts > target {
			s.curTime = target
			break
		}

		switches = s.applyEnvSwitches(switches, ts)
		s.pace(ts)
		s.curTime = ts

		a := s.agents[id]
		att := a.Step(ts, s)

		s.agg.Record(att, s.cfg.PayloadBytes)
		s.energyAnalyser.RecordTx(id, att.Sample.EnergyMj, att.Sample.ToaSec)
		s.lastTxParams = att.Params
		s.lastTxEnd = ts + Timestamp(att.Sample.ToaSec*float64(TimeUsPerSec))

		if s.pcapFile != nil && att.Sample.Delivered {
			frame := pcap.Frame{
				Timestamp: ts,
				Data:      make([]byte, s.cfg.PayloadBytes),
				Params:    att.Params,
				RssiDbm:   att.Sample.RssiDbm,
				SnrDb:     att.Sample.SnrDb,
			}
			if err := s.pcapFile.AppendFrame(frame); err != nil {
				logger.Errorf("writing pcap frame: %v", err)
			}
		}

		if s.observer != nil {
			s.observer.ObserveAttempt(s.cfg.Policy, att)
			s.observer.ObserveClock(ts, len(s.agents))
		}
		logger.Debugf("dev %d t=%dus %s rssi=%.1f snr=%.1f toa=%.4fs delivered=%v",
			id, ts, att.Params.String(), att.Sample.RssiDbm, att.Sample.SnrDb,
			att.Sample.ToaSec, att.Sample.Delivered)

		for ts >= s.nextSnapshot {
			s.energyAnalyser.StoreNetworkSnapshot(s.nextSnapshot)
			s.nextSnapshot += energy.SnapshotPeriod
		}

		if a.Done() {
			s.eq.Park(id)
		} else {
			s.eq.SetTimestamp(id, a.NextTime())
		}
	}

	if s.pcapFile != nil {
		_ = s.pcapFile.Sync()
	}
}

// pendingEnvSwitches returns the not-yet-applied environment switches in time order.
func (s *Simulation) pendingEnvSwitches() []envSwitch {
	var switches []envSwitch
	for _, sw := range s.cfg.EnvSwitches {
		at := Timestamp(sw.AtSec * float64(TimeUsPerSec))
		if at < s.curTime {
			continue
		}
		params := radiomodel.NewLinkModelParams(sw.Environment)
		if params == nil {
			logger.Errorf("ignoring switch to unknown environment %q", sw.Environment)
			continue
		}
		switches = append(switches, envSwitch{at: at, params: params})
	}
	sort.Slice(switches, func(i, j int) bool { return switches[i].at < switches[j].at })
	return switches
}

func (s *Simulation) applyEnvSwitches(switches []envSwitch, now Timestamp) []envSwitch {
	for len(switches) > 0 && switches[0].at <= now {
		s.link.Params = switches[0].params
		logger.Infof("environment switched at t=%dus", switches[0].at)
		switches = switches[1:]
	}
	return switches
}

// pace slows the run to the configured speed relative to wall clock.
func (s *Simulation) pace(next Timestamp) {
	if s.cfg.Speed <= 0 || next <= s.curTime {
		return
	}
	dt := time.Duration(float64(next-s.curTime) / s.cfg.Speed * float64(time.Microsecond))
	if dt > time.Millisecond {
		time.Sleep(dt)
	}
}

// SelectionCounts aggregates per-arm selection counts across all devices.
// With a shared policy the single instance is reported once.
func (s *Simulation) SelectionCounts() []policy.SelectionCount {
	if s.sharedPolicy != nil {
		return s.sharedPolicy.SelectionCounts()
	}
	merged := map[string]uint64{}
	var order []string
	for _, id := range s.DeviceIds() {
		for _, sc := range s.agents[id].Policy().SelectionCounts() {
			if _, ok := merged[sc.Label]; !ok {
				order = append(order, sc.Label)
			}
			merged[sc.Label] += sc.Count
		}
	}
	counts := make([]policy.SelectionCount, 0, len(order))
	for _, label := range order {
		counts = append(counts, policy.SelectionCount{Label: label, Count: merged[label]})
	}
	return counts
}
