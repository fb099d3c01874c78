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
	"time"

	"github.com/lorabandit/lbsim/logger"
	. "github.com/lorabandit/lbsim/types"
)

// KpiManager computes and persists the run's key performance indicators.
type KpiManager struct {
	sim       *Simulation
	data      *Kpi
	isRunning bool
}

// NewKpiManager creates a new KPI manager/bookkeeper for a particular simulation.
func NewKpiManager() *KpiManager {
	km := &KpiManager{}
	return km
}

// Init inits the KPI manager for the given simulation.
func (km *KpiManager) Init(sim *Simulation) {
	logger.AssertNil(km.sim)
	logger.AssertFalse(km.isRunning)
	km.sim = sim
	km.data = &Kpi{Status: "ok"}
}

func (km *KpiManager) Start() {
	logger.AssertNotNil(km.sim)
	km.data.TimeUs.StartTimeUs = km.sim.CurTime()
	km.isRunning = true
	km.SaveDefaultFile()
}

func (km *KpiManager) Stop() {
	if km.isRunning {
		km.isRunning = false
		km.calculateKpis()
		km.SaveDefaultFile()
	}
}

func (km *KpiManager) IsRunning() bool {
	return km.isRunning
}

func (km *KpiManager) Data() *Kpi {
	return km.data
}

func (km *KpiManager) SaveDefaultFile() {
	km.SaveFile(km.getDefaultSaveFileName())
}

func (km *KpiManager) SaveFile(fn string) {
	logger.AssertNotNil(km.sim)
	if km.isRunning {
		km.calculateKpis()
	}

	km.data.FileTime = time.Now().Format(time.RFC3339)
	json, err := json.MarshalIndent(km.data, "", "    ")
	if err != nil {
		logger.Fatalf("Could not marshal KPI JSON data: %v", err)
		return
	}

	err = os.WriteFile(fn, json, 0644)
	if err != nil {
		logger.Errorf("Could not write KPI JSON file %s: %v", fn, err)
		return
	}
}

func (km *KpiManager) calculateKpis() {
	sim := km.sim
	cfg := sim.Config()
	agg := sim.Aggregate()

	km.data.Title = cfg.Title
	km.data.Policy = cfg.Policy
	km.data.Seed = cfg.Seed

	// time
	km.data.TimeUs.EndTimeUs = sim.CurTime()
	km.data.TimeUs.PeriodUs = km.data.TimeUs.EndTimeUs - km.data.TimeUs.StartTimeUs
	km.data.TimeSec.StartTimeSec = float64(km.data.TimeUs.StartTimeUs) / 1e6
	km.data.TimeSec.EndTimeSec = float64(km.data.TimeUs.EndTimeUs) / 1e6
	km.data.TimeSec.PeriodSec = float64(km.data.TimeUs.PeriodUs) / 1e6

	// network aggregates
	km.data.Network = KpiNetwork{
		PacketsSent:      agg.PacketsSent,
		PacketsDelivered: agg.PacketsDelivered,
		PacketsLost:      agg.PacketsLost,
		Pdr:              agg.Pdr(),
		EnergyMj:         agg.EnergyMj,
		BitsPerMj:        agg.EnergyEfficiency(),
		MeanToaSec:       agg.MeanToaSec(),
		MeanRssiDbm:      agg.MeanRssiDbm(),
		MeanSnrDb:        agg.MeanSnrDb(),
		DegradedSamples:  sim.Link().DegradedSampleCount(),
	}

	// per-device counters
	km.data.Devices = make(map[DeviceId]KpiDevice, len(sim.Agents()))
	for _, id := range sim.DeviceIds() {
		a := sim.Agents()[id]
		km.data.Devices[id] = KpiDevice{
			PacketsSent:      a.PacketsSent,
			PacketsDelivered: a.PacketsDelivered,
			Pdr:              a.Pdr(),
			EnergyMj:         a.EnergyMj,
			BitsPerMj:        a.EnergyEfficiency(),
			MeanToaSec:       a.MeanToaSec(),
			MeanRssiDbm:      a.MeanRssiDbm(),
			MeanSnrDb:        a.MeanSnrDb(),
		}
	}

	// arm selection shares
	counts := sim.SelectionCounts()
	var total uint64
	for _, sc := range counts {
		total += sc.Count
	}
	km.data.Arms = km.data.Arms[:0]
	for _, sc := range counts {
		ratio := 0.0
		if total > 0 {
			ratio = float64(sc.Count) / float64(total)
		}
		km.data.Arms = append(km.data.Arms, KpiArm{Label: sc.Label, Count: sc.Count, Ratio: ratio})
	}
}

func (km *KpiManager) getDefaultSaveFileName() string {
	return fmt.Sprintf("%s/%d_kpi.json", km.sim.cfg.OutputDir, km.sim.cfg.Id)
}
