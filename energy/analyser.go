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

// Package energy tracks per-device transmit energy over the run and writes the
// accumulated data to text files for plotting.
package energy

import (
	"fmt"
	"os"
	"sort"

	"github.com/lorabandit/lbsim/logger"
	. "github.com/lorabandit/lbsim/types"
)

// SnapshotPeriod is the interval between periodic network energy snapshots.
const SnapshotPeriod Timestamp = 30000000 // in microseconds

// DeviceEnergy is one device's cumulative transmit energy and airtime.
type DeviceEnergy struct {
	Id         DeviceId
	CreateTime Timestamp

	TxEnergyMj  float64
	AirtimeSec  float64
	PacketsSent uint64
}

// NetworkConsumption is one snapshot of the network-wide energy spent so far.
type NetworkConsumption struct {
	Timestamp      Timestamp
	TotalTxMj      float64
	MeanTxMjPerDev float64
}

type Analyser struct {
	devices map[DeviceId]*DeviceEnergy
	history []NetworkConsumption
	title   string
}

func NewAnalyser() *Analyser {
	return &Analyser{
		devices: make(map[DeviceId]*DeviceEnergy),
		history: make([]NetworkConsumption, 0, 3600),
	}
}

func (e *Analyser) AddDevice(id DeviceId, timestamp Timestamp) {
	if _, ok := e.devices[id]; ok {
		return
	}
	e.devices[id] = &DeviceEnergy{Id: id, CreateTime: timestamp}
}

func (e *Analyser) DeleteDevice(id DeviceId) {
	delete(e.devices, id)

	if len(e.devices) == 0 {
		e.ClearEnergyData()
	}
}

func (e *Analyser) GetDevice(id DeviceId) *DeviceEnergy {
	return e.devices[id]
}

// RecordTx accounts one transmission attempt's energy and airtime to a device.
func (e *Analyser) RecordTx(id DeviceId, energyMj float64, airtimeSec float64) {
	dev := e.devices[id]
	logger.AssertNotNil(dev)

	dev.TxEnergyMj += energyMj
	dev.AirtimeSec += airtimeSec
	dev.PacketsSent++
}

// StoreNetworkSnapshot appends one network-wide energy snapshot at the given time.
func (e *Analyser) StoreNetworkSnapshot(timestamp Timestamp) {
	snapshot := NetworkConsumption{
		Timestamp: timestamp,
	}

	for _, dev := range e.devices {
		snapshot.TotalTxMj += dev.TxEnergyMj
	}
	if n := len(e.devices); n > 0 {
		snapshot.MeanTxMjPerDev = snapshot.TotalTxMj / float64(n)
	}

	e.history = append(e.history, snapshot)
}

func (e *Analyser) NetworkHistory() []NetworkConsumption {
	return e.history
}

func (e *Analyser) SaveEnergyDataToFile(name string, timestamp Timestamp) {
	if name == "" {
		if e.title == "" {
			name = "energy"
		} else {
			name = e.title
		}
	}

	dir, _ := os.Getwd()

	if _, err := os.Stat(dir + "/energy_results"); os.IsNotExist(err) {
		err := os.Mkdir(dir+"/energy_results", 0777)
		if err != nil {
			logger.Error("Failed to create energy_results directory")
			return
		}
	}

	path := fmt.Sprintf("%s/energy_results/%s", dir, name)
	fileDevices, err := os.Create(path + "_devices.txt")
	if err != nil {
		logger.Errorf("Error creating file: %v", err)
		return
	}
	defer fileDevices.Close()

	fileNetwork, err := os.Create(path + ".txt")
	if err != nil {
		logger.Errorf("Error creating file: %v", err)
		return
	}
	defer fileNetwork.Close()

	e.writeEnergyByDevices(fileDevices, timestamp)
	e.writeNetworkEnergy(fileNetwork, timestamp)
}

func (e *Analyser) writeEnergyByDevices(fileDevices *os.File, timestamp Timestamp) {
	fmt.Fprintf(fileDevices, "Duration of the simulated run (in milliseconds): %d\n", timestamp/1000)
	fmt.Fprintf(fileDevices, "ID\tTransmit (mJ)\tAirtime (s)\tPackets\n")

	sortedDevices := make([]int, 0, len(e.devices))
	for id := range e.devices {
		sortedDevices = append(sortedDevices, id)
	}
	sort.Ints(sortedDevices)

	for _, id := range sortedDevices {
		dev := e.devices[id]
		fmt.Fprintf(fileDevices, "%d\t%f\t%f\t%d\n",
			id,
			dev.TxEnergyMj,
			dev.AirtimeSec,
			dev.PacketsSent,
		)
	}
}

func (e *Analyser) writeNetworkEnergy(fileNetwork *os.File, timestamp Timestamp) {
	fmt.Fprintf(fileNetwork, "Duration of the simulated run (in milliseconds): %d\n", timestamp/1000)
	fmt.Fprintf(fileNetwork, "Time (ms)\tTotal Tx (mJ)\tMean Tx per device (mJ)\n")
	for _, snapshot := range e.history {
		fmt.Fprintf(fileNetwork, "%d\t%f\t%f\n",
			snapshot.Timestamp/1000,
			snapshot.TotalTxMj,
			snapshot.MeanTxMjPerDev,
		)
	}
}

func (e *Analyser) ClearEnergyData() {
	logger.Debugf("Device energy data cleared")
	e.history = make([]NetworkConsumption, 0, 3600)
}

func (e *Analyser) SetTitle(title string) {
	e.title = title
}
