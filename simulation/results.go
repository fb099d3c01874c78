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
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// WriteLostSeriesCsv writes the cumulative lost-packet time series for plotting.
func (s *Simulation) WriteLostSeriesCsv(fn string) error {
	f, err := os.Create(fn)
	if err != nil {
		return errors.Wrapf(err, "creating CSV file %s", fn)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"time_sec", "cumulative_lost"}); err != nil {
		return errors.Wrap(err, "writing CSV header")
	}
	for _, pt := range s.agg.LostSeries() {
		rec := []string{
			strconv.FormatFloat(float64(pt.TimeUs)/1e6, 'f', 3, 64),
			strconv.FormatUint(pt.CumulativeLost, 10),
		}
		if err := w.Write(rec); err != nil {
			return errors.Wrap(err, "writing CSV record")
		}
	}
	return nil
}

// DefaultCsvFileName returns the run's lost-series CSV path in the output directory.
func (s *Simulation) DefaultCsvFileName() string {
	return fmt.Sprintf("%s/%d_lost.csv", s.cfg.OutputDir, s.cfg.Id)
}

// DefaultWorkbookFileName returns the run's results workbook path.
func (s *Simulation) DefaultWorkbookFileName() string {
	return fmt.Sprintf("%s/%d_results.xlsx", s.cfg.OutputDir, s.cfg.Id)
}

// WriteWorkbook writes the run results as an xlsx workbook with a run summary
// sheet, a per-device sheet, and a per-arm selection sheet.
func (s *Simulation) WriteWorkbook(fn string) error {
	wb := excelize.NewFile()
	defer func() {
		_ = wb.Close()
	}()

	if err := s.writeRunSheet(wb); err != nil {
		return err
	}
	if err := s.writeDeviceSheet(wb); err != nil {
		return err
	}
	if err := s.writeArmSheet(wb); err != nil {
		return err
	}
	if err := wb.DeleteSheet("Sheet1"); err != nil {
		return errors.Wrap(err, "removing default sheet")
	}
	if err := wb.SaveAs(fn); err != nil {
		return errors.Wrapf(err, "saving workbook %s", fn)
	}
	return nil
}

func (s *Simulation) writeRunSheet(wb *excelize.File) error {
	const sheet = "Run"
	if _, err := wb.NewSheet(sheet); err != nil {
		return errors.Wrap(err, "creating run sheet")
	}

	agg := s.agg
	rows := [][]interface{}{
		{"Title", s.cfg.Title},
		{"Policy", s.cfg.Policy},
		{"Seed", s.cfg.Seed},
		{"Devices", len(s.agents)},
		{"Duration (s)", float64(s.curTime) / 1e6},
		{"Packets sent", agg.PacketsSent},
		{"Packets delivered", agg.PacketsDelivered},
		{"Packets lost", agg.PacketsLost},
		{"PDR", agg.Pdr()},
		{"Energy (mJ)", agg.EnergyMj},
		{"Bits per mJ", agg.EnergyEfficiency()},
		{"Mean ToA (s)", agg.MeanToaSec()},
		{"Mean RSSI (dBm)", agg.MeanRssiDbm()},
		{"Mean SNR (dB)", agg.MeanSnrDb()},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return errors.Wrap(err, "computing cell name")
		}
		if err := wb.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.Wrap(err, "writing run sheet row")
		}
	}
	return nil
}

func (s *Simulation) writeDeviceSheet(wb *excelize.File) error {
	const sheet = "Devices"
	if _, err := wb.NewSheet(sheet); err != nil {
		return errors.Wrap(err, "creating device sheet")
	}

	header := []interface{}{"Device", "Sent", "Delivered", "PDR", "Energy (mJ)",
		"Bits per mJ", "Mean ToA (s)", "Mean RSSI (dBm)", "Mean SNR (dB)"}
	if err := wb.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.Wrap(err, "writing device sheet header")
	}

	for i, id := range s.DeviceIds() {
		a := s.agents[id]
		row := []interface{}{id, a.PacketsSent, a.PacketsDelivered, a.Pdr(), a.EnergyMj,
			a.EnergyEfficiency(), a.MeanToaSec(), a.MeanRssiDbm(), a.MeanSnrDb()}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "computing cell name")
		}
		if err := wb.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.Wrap(err, "writing device sheet row")
		}
	}
	return nil
}

func (s *Simulation) writeArmSheet(wb *excelize.File) error {
	const sheet = "Arms"
	if _, err := wb.NewSheet(sheet); err != nil {
		return errors.Wrap(err, "creating arm sheet")
	}

	header := []interface{}{"Arm", "Selections", "Ratio"}
	if err := wb.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.Wrap(err, "writing arm sheet header")
	}

	counts := s.SelectionCounts()
	var total uint64
	for _, sc := range counts {
		total += sc.Count
	}
	for i, sc := range counts {
		ratio := 0.0
		if total > 0 {
			ratio = float64(sc.Count) / float64(total)
		}
		row := []interface{}{sc.Label, sc.Count, ratio}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "computing cell name")
		}
		if err := wb.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.Wrap(err, "writing arm sheet row")
		}
	}
	return nil
}
