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

package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/lorabandit/lbsim/logger"
	"github.com/lorabandit/lbsim/prng"
	"github.com/lorabandit/lbsim/progctx"
	"github.com/lorabandit/lbsim/simulation"
)

const (
	Prompt = "> "
)

type CommandContext struct {
	context.Context
	*Command
	rt     *CmdRunner
	err    error
	output io.Writer
}

func (cc *CommandContext) outputStr(msg string) {
	_, _ = fmt.Fprint(cc.output, msg)
}

func (cc *CommandContext) outputf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cc.output, format, args...)
}

func (cc *CommandContext) errorf(format string, args ...interface{}) {
	cc.error(errors.Errorf(format, args...))
}

func (cc *CommandContext) error(err error) {
	if err != nil {
		if cc.err != nil { // if previous error, print it now and keep the last.
			cc.outputf("Error: %s\n", cc.err)
		}
		cc.err = err
	}
}

// Err returns the last error that occurred during command execution.
func (cc *CommandContext) Err() error {
	return cc.err
}

func (cc *CommandContext) outputItemsAsYaml(items interface{}) {
	var itemsYaml yaml.Node

	err := itemsYaml.Encode(items)
	logger.PanicIfError(err)

	for _, content := range itemsYaml.Content {
		content.Style = yaml.FlowStyle
	}

	data, err := yaml.Marshal(&itemsYaml)
	logger.PanicIfError(err)

	_, err = cc.output.Write(data)
	logger.PanicIfError(err)
}

type CmdRunner struct {
	sim  *simulation.Simulation
	ctx  *progctx.ProgCtx
	help Help
}

func NewCmdRunner(ctx *progctx.ProgCtx, sim *simulation.Simulation) *CmdRunner {
	cr := &CmdRunner{
		ctx:  ctx,
		sim:  sim,
		help: newHelp(),
	}
	return cr
}

func (rt *CmdRunner) RunCommand(cmdline string, output io.Writer) error {
	if rt.ctx.Err() == nil {
		cmd := Command{}

		if err := parseBytes([]byte(cmdline), &cmd); err != nil {
			if _, err := fmt.Fprintf(output, "Error: %v\n", err); err != nil {
				return err
			}
		} else {
			rt.execute(&cmd, output)
		}
	}
	return rt.ctx.Err()
}

func (rt *CmdRunner) HandleCommand(cmdline string, output io.Writer) error {
	return rt.RunCommand(cmdline, output)
}

func (rt *CmdRunner) GetPrompt() string {
	return Prompt
}

func (rt *CmdRunner) execute(cmd *Command, output io.Writer) {
	cc := &CommandContext{
		Context: rt.ctx,
		Command: cmd,
		rt:      rt,
		output:  output,
	}

	defer func() {
		if cc.Err() != nil {
			cc.outputf("Error: %v\n", cc.Err())
		} else {
			cc.outputf("Done\n")
		}
	}()

	defer func() {
		rerr := recover()

		if rerr != nil {
			if err, ok := rerr.(error); ok {
				cc.err = errors.Wrapf(err, "panic: %v", err)
			} else {
				cc.err = errors.Errorf("panic: %v", rerr)
			}
		}
	}()

	if cmd.Add != nil {
		rt.executeAdd(cc, cmd.Add)
	} else if cmd.Arms != nil {
		rt.executeArms(cc)
	} else if cmd.Del != nil {
		rt.executeDel(cc, cmd.Del)
	} else if cmd.Energy != nil {
		rt.executeEnergy(cc, cmd.Energy)
	} else if cmd.Exit != nil {
		rt.executeExit(cc)
	} else if cmd.Go != nil {
		rt.executeGo(cc, cmd.Go)
	} else if cmd.Help != nil {
		rt.executeHelp(cc, cmd.Help)
	} else if cmd.Kpi != nil {
		rt.executeKpi(cc, cmd.Kpi)
	} else if cmd.LogLevel != nil {
		rt.executeLogLevel(cc, cmd.LogLevel)
	} else if cmd.Nodes != nil {
		rt.executeNodes(cc)
	} else if cmd.Policy != nil {
		rt.executePolicy(cc)
	} else if cmd.Results != nil {
		rt.executeResults(cc, cmd.Results)
	} else if cmd.Scenario != nil {
		rt.executeScenario(cc, cmd.Scenario)
	} else if cmd.Seed != nil {
		rt.executeSeed(cc)
	} else if cmd.Speed != nil {
		rt.executeSpeed(cc, cmd.Speed)
	} else if cmd.Time != nil {
		rt.executeTime(cc)
	} else {
		logger.Panicf("unimplemented command: %#v", cmd)
	}
}

func (rt *CmdRunner) executeGo(cc *CommandContext, cmd *GoCmd) {
	if cmd.Speed != nil {
		rt.sim.SetSpeed(*cmd.Speed)
	}

	if cmd.Ever != nil {
		rt.sim.Run()
		return
	}

	timeDurToGo, err := time.ParseDuration(cmd.Time)
	if err != nil {
		timeDurToGo, err = time.ParseDuration(cmd.Time + "s") // try parsing as seconds
		if err != nil {
			cc.errorf("could not parse time duration: %s", cmd.Time)
			return
		}
	}
	rt.sim.RunFor(timeDurToGo.Seconds())
}

func (rt *CmdRunner) executeSpeed(cc *CommandContext, cmd *SpeedCmd) {
	if cmd.Speed == nil && cmd.Max == nil {
		if rt.sim.Config().Speed <= 0 {
			cc.outputf("max\n")
		} else {
			cc.outputf("%v\n", rt.sim.Config().Speed)
		}
	} else if cmd.Max != nil {
		rt.sim.SetSpeed(0) // unthrottled
	} else {
		rt.sim.SetSpeed(*cmd.Speed)
	}
}

func (rt *CmdRunner) executeTime(cc *CommandContext) {
	cc.outputf("%d us (%.3f s)\n", rt.sim.CurTime(), float64(rt.sim.CurTime())/1e6)
}

func (rt *CmdRunner) executeAdd(cc *CommandContext, cmd *AddCmd) {
	logger.Debugf("Add: %#v", *cmd)
	count := 1
	if cmd.Count != nil {
		count = *cmd.Count
	}
	if count < 1 {
		cc.errorf("invalid device count: %d", count)
		return
	}

	for i := 0; i < count; i++ {
		a, err := rt.sim.AddDevice(prng.PlacementRand())
		if err != nil {
			cc.error(err)
			return
		}
		cc.outputf("%d\n", a.Id)
	}
}

func (rt *CmdRunner) executeDel(cc *CommandContext, cmd *DelCmd) {
	for _, sel := range cmd.Devices {
		if err := rt.sim.DeleteDevice(sel.Id); err != nil {
			cc.outputf("Warn: device %d not found, skipping\n", sel.Id)
		}
	}
}

type deviceListItem struct {
	Id        int     `yaml:"id"`
	X         float64 `yaml:"x"`
	Y         float64 `yaml:"y"`
	Sent      uint64  `yaml:"sent"`
	Delivered uint64  `yaml:"delivered"`
	Pdr       float64 `yaml:"pdr"`
	EnergyMj  float64 `yaml:"energy_mj"`
}

func (rt *CmdRunner) executeNodes(cc *CommandContext) {
	agents := rt.sim.Agents()
	items := make([]deviceListItem, 0, len(agents))
	for _, id := range rt.sim.DeviceIds() {
		a := agents[id]
		items = append(items, deviceListItem{
			Id:        int(a.Id),
			X:         a.Position.X,
			Y:         a.Position.Y,
			Sent:      a.PacketsSent,
			Delivered: a.PacketsDelivered,
			Pdr:       a.Pdr(),
			EnergyMj:  a.EnergyMj,
		})
	}
	cc.outputItemsAsYaml(items)
}

func (rt *CmdRunner) executePolicy(cc *CommandContext) {
	cfg := rt.sim.Config()
	cc.outputf("policy: %s\n", cfg.Policy)
	cc.outputf("reward_mode: %s\n", cfg.RewardMode)
	cc.outputf("shared_policy: %v\n", cfg.SharedPolicy)
}

type armListItem struct {
	Label string `yaml:"arm"`
	Count uint64 `yaml:"count"`
}

func (rt *CmdRunner) executeArms(cc *CommandContext) {
	counts := rt.sim.SelectionCounts()
	items := make([]armListItem, 0, len(counts))
	for _, sc := range counts {
		items = append(items, armListItem{Label: sc.Label, Count: sc.Count})
	}
	cc.outputItemsAsYaml(items)
}

func (rt *CmdRunner) executeResults(cc *CommandContext, cmd *ResultsCmd) {
	if cmd.Format == "" || cmd.Format == "csv" {
		fn := rt.sim.DefaultCsvFileName()
		if err := rt.sim.WriteLostSeriesCsv(fn); err != nil {
			cc.error(err)
			return
		}
		cc.outputf("%s\n", fn)
	}
	if cmd.Format == "" || cmd.Format == "xlsx" {
		fn := rt.sim.DefaultWorkbookFileName()
		if err := rt.sim.WriteWorkbook(fn); err != nil {
			cc.error(err)
			return
		}
		cc.outputf("%s\n", fn)
	}
}

func (rt *CmdRunner) executeKpi(cc *CommandContext, cmd *KpiCmd) {
	km := rt.sim.Kpi()
	switch cmd.Op {
	case "start":
		km.Start()
	case "stop":
		km.Stop()
	case "save":
		km.SaveDefaultFile()
	default:
		agg := rt.sim.Aggregate()
		status := "off"
		if km.IsRunning() {
			status = "running"
		}
		cc.outputf("kpi: %s\n", status)
		cc.outputf("tx_packets: %d\n", agg.PacketsSent)
		cc.outputf("rx_packets: %d\n", agg.PacketsDelivered)
		cc.outputf("lost_packets: %d\n", agg.PacketsLost)
		cc.outputf("pdr: %f\n", agg.Pdr())
		cc.outputf("energy_mj: %f\n", agg.EnergyMj)
		cc.outputf("bits_per_mj: %f\n", agg.EnergyEfficiency())
	}
}

func (rt *CmdRunner) executeScenario(cc *CommandContext, cmd *ScenarioCmd) {
	if cmd.Name == "" {
		for _, name := range simulation.ScenarioNames() {
			cc.outputf("%s\n", name)
		}
		return
	}

	cfg, err := simulation.ScenarioConfig(cmd.Name)
	if err != nil {
		cc.error(err)
		return
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		cc.error(err)
		return
	}
	cc.outputStr(string(data))
}

func (rt *CmdRunner) executeSeed(cc *CommandContext) {
	cc.outputf("%d\n", rt.sim.Config().Seed)
}

func (rt *CmdRunner) executeEnergy(cc *CommandContext, cmd *EnergyCmd) {
	ea := rt.sim.EnergyAnalyser()
	if cmd.Save != nil {
		ea.SaveEnergyDataToFile(rt.sim.Config().Title, rt.sim.CurTime())
		return
	}

	for _, id := range rt.sim.DeviceIds() {
		de := ea.GetDevice(id)
		if de == nil {
			continue
		}
		cc.outputf("device %d: tx %f mJ, airtime %f s, packets %d\n",
			id, de.TxEnergyMj, de.AirtimeSec, de.PacketsSent)
	}
}

func (rt *CmdRunner) executeLogLevel(cc *CommandContext, cmd *LogLevelCmd) {
	if cmd.Level == "" {
		cc.outputf("%s\n", logger.GetLevelString(logger.GetLevel()))
	} else {
		lev, err := logger.ParseLevelString(cmd.Level)
		if err != nil {
			cc.error(err)
			return
		}
		logger.SetLevel(lev)
	}
}

func (rt *CmdRunner) executeHelp(cc *CommandContext, cmd *HelpCmd) {
	if len(cmd.HelpTopic) > 0 {
		cc.outputStr(rt.help.outputCommandHelp(cmd.HelpTopic))
	} else {
		cc.outputStr(rt.help.outputGeneralHelp())
	}
}

func (rt *CmdRunner) executeExit(cc *CommandContext) {
	rt.sim.Stop()
	rt.ctx.Cancel("exit")
}
