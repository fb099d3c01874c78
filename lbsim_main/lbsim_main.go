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

// Package lbsim_main ties the simulation, CLI console and telemetry together
// into the lbsim executable.
package lbsim_main

import (
	"flag"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/pkg/errors"

	"github.com/lorabandit/lbsim/cli"
	"github.com/lorabandit/lbsim/logger"
	"github.com/lorabandit/lbsim/progctx"
	"github.com/lorabandit/lbsim/simulation"
	"github.com/lorabandit/lbsim/telemetry"
)

type MainArgs struct {
	ConfigFile   string
	Scenario     string
	Policy       string
	RewardMode   string
	SharedPolicy bool
	Devices      int
	DurationSec  float64
	Seed         int64
	Speed        string
	Title        string
	OutputDir    string
	LogLevel     string
	MetricsAddr  string
	AutoGo       bool
}

var (
	args MainArgs
)

func parseArgs() {
	flag.StringVar(&args.ConfigFile, "config", "", "load simulation configuration from a YAML file")
	flag.StringVar(&args.Scenario, "scenario", "", "start from a built-in scenario preset (see 'scenario' command)")
	flag.StringVar(&args.Policy, "policy", "", "set the transmission parameter selection policy")
	flag.StringVar(&args.RewardMode, "reward", "", "set the reward mode: pdr, energy")
	flag.BoolVar(&args.SharedPolicy, "shared", false, "share one policy instance across all devices")
	flag.IntVar(&args.Devices, "devices", 0, "set the number of devices")
	flag.Float64Var(&args.DurationSec, "duration", 0, "set the simulated duration in seconds")
	flag.Int64Var(&args.Seed, "seed", 0, "set the random seed (0 picks a time-based seed)")
	flag.StringVar(&args.Speed, "speed", "max", "set simulating speed, or 'max'")
	flag.StringVar(&args.Title, "title", "", "set the run title used in result files")
	flag.StringVar(&args.OutputDir, "output", "", "set the output directory for result files")
	flag.StringVar(&args.LogLevel, "log", "warn", "set logging level: trace, debug, info, warn, error.")
	flag.StringVar(&args.MetricsAddr, "metrics", "", "serve Prometheus metrics on this address (e.g. localhost:9464)")
	flag.BoolVar(&args.AutoGo, "autogo", false, "run the whole simulation non-interactively and write results")

	flag.Parse()
}

func Main(ctx *progctx.ProgCtx, cliOptions *cli.CliOptions) {
	parseArgs()

	lev, err := logger.ParseLevelString(args.LogLevel)
	logger.FatalIfError(err)
	logger.SetLevel(lev)

	// run console in the main goroutine
	ctx.Defer(func() {
		_ = os.Stdin.Close()
	})

	handleSignals(ctx)

	sim := createSimulation(ctx)
	rt := cli.NewCmdRunner(ctx, sim)

	if args.MetricsAddr != "" {
		collector := telemetry.NewCollector()
		sim.SetObserver(collector)
		collector.Serve(ctx, args.MetricsAddr)
	}

	if args.AutoGo {
		runBatch(ctx, sim)
	} else {
		err := cli.Cli.Run(rt, cliOptions)
		ctx.Cancel(errors.Wrapf(err, "console exit"))
	}

	logger.Debugf("waiting for LBSIM to stop gracefully ...")
	ctx.Wait()
}

// runBatch runs the configured simulation to its end and writes all result files.
func runBatch(ctx *progctx.ProgCtx, sim *simulation.Simulation) {
	sim.Kpi().Start()
	sim.Run()
	sim.Kpi().Stop()

	if err := sim.WriteLostSeriesCsv(sim.DefaultCsvFileName()); err != nil {
		logger.Errorf("writing lost-packet series failed: %v", err)
	}
	if err := sim.WriteWorkbook(sim.DefaultWorkbookFileName()); err != nil {
		logger.Errorf("writing results workbook failed: %v", err)
	}

	agg := sim.Aggregate()
	logger.Infof("run finished: sent %d, delivered %d, PDR %.4f, %.2f bits/mJ",
		agg.PacketsSent, agg.PacketsDelivered, agg.Pdr(), agg.EnergyEfficiency())
	ctx.Cancel(nil)
}

func handleSignals(ctx *progctx.ProgCtx) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT, syscall.SIGHUP)
	signal.Ignore(syscall.SIGALRM)

	ctx.WaitAdd("handleSignals", 1)
	go func() {
		defer logger.Debugf("handleSignals exit.")
		defer ctx.WaitDone("handleSignals")

		for {
			select {
			case sig := <-c:
				logger.Infof("signal received: %v", sig)
				ctx.Cancel(nil)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func createSimulation(ctx *progctx.ProgCtx) *simulation.Simulation {
	var simcfg *simulation.Config
	var err error

	switch {
	case args.ConfigFile != "":
		simcfg, err = simulation.LoadConfigFile(args.ConfigFile)
		logger.FatalIfError(err)
	case args.Scenario != "":
		simcfg, err = simulation.ScenarioConfig(args.Scenario)
		logger.FatalIfError(err)
	default:
		simcfg = simulation.DefaultConfig()
	}

	if args.Policy != "" {
		simcfg.Policy = args.Policy
	}
	if args.RewardMode != "" {
		simcfg.RewardMode = args.RewardMode
	}
	if args.SharedPolicy {
		simcfg.SharedPolicy = true
	}
	if args.Devices > 0 {
		simcfg.Devices = args.Devices
	}
	if args.DurationSec > 0 {
		simcfg.DurationSec = args.DurationSec
	}
	if args.Seed != 0 {
		simcfg.Seed = args.Seed
	}
	if args.Title != "" {
		simcfg.Title = args.Title
	}
	if args.OutputDir != "" {
		simcfg.OutputDir = args.OutputDir
	}
	if simcfg.LogLevel != "" {
		lev, err := logger.ParseLevelString(simcfg.LogLevel)
		logger.FatalIfError(err)
		logger.SetLevel(lev)
	}

	speedStr := strings.ToLower(args.Speed)
	if speedStr == "max" || speedStr == "inf" {
		simcfg.Speed = 0 // unthrottled
	} else {
		speed, err := strconv.ParseFloat(speedStr, 64)
		logger.PanicIfError(err)
		simcfg.Speed = speed
	}

	sim, err := simulation.NewSimulation(ctx, simcfg)
	logger.FatalIfError(err)
	return sim
}
