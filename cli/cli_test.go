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
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorabandit/lbsim/progctx"
	"github.com/lorabandit/lbsim/simulation"
)

func TestParseBytes(t *testing.T) {
	var cmd Command
	err := parseBytes([]byte("wrongcmd"), &cmd)
	assert.NotNil(t, err)

	assert.True(t, parseBytes([]byte("add"), &cmd) == nil && cmd.Add != nil && cmd.Add.Count == nil)
	assert.Nil(t, parseBytes([]byte("add 5"), &cmd))
	assert.True(t, cmd.Add != nil && *cmd.Add.Count == 5)

	assert.True(t, parseBytes([]byte("arms"), &cmd) == nil && cmd.Arms != nil)

	assert.True(t, parseBytes([]byte("del 1"), &cmd) == nil && cmd.Del != nil)
	assert.True(t, parseBytes([]byte("del 1 2 3"), &cmd) == nil && len(cmd.Del.Devices) == 3)
	assert.True(t, parseBytes([]byte("del"), &cmd) != nil)

	assert.True(t, parseBytes([]byte("energy"), &cmd) == nil && cmd.Energy != nil && cmd.Energy.Save == nil)
	assert.True(t, parseBytes([]byte("energy save"), &cmd) == nil && cmd.Energy.Save != nil)

	assert.True(t, parseBytes([]byte("exit"), &cmd) == nil && cmd.Exit != nil)

	assert.Nil(t, parseBytes([]byte("go 1"), &cmd))
	assert.NotNil(t, cmd.Go)
	assert.Nil(t, parseBytes([]byte("go 1.1"), &cmd))
	assert.NotNil(t, cmd.Go)
	assert.Nil(t, parseBytes([]byte("go 64us"), &cmd))
	assert.NotNil(t, cmd.Go)
	parsedDuration, _ := time.ParseDuration("64us")
	assert.Equal(t, 64*time.Microsecond, parsedDuration)
	assert.Nil(t, parseBytes([]byte("go 5h"), &cmd))
	assert.NotNil(t, cmd.Go)
	assert.Nil(t, parseBytes([]byte("go ever"), &cmd))
	assert.True(t, cmd.Go != nil && cmd.Go.Ever != nil)
	assert.Nil(t, parseBytes([]byte("go 100 speed 0.5"), &cmd))
	assert.True(t, cmd.Go != nil && *cmd.Go.Speed == 0.5)

	assert.True(t, parseBytes([]byte("help"), &cmd) == nil && cmd.Help != nil)
	assert.True(t, parseBytes([]byte("help go"), &cmd) == nil && cmd.Help.HelpTopic == "go")

	assert.True(t, parseBytes([]byte("kpi"), &cmd) == nil && cmd.Kpi != nil && cmd.Kpi.Op == "")
	assert.True(t, parseBytes([]byte("kpi start"), &cmd) == nil && cmd.Kpi.Op == "start")
	assert.True(t, parseBytes([]byte("kpi stop"), &cmd) == nil && cmd.Kpi.Op == "stop")
	assert.True(t, parseBytes([]byte("kpi save"), &cmd) == nil && cmd.Kpi.Op == "save")

	assert.True(t, parseBytes([]byte("loglevel"), &cmd) == nil && cmd.LogLevel != nil)
	assert.True(t, parseBytes([]byte("loglevel debug"), &cmd) == nil && cmd.LogLevel.Level == "debug")
	assert.True(t, parseBytes([]byte("loglevel info"), &cmd) == nil && cmd.LogLevel.Level == "info")
	assert.True(t, parseBytes([]byte("loglevel warn"), &cmd) == nil && cmd.LogLevel.Level == "warn")
	assert.True(t, parseBytes([]byte("loglevel error"), &cmd) == nil && cmd.LogLevel.Level == "error")
	assert.True(t, parseBytes([]byte("loglevel fatal"), &cmd) != nil) // not supported.

	assert.True(t, parseBytes([]byte("nodes"), &cmd) == nil && cmd.Nodes != nil)

	assert.True(t, parseBytes([]byte("policy"), &cmd) == nil && cmd.Policy != nil)

	assert.True(t, parseBytes([]byte("results"), &cmd) == nil && cmd.Results != nil && cmd.Results.Format == "")
	assert.True(t, parseBytes([]byte("results csv"), &cmd) == nil && cmd.Results.Format == "csv")
	assert.True(t, parseBytes([]byte("results xlsx"), &cmd) == nil && cmd.Results.Format == "xlsx")
	assert.True(t, parseBytes([]byte("results pdf"), &cmd) != nil)

	assert.True(t, parseBytes([]byte("scenario"), &cmd) == nil && cmd.Scenario != nil && cmd.Scenario.Name == "")
	assert.True(t, parseBytes([]byte("scenario density"), &cmd) == nil && cmd.Scenario.Name == "density")

	assert.True(t, parseBytes([]byte("seed"), &cmd) == nil && cmd.Seed != nil)

	assert.True(t, parseBytes([]byte("speed"), &cmd) == nil && cmd.Speed != nil && cmd.Speed.Speed == nil)
	assert.True(t, parseBytes([]byte("speed 1.5"), &cmd) == nil && *cmd.Speed.Speed == 1.5)
	assert.True(t, parseBytes([]byte("speed max"), &cmd) == nil && cmd.Speed.Max != nil)
	assert.True(t, parseBytes([]byte("speed inf"), &cmd) == nil && cmd.Speed.Max != nil)

	assert.True(t, parseBytes([]byte("time"), &cmd) == nil && cmd.Time != nil)
}

func testCmdRunner(t *testing.T) (*CmdRunner, *progctx.ProgCtx) {
	cfg := simulation.DefaultConfig()
	cfg.Seed = 11
	cfg.Devices = 5
	cfg.MeanIntervalSec = 60
	cfg.DurationSec = 3600
	cfg.Environment = "freespace"
	cfg.OutputDir = t.TempDir()

	ctx := progctx.New(context.Background())
	sim, err := simulation.NewSimulation(ctx, cfg)
	require.Nil(t, err)
	return NewCmdRunner(ctx, sim), ctx
}

func runCmd(t *testing.T, cr *CmdRunner, cmdline string) string {
	var buf bytes.Buffer
	_ = cr.RunCommand(cmdline, &buf)
	return buf.String()
}

func TestCmdRunnerBasicCommands(t *testing.T) {
	cr, _ := testCmdRunner(t)

	out := runCmd(t, cr, "time")
	assert.True(t, strings.HasPrefix(out, "0 us"), out)

	out = runCmd(t, cr, "nodes")
	assert.Equal(t, 5, strings.Count(out, "{id:"), out)

	out = runCmd(t, cr, "add 2")
	assert.True(t, strings.HasSuffix(out, "Done\n"), out)
	assert.Len(t, cr.sim.Agents(), 7)

	out = runCmd(t, cr, "del 6 7")
	assert.True(t, strings.HasSuffix(out, "Done\n"), out)
	assert.Len(t, cr.sim.Agents(), 5)

	out = runCmd(t, cr, "del 999")
	assert.True(t, strings.Contains(out, "skipping"), out)

	out = runCmd(t, cr, "seed")
	assert.True(t, strings.HasPrefix(out, "11\n"), out)

	out = runCmd(t, cr, "policy")
	assert.True(t, strings.Contains(out, "policy: ucb1"), out)
}

func TestCmdRunnerGo(t *testing.T) {
	cr, _ := testCmdRunner(t)

	out := runCmd(t, cr, "go 600")
	assert.True(t, strings.HasSuffix(out, "Done\n"), out)
	assert.Greater(t, cr.sim.Aggregate().PacketsSent, uint64(0))

	out = runCmd(t, cr, "time")
	assert.True(t, strings.HasPrefix(out, "600000000 us"), out)

	out = runCmd(t, cr, "go bogus")
	assert.True(t, strings.Contains(out, "Error"), out)

	out = runCmd(t, cr, "arms")
	assert.True(t, strings.Contains(out, "SF"), out)

	out = runCmd(t, cr, "kpi")
	assert.True(t, strings.Contains(out, "tx_packets:"), out)
}

func TestCmdRunnerSpeed(t *testing.T) {
	cr, _ := testCmdRunner(t)

	out := runCmd(t, cr, "speed")
	assert.True(t, strings.HasPrefix(out, "max\n"), out)

	runCmd(t, cr, "speed 100")
	out = runCmd(t, cr, "speed")
	assert.True(t, strings.HasPrefix(out, "100\n"), out)

	runCmd(t, cr, "speed max")
	out = runCmd(t, cr, "speed")
	assert.True(t, strings.HasPrefix(out, "max\n"), out)
}

func TestCmdRunnerScenario(t *testing.T) {
	cr, _ := testCmdRunner(t)

	out := runCmd(t, cr, "scenario")
	for _, name := range simulation.ScenarioNames() {
		assert.True(t, strings.Contains(out, name), out)
	}

	out = runCmd(t, cr, "scenario density")
	assert.True(t, strings.Contains(out, "devices: 500"), out)

	out = runCmd(t, cr, "scenario nope")
	assert.True(t, strings.Contains(out, "Error"), out)
}

func TestCmdRunnerResults(t *testing.T) {
	cr, _ := testCmdRunner(t)
	runCmd(t, cr, "go 600")

	out := runCmd(t, cr, "results csv")
	assert.True(t, strings.Contains(out, "_lost.csv"), out)
	fn := strings.SplitN(out, "\n", 2)[0]
	_, err := os.Stat(fn)
	assert.Nil(t, err)

	out = runCmd(t, cr, "results xlsx")
	assert.True(t, strings.Contains(out, "_results.xlsx"), out)
}

func TestCmdRunnerHelp(t *testing.T) {
	cr, _ := testCmdRunner(t)

	out := runCmd(t, cr, "help")
	assert.True(t, strings.Contains(out, "go"), out)
	assert.True(t, strings.Contains(out, "nodes"), out)

	out = runCmd(t, cr, "help go")
	assert.True(t, strings.Contains(out, "duration"), out)

	out = runCmd(t, cr, "help doesnotexist")
	assert.True(t, strings.Contains(out, "Non-existent"), out)
}

func TestCmdRunnerExit(t *testing.T) {
	cr, ctx := testCmdRunner(t)

	out := runCmd(t, cr, "exit")
	assert.True(t, strings.HasSuffix(out, "Done\n"), out)
	assert.NotNil(t, ctx.Err())
	assert.True(t, cr.sim.IsStopped())

	// once the context is cancelled, further commands are ignored
	out = runCmd(t, cr, "time")
	assert.Equal(t, "", out)
}

type mockCliHandler struct {
	expectedCmd string
	handleError error
	handleCount int
	t           *testing.T
}

func (hnd *mockCliHandler) HandleCommand(cmd string, output io.Writer) error {
	assert.Equal(hnd.t, hnd.expectedCmd, cmd)
	hnd.handleCount += 1
	return hnd.handleError
}

func (hnd *mockCliHandler) GetPrompt() string {
	return "> "
}

func TestCliStartStop(t *testing.T) {
	Cli = newCliInstance()
	handler := mockCliHandler{
		expectedCmd: "help",
		handleError: nil,
		t:           t,
	}

	opt := DefaultCliOptions()
	r, w, _ := os.Pipe()
	opt.Stdin = r
	err := make(chan error, 1)
	go func() {
		err <- Cli.Run(&handler, opt)
	}()
	<-Cli.Started
	fmt.Fprint(w, "help\n")
	time.Sleep(time.Millisecond * 500)
	_ = w.Close()
	Cli.Stop()

	assert.Nil(t, <-err)
	assert.Equal(t, 1, handler.handleCount)
}

func TestCliCommandNotDefined(t *testing.T) {
	Cli = newCliInstance()
	handler := mockCliHandler{
		expectedCmd: "xyz",
		handleError: fmt.Errorf("undefined command"),
		t:           t,
	}

	opt := DefaultCliOptions()
	r, w, _ := os.Pipe()
	opt.Stdin = r
	err := make(chan error, 1)
	go func() {
		err <- Cli.Run(&handler, opt)
	}()
	<-Cli.Started
	fmt.Fprint(w, "xyz\n") // unknown command triggers handle-error, which causes CLI exit.

	assert.NotNil(t, <-err)
	assert.Equal(t, 1, handler.handleCount)

	Cli.Stop() // calling Stop() after CLI has already exited.
}
