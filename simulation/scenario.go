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
	"sort"

	"github.com/pkg/errors"
)

// ScenarioConfig expands a named scenario preset into a full configuration.
// Presets cover the studied experiment families; individual fields can still
// be overridden afterwards from the command line or console.
func ScenarioConfig(name string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.Title = name

	switch name {
	case "density":
		// dense deployment stressing the collision models
		cfg.Devices = 500
		cfg.CollisionModel = "sfproximity"
	case "payload":
		// large frames, longer airtime per attempt
		cfg.PayloadBytes = 51
	case "interval":
		// chatty devices, one transmission a minute on average
		cfg.MeanIntervalSec = 60
		cfg.DurationSec = 6 * 3600
	case "mobility":
		cfg.MobileFraction = 0.3
		cfg.MobilityStepM = 20
		cfg.NoPositionFraction = 0.05
	case "nonstationary":
		// propagation regime flips mid-run; discounted policy tracks it
		cfg.Policy = "dqoca"
		cfg.EnvSwitches = []EnvSwitch{
			{AtSec: cfg.DurationSec / 2, Environment: "freespace"},
		}
	default:
		return nil, errors.Errorf("unknown scenario preset: %s", name)
	}
	return cfg, nil
}

// ScenarioNames lists the available presets.
func ScenarioNames() []string {
	names := []string{"density", "payload", "interval", "mobility", "nonstationary"}
	sort.Strings(names)
	return names
}
