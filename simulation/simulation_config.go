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
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/lorabandit/lbsim/pcap"
	"github.com/lorabandit/lbsim/policy"
	. "github.com/lorabandit/lbsim/types"
)

const (
	DefaultPolicy          = "ucb1"
	DefaultDevices         = 100
	DefaultAreaM           = 5000.0
	DefaultPayloadBytes    = 20
	DefaultMeanIntervalSec = 600.0
	DefaultJitterSec       = 1.0
	DefaultDurationSec     = 24 * 3600.0
	DefaultEnvironment     = "suburban"
	DefaultCollisionModel  = "none"
	DefaultLostPeriodSec   = 600.0
)

// EnvSwitch changes the propagation environment at a simulated time, for
// evaluating policies under non-stationary channel conditions.
type EnvSwitch struct {
	AtSec       float64 `yaml:"at_sec"`
	Environment string  `yaml:"environment"`
}

// Config is the full experiment configuration. Zero values fall back to the
// defaults from DefaultConfig; scenario YAML files unmarshal into it.
type Config struct {
	Id        int    `yaml:"id"`
	Title     string `yaml:"title"`
	OutputDir string `yaml:"output_dir"`
	Seed      int64  `yaml:"seed"`
	LogLevel  string `yaml:"log_level"`

	Policy       string             `yaml:"policy"`
	SharedPolicy bool               `yaml:"shared_policy"`
	RewardMode   string             `yaml:"reward_mode"` // "pdr" or "energy"
	Hyperparams  map[string]float64 `yaml:"hyperparams"`

	SfSet []SpreadingFactor `yaml:"sf_set"`
	BwSet []float64         `yaml:"bw_set"`
	CfSet []float64         `yaml:"cf_set"`
	TpSet []float64         `yaml:"tp_set"`

	// ReceivableCfSet restricts which frequencies the gateway listens on;
	// empty means all of CfSet.
	ReceivableCfSet []float64 `yaml:"receivable_cf_set"`

	Devices     int     `yaml:"devices"`
	AreaWidthM  float64 `yaml:"area_width_m"`
	AreaHeightM float64 `yaml:"area_height_m"`
	GatewayX    float64 `yaml:"gateway_x"`
	GatewayY    float64 `yaml:"gateway_y"`

	PayloadBytes    int     `yaml:"payload_bytes"`
	MeanIntervalSec float64 `yaml:"mean_interval_sec"`
	JitterSec       float64 `yaml:"jitter_sec"`
	DurationSec     float64 `yaml:"duration_sec"`
	TxBudget        int     `yaml:"tx_budget"`

	MobileFraction     float64 `yaml:"mobile_fraction"`
	MobilityStepM      float64 `yaml:"mobility_step_m"`
	NoPositionFraction float64 `yaml:"no_position_fraction"`

	Environment    string      `yaml:"environment"`
	CollisionModel string      `yaml:"collision_model"`
	EnvSwitches    []EnvSwitch `yaml:"env_switches"`

	LostSeriesPeriodSec float64 `yaml:"lost_series_period_sec"`

	// Pcap writes delivered transmissions to a LoRaTap PCAP trace file:
	// "off" or "loratap".
	Pcap string `yaml:"pcap"`

	// Speed paces the run against wall clock for interactive use;
	// 0 runs unpaced.
	Speed float64 `yaml:"speed"`
}

func DefaultConfig() *Config {
	return &Config{
		OutputDir:           "tmp",
		Policy:              DefaultPolicy,
		RewardMode:          "pdr",
		SfSet:               []SpreadingFactor{7, 8, 9, 10, 11, 12},
		BwSet:               []float64{125e3},
		CfSet:               []float64{470.1e6, 470.3e6, 470.5e6, 470.7e6, 470.9e6, 471.1e6, 471.3e6},
		TpSet:               []float64{2, 5, 8, 11, 14},
		Devices:             DefaultDevices,
		AreaWidthM:          DefaultAreaM,
		AreaHeightM:         DefaultAreaM,
		GatewayX:            DefaultAreaM / 2,
		GatewayY:            DefaultAreaM / 2,
		PayloadBytes:        DefaultPayloadBytes,
		MeanIntervalSec:     DefaultMeanIntervalSec,
		JitterSec:           DefaultJitterSec,
		DurationSec:         DefaultDurationSec,
		Environment:         DefaultEnvironment,
		CollisionModel:      DefaultCollisionModel,
		LostSeriesPeriodSec: DefaultLostPeriodSec,
		Pcap:                pcap.FrameTypeOffStr,
	}
}

// LoadConfigFile reads a scenario YAML file over the defaults.
func LoadConfigFile(fn string) (*Config, error) {
	data, err := os.ReadFile(fn)
	if err != nil {
		return nil, errors.Wrapf(err, "reading scenario file %s", fn)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing scenario file %s", fn)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	if cfg.Devices <= 0 {
		return errors.Errorf("device count must be positive, got %d", cfg.Devices)
	}
	if len(cfg.SfSet) == 0 || len(cfg.BwSet) == 0 || len(cfg.CfSet) == 0 || len(cfg.TpSet) == 0 {
		return errors.Errorf("all parameter dimension sets must be non-empty")
	}
	if cfg.PayloadBytes <= 0 {
		return errors.Errorf("payload size must be positive, got %d", cfg.PayloadBytes)
	}
	if cfg.MeanIntervalSec <= 0 {
		return errors.Errorf("mean transmission interval must be positive, got %f", cfg.MeanIntervalSec)
	}
	if cfg.DurationSec <= 0 && cfg.TxBudget <= 0 {
		return errors.Errorf("either a run duration or a transmission budget is required")
	}
	if cfg.MobileFraction < 0 || cfg.MobileFraction > 1 {
		return errors.Errorf("mobile fraction %f out of range [0,1]", cfg.MobileFraction)
	}
	if cfg.NoPositionFraction < 0 || cfg.NoPositionFraction > 1 {
		return errors.Errorf("no-position fraction %f out of range [0,1]", cfg.NoPositionFraction)
	}
	if cfg.RewardMode != "pdr" && cfg.RewardMode != "energy" {
		return errors.Errorf("unknown reward mode %q (want pdr or energy)", cfg.RewardMode)
	}
	for _, cf := range cfg.ReceivableCfSet {
		if !containsFloat(cfg.CfSet, cf) {
			return errors.Errorf("receivable frequency %.1f MHz not in the frequency set", cf/1e6)
		}
	}
	for _, sw := range cfg.EnvSwitches {
		if sw.AtSec < 0 {
			return errors.Errorf("environment switch time %f must be non-negative", sw.AtSec)
		}
	}
	if cfg.Pcap != "" && pcap.ParseFrameTypeStr(cfg.Pcap) == pcap.FrameTypeUnknown {
		return errors.Errorf("unknown pcap frame type %q", cfg.Pcap)
	}
	return nil
}

// rewardMode maps the config string to the policy reward convention.
func (cfg *Config) rewardMode() policy.RewardMode {
	if cfg.RewardMode == "energy" {
		return policy.RewardInverseEnergy
	}
	return policy.RewardSuccessIndicator
}

// policyConfig builds the policy configuration for one device, applying any
// scenario hyperparameter overrides on top of the variant's defaults.
func (cfg *Config) policyConfig(deviceIndex int) (policy.Config, error) {
	pc := policy.DefaultConfig(cfg.Policy)
	pc.RewardMode = cfg.rewardMode()
	pc.DeviceIndex = deviceIndex
	for key, v := range cfg.Hyperparams {
		switch key {
		case "exploration_weight", "c", "alpha":
			pc.ExplorationWeight = v
		case "quality_weight", "beta":
			pc.QualityWeight = v
		case "lambda":
			pc.DiscountLambda = v
		case "lambda_q":
			pc.DiscountLambdaQ = v
		case "epsilon":
			pc.Epsilon = v
		case "amplitude":
			pc.OscillationAmplitude = v
		case "tow_alpha":
			pc.TowAlpha = v
		case "tow_beta":
			pc.TowBeta = v
		case "xi":
			pc.Xi = v
		case "eta":
			pc.Eta = v
		case "zeta":
			pc.Zeta = v
		default:
			return pc, errors.Errorf("unknown hyperparameter %q", key)
		}
	}
	return pc, nil
}

// dimensions returns the policy arm dimensions. The fixed baseline draws its
// channels from the gateway's receivable set only, so that device-indexed
// assignment never lands a device on a dead frequency.
func (cfg *Config) dimensions() policy.Dimensions {
	cfSet := cfg.CfSet
	if cfg.Policy == "fixed" && len(cfg.ReceivableCfSet) > 0 {
		cfSet = cfg.ReceivableCfSet
	}
	return policy.Dimensions{
		SfSet: cfg.SfSet,
		BwSet: cfg.BwSet,
		CfSet: cfSet,
		TpSet: cfg.TpSet,
	}
}

func containsFloat(set []float64, v float64) bool {
	for _, x := range set {
		if x == v {
			return true
		}
	}
	return false
}
