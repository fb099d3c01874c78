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

// Package policy implements the transmission parameter selection policies: the
// bandit family (UCB1, UCB1-Tuned, QoC-A, DQoC-A, ToW, epsilon-greedy, D-LoRa)
// and the deterministic baselines (ADR-Lite ladder, fixed, round-robin, random).
package policy

import (
	"math/rand"

	"github.com/pkg/errors"

	. "github.com/lorabandit/lbsim/types"
)

// RewardMode selects the base reward convention for success outcomes.
type RewardMode int

const (
	// RewardSuccessIndicator gives reward 1.0 on delivery and 0.0 otherwise.
	RewardSuccessIndicator RewardMode = iota
	// RewardInverseEnergy gives reward 1/EnergyMj on delivery and 0.0 otherwise.
	RewardInverseEnergy
)

// Outcome is the observed result of one transmission attempt, fed back to the policy.
type Outcome struct {
	Success   bool
	EnergyMj  float64 // total energy of the attempt, for the inverse-energy reward
	QualityMw float64 // received signal power in linear mW, for quality-aware policies
}

// Policy is the common contract of all selection strategies. Select must be callable
// before any Update; every never-tried arm is selected before any arm is repeated.
type Policy interface {
	Name() string

	// Select picks the transmission parameters for the next attempt and advances
	// the policy's decision index.
	Select() TxParameters

	// Update feeds the observed outcome of an attempt with parameters p back into
	// the policy statistics. Baselines ignore it.
	Update(p TxParameters, o Outcome)

	// SelectionCounts reports per-arm selection totals for run reporting.
	SelectionCounts() []SelectionCount
}

// SelectionCount is one arm's selection total, labeled for reporting.
type SelectionCount struct {
	Label string
	Count uint64
}

// Dimensions are the statically configured parameter sets a policy selects from.
// Single-dimension policies receive sets of size one for the pinned dimensions.
type Dimensions struct {
	SfSet []SpreadingFactor
	BwSet []float64
	CfSet []float64
	TpSet []float64
}

// Combos expands the dimension sets to the flat, ordered arm list
// (SF-major, TP fastest).
func (d Dimensions) Combos() []TxParameters {
	combos := make([]TxParameters, 0, len(d.SfSet)*len(d.BwSet)*len(d.CfSet)*len(d.TpSet))
	for _, sf := range d.SfSet {
		for _, bw := range d.BwSet {
			for _, cf := range d.CfSet {
				for _, tp := range d.TpSet {
					combos = append(combos, TxParameters{Sf: sf, BandwidthHz: bw, FrequencyHz: cf, TxPowerDbm: tp})
				}
			}
		}
	}
	return combos
}

func (d Dimensions) validate() error {
	if len(d.SfSet) == 0 || len(d.BwSet) == 0 || len(d.CfSet) == 0 || len(d.TpSet) == 0 {
		return errors.Errorf("all parameter dimension sets must be non-empty")
	}
	for _, sf := range d.SfSet {
		if sf < MinSpreadingFactor || sf > MaxSpreadingFactor {
			return errors.Errorf("spreading factor %d out of range [%d,%d]", sf, MinSpreadingFactor, MaxSpreadingFactor)
		}
	}
	return nil
}

// Config holds the policy variant name and its hyperparameters.
// All hyperparameters are fixed at construction.
type Config struct {
	Name string

	ExplorationWeight    float64 // UCB exploration weight (c or alpha)
	QualityWeight        float64 // quality bonus weight (beta) for QoC-A/DQoC-A
	DiscountLambda       float64 // reward discount per selection-age step (DQoC-A)
	DiscountLambdaQ      float64 // quality discount per selection-age step (DQoC-A)
	Epsilon              float64 // exploration probability for epsilon-greedy
	OscillationAmplitude float64 // A in the ToW oscillation term
	TowAlpha             float64 // ToW Q-value decay on update
	TowBeta              float64 // ToW per-decision forgetting factor on counts
	Xi                   float64 // D-LoRa throughput-bias weight
	Eta                  float64 // D-LoRa energy-bias weight
	Zeta                 float64 // D-LoRa bandwidth-bias weight

	RewardMode RewardMode

	// DeviceIndex parameterizes the per-device deterministic baselines.
	DeviceIndex int
}

// DefaultConfig returns the configuration of the named policy variant with the
// hyperparameter values studied for it.
func DefaultConfig(name string) Config {
	cfg := Config{Name: name}
	switch name {
	case "ucb1":
		cfg.ExplorationWeight = 2.0
	case "ucb1-tuned":
		// exploration scale is built into the tuned bound
	case "qoca":
		cfg.ExplorationWeight = 1.9
		cfg.QualityWeight = 0.9
		cfg.DiscountLambda = 1.0
		cfg.DiscountLambdaQ = 1.0
	case "dqoca":
		cfg.ExplorationWeight = 0.6
		cfg.QualityWeight = 0.2
		cfg.DiscountLambda = 0.98
		cfg.DiscountLambdaQ = 0.90
	case "tow":
		cfg.OscillationAmplitude = 0.5
		cfg.TowAlpha = 0.9
		cfg.TowBeta = 0.9
	case "egreedy":
		cfg.Epsilon = 0.1
	case "dlora":
		cfg.ExplorationWeight = 2.0
		cfg.Eta = 1.8
	case "dlora-pdr":
		cfg.ExplorationWeight = 2.0
	case "dlora-ee":
		cfg.ExplorationWeight = 2.0
		cfg.Eta = 3.5
	case "dlora-th":
		cfg.ExplorationWeight = 2.0
		cfg.Xi = 10.0
		cfg.Zeta = 10.0
	}
	return cfg
}

func (cfg *Config) validate() error {
	if cfg.ExplorationWeight < 0 || cfg.QualityWeight < 0 {
		return errors.Errorf("policy %s: exploration/quality weights must be non-negative", cfg.Name)
	}
	if cfg.Epsilon < 0 || cfg.Epsilon > 1 {
		return errors.Errorf("policy %s: epsilon %f out of range [0,1]", cfg.Name, cfg.Epsilon)
	}
	if cfg.Name == "dqoca" {
		if cfg.DiscountLambda <= 0 || cfg.DiscountLambda > 1 || cfg.DiscountLambdaQ <= 0 || cfg.DiscountLambdaQ > 1 {
			return errors.Errorf("policy %s: discount factors must be in (0,1]", cfg.Name)
		}
	}
	if cfg.Name == "tow" {
		if cfg.TowAlpha <= 0 || cfg.TowAlpha > 1 || cfg.TowBeta <= 0 || cfg.TowBeta > 1 {
			return errors.Errorf("policy %s: alpha/beta must be in (0,1]", cfg.Name)
		}
	}
	if cfg.Xi < 0 || cfg.Eta < 0 || cfg.Zeta < 0 {
		return errors.Errorf("policy %s: reward shaping weights must be non-negative", cfg.Name)
	}
	if cfg.DeviceIndex < 0 {
		return errors.Errorf("policy %s: device index must be non-negative", cfg.Name)
	}
	return nil
}

// New creates the configured policy over the given parameter dimensions.
// An unknown policy name is a fatal configuration error, reported before any
// simulation begins.
func New(cfg Config, dims Dimensions, rnd *rand.Rand) (Policy, error) {
	if err := dims.validate(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	switch cfg.Name {
	case "ucb1":
		return newUcb1(cfg, dims), nil
	case "ucb1-tuned":
		return newUcb1Tuned(cfg, dims), nil
	case "qoca", "dqoca":
		return newQoca(cfg, dims), nil
	case "tow":
		return newTow(cfg, dims), nil
	case "egreedy":
		return newEpsilonGreedy(cfg, dims, rnd), nil
	case "adr-lite":
		return newAdrLite(cfg, dims), nil
	case "fixed":
		return newFixed(cfg, dims), nil
	case "rr":
		return newRoundRobin(cfg, dims), nil
	case "random":
		return newRandom(cfg, dims, rnd), nil
	case "dlora", "dlora-pdr", "dlora-ee", "dlora-th":
		return newDlora(cfg, dims), nil
	default:
		return nil, errors.Errorf("unknown policy: %s", cfg.Name)
	}
}

// Names lists all known policy variant names.
func Names() []string {
	return []string{"ucb1", "ucb1-tuned", "qoca", "dqoca", "tow", "egreedy",
		"adr-lite", "fixed", "rr", "random", "dlora", "dlora-pdr", "dlora-ee", "dlora-th"}
}
