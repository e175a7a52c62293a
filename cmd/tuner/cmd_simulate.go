// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"

	"github.com/AleutianAI/AleutianTune/pkg/ux"
	"github.com/AleutianAI/AleutianTune/services/tuner/bandit"
	"github.com/AleutianAI/AleutianTune/services/tuner/optimizer"
	"github.com/spf13/cobra"
)

// errInvalidSimulation reports bad simulate flags.
var errInvalidSimulation = errors.New("invalid simulation")

// defaultEpsilon replaces the ucb1-oriented --param default for
// epsilon_greedy.
const defaultEpsilon = 0.1

// =============================================================================
// Bandit Simulation
// =============================================================================

// strategy is the part of a bandit the simulator drives.
type strategy interface {
	SelectArm() int
	Update(arm int, reward float64) error
	Counts() []int
	Values() []float64
}

type banditSimConfig struct {
	Kind   bandit.Kind
	Param  float64
	Means  []float64
	Rounds int
	Every  int
	Noise  float64
	Seed   int64
}

type banditCheckpoint struct {
	Round            int
	Arm              int
	CumulativeReward float64
	Regret           float64
}

type banditSimResult struct {
	Counts      []int
	Values      []float64
	BestArm     int
	TotalReward float64
	Regret      float64
	Trajectory  []banditCheckpoint
}

// simulateBandit plays cfg.Rounds rounds against Gaussian arms with means
// cfg.Means. Regret is measured against always pulling the best true arm.
// Identical configs produce identical results.
func simulateBandit(cfg banditSimConfig) (banditSimResult, error) {
	if cfg.Rounds < 1 {
		return banditSimResult{}, fmt.Errorf("%w: rounds must be >= 1", errInvalidSimulation)
	}
	if cfg.Noise < 0 {
		return banditSimResult{}, fmt.Errorf("%w: noise must be >= 0", errInvalidSimulation)
	}

	var s strategy
	var err error
	switch cfg.Kind {
	case bandit.KindEpsilonGreedy:
		s, err = bandit.NewEpsilonGreedyWithSeed(len(cfg.Means), cfg.Param, cfg.Seed)
	case bandit.KindUcb1:
		s, err = bandit.NewUcb1(len(cfg.Means), cfg.Param)
	default:
		err = fmt.Errorf("%w: %q", bandit.ErrUnsupportedKind, cfg.Kind)
	}
	if err != nil {
		return banditSimResult{}, err
	}

	best := cfg.Means[0]
	for _, m := range cfg.Means {
		best = max(best, m)
	}

	every := checkpointInterval(cfg.Rounds, cfg.Every)
	rng := rand.New(rand.NewSource(cfg.Seed + 1))

	var res banditSimResult
	for round := 1; round <= cfg.Rounds; round++ {
		arm := s.SelectArm()
		reward := cfg.Means[arm] + cfg.Noise*rng.NormFloat64()
		if err := s.Update(arm, reward); err != nil {
			return banditSimResult{}, err
		}
		res.TotalReward += reward
		res.Regret += best - cfg.Means[arm]

		if round%every == 0 || round == cfg.Rounds {
			res.Trajectory = append(res.Trajectory, banditCheckpoint{
				Round:            round,
				Arm:              arm,
				CumulativeReward: res.TotalReward,
				Regret:           res.Regret,
			})
		}
	}

	res.Counts = s.Counts()
	res.Values = s.Values()
	for i, c := range res.Counts {
		if c > res.Counts[res.BestArm] {
			res.BestArm = i
		}
	}
	return res, nil
}

func runSimulateBandit(cmd *cobra.Command, _ []string) error {
	kind, err := bandit.ParseKind(simStrategy)
	if err != nil {
		return err
	}
	param := simParam
	if !cmd.Flags().Changed("param") && kind == bandit.KindEpsilonGreedy {
		param = defaultEpsilon
	}
	cfg := banditSimConfig{
		Kind:   kind,
		Param:  param,
		Means:  simMeans,
		Rounds: simRounds,
		Every:  simEvery,
		Noise:  simNoise,
		Seed:   simSeed,
	}
	res, err := simulateBandit(cfg)
	if err != nil {
		return err
	}
	printBanditResult(ux.NewPrinter(cmd.OutOrStdout()), cfg, res)
	return nil
}

func printBanditResult(p *ux.Printer, cfg banditSimConfig, res banditSimResult) {
	p.Title("Bandit simulation")
	p.KeyValue("strategy", cfg.Kind)
	p.KeyValue("param", cfg.Param)
	p.KeyValue("rounds", cfg.Rounds)
	p.KeyValue("seed", cfg.Seed)

	rows := make([][]string, 0, len(res.Trajectory))
	for _, cp := range res.Trajectory {
		rows = append(rows, []string{
			strconv.Itoa(cp.Round),
			strconv.Itoa(cp.Arm),
			formatFloat(cp.CumulativeReward),
			formatFloat(cp.Regret),
		})
	}
	p.Table([]string{"round", "arm", "cumulative_reward", "regret"}, rows)

	armRows := make([][]string, 0, len(res.Counts))
	for i, c := range res.Counts {
		row := []string{
			strconv.Itoa(i),
			formatFloat(cfg.Means[i]),
			formatFloat(res.Values[i]),
			strconv.Itoa(c),
		}
		if p.Mode() == ux.ModeRich {
			row = append(row, ux.ProgressBar(c, cfg.Rounds, 20))
		}
		armRows = append(armRows, row)
	}
	headers := []string{"arm", "true_mean", "estimate", "pulls"}
	if p.Mode() == ux.ModeRich {
		headers = append(headers, "share")
	}
	p.Table(headers, armRows)

	p.Success(fmt.Sprintf("most pulled arm %d, total regret %s", res.BestArm, formatFloat(res.Regret)))
}

// =============================================================================
// Optimizer Simulation
// =============================================================================

type optimizerSimConfig struct {
	X0     float64
	Target float64
	Params optimizer.Params
	Rounds int
	Every  int
	Noise  float64
	Seed   int64
}

type optimizerCheckpoint struct {
	Round  int
	X      float64
	Reward float64
	Step   float64
	Param  float64
}

type optimizerSimResult struct {
	Param      float64
	Trajectory []optimizerCheckpoint
}

// simulateOptimizer climbs reward(x) = -(x - target)^2 plus noise.
func simulateOptimizer(cfg optimizerSimConfig) (optimizerSimResult, error) {
	if cfg.Rounds < 1 {
		return optimizerSimResult{}, fmt.Errorf("%w: rounds must be >= 1", errInvalidSimulation)
	}
	if cfg.Noise < 0 {
		return optimizerSimResult{}, fmt.Errorf("%w: noise must be >= 0", errInvalidSimulation)
	}
	h, err := optimizer.NewHillClimber1DWithParams(cfg.X0, cfg.Params)
	if err != nil {
		return optimizerSimResult{}, err
	}

	every := checkpointInterval(cfg.Rounds, cfg.Every)
	rng := rand.New(rand.NewSource(cfg.Seed))

	var res optimizerSimResult
	for round := 1; round <= cfg.Rounds; round++ {
		x := h.Suggest()
		d := x - cfg.Target
		reward := -d*d + cfg.Noise*rng.NormFloat64()
		if err := h.Observe(reward); err != nil {
			return optimizerSimResult{}, err
		}
		if round%every == 0 || round == cfg.Rounds {
			res.Trajectory = append(res.Trajectory, optimizerCheckpoint{
				Round:  round,
				X:      x,
				Reward: reward,
				Step:   h.Step(),
				Param:  h.Param(),
			})
		}
	}
	res.Param = h.Param()
	return res, nil
}

func runSimulateOptimizer(cmd *cobra.Command, _ []string) error {
	cfg := optimizerSimConfig{
		X0:     simX0,
		Target: simTarget,
		Params: optimizer.Params{
			Step:    simStep,
			MinStep: simMinStep,
			Grow:    simGrow,
			Shrink:  simShrink,
		},
		Rounds: simRounds,
		Every:  simEvery,
		Noise:  simNoise,
		Seed:   simSeed,
	}
	res, err := simulateOptimizer(cfg)
	if err != nil {
		return err
	}
	printOptimizerResult(ux.NewPrinter(cmd.OutOrStdout()), cfg, res)
	return nil
}

func printOptimizerResult(p *ux.Printer, cfg optimizerSimConfig, res optimizerSimResult) {
	p.Title("Hill climber simulation")
	p.KeyValue("x0", cfg.X0)
	p.KeyValue("target", cfg.Target)
	p.KeyValue("rounds", cfg.Rounds)
	p.KeyValue("seed", cfg.Seed)

	rows := make([][]string, 0, len(res.Trajectory))
	for _, cp := range res.Trajectory {
		rows = append(rows, []string{
			strconv.Itoa(cp.Round),
			formatFloat(cp.X),
			formatFloat(cp.Reward),
			formatFloat(cp.Step),
			formatFloat(cp.Param),
		})
	}
	p.Table([]string{"round", "x", "reward", "step", "param"}, rows)

	p.Success(fmt.Sprintf("final param %s (target %s)", formatFloat(res.Param), formatFloat(cfg.Target)))
}

// =============================================================================
// Helpers
// =============================================================================

// checkpointInterval returns every, or roughly rounds/10 when every < 1.
func checkpointInterval(rounds, every int) int {
	if every >= 1 {
		return every
	}
	return max(1, rounds/10)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
