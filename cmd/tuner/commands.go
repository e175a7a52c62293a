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
	"github.com/spf13/cobra"
)

var (
	// --- Serve flags ---
	configPath string
	portFlag   int
	logLevel   string

	// --- Simulate flags ---
	simSeed     int64
	simRounds   int
	simEvery    int
	simStrategy string
	simParam    float64
	simMeans    []float64
	simNoise    float64
	simX0       float64
	simTarget   float64
	simStep     float64
	simMinStep  float64
	simGrow     float64
	simShrink   float64
)

var (
	rootCmd = &cobra.Command{
		Use:   "tuner",
		Short: "Online hyperparameter tuning service",
		Long: `tuner hosts multi-armed bandits and a 1-D hill climber behind an
HTTP API, and can replay either strategy offline against synthetic rewards.`,
		SilenceUsage: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the tuner HTTP service",
		RunE:  runServe, // Defined in cmd_serve.go
	}

	simulateCmd = &cobra.Command{
		Use:   "simulate",
		Short: "Run a strategy offline against a synthetic reward function",
	}

	simulateBanditCmd = &cobra.Command{
		Use:   "bandit",
		Short: "Simulate a bandit on Gaussian arms",
		RunE:  runSimulateBandit, // Defined in cmd_simulate.go
	}

	simulateOptimizerCmd = &cobra.Command{
		Use:   "optimizer",
		Short: "Simulate the hill climber on -(x - target)^2",
		RunE:  runSimulateOptimizer, // Defined in cmd_simulate.go
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the tuner version",
		Run:   runVersion, // Defined in cmd_serve.go
	}
)

func init() {
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to a YAML or JSON config file (watched for changes)")
	serveCmd.Flags().IntVarP(&portFlag, "port", "p", 0, "HTTP port (overrides config)")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")

	simulateCmd.PersistentFlags().Int64Var(&simSeed, "seed", 42, "Seed for the synthetic reward noise and epsilon-greedy exploration")
	simulateCmd.PersistentFlags().IntVar(&simRounds, "rounds", 500, "Number of select/update (or suggest/observe) rounds")
	simulateCmd.PersistentFlags().IntVar(&simEvery, "every", 0, "Trajectory checkpoint interval (0 picks ~10 checkpoints)")
	simulateCmd.PersistentFlags().Float64Var(&simNoise, "noise", 0.1, "Standard deviation of Gaussian reward noise")

	simulateBanditCmd.Flags().StringVar(&simStrategy, "strategy", "ucb1", "Bandit strategy: epsilon_greedy or ucb1")
	simulateBanditCmd.Flags().Float64Var(&simParam, "param", 2.0, "Exploration coefficient c for ucb1, epsilon for epsilon_greedy (default 0.1)")
	simulateBanditCmd.Flags().Float64SliceVar(&simMeans, "means", []float64{0.2, 0.5, 0.8}, "True mean reward of each arm")

	simulateOptimizerCmd.Flags().Float64Var(&simX0, "x0", 0, "Starting parameter value")
	simulateOptimizerCmd.Flags().Float64Var(&simTarget, "target", 3, "Maximizer of the synthetic reward")
	simulateOptimizerCmd.Flags().Float64Var(&simStep, "step", 0.5, "Initial step size")
	simulateOptimizerCmd.Flags().Float64Var(&simMinStep, "min-step", 0.1, "Minimum step size")
	simulateOptimizerCmd.Flags().Float64Var(&simGrow, "grow", 1.1, "Step multiplier after an improvement")
	simulateOptimizerCmd.Flags().Float64Var(&simShrink, "shrink", 0.5, "Step multiplier after a regression")

	simulateCmd.AddCommand(simulateBanditCmd, simulateOptimizerCmd)
	rootCmd.AddCommand(serveCmd, simulateCmd, versionCmd)
}
