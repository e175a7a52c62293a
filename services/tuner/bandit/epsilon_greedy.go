// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package bandit

import (
	"fmt"
	"math/rand"
)

// DefaultSeed is the seed used when a caller does not supply one.
//
// Every instance built with DefaultSeed and identical parameters draws the
// same random sequence. Production callers that want independent instances
// should pass their own seed.
const DefaultSeed int64 = 42

// EpsilonGreedy explores with probability epsilon and otherwise exploits.
//
// Description:
//
//	SelectArm draws p uniformly from [0, 1). If p < epsilon an arm is chosen
//	uniformly at random (explore). Otherwise the arm with the highest running
//	mean is returned (exploit), with ties going to the lowest index.
//
// Thread Safety: Not safe for concurrent use.
type EpsilonGreedy struct {
	epsilon float64
	seed    int64
	rng     *rand.Rand
	arms
}

// NewEpsilonGreedy creates an EpsilonGreedy strategy seeded with DefaultSeed.
func NewEpsilonGreedy(numArms int, epsilon float64) (*EpsilonGreedy, error) {
	return NewEpsilonGreedyWithSeed(numArms, epsilon, DefaultSeed)
}

// NewEpsilonGreedyWithSeed creates an EpsilonGreedy strategy.
//
// Inputs:
//
//	numArms - Number of arms. Must be >= 1.
//	epsilon - Exploration probability in [0, 1].
//	seed - Seed for the selection random source.
//
// Outputs:
//
//	*EpsilonGreedy - Strategy with all counts and values zero.
//	error - ErrInvalidArgument if numArms or epsilon is out of range.
func NewEpsilonGreedyWithSeed(numArms int, epsilon float64, seed int64) (*EpsilonGreedy, error) {
	if numArms < 1 {
		return nil, fmt.Errorf("%w: num_arms must be >= 1, got %d", ErrInvalidArgument, numArms)
	}
	// The negated form also rejects NaN.
	if !(epsilon >= 0 && epsilon <= 1) {
		return nil, fmt.Errorf("%w: epsilon must be in [0, 1], got %v", ErrInvalidArgument, epsilon)
	}
	return &EpsilonGreedy{
		epsilon: epsilon,
		seed:    seed,
		rng:     rand.New(rand.NewSource(seed)),
		arms:    newArms(numArms),
	}, nil
}

// SelectArm chooses an arm. Each call advances the random source.
func (e *EpsilonGreedy) SelectArm() int {
	if e.rng.Float64() < e.epsilon {
		return e.rng.Intn(len(e.counts))
	}
	return argmax(e.values)
}

// Update folds reward into arm's running mean.
//
// Returns ErrArmOutOfRange if arm is not in [0, NumArms()).
func (e *EpsilonGreedy) Update(arm int, reward float64) error {
	return e.arms.update(arm, reward)
}

// NumArms returns the fixed number of arms.
func (e *EpsilonGreedy) NumArms() int { return len(e.counts) }

// Epsilon returns the exploration probability.
func (e *EpsilonGreedy) Epsilon() float64 { return e.epsilon }

// Seed returns the seed the random source was built with.
func (e *EpsilonGreedy) Seed() int64 { return e.seed }

// Counts returns a copy of the per-arm pull counts.
func (e *EpsilonGreedy) Counts() []int {
	c, _ := e.snapshot()
	return c
}

// Values returns a copy of the per-arm running means.
func (e *EpsilonGreedy) Values() []float64 {
	_, v := e.snapshot()
	return v
}
