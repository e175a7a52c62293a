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
	"math"
)

// Ucb1 selects arms by upper confidence bound.
//
// Description:
//
//	Until every arm has been pulled once, SelectArm returns the lowest-index
//	unpulled arm. After that each arm is scored as
//	  score = mean + C * sqrt(2 * ln(total) / pulls)
//	and the strictly highest score wins, ties going to the lowest index.
//
//	No randomness is involved: identical reward sequences always produce
//	identical selection sequences.
//
// Thread Safety: Not safe for concurrent use.
type Ucb1 struct {
	c float64
	arms
}

// NewUcb1 creates a Ucb1 strategy.
//
// Inputs:
//
//	numArms - Number of arms. Must be >= 1.
//	c - Exploration coefficient. Must be >= 0.
//
// Outputs:
//
//	*Ucb1 - Strategy with all counts and values zero.
//	error - ErrInvalidArgument if numArms or c is out of range.
func NewUcb1(numArms int, c float64) (*Ucb1, error) {
	if numArms < 1 {
		return nil, fmt.Errorf("%w: num_arms must be >= 1, got %d", ErrInvalidArgument, numArms)
	}
	if !(c >= 0) || math.IsInf(c, 1) {
		return nil, fmt.Errorf("%w: c must be a finite value >= 0, got %v", ErrInvalidArgument, c)
	}
	return &Ucb1{c: c, arms: newArms(numArms)}, nil
}

// SelectArm chooses an arm. It does not mutate state.
func (u *Ucb1) SelectArm() int {
	total := 0
	for i, n := range u.counts {
		if n == 0 {
			return i
		}
		total += n
	}

	lnTotal := math.Log(float64(total))
	best := 0
	bestScore := math.Inf(-1)
	for i, n := range u.counts {
		score := u.values[i] + u.c*math.Sqrt(2*lnTotal/float64(n))
		if score > bestScore {
			best = i
			bestScore = score
		}
	}
	return best
}

// Update folds reward into arm's running mean.
//
// Returns ErrArmOutOfRange if arm is not in [0, NumArms()).
func (u *Ucb1) Update(arm int, reward float64) error {
	return u.arms.update(arm, reward)
}

// NumArms returns the fixed number of arms.
func (u *Ucb1) NumArms() int { return len(u.counts) }

// C returns the exploration coefficient.
func (u *Ucb1) C() float64 { return u.c }

// Counts returns a copy of the per-arm pull counts.
func (u *Ucb1) Counts() []int {
	c, _ := u.snapshot()
	return c
}

// Values returns a copy of the per-arm running means.
func (u *Ucb1) Values() []float64 {
	_, v := u.snapshot()
	return v
}
