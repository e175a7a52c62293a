// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package bandit implements multi-armed bandit strategies.
//
// Two strategies are provided:
//
//   - EpsilonGreedy: explores uniformly with probability epsilon, otherwise
//     exploits the arm with the highest running mean. Randomness comes from a
//     seeded source so runs are reproducible.
//   - Ucb1: deterministic upper-confidence-bound selection. Every arm is
//     pulled once before scores are compared.
//
// Both keep per-arm pull counts and running means updated with the
// incremental-mean identity, so no reward history is stored.
//
// Strategies are not safe for concurrent use. The registry package
// serializes access.
package bandit

import "fmt"

// Kind identifies a bandit strategy variant.
type Kind string

const (
	// KindEpsilonGreedy selects the EpsilonGreedy strategy.
	KindEpsilonGreedy Kind = "epsilon_greedy"

	// KindUcb1 selects the Ucb1 strategy.
	KindUcb1 Kind = "ucb1"
)

// ParseKind converts a wire string into a Kind.
//
// Returns ErrUnsupportedKind for anything other than "epsilon_greedy" or
// "ucb1".
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindEpsilonGreedy, KindUcb1:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, s)
	}
}

// String returns the wire form of the kind.
func (k Kind) String() string {
	return string(k)
}

// =============================================================================
// Shared Arm State
// =============================================================================

// arms holds per-arm pull counts and running means.
//
// values[i] is always the arithmetic mean of exactly counts[i] rewards.
type arms struct {
	counts []int
	values []float64
}

func newArms(numArms int) arms {
	return arms{
		counts: make([]int, numArms),
		values: make([]float64, numArms),
	}
}

// update folds reward into the running mean for arm.
func (a *arms) update(arm int, reward float64) error {
	if arm < 0 || arm >= len(a.counts) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrArmOutOfRange, arm, len(a.counts))
	}
	n := a.counts[arm] + 1
	a.values[arm] += (reward - a.values[arm]) / float64(n)
	a.counts[arm] = n
	return nil
}

// argmax returns the index of the strictly greatest value.
// Ties resolve to the lowest index.
func argmax(xs []float64) int {
	best := 0
	for i := 1; i < len(xs); i++ {
		if xs[i] > xs[best] {
			best = i
		}
	}
	return best
}

func (a *arms) snapshot() ([]int, []float64) {
	counts := make([]int, len(a.counts))
	values := make([]float64, len(a.values))
	copy(counts, a.counts)
	copy(values, a.values)
	return counts, values
}
