// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package stats

import "math"

// Summary is a point-in-time view of a window's statistics.
//
// All fields are zero for an empty window. Zero is a neutral value and does
// not distinguish "no data" from "data averaging to zero"; use Count.
type Summary struct {
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// =============================================================================
// RewardTracker
// =============================================================================

// RewardTracker reports mean/min/max/count over the most recent rewards.
type RewardTracker struct {
	window *RollingWindow
}

// NewRewardTracker creates a tracker retaining the last window rewards.
//
// # Inputs
//
//   - window: Number of rewards retained. Must be >= 1.
//
// # Outputs
//
//   - *RewardTracker: The empty tracker.
//   - error: ErrInvalidCapacity if window < 1.
func NewRewardTracker(window int) (*RewardTracker, error) {
	w, err := NewRollingWindow(window)
	if err != nil {
		return nil, err
	}
	return &RewardTracker{window: w}, nil
}

// Update records a reward.
func (t *RewardTracker) Update(reward float64) {
	t.window.Push(reward)
}

// Mean returns the mean of the window.
func (t *RewardTracker) Mean() float64 { return t.window.Mean() }

// Min returns the minimum of the window.
func (t *RewardTracker) Min() float64 { return t.window.Min() }

// Max returns the maximum of the window.
func (t *RewardTracker) Max() float64 { return t.window.Max() }

// Count returns the number of rewards in the window.
func (t *RewardTracker) Count() int { return t.window.Len() }

// Values returns the retained rewards, oldest first.
func (t *RewardTracker) Values() []float64 { return t.window.Values() }

// Summary returns all four statistics at once.
func (t *RewardTracker) Summary() Summary {
	return Summary{
		Mean:  t.Mean(),
		Min:   t.Min(),
		Max:   t.Max(),
		Count: t.Count(),
	}
}

// =============================================================================
// RewardNormalizer
// =============================================================================

// neutralScore is returned when the window carries no usable spread.
const neutralScore = 0.5

// RewardNormalizer maps rewards onto (0, 1) relative to recent history.
//
// # Description
//
// Normalized computes z = (reward - mean) / stddev over the window using
// population statistics and returns the logistic sigmoid of z.
//
// # Limitations
//
//   - Returns exactly 0.5 for an empty window and for a window whose values
//     are all identical. Callers cannot distinguish these from a reward that
//     sits exactly on the mean.
type RewardNormalizer struct {
	window *RollingWindow
}

// NewRewardNormalizer creates a normalizer over the last window rewards.
func NewRewardNormalizer(window int) (*RewardNormalizer, error) {
	w, err := NewRollingWindow(window)
	if err != nil {
		return nil, err
	}
	return &RewardNormalizer{window: w}, nil
}

// Update records a reward into the normalization window.
func (n *RewardNormalizer) Update(reward float64) {
	n.window.Push(reward)
}

// Count returns the number of rewards in the window.
func (n *RewardNormalizer) Count() int { return n.window.Len() }

// Normalized returns sigmoid((reward - mean) / stddev) over the window.
//
// # Outputs
//
//   - float64: 0.5 if the window is empty or has zero spread, otherwise a
//     value strictly inside (0, 1).
func (n *RewardNormalizer) Normalized(reward float64) float64 {
	count := n.window.Len()
	if count == 0 {
		return neutralScore
	}

	mean := n.window.Mean()
	variance := 0.0
	for _, v := range n.window.values {
		d := v - mean
		variance += d * d
	}
	sigma := math.Sqrt(variance / float64(count))
	if sigma == 0 {
		return neutralScore
	}

	z := (reward - mean) / sigma
	return 1 / (1 + math.Exp(-z))
}
