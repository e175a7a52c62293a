// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package optimizer

import (
	"math"
)

// HillClimber1D is an adaptive-step hill climber over one parameter.
//
// # Description
//
// The first Suggest returns x unchanged and the first Observe only records
// a baseline reward. After that each Suggest proposes x + dir*step:
//
//   - reward >= last reward: the proposal becomes x and step grows.
//   - reward <  last reward: the proposal is discarded, dir flips, and step
//     shrinks but never below MinStep.
//
// # Thread Safety
//
// Not safe for concurrent use.
type HillClimber1D struct {
	params Params

	x    float64
	dir  float64
	step float64

	hasLastReward bool
	lastReward    float64

	hasSuggested  bool
	lastSuggested float64
}

// NewHillClimber1D creates a climber at x0 using DefaultParams.
func NewHillClimber1D(x0 float64) *HillClimber1D {
	h, _ := NewHillClimber1DWithParams(x0, DefaultParams())
	return h
}

// NewHillClimber1DWithParams creates a climber at x0.
//
// # Inputs
//
//   - x0: Initial parameter value.
//   - p: Step configuration. See Params for the allowed ranges.
//
// # Outputs
//
//   - *HillClimber1D: The climber, moving in the +1 direction.
//   - error: ErrInvalidArgument if p fails validation.
func NewHillClimber1DWithParams(x0 float64, p Params) (*HillClimber1D, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &HillClimber1D{
		params: p,
		x:      x0,
		dir:    1,
		step:   p.Step,
	}, nil
}

// Suggest returns the next value to evaluate and remembers it.
func (h *HillClimber1D) Suggest() float64 {
	if !h.hasSuggested {
		h.lastSuggested = h.x
		h.hasSuggested = true
		return h.x
	}
	h.lastSuggested = h.x + h.dir*h.step
	return h.lastSuggested
}

// Observe reports the reward for the last suggestion.
//
// Returns ErrObserveBeforeSuggest if Suggest has not been called since
// construction or the last Reset.
func (h *HillClimber1D) Observe(reward float64) error {
	if !h.hasSuggested {
		return ErrObserveBeforeSuggest
	}

	if !h.hasLastReward {
		h.x = h.lastSuggested
		h.lastReward = reward
		h.hasLastReward = true
		return nil
	}

	if reward >= h.lastReward {
		h.x = h.lastSuggested
		h.step *= h.params.Grow
		h.lastReward = reward
		return nil
	}

	h.dir = -h.dir
	h.step = math.Max(h.step*h.params.Shrink, h.params.MinStep)
	return nil
}

// Param returns the current best parameter.
func (h *HillClimber1D) Param() float64 {
	return h.x
}

// Reset moves back to x0 in the +1 direction and clears history.
// The step is kept but clamped to at least MinStep.
func (h *HillClimber1D) Reset(x0 float64) {
	h.x = x0
	h.dir = 1
	h.step = math.Max(h.step, h.params.MinStep)
	h.hasLastReward = false
	h.lastReward = 0
	h.hasSuggested = false
	h.lastSuggested = 0
}

// Step returns the current step size.
func (h *HillClimber1D) Step() float64 { return h.step }

// Direction returns +1 or -1.
func (h *HillClimber1D) Direction() float64 { return h.dir }

// Params returns the climber's configuration.
func (h *HillClimber1D) Params() Params { return h.params }

var _ Optimizer = (*HillClimber1D)(nil)
