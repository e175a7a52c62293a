// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package optimizer provides online scalar parameter optimizers.
//
// # Description
//
// An Optimizer proposes a parameter value with Suggest and is told how good
// that value was with Observe. The two calls alternate. Param reports the
// best value accepted so far.
//
// HillClimber1D is the only implementation: an adaptive-step local search
// over a single real parameter. It is deterministic and keeps no history
// beyond the previous reward, which suits unimodal, low-noise reward
// surfaces. It is not guaranteed to find a global optimum.
//
// # Thread Safety
//
// Optimizers are not safe for concurrent use. The registry package
// serializes access.
package optimizer

import (
	"errors"
	"fmt"
)

// Sentinel errors for optimizers.
var (
	// ErrInvalidArgument indicates bad construction parameters.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrObserveBeforeSuggest indicates Observe was called without a
	// pending suggestion.
	ErrObserveBeforeSuggest = errors.New("observe called before suggest")
)

// Optimizer is an online suggest/observe parameter search.
type Optimizer interface {
	// Suggest returns the next value to evaluate.
	Suggest() float64

	// Observe reports the reward for the most recent suggestion.
	Observe(reward float64) error

	// Param returns the current best parameter.
	Param() float64

	// Reset restarts the search from x0.
	Reset(x0 float64)
}

// Params configures a HillClimber1D.
type Params struct {
	// Step is the initial step size. Must be > 0.
	Step float64 `json:"step" yaml:"step" validate:"gt=0"`

	// MinStep is the floor the step shrinks to. Must be > 0.
	MinStep float64 `json:"min_step" yaml:"min_step" validate:"gt=0"`

	// Grow multiplies the step after an improvement. Must be > 1.
	Grow float64 `json:"grow" yaml:"grow" validate:"gt=1"`

	// Shrink multiplies the step after a regression. Must be in (0, 1).
	Shrink float64 `json:"shrink" yaml:"shrink" validate:"gt=0,lt=1"`
}

// DefaultParams returns step 0.5, min step 0.1, grow 1.1, shrink 0.5.
func DefaultParams() Params {
	return Params{
		Step:    0.5,
		MinStep: 0.1,
		Grow:    1.1,
		Shrink:  0.5,
	}
}

// Validate checks every field against its allowed range.
func (p Params) Validate() error {
	// Negated comparisons also reject NaN.
	if !(p.Step > 0) {
		return fmt.Errorf("%w: step must be > 0, got %v", ErrInvalidArgument, p.Step)
	}
	if !(p.MinStep > 0) {
		return fmt.Errorf("%w: min_step must be > 0, got %v", ErrInvalidArgument, p.MinStep)
	}
	if !(p.Grow > 1) {
		return fmt.Errorf("%w: grow must be > 1, got %v", ErrInvalidArgument, p.Grow)
	}
	if !(p.Shrink > 0 && p.Shrink < 1) {
		return fmt.Errorf("%w: shrink must be in (0, 1), got %v", ErrInvalidArgument, p.Shrink)
	}
	return nil
}
