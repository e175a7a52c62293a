// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package registry

import (
	"fmt"
	"sync"

	"github.com/AleutianAI/AleutianTune/services/tuner/optimizer"
	"github.com/google/uuid"
)

// OptimizerRegistry owns hill-climber instances keyed by id.
//
// Thread Safety: Safe for concurrent use. One mutex guards the map.
type OptimizerRegistry struct {
	mu      sync.Mutex
	entries map[string]optimizer.Optimizer
	newID   func() string
}

// NewOptimizerRegistry creates an empty registry.
//
// idGen may be nil, in which case uuid.NewString is used.
func NewOptimizerRegistry(idGen func() string) *OptimizerRegistry {
	if idGen == nil {
		idGen = uuid.NewString
	}
	return &OptimizerRegistry{
		entries: make(map[string]optimizer.Optimizer),
		newID:   idGen,
	}
}

// Create builds a HillClimber1D at x0 and returns its id.
//
// Returns ErrInvalidOptimizerParams when p fails validation.
func (r *OptimizerRegistry) Create(x0 float64, p optimizer.Params) (string, error) {
	h, err := optimizer.NewHillClimber1DWithParams(x0, p)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := r.newID()
		if _, taken := r.entries[id]; taken {
			continue
		}
		r.entries[id] = h
		return id, nil
	}
	return "", ErrIDCollision
}

// Suggest returns the next value the optimizer wants evaluated.
func (r *OptimizerRegistry) Suggest(id string) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	opt, ok := r.entries[id]
	if !ok {
		return 0, fmt.Errorf("%w: optimizer %q", ErrNotFound, id)
	}
	return opt.Suggest(), nil
}

// Observe reports reward for the pending suggestion and returns the
// resulting best parameter.
func (r *OptimizerRegistry) Observe(id string, reward float64) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	opt, ok := r.entries[id]
	if !ok {
		return 0, fmt.Errorf("%w: optimizer %q", ErrNotFound, id)
	}
	if err := opt.Observe(reward); err != nil {
		return opt.Param(), err
	}
	return opt.Param(), nil
}

// State returns the current best parameter.
func (r *OptimizerRegistry) State(id string) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	opt, ok := r.entries[id]
	if !ok {
		return 0, fmt.Errorf("%w: optimizer %q", ErrNotFound, id)
	}
	return opt.Param(), nil
}

// Reset restarts the optimizer from x0.
func (r *OptimizerRegistry) Reset(id string, x0 float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	opt, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("%w: optimizer %q", ErrNotFound, id)
	}
	opt.Reset(x0)
	return nil
}

// Remove deletes an entry and reports whether it existed.
func (r *OptimizerRegistry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; !ok {
		return false
	}
	delete(r.entries, id)
	return true
}

// Len returns the number of live optimizers.
func (r *OptimizerRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
