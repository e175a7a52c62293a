// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package stats provides rolling reward statistics for the tuner.
//
// # Description
//
// RollingWindow is the shared primitive: a fixed-capacity FIFO of recent
// rewards. RewardTracker summarizes the window (mean, min, max, count) and
// RewardNormalizer maps a reward onto (0, 1) using the window's z-score.
//
// # Thread Safety
//
// None of the types in this package are safe for concurrent use. Owners
// (the bandit registry, the training controller) serialize access.
package stats

import "errors"

// DefaultWindow is the window capacity used when none is configured.
const DefaultWindow = 50

// ErrInvalidCapacity is returned when a window is created with capacity < 1.
var ErrInvalidCapacity = errors.New("window capacity must be positive")

// =============================================================================
// RollingWindow
// =============================================================================

// RollingWindow is a fixed-capacity FIFO buffer of float64 values.
//
// # Description
//
// Once the window holds capacity values, each Push evicts exactly the
// oldest value before appending the new one. Values are stored oldest
// first.
//
// # Limitations
//
//   - Eviction shifts the backing slice, so Push is O(capacity). Windows
//     are small (default 50) so this is not a concern in practice.
type RollingWindow struct {
	capacity int
	values   []float64
}

// NewRollingWindow creates an empty window.
//
// # Inputs
//
//   - capacity: Maximum number of retained values. Must be >= 1.
//
// # Outputs
//
//   - *RollingWindow: The empty window.
//   - error: ErrInvalidCapacity if capacity < 1.
func NewRollingWindow(capacity int) (*RollingWindow, error) {
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	return &RollingWindow{
		capacity: capacity,
		values:   make([]float64, 0, capacity),
	}, nil
}

// Push appends v, evicting the oldest value when the window is full.
func (w *RollingWindow) Push(v float64) {
	if len(w.values) == w.capacity {
		copy(w.values, w.values[1:])
		w.values = w.values[:len(w.values)-1]
	}
	w.values = append(w.values, v)
}

// Len returns the number of values currently held.
func (w *RollingWindow) Len() int {
	return len(w.values)
}

// Cap returns the fixed capacity of the window.
func (w *RollingWindow) Cap() int {
	return w.capacity
}

// Values returns a copy of the window contents, oldest first.
func (w *RollingWindow) Values() []float64 {
	out := make([]float64, len(w.values))
	copy(out, w.values)
	return out
}

// Mean returns the arithmetic mean of the window, or 0 when empty.
func (w *RollingWindow) Mean() float64 {
	if len(w.values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range w.values {
		sum += v
	}
	return sum / float64(len(w.values))
}

// Min returns the smallest value in the window, or 0 when empty.
func (w *RollingWindow) Min() float64 {
	if len(w.values) == 0 {
		return 0
	}
	m := w.values[0]
	for _, v := range w.values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// Max returns the largest value in the window, or 0 when empty.
func (w *RollingWindow) Max() float64 {
	if len(w.values) == 0 {
		return 0
	}
	m := w.values[0]
	for _, v := range w.values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
