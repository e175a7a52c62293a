// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package registry owns live strategy and optimizer instances.
//
// # Description
//
// BanditRegistry and OptimizerRegistry map opaque ids to instances and
// serialize every operation behind a single mutex per registry. Calls on
// different ids are therefore serialized too. Operations are bounded CPU
// work (O(num_arms) or O(window)) and never block while the lock is held.
//
// Entries are removed only by an explicit Remove. Neither registry evicts
// on its own.
//
// # Thread Safety
//
// All exported methods are safe for concurrent use.
package registry

import (
	"fmt"
	"sync"

	"github.com/AleutianAI/AleutianTune/services/tuner/bandit"
	"github.com/AleutianAI/AleutianTune/services/tuner/stats"
	"github.com/google/uuid"
)

// =============================================================================
// Types
// =============================================================================

// BanditSpec describes a bandit to create.
type BanditSpec struct {
	// Kind is "epsilon_greedy" or "ucb1".
	Kind string

	// Param is epsilon for epsilon_greedy and c for ucb1.
	Param float64

	// NumArms is the fixed number of arms. Must be >= 1.
	NumArms int

	// Seed overrides the registry seed source for epsilon_greedy.
	// Ignored for ucb1.
	Seed *int64
}

// BanditSnapshot is a copy of an entry's state.
type BanditSnapshot struct {
	ID      string      `json:"id"`
	Kind    bandit.Kind `json:"kind"`
	Param   float64     `json:"param"`
	NumArms int         `json:"num_arms"`
	Counts  []int       `json:"counts"`
	Values  []float64   `json:"values"`
}

// banditEntry is a closed union over the strategy kinds.
//
// Exactly one of epsilon and ucb1 is set, matching kind. tracker is set
// only for epsilon_greedy.
type banditEntry struct {
	kind    bandit.Kind
	epsilon *bandit.EpsilonGreedy
	ucb1    *bandit.Ucb1
	tracker *stats.RewardTracker
}

func (e *banditEntry) numArms() int {
	switch e.kind {
	case bandit.KindEpsilonGreedy:
		return e.epsilon.NumArms()
	case bandit.KindUcb1:
		return e.ucb1.NumArms()
	default:
		panic(fmt.Sprintf("registry: unhandled bandit kind %q", e.kind))
	}
}

// BanditOption configures a BanditRegistry.
type BanditOption func(*BanditRegistry)

// WithIDGenerator replaces uuid.NewString as the id source.
func WithIDGenerator(fn func() string) BanditOption {
	return func(r *BanditRegistry) {
		if fn != nil {
			r.newID = fn
		}
	}
}

// WithSeedSource sets the seed used for epsilon_greedy entries that do not
// carry their own seed. The default always returns bandit.DefaultSeed.
func WithSeedSource(fn func() int64) BanditOption {
	return func(r *BanditRegistry) {
		if fn != nil {
			r.seed = fn
		}
	}
}

// WithTrackerWindow sets the epsilon_greedy reward tracker window.
// Values < 1 are ignored.
func WithTrackerWindow(n int) BanditOption {
	return func(r *BanditRegistry) {
		if n >= 1 {
			r.trackerWindow = n
		}
	}
}

// =============================================================================
// BanditRegistry
// =============================================================================

// BanditRegistry owns bandit strategy instances keyed by id.
//
// # Description
//
// Create validates parameters and inserts a new strategy. Select, Update
// and Stats look the entry up and delegate to it. One mutex guards the
// whole map for the duration of each call.
//
// # Thread Safety
//
// Safe for concurrent use.
type BanditRegistry struct {
	mu      sync.Mutex
	entries map[string]*banditEntry

	newID         func() string
	seed          func() int64
	trackerWindow int
}

// NewBanditRegistry creates an empty registry.
func NewBanditRegistry(opts ...BanditOption) *BanditRegistry {
	r := &BanditRegistry{
		entries:       make(map[string]*banditEntry),
		newID:         uuid.NewString,
		seed:          func() int64 { return bandit.DefaultSeed },
		trackerWindow: stats.DefaultWindow,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create validates spec, builds the strategy, and returns its new id.
//
// # Description
//
// epsilon_greedy entries get a RewardTracker sized to the registry's
// tracker window. ucb1 entries do not.
//
// # Outputs
//
//   - string: The new entry's id.
//   - error: ErrUnsupportedKind for an unknown kind, ErrInvalidArgument for
//     bad parameters. The registry is unchanged on error.
func (r *BanditRegistry) Create(spec BanditSpec) (string, error) {
	kind, err := bandit.ParseKind(spec.Kind)
	if err != nil {
		return "", err
	}

	entry := &banditEntry{kind: kind}
	switch kind {
	case bandit.KindEpsilonGreedy:
		seed := r.seed()
		if spec.Seed != nil {
			seed = *spec.Seed
		}
		eg, err := bandit.NewEpsilonGreedyWithSeed(spec.NumArms, spec.Param, seed)
		if err != nil {
			return "", err
		}
		tracker, err := stats.NewRewardTracker(r.trackerWindow)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		entry.epsilon = eg
		entry.tracker = tracker
	case bandit.KindUcb1:
		u, err := bandit.NewUcb1(spec.NumArms, spec.Param)
		if err != nil {
			return "", err
		}
		entry.ucb1 = u
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := r.newID()
		if _, taken := r.entries[id]; taken {
			continue
		}
		r.entries[id] = entry
		return id, nil
	}
	return "", ErrIDCollision
}

// Select returns the arm the strategy chooses next.
//
// For epsilon_greedy this advances the entry's random source.
// Returns ErrNotFound for an unknown id.
func (r *BanditRegistry) Select(id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return 0, fmt.Errorf("%w: bandit %q", ErrNotFound, id)
	}

	switch entry.kind {
	case bandit.KindEpsilonGreedy:
		return entry.epsilon.SelectArm(), nil
	case bandit.KindUcb1:
		return entry.ucb1.SelectArm(), nil
	default:
		panic(fmt.Sprintf("registry: unhandled bandit kind %q", entry.kind))
	}
}

// Update records reward for arm.
//
// epsilon_greedy entries also feed reward into their tracker.
// Returns ErrNotFound for an unknown id and ErrArmOutOfRange when arm is
// not in [0, num_arms). Nothing is mutated on error.
func (r *BanditRegistry) Update(id string, arm int, reward float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("%w: bandit %q", ErrNotFound, id)
	}
	if n := entry.numArms(); arm < 0 || arm >= n {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrArmOutOfRange, arm, n)
	}

	switch entry.kind {
	case bandit.KindEpsilonGreedy:
		if err := entry.epsilon.Update(arm, reward); err != nil {
			return err
		}
		entry.tracker.Update(reward)
	case bandit.KindUcb1:
		if err := entry.ucb1.Update(arm, reward); err != nil {
			return err
		}
	}
	return nil
}

// Stats summarizes an entry's rewards.
//
// # Description
//
// The two kinds report different statistics and are not interchangeable:
//
//   - epsilon_greedy: mean/min/max/count of the most recent rewards in the
//     entry's tracker window.
//   - ucb1: all-time statistics over the per-arm running means. Mean is the
//     unweighted mean of arm means, Min/Max are taken over arm means
//     (including arms never pulled, whose mean is 0), and Count is the
//     total number of pulls.
//
// Returns ErrNotFound for an unknown id.
func (r *BanditRegistry) Stats(id string) (stats.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return stats.Summary{}, fmt.Errorf("%w: bandit %q", ErrNotFound, id)
	}

	switch entry.kind {
	case bandit.KindEpsilonGreedy:
		return entry.tracker.Summary(), nil
	case bandit.KindUcb1:
		return armSummary(entry.ucb1.Counts(), entry.ucb1.Values()), nil
	default:
		panic(fmt.Sprintf("registry: unhandled bandit kind %q", entry.kind))
	}
}

// Snapshot returns a copy of an entry's configuration and arm state.
func (r *BanditRegistry) Snapshot(id string) (BanditSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return BanditSnapshot{}, fmt.Errorf("%w: bandit %q", ErrNotFound, id)
	}

	snap := BanditSnapshot{ID: id, Kind: entry.kind, NumArms: entry.numArms()}
	switch entry.kind {
	case bandit.KindEpsilonGreedy:
		snap.Param = entry.epsilon.Epsilon()
		snap.Counts = entry.epsilon.Counts()
		snap.Values = entry.epsilon.Values()
	case bandit.KindUcb1:
		snap.Param = entry.ucb1.C()
		snap.Counts = entry.ucb1.Counts()
		snap.Values = entry.ucb1.Values()
	}
	return snap, nil
}

// Exists reports whether id is registered.
func (r *BanditRegistry) Exists(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[id]
	return ok
}

// Remove deletes an entry. It reports whether the entry existed and is
// safe to call more than once.
func (r *BanditRegistry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; !ok {
		return false
	}
	delete(r.entries, id)
	return true
}

// Len returns the number of live entries.
func (r *BanditRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// armSummary computes UCB1's all-time statistics over per-arm means.
func armSummary(counts []int, values []float64) stats.Summary {
	if len(values) == 0 {
		return stats.Summary{}
	}
	s := stats.Summary{Min: values[0], Max: values[0]}
	sum := 0.0
	for i, v := range values {
		sum += v
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
		s.Count += counts[i]
	}
	s.Mean = sum / float64(len(values))
	return s
}
