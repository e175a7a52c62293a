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
	"errors"

	"github.com/AleutianAI/AleutianTune/services/tuner/bandit"
	"github.com/AleutianAI/AleutianTune/services/tuner/optimizer"
)

// Sentinel errors for the registries.
//
// The invalid-argument family is shared with the strategy packages so a
// single errors.Is check covers construction and registry failures.
var (
	// ErrNotFound indicates no entry exists for the given id.
	ErrNotFound = errors.New("not found")

	// ErrIDCollision indicates the id generator kept returning ids in use.
	ErrIDCollision = errors.New("id generator returned a duplicate id")

	// ErrInvalidArgument indicates bad bandit parameters.
	ErrInvalidArgument = bandit.ErrInvalidArgument

	// ErrUnsupportedKind indicates an unknown strategy kind.
	ErrUnsupportedKind = bandit.ErrUnsupportedKind

	// ErrArmOutOfRange indicates an arm outside [0, num_arms).
	ErrArmOutOfRange = bandit.ErrArmOutOfRange

	// ErrInvalidOptimizerParams indicates bad hill-climber parameters.
	ErrInvalidOptimizerParams = optimizer.ErrInvalidArgument

	// ErrObserveBeforeSuggest indicates an optimizer observe without a
	// pending suggestion.
	ErrObserveBeforeSuggest = optimizer.ErrObserveBeforeSuggest
)

// maxIDAttempts bounds retries when a generated id is already taken.
const maxIDAttempts = 3
