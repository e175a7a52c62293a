// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package training

import "errors"

// Sentinel errors for the training controller.
var (
	// ErrEmptyCommand indicates a start request with a blank command.
	ErrEmptyCommand = errors.New("command must not be empty")

	// ErrJobNotFound indicates no job exists for the given id.
	ErrJobNotFound = errors.New("training job not found")

	// ErrBanditNotFound indicates the bandit a job should bind to does not exist.
	ErrBanditNotFound = errors.New("bound bandit not found")

	// ErrShuttingDown indicates the controller no longer accepts jobs.
	ErrShuttingDown = errors.New("training controller is shutting down")
)
