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
	"errors"
	"fmt"
)

// Sentinel errors for bandit strategies.
var (
	// ErrInvalidArgument indicates bad construction parameters or arguments.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupportedKind indicates an unknown strategy kind string.
	ErrUnsupportedKind = fmt.Errorf("%w: unsupported strategy kind", ErrInvalidArgument)

	// ErrArmOutOfRange indicates an arm index outside [0, num_arms).
	ErrArmOutOfRange = fmt.Errorf("%w: arm out of range", ErrInvalidArgument)
)
