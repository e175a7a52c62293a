// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation checks identifiers that arrive in request paths and
// bodies before they reach the registries.
package validation

import (
	"errors"
	"fmt"
	"regexp"
)

// MaxIDLength bounds an identifier. uuid.NewString output is 36.
const MaxIDLength = 64

// ErrInvalidID is wrapped by every ValidateID failure.
var ErrInvalidID = errors.New("invalid id")

var idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._\-]*$`)

// ValidateID accepts 1-64 characters of letters, digits, dots, hyphens and
// underscores, starting with a letter or digit. Generated uuids and the
// sequential ids used in tests both pass.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: id cannot be empty", ErrInvalidID)
	}
	if len(id) > MaxIDLength {
		return fmt.Errorf("%w: id exceeds %d characters", ErrInvalidID, MaxIDLength)
	}
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%w: %q (must be alphanumeric, dots, hyphens, or underscores)", ErrInvalidID, id)
	}
	return nil
}

// ValidateOptionalID is ValidateID except that "" is accepted.
func ValidateOptionalID(id string) error {
	if id == "" {
		return nil
	}
	return ValidateID(id)
}
