// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		// Valid ids
		{"uuid", "3f2b8c1e-9d4a-4e7b-8f60-2a1c5d9e0b7f", false},
		{"sequential", "bandit-1", false},
		{"single char", "a", false},
		{"underscore and dot", "job_2.retry", false},
		{"max length", strings.Repeat("a", MaxIDLength), false},

		// Invalid ids
		{"empty", "", true},
		{"too long", strings.Repeat("a", MaxIDLength+1), true},
		{"space", "bandit 1", true},
		{"path traversal", "../etc", true},
		{"starts with hyphen", "-bandit", true},
		{"newline", "bandit\n1", true},
		{"unicode", "bänd1t", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidID) {
				t.Errorf("ValidateID(%q) error should wrap ErrInvalidID, got %v", tt.id, err)
			}
		})
	}
}

func TestValidateOptionalID(t *testing.T) {
	if err := ValidateOptionalID(""); err != nil {
		t.Errorf("empty id should be accepted, got %v", err)
	}
	if err := ValidateOptionalID("ok-1"); err != nil {
		t.Errorf("valid id rejected: %v", err)
	}
	if err := ValidateOptionalID("not ok"); err == nil {
		t.Error("invalid id accepted")
	}
}
