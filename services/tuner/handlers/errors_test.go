// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/AleutianAI/AleutianTune/pkg/validation"
	"github.com/AleutianAI/AleutianTune/services/tuner/registry"
	"github.com/AleutianAI/AleutianTune/services/tuner/training"
	"github.com/stretchr/testify/assert"
)

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", fmt.Errorf("bandit %q: %w", "x", registry.ErrNotFound), http.StatusNotFound, CodeNotFound},
		{"job not found", training.ErrJobNotFound, http.StatusNotFound, CodeNotFound},
		{"bandit not found for job", training.ErrBanditNotFound, http.StatusNotFound, CodeNotFound},
		{"unsupported kind", registry.ErrUnsupportedKind, http.StatusBadRequest, CodeUnsupportedStrategy},
		{"arm out of range", registry.ErrArmOutOfRange, http.StatusBadRequest, CodeInvalidArgument},
		{"invalid argument", registry.ErrInvalidArgument, http.StatusBadRequest, CodeInvalidArgument},
		{"optimizer params", registry.ErrInvalidOptimizerParams, http.StatusBadRequest, CodeInvalidArgument},
		{"observe before suggest", registry.ErrObserveBeforeSuggest, http.StatusBadRequest, CodeObserveBeforeSuggest},
		{"empty command", training.ErrEmptyCommand, http.StatusBadRequest, CodeInvalidArgument},
		{"malformed id", validation.ValidateID("a b"), http.StatusBadRequest, CodeInvalidArgument},
		{"shutting down", training.ErrShuttingDown, http.StatusServiceUnavailable, CodeShuttingDown},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := statusForError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}
