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
	"log/slog"
	"net/http"

	"github.com/AleutianAI/AleutianTune/pkg/validation"
	"github.com/AleutianAI/AleutianTune/services/tuner/registry"
	"github.com/AleutianAI/AleutianTune/services/tuner/training"
	"github.com/gin-gonic/gin"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeInvalidRequest       = "INVALID_REQUEST"
	CodeInvalidArgument      = "INVALID_ARGUMENT"
	CodeUnsupportedStrategy  = "UNSUPPORTED_STRATEGY"
	CodeObserveBeforeSuggest = "OBSERVE_BEFORE_SUGGEST"
	CodeNotFound             = "NOT_FOUND"
	CodeShuttingDown         = "SHUTTING_DOWN"
	CodeInternal             = "INTERNAL_ERROR"
)

// statusForError maps a core error to an HTTP status and error code.
//
// ErrUnsupportedKind wraps ErrInvalidArgument, so it is checked first.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, registry.ErrNotFound),
		errors.Is(err, training.ErrJobNotFound),
		errors.Is(err, training.ErrBanditNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, registry.ErrUnsupportedKind):
		return http.StatusBadRequest, CodeUnsupportedStrategy
	case errors.Is(err, registry.ErrObserveBeforeSuggest):
		return http.StatusBadRequest, CodeObserveBeforeSuggest
	case errors.Is(err, registry.ErrInvalidArgument),
		errors.Is(err, registry.ErrInvalidOptimizerParams),
		errors.Is(err, training.ErrEmptyCommand),
		errors.Is(err, validation.ErrInvalidID):
		return http.StatusBadRequest, CodeInvalidArgument
	case errors.Is(err, training.ErrShuttingDown):
		return http.StatusServiceUnavailable, CodeShuttingDown
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// writeError logs err at a level matching its status and writes the
// ErrorResponse.
func writeError(c *gin.Context, logger *slog.Logger, err error) {
	status, code := statusForError(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", "error", err, "code", code)
	} else {
		logger.Warn("Request rejected", "error", err, "code", code)
	}
	c.JSON(status, ErrorResponse{
		Error: err.Error(),
		Code:  code,
	})
}

// pathID returns the validated :id path parameter, or writes a 400 and
// returns false.
func pathID(c *gin.Context, logger *slog.Logger) (string, bool) {
	id := c.Param("id")
	if err := validation.ValidateID(id); err != nil {
		writeError(c, logger, err)
		return "", false
	}
	return id, true
}

// writeBindError responds 400 INVALID_REQUEST for a malformed body.
func writeBindError(c *gin.Context, logger *slog.Logger, err error) {
	logger.Warn("Invalid request body", "error", err)
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "Invalid request body",
		Code:    CodeInvalidRequest,
		Details: err.Error(),
	})
}
