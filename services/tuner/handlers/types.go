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

// =============================================================================
// Bandit
// =============================================================================

// CreateBanditRequest is the body of POST /v1/bandit.
type CreateBanditRequest struct {
	// Strategy is "epsilon_greedy" or "ucb1".
	Strategy string `json:"strategy" binding:"required"`

	// Param is epsilon for epsilon_greedy and c for ucb1.
	Param float64 `json:"param"`

	// NumArms must be >= 1.
	NumArms int `json:"num_arms"`

	// Seed overrides the configured default seed (epsilon_greedy only).
	Seed *int64 `json:"seed,omitempty"`
}

// UpdateBanditRequest is the body of POST /v1/bandit/:id/update.
type UpdateBanditRequest struct {
	Arm    *int     `json:"arm" binding:"required"`
	Reward *float64 `json:"reward" binding:"required"`
}

// SelectResponse carries the chosen arm.
type SelectResponse struct {
	Arm int `json:"arm"`
}

// RemoveResponse reports whether DELETE found something to remove.
type RemoveResponse struct {
	Removed bool `json:"removed"`
}

// =============================================================================
// Optimizer
// =============================================================================

// CreateOptimizerRequest is the body of POST /v1/optimizer. Omitted
// parameters take the configured defaults.
type CreateOptimizerRequest struct {
	X0      *float64 `json:"x0" binding:"required"`
	Step    *float64 `json:"step,omitempty"`
	MinStep *float64 `json:"min_step,omitempty"`
	Grow    *float64 `json:"grow,omitempty"`
	Shrink  *float64 `json:"shrink,omitempty"`
}

// ObserveRequest is the body of POST /v1/optimizer/:id/observe.
type ObserveRequest struct {
	Reward *float64 `json:"reward" binding:"required"`
}

// ResetRequest is the body of POST /v1/optimizer/:id/reset.
type ResetRequest struct {
	X0 *float64 `json:"x0" binding:"required"`
}

// PositionResponse carries an optimizer position.
type PositionResponse struct {
	X float64 `json:"x"`
}

// =============================================================================
// Training
// =============================================================================

// StartTrainingRequest is the body of POST /v1/train/start.
type StartTrainingRequest struct {
	Cmd      string `json:"cmd" binding:"required"`
	BanditID string `json:"bandit_id,omitempty"`
}

// TrainingMetricsRequest is the body of POST /v1/train/metrics.
type TrainingMetricsRequest struct {
	Loss   float64  `json:"loss"`
	Reward *float64 `json:"reward" binding:"required"`
}

// StopTrainingRequest is the body of POST /v1/train/stop.
type StopTrainingRequest struct {
	ID string `json:"id" binding:"required"`
}

// StopTrainingResponse reports the outcome of a stop. Stopped is false
// when the id was unknown or already stopped.
type StopTrainingResponse struct {
	ID      string `json:"id"`
	Stopped bool   `json:"stopped"`
}

// =============================================================================
// Common
// =============================================================================

// CreateResponse carries the id of a newly created resource.
type CreateResponse struct {
	ID string `json:"id"`
}

// StatusResponse is a bare acknowledgement.
type StatusResponse struct {
	Status string `json:"status"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is the error code (optional).
	Code string `json:"code,omitempty"`

	// Details provides additional error context (optional).
	Details string `json:"details,omitempty"`
}
