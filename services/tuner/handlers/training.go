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
	"net/http"

	"github.com/AleutianAI/AleutianTune/pkg/validation"
	"github.com/AleutianAI/AleutianTune/services/tuner/observability"
	"github.com/AleutianAI/AleutianTune/services/tuner/training"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// HandleStartTraining handles POST /v1/train/start.
//
// Description:
//
//	Launches cmd through the configured shell. If bandit_id is set the
//	bandit is bound to the job and removed when the job is stopped.
//
// Request Body:
//
//	StartTrainingRequest
//
// Response:
//
//	200 OK: CreateResponse
//	400 Bad Request: INVALID_REQUEST, INVALID_ARGUMENT (blank command, malformed bandit_id)
//	404 Not Found: NOT_FOUND (unknown bandit_id)
//	503 Service Unavailable: SHUTTING_DOWN
func (h *Handlers) HandleStartTraining(c *gin.Context) {
	logger := requestLogger(c, "HandleStartTraining")

	var req StartTrainingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, logger, err)
		return
	}
	if err := validation.ValidateOptionalID(req.BanditID); err != nil {
		writeError(c, logger, err)
		return
	}

	_, op := h.begin(c, observability.ComponentTraining, "start",
		attribute.String("training.bandit_id", req.BanditID))
	id, err := h.training.Start(training.StartRequest{
		Command:  req.Cmd,
		BanditID: req.BanditID,
	})
	op.end(err)
	if err != nil {
		writeError(c, logger, err)
		return
	}
	h.refreshGauges()

	logger.Info("Training started", "job_id", id, "bandit_id", req.BanditID)
	c.JSON(http.StatusOK, CreateResponse{ID: id})
}

// HandleTrainingMetrics handles POST /v1/train/metrics.
//
// Response:
//
//	200 OK: training.MetricsResult
//	400 Bad Request: INVALID_REQUEST
func (h *Handlers) HandleTrainingMetrics(c *gin.Context) {
	logger := requestLogger(c, "HandleTrainingMetrics")

	var req TrainingMetricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, logger, err)
		return
	}

	_, op := h.begin(c, observability.ComponentTraining, "metrics")
	res := h.training.Metrics(req.Loss, *req.Reward)
	op.end(nil)

	h.metrics.RecordReward(observability.ComponentTraining, *req.Reward)
	c.JSON(http.StatusOK, res)
}

// HandleStopTraining handles POST /v1/train/stop.
//
// Description:
//
//	Stops a job and tears down its bound bandit. An unknown or already
//	stopped id still returns 200 with stopped=false.
//
// Response:
//
//	200 OK: StopTrainingResponse
//	400 Bad Request: INVALID_REQUEST, INVALID_ARGUMENT (malformed id)
//	500 Internal Server Error: the job did not exit cleanly
func (h *Handlers) HandleStopTraining(c *gin.Context) {
	logger := requestLogger(c, "HandleStopTraining")

	var req StopTrainingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, logger, err)
		return
	}

	if err := validation.ValidateID(req.ID); err != nil {
		writeError(c, logger, err)
		return
	}

	ctx, op := h.begin(c, observability.ComponentTraining, "stop", attribute.String("training.job_id", req.ID))
	stopped, err := h.training.Stop(ctx, req.ID)
	op.end(err)
	h.refreshGauges()
	if err != nil {
		writeError(c, logger, err)
		return
	}

	logger.Info("Training stop", "job_id", req.ID, "stopped", stopped)
	c.JSON(http.StatusOK, StopTrainingResponse{ID: req.ID, Stopped: stopped})
}

// HandleTrainingStats handles GET /v1/train/:id/stats.
//
// Response:
//
//	200 OK: training.JobStats
//	404 Not Found: NOT_FOUND
func (h *Handlers) HandleTrainingStats(c *gin.Context) {
	logger := requestLogger(c, "HandleTrainingStats")
	id, ok := pathID(c, logger)
	if !ok {
		return
	}

	_, op := h.begin(c, observability.ComponentTraining, "stats", attribute.String("training.job_id", id))
	s, err := h.training.Stats(id)
	op.end(err)
	if err != nil {
		writeError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, s)
}
