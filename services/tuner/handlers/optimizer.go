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

	"github.com/AleutianAI/AleutianTune/services/tuner/observability"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// HandleCreateOptimizer handles POST /v1/optimizer.
//
// Request Body:
//
//	CreateOptimizerRequest
//
// Response:
//
//	200 OK: CreateResponse
//	400 Bad Request: INVALID_REQUEST, INVALID_ARGUMENT
func (h *Handlers) HandleCreateOptimizer(c *gin.Context) {
	logger := requestLogger(c, "HandleCreateOptimizer")

	var req CreateOptimizerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, logger, err)
		return
	}

	p := h.defaults
	if req.Step != nil {
		p.Step = *req.Step
	}
	if req.MinStep != nil {
		p.MinStep = *req.MinStep
	}
	if req.Grow != nil {
		p.Grow = *req.Grow
	}
	if req.Shrink != nil {
		p.Shrink = *req.Shrink
	}

	_, op := h.begin(c, observability.ComponentOptimizer, "create", attribute.Float64("optimizer.x0", *req.X0))
	id, err := h.optimizers.Create(*req.X0, p)
	op.end(err)
	if err != nil {
		writeError(c, logger, err)
		return
	}
	h.refreshGauges()

	logger.Info("Optimizer created", "optimizer_id", id, "x0", *req.X0, "step", p.Step)
	c.JSON(http.StatusOK, CreateResponse{ID: id})
}

// HandleSuggest handles GET /v1/optimizer/:id/suggest.
//
// Response:
//
//	200 OK: PositionResponse (the point to evaluate next)
//	400 Bad Request: INVALID_ARGUMENT (malformed id)
//	404 Not Found: NOT_FOUND
func (h *Handlers) HandleSuggest(c *gin.Context) {
	logger := requestLogger(c, "HandleSuggest")
	id, ok := pathID(c, logger)
	if !ok {
		return
	}

	_, op := h.begin(c, observability.ComponentOptimizer, "suggest", attribute.String("optimizer.id", id))
	x, err := h.optimizers.Suggest(id)
	op.end(err)
	if err != nil {
		writeError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, PositionResponse{X: x})
}

// HandleObserve handles POST /v1/optimizer/:id/observe.
//
// Request Body:
//
//	ObserveRequest
//
// Response:
//
//	200 OK: PositionResponse (the position after the update)
//	400 Bad Request: INVALID_REQUEST, INVALID_ARGUMENT, OBSERVE_BEFORE_SUGGEST
//	404 Not Found: NOT_FOUND
func (h *Handlers) HandleObserve(c *gin.Context) {
	logger := requestLogger(c, "HandleObserve")
	id, ok := pathID(c, logger)
	if !ok {
		return
	}

	var req ObserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, logger, err)
		return
	}

	_, op := h.begin(c, observability.ComponentOptimizer, "observe",
		attribute.String("optimizer.id", id),
		attribute.Float64("optimizer.reward", *req.Reward))
	x, err := h.optimizers.Observe(id, *req.Reward)
	op.end(err)
	if err != nil {
		writeError(c, logger, err)
		return
	}

	h.metrics.RecordReward(observability.ComponentOptimizer, *req.Reward)
	c.JSON(http.StatusOK, PositionResponse{X: x})
}

// HandleOptimizerState handles GET /v1/optimizer/:id/state.
//
// Response:
//
//	200 OK: PositionResponse
//	400 Bad Request: INVALID_ARGUMENT (malformed id)
//	404 Not Found: NOT_FOUND
func (h *Handlers) HandleOptimizerState(c *gin.Context) {
	logger := requestLogger(c, "HandleOptimizerState")
	id, ok := pathID(c, logger)
	if !ok {
		return
	}

	_, op := h.begin(c, observability.ComponentOptimizer, "state", attribute.String("optimizer.id", id))
	x, err := h.optimizers.State(id)
	op.end(err)
	if err != nil {
		writeError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, PositionResponse{X: x})
}

// HandleResetOptimizer handles POST /v1/optimizer/:id/reset.
//
// Request Body:
//
//	ResetRequest
//
// Response:
//
//	200 OK: PositionResponse
//	400 Bad Request: INVALID_REQUEST, INVALID_ARGUMENT
//	404 Not Found: NOT_FOUND
func (h *Handlers) HandleResetOptimizer(c *gin.Context) {
	logger := requestLogger(c, "HandleResetOptimizer")
	id, ok := pathID(c, logger)
	if !ok {
		return
	}

	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, logger, err)
		return
	}

	_, op := h.begin(c, observability.ComponentOptimizer, "reset", attribute.String("optimizer.id", id))
	err := h.optimizers.Reset(id, *req.X0)
	op.end(err)
	if err != nil {
		writeError(c, logger, err)
		return
	}

	logger.Info("Optimizer reset", "optimizer_id", id, "x0", *req.X0)
	c.JSON(http.StatusOK, PositionResponse{X: *req.X0})
}
