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
	"github.com/AleutianAI/AleutianTune/services/tuner/registry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// HandleCreateBandit handles POST /v1/bandit.
//
// Description:
//
//	Creates an epsilon-greedy or UCB1 bandit and returns its id.
//
// Request Body:
//
//	CreateBanditRequest
//
// Response:
//
//	200 OK: CreateResponse
//	400 Bad Request: INVALID_REQUEST, INVALID_ARGUMENT, UNSUPPORTED_STRATEGY
func (h *Handlers) HandleCreateBandit(c *gin.Context) {
	logger := requestLogger(c, "HandleCreateBandit")

	var req CreateBanditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, logger, err)
		return
	}

	_, op := h.begin(c, observability.ComponentBandit, "create",
		attribute.String("bandit.strategy", req.Strategy),
		attribute.Int("bandit.num_arms", req.NumArms))
	id, err := h.bandits.Create(registry.BanditSpec{
		Kind:    req.Strategy,
		Param:   req.Param,
		NumArms: req.NumArms,
		Seed:    req.Seed,
	})
	op.end(err)
	if err != nil {
		writeError(c, logger, err)
		return
	}
	h.refreshGauges()

	logger.Info("Bandit created",
		"bandit_id", id,
		"strategy", req.Strategy,
		"param", req.Param,
		"num_arms", req.NumArms)
	c.JSON(http.StatusOK, CreateResponse{ID: id})
}

// HandleSelectArm handles GET /v1/bandit/:id/select.
//
// Response:
//
//	200 OK: SelectResponse
//	400 Bad Request: INVALID_ARGUMENT (malformed id)
//	404 Not Found: NOT_FOUND
func (h *Handlers) HandleSelectArm(c *gin.Context) {
	logger := requestLogger(c, "HandleSelectArm")
	id, ok := pathID(c, logger)
	if !ok {
		return
	}

	_, op := h.begin(c, observability.ComponentBandit, "select", attribute.String("bandit.id", id))
	arm, err := h.bandits.Select(id)
	op.end(err)
	if err != nil {
		writeError(c, logger, err)
		return
	}

	if snap, err := h.bandits.Snapshot(id); err == nil {
		h.metrics.RecordSelection(snap.Kind.String())
	}
	c.JSON(http.StatusOK, SelectResponse{Arm: arm})
}

// HandleUpdateBandit handles POST /v1/bandit/:id/update.
//
// Request Body:
//
//	UpdateBanditRequest
//
// Response:
//
//	200 OK: StatusResponse
//	400 Bad Request: INVALID_REQUEST, INVALID_ARGUMENT (malformed id or arm out of range)
//	404 Not Found: NOT_FOUND
func (h *Handlers) HandleUpdateBandit(c *gin.Context) {
	logger := requestLogger(c, "HandleUpdateBandit")
	id, ok := pathID(c, logger)
	if !ok {
		return
	}

	var req UpdateBanditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, logger, err)
		return
	}

	_, op := h.begin(c, observability.ComponentBandit, "update",
		attribute.String("bandit.id", id),
		attribute.Int("bandit.arm", *req.Arm))
	err := h.bandits.Update(id, *req.Arm, *req.Reward)
	op.end(err)
	if err != nil {
		writeError(c, logger, err)
		return
	}

	h.metrics.RecordReward(observability.ComponentBandit, *req.Reward)
	c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}

// HandleBanditStats handles GET /v1/bandit/:id/stats.
//
// Description:
//
//	Epsilon-greedy bandits report their rolling reward window. UCB1 bandits
//	report over per-arm value estimates, with count the total pull count.
//
// Response:
//
//	200 OK: stats.Summary
//	400 Bad Request: INVALID_ARGUMENT (malformed id)
//	404 Not Found: NOT_FOUND
func (h *Handlers) HandleBanditStats(c *gin.Context) {
	logger := requestLogger(c, "HandleBanditStats")
	id, ok := pathID(c, logger)
	if !ok {
		return
	}

	_, op := h.begin(c, observability.ComponentBandit, "stats", attribute.String("bandit.id", id))
	summary, err := h.bandits.Stats(id)
	op.end(err)
	if err != nil {
		writeError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// HandleDeleteBandit handles DELETE /v1/bandit/:id. Deleting an unknown id
// is not an error.
//
// Response:
//
//	200 OK: RemoveResponse
func (h *Handlers) HandleDeleteBandit(c *gin.Context) {
	logger := requestLogger(c, "HandleDeleteBandit")
	id, ok := pathID(c, logger)
	if !ok {
		return
	}

	_, op := h.begin(c, observability.ComponentBandit, "remove", attribute.String("bandit.id", id))
	removed := h.bandits.Remove(id)
	op.end(nil)
	h.refreshGauges()

	logger.Info("Bandit delete", "bandit_id", id, "removed", removed)
	c.JSON(http.StatusOK, RemoveResponse{Removed: removed})
}
