// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package routes wires tuner handlers onto a Gin router.
package routes

import (
	"net/http"

	"github.com/AleutianAI/AleutianTune/services/tuner/handlers"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all tuner API routes with the router group.
//
// Description:
//
//	Registers the /bandit, /optimizer and /train endpoints on rg. The group
//	should already have any required middleware applied.
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	h - The handlers instance
//
// Bandit Endpoints:
//
//	POST   /v1/bandit - Create a bandit
//	GET    /v1/bandit/:id/select - Select an arm
//	POST   /v1/bandit/:id/update - Report a reward for an arm
//	GET    /v1/bandit/:id/stats - Reward statistics
//	GET    /v1/bandit/:id/watch - Stream statistics over WebSocket
//	DELETE /v1/bandit/:id - Remove a bandit
//
// Optimizer Endpoints:
//
//	POST /v1/optimizer - Create a hill climber
//	GET  /v1/optimizer/:id/suggest - Next point to evaluate
//	POST /v1/optimizer/:id/observe - Report the reward for the last suggestion
//	GET  /v1/optimizer/:id/state - Current position
//	POST /v1/optimizer/:id/reset - Restart from a new position
//
// Training Endpoints:
//
//	POST /v1/train/start - Launch a training job
//	POST /v1/train/metrics - Fan a reward out to all jobs
//	POST /v1/train/stop - Stop a job
//	GET  /v1/train/:id/stats - Job statistics
func RegisterRoutes(rg *gin.RouterGroup, h *handlers.Handlers) {
	bandit := rg.Group("/bandit")
	{
		bandit.POST("", h.HandleCreateBandit)
		bandit.GET("/:id/select", h.HandleSelectArm)
		bandit.POST("/:id/update", h.HandleUpdateBandit)
		bandit.GET("/:id/stats", h.HandleBanditStats)
		bandit.GET("/:id/watch", h.HandleWatchBandit)
		bandit.DELETE("/:id", h.HandleDeleteBandit)
	}

	opt := rg.Group("/optimizer")
	{
		opt.POST("", h.HandleCreateOptimizer)
		opt.GET("/:id/suggest", h.HandleSuggest)
		opt.POST("/:id/observe", h.HandleObserve)
		opt.GET("/:id/state", h.HandleOptimizerState)
		opt.POST("/:id/reset", h.HandleResetOptimizer)
	}

	train := rg.Group("/train")
	{
		train.POST("/start", h.HandleStartTraining)
		train.POST("/metrics", h.HandleTrainingMetrics)
		train.POST("/stop", h.HandleStopTraining)
		train.GET("/:id/stats", h.HandleTrainingStats)
	}
}

// RegisterSystemRoutes registers GET /health and, if metrics is non-nil,
// GET /metrics on r.
func RegisterSystemRoutes(r gin.IRoutes, h *handlers.Handlers, metrics http.Handler) {
	r.GET("/health", h.HandleHealth)
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}
}
