// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers implements the tuner's HTTP API on Gin.
//
// Handlers translate JSON requests into registry and training calls, map
// core errors to status codes in one place (statusForError), and record an
// operation metric and a child span for every core call.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/AleutianAI/AleutianTune/services/tuner/middleware"
	"github.com/AleutianAI/AleutianTune/services/tuner/observability"
	"github.com/AleutianAI/AleutianTune/services/tuner/optimizer"
	"github.com/AleutianAI/AleutianTune/services/tuner/registry"
	"github.com/AleutianAI/AleutianTune/services/tuner/telemetry"
	"github.com/AleutianAI/AleutianTune/services/tuner/training"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ServiceVersion is the tuner service version.
const ServiceVersion = "0.1.0"

// defaultWatchInterval paces the stats WebSocket when none is configured.
const defaultWatchInterval = time.Second

// Handlers contains the HTTP handlers for the tuner.
type Handlers struct {
	bandits       *registry.BanditRegistry
	optimizers    *registry.OptimizerRegistry
	training      *training.Controller
	metrics       *observability.TunerMetrics
	defaults      optimizer.Params
	watchInterval time.Duration
}

// NewHandlers creates handlers over the given registries and controller.
func NewHandlers(bandits *registry.BanditRegistry, optimizers *registry.OptimizerRegistry, ctrl *training.Controller) *Handlers {
	return &Handlers{
		bandits:       bandits,
		optimizers:    optimizers,
		training:      ctrl,
		defaults:      optimizer.DefaultParams(),
		watchInterval: defaultWatchInterval,
	}
}

// WithMetrics sets the Prometheus metrics recorded by each handler.
func (h *Handlers) WithMetrics(m *observability.TunerMetrics) *Handlers {
	h.metrics = m
	return h
}

// WithOptimizerDefaults sets the parameters used for fields omitted from
// POST /v1/optimizer.
func (h *Handlers) WithOptimizerDefaults(p optimizer.Params) *Handlers {
	h.defaults = p
	return h
}

// WithWatchInterval sets how often the stats WebSocket pushes a frame.
func (h *Handlers) WithWatchInterval(d time.Duration) *Handlers {
	if d > 0 {
		h.watchInterval = d
	}
	return h
}

// HandleHealth handles GET /health.
//
// Response:
//
//	200 OK: HealthResponse
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: ServiceVersion,
	})
}

// requestLogger returns a logger tagged with the request id and handler.
func requestLogger(c *gin.Context, handler string) *slog.Logger {
	return slog.With("request_id", middleware.GetRequestID(c), "handler", handler)
}

// operation wraps one core call in a span and an operation metric.
type operation struct {
	h         *Handlers
	component observability.Component
	name      string
	start     time.Time
	span      trace.Span
}

// begin starts a span named "<component>.<name>" under the request span.
func (h *Handlers) begin(c *gin.Context, component observability.Component, name string, attrs ...attribute.KeyValue) (context.Context, *operation) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), string(component)+"."+name, attrs...)
	return ctx, &operation{h: h, component: component, name: name, start: time.Now(), span: span}
}

// end records the outcome and closes the span.
func (op *operation) end(err error) {
	telemetry.RecordError(op.span, err)
	op.span.End()
	op.h.metrics.RecordOperation(op.component, op.name, err == nil, time.Since(op.start).Seconds())
}

// refreshGauges publishes current instance counts.
func (h *Handlers) refreshGauges() {
	h.metrics.SetActive(observability.ComponentBandit, h.bandits.Len())
	h.metrics.SetActive(observability.ComponentOptimizer, h.optimizers.Len())
	if h.training != nil {
		h.metrics.SetActive(observability.ComponentTraining, h.training.Len())
	}
}
