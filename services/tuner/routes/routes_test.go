// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AleutianAI/AleutianTune/services/tuner/handlers"
	"github.com/AleutianAI/AleutianTune/services/tuner/registry"
	"github.com/AleutianAI/AleutianTune/services/tuner/training"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	bandits := registry.NewBanditRegistry()
	h := handlers.NewHandlers(bandits, registry.NewOptimizerRegistry(nil), training.NewController(training.Config{}, bandits, nil))

	router := gin.New()
	RegisterSystemRoutes(router, h, promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{}))
	RegisterRoutes(router.Group("/v1"), h)
	return router
}

func TestRegisterRoutes_AllEndpoints(t *testing.T) {
	router := setupTestRouter(t)

	got := make(map[string]bool)
	for _, r := range router.Routes() {
		got[r.Method+" "+r.Path] = true
	}

	want := []string{
		"GET /health",
		"GET /metrics",
		"POST /v1/bandit",
		"GET /v1/bandit/:id/select",
		"POST /v1/bandit/:id/update",
		"GET /v1/bandit/:id/stats",
		"GET /v1/bandit/:id/watch",
		"DELETE /v1/bandit/:id",
		"POST /v1/optimizer",
		"GET /v1/optimizer/:id/suggest",
		"POST /v1/optimizer/:id/observe",
		"GET /v1/optimizer/:id/state",
		"POST /v1/optimizer/:id/reset",
		"POST /v1/train/start",
		"POST /v1/train/metrics",
		"POST /v1/train/stop",
		"GET /v1/train/:id/stats",
	}
	for _, route := range want {
		assert.True(t, got[route], "missing route %s", route)
	}
	assert.Len(t, got, len(want))
}

func TestRegisterSystemRoutes_WithoutMetrics(t *testing.T) {
	bandits := registry.NewBanditRegistry()
	h := handlers.NewHandlers(bandits, registry.NewOptimizerRegistry(nil), nil)

	router := gin.New()
	RegisterSystemRoutes(router, h, nil)

	req, _ := http.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	req, _ = http.NewRequest(http.MethodGet, "/health", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), handlers.ServiceVersion)
}
