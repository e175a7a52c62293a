// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AleutianAI/AleutianTune/services/tuner/handlers"
	"github.com/AleutianAI/AleutianTune/services/tuner/middleware"
	"github.com/AleutianAI/AleutianTune/services/tuner/observability"
	"github.com/AleutianAI/AleutianTune/services/tuner/registry"
	"github.com/AleutianAI/AleutianTune/services/tuner/routes"
	"github.com/AleutianAI/AleutianTune/services/tuner/stats"
	"github.com/AleutianAI/AleutianTune/services/tuner/training"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router  *gin.Engine
	bandits *registry.BanditRegistry
	ctrl    *training.Controller
	metrics *observability.TunerMetrics
}

func sequentialIDs(prefix string) func() string {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("%s-%d", prefix, n.Add(1))
	}
}

func setupTestRouter(t *testing.T) *testEnv {
	t.Helper()
	bandits := registry.NewBanditRegistry(registry.WithIDGenerator(sequentialIDs("bandit")))
	optimizers := registry.NewOptimizerRegistry(sequentialIDs("opt"))
	ctrl := training.NewController(training.Config{StopTimeout: 2 * time.Second}, bandits, nil)
	metrics := observability.NewTunerMetrics(prometheus.NewRegistry())

	h := handlers.NewHandlers(bandits, optimizers, ctrl).
		WithMetrics(metrics).
		WithWatchInterval(20 * time.Millisecond)

	router := gin.New()
	router.Use(middleware.RequestID())
	routes.RegisterSystemRoutes(router, h, nil)
	routes.RegisterRoutes(router.Group("/v1"), h)

	return &testEnv{router: router, bandits: bandits, ctrl: ctrl, metrics: metrics}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHandleHealth(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[handlers.HealthResponse](t, w)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, handlers.ServiceVersion, resp.Version)
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))
}

// =============================================================================
// Bandit
// =============================================================================

func TestBanditLifecycle_UCB1(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(t, http.MethodPost, "/v1/bandit", handlers.CreateBanditRequest{Strategy: "ucb1", Param: 2, NumArms: 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	id := decode[handlers.CreateResponse](t, w).ID
	assert.Equal(t, "bandit-1", id)

	// Cold start visits every arm in order.
	for want := 0; want < 3; want++ {
		w = env.do(t, http.MethodGet, "/v1/bandit/"+id+"/select", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, want, decode[handlers.SelectResponse](t, w).Arm)

		w = env.do(t, http.MethodPost, "/v1/bandit/"+id+"/update", map[string]interface{}{"arm": want, "reward": float64(want)})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", decode[handlers.StatusResponse](t, w).Status)
	}

	w = env.do(t, http.MethodGet, "/v1/bandit/"+id+"/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	s := decode[stats.Summary](t, w)
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 1.0, s.Mean)
	assert.Equal(t, 0.0, s.Min)
	assert.Equal(t, 2.0, s.Max)

	assert.Equal(t, 3.0, testutil.ToFloat64(env.metrics.ArmSelectionsTotal.WithLabelValues("ucb1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.ActiveInstances.WithLabelValues("bandit")))
}

func TestBanditLifecycle_EpsilonGreedyStatsUseRewardWindow(t *testing.T) {
	env := setupTestRouter(t)

	seed := int64(7)
	w := env.do(t, http.MethodPost, "/v1/bandit", handlers.CreateBanditRequest{Strategy: "epsilon_greedy", Param: 0, NumArms: 2, Seed: &seed})
	require.Equal(t, http.StatusOK, w.Code)
	id := decode[handlers.CreateResponse](t, w).ID

	for _, r := range []float64{1, 2, 3} {
		w = env.do(t, http.MethodPost, "/v1/bandit/"+id+"/update", map[string]interface{}{"arm": 1, "reward": r})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w = env.do(t, http.MethodGet, "/v1/bandit/"+id+"/select", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[handlers.SelectResponse](t, w).Arm, "epsilon=0 exploits the best arm")

	s := decode[stats.Summary](t, env.do(t, http.MethodGet, "/v1/bandit/"+id+"/stats", nil))
	assert.Equal(t, stats.Summary{Mean: 2, Min: 1, Max: 3, Count: 3}, s)
}

func TestHandleCreateBandit_Errors(t *testing.T) {
	env := setupTestRouter(t)

	tests := []struct {
		name   string
		body   interface{}
		status int
		code   string
	}{
		{"malformed json", `{"strategy":`, http.StatusBadRequest, handlers.CodeInvalidRequest},
		{"missing strategy", map[string]interface{}{"num_arms": 3}, http.StatusBadRequest, handlers.CodeInvalidRequest},
		{"unknown strategy", handlers.CreateBanditRequest{Strategy: "thompson", NumArms: 3}, http.StatusBadRequest, handlers.CodeUnsupportedStrategy},
		{"zero arms", handlers.CreateBanditRequest{Strategy: "ucb1", Param: 1}, http.StatusBadRequest, handlers.CodeInvalidArgument},
		{"epsilon above one", handlers.CreateBanditRequest{Strategy: "epsilon_greedy", Param: 1.5, NumArms: 2}, http.StatusBadRequest, handlers.CodeInvalidArgument},
		{"negative c", handlers.CreateBanditRequest{Strategy: "ucb1", Param: -1, NumArms: 2}, http.StatusBadRequest, handlers.CodeInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/v1/bandit", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decode[handlers.ErrorResponse](t, w).Code)
		})
	}
	assert.Equal(t, 0, env.bandits.Len())
}

func TestBanditEndpoints_UnknownID(t *testing.T) {
	env := setupTestRouter(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/v1/bandit/fake-id/select"},
		{http.MethodGet, "/v1/bandit/fake-id/stats"},
		{http.MethodGet, "/v1/bandit/fake-id/watch"},
	} {
		w := env.do(t, tc.method, tc.path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, tc.path)
		assert.Equal(t, handlers.CodeNotFound, decode[handlers.ErrorResponse](t, w).Code)
	}

	w := env.do(t, http.MethodPost, "/v1/bandit/fake-id/update", map[string]interface{}{"arm": 0, "reward": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEndpoints_MalformedIDIsRejected(t *testing.T) {
	env := setupTestRouter(t)
	long := strings.Repeat("x", 65)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/v1/bandit/" + long + "/select"},
		{http.MethodGet, "/v1/bandit/-bad/stats"},
		{http.MethodGet, "/v1/bandit/bad%20id/watch"},
		{http.MethodDelete, "/v1/bandit/" + long},
		{http.MethodGet, "/v1/optimizer/" + long + "/suggest"},
		{http.MethodGet, "/v1/train/" + long + "/stats"},
	} {
		w := env.do(t, tc.method, tc.path, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, tc.path)
		assert.Equal(t, handlers.CodeInvalidArgument, decode[handlers.ErrorResponse](t, w).Code, tc.path)
	}
}

func TestHandleUpdateBandit_Validation(t *testing.T) {
	env := setupTestRouter(t)
	id := decode[handlers.CreateResponse](t, env.do(t, http.MethodPost, "/v1/bandit",
		handlers.CreateBanditRequest{Strategy: "ucb1", Param: 1, NumArms: 2})).ID

	w := env.do(t, http.MethodPost, "/v1/bandit/"+id+"/update", map[string]interface{}{"reward": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, handlers.CodeInvalidRequest, decode[handlers.ErrorResponse](t, w).Code)

	w = env.do(t, http.MethodPost, "/v1/bandit/"+id+"/update", map[string]interface{}{"arm": 2, "reward": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, handlers.CodeInvalidArgument, decode[handlers.ErrorResponse](t, w).Code)

	// Arm zero is a valid, present value.
	w = env.do(t, http.MethodPost, "/v1/bandit/"+id+"/update", map[string]interface{}{"arm": 0, "reward": 0})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleDeleteBandit(t *testing.T) {
	env := setupTestRouter(t)
	id := decode[handlers.CreateResponse](t, env.do(t, http.MethodPost, "/v1/bandit",
		handlers.CreateBanditRequest{Strategy: "ucb1", Param: 1, NumArms: 2})).ID

	w := env.do(t, http.MethodDelete, "/v1/bandit/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[handlers.RemoveResponse](t, w).Removed)

	w = env.do(t, http.MethodDelete, "/v1/bandit/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[handlers.RemoveResponse](t, w).Removed)

	w = env.do(t, http.MethodGet, "/v1/bandit/"+id+"/select", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestIDIsEchoed(t *testing.T) {
	env := setupTestRouter(t)

	req, _ := http.NewRequest(http.MethodGet, "/v1/bandit/nope/stats", nil)
	req.Header.Set(middleware.HeaderRequestID, "trace-me")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, "trace-me", w.Header().Get(middleware.HeaderRequestID))
}

// =============================================================================
// Optimizer
// =============================================================================

func TestOptimizerLifecycle(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(t, http.MethodPost, "/v1/optimizer", map[string]interface{}{"x0": 0.0, "min_step": 0.01})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	id := decode[handlers.CreateResponse](t, w).ID

	// Observe before any suggest is a sequencing error.
	w = env.do(t, http.MethodPost, "/v1/optimizer/"+id+"/observe", map[string]interface{}{"reward": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, handlers.CodeObserveBeforeSuggest, decode[handlers.ErrorResponse](t, w).Code)

	f := func(x float64) float64 { return -(x-3)*(x-3) + 10 }
	for i := 0; i < 100; i++ {
		w = env.do(t, http.MethodGet, "/v1/optimizer/"+id+"/suggest", nil)
		require.Equal(t, http.StatusOK, w.Code)
		x := decode[handlers.PositionResponse](t, w).X

		w = env.do(t, http.MethodPost, "/v1/optimizer/"+id+"/observe", map[string]interface{}{"reward": f(x)})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w = env.do(t, http.MethodGet, "/v1/optimizer/"+id+"/state", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 3.0, decode[handlers.PositionResponse](t, w).X, 0.2)

	w = env.do(t, http.MethodPost, "/v1/optimizer/"+id+"/reset", map[string]interface{}{"x0": -4.0})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, -4.0, decode[handlers.PositionResponse](t, w).X)

	w = env.do(t, http.MethodGet, "/v1/optimizer/"+id+"/state", nil)
	assert.Equal(t, -4.0, decode[handlers.PositionResponse](t, w).X)
}

func TestOptimizerEndpoints_Errors(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(t, http.MethodPost, "/v1/optimizer", map[string]interface{}{"step": 0.5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, handlers.CodeInvalidRequest, decode[handlers.ErrorResponse](t, w).Code)

	w = env.do(t, http.MethodPost, "/v1/optimizer", map[string]interface{}{"x0": 0, "shrink": 1.5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, handlers.CodeInvalidArgument, decode[handlers.ErrorResponse](t, w).Code)

	for _, tc := range []struct {
		method, path string
		body         interface{}
	}{
		{http.MethodGet, "/v1/optimizer/fake/suggest", nil},
		{http.MethodGet, "/v1/optimizer/fake/state", nil},
		{http.MethodPost, "/v1/optimizer/fake/observe", map[string]interface{}{"reward": 1}},
		{http.MethodPost, "/v1/optimizer/fake/reset", map[string]interface{}{"x0": 1}},
	} {
		w := env.do(t, tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusNotFound, w.Code, tc.path)
	}
}

// =============================================================================
// WebSocket
// =============================================================================

func TestHandleWatchBandit_StreamsUntilRemoved(t *testing.T) {
	env := setupTestRouter(t)
	id := decode[handlers.CreateResponse](t, env.do(t, http.MethodPost, "/v1/bandit",
		handlers.CreateBanditRequest{Strategy: "ucb1", Param: 1, NumArms: 2})).ID
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/v1/bandit/"+id+"/update",
		map[string]interface{}{"arm": 1, "reward": 0.5}).Code)

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/bandit/" + id + "/watch"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()

	var frame handlers.WatchFrame
	require.NoError(t, ws.ReadJSON(&frame))
	assert.Equal(t, id, frame.ID)
	assert.Equal(t, "ucb1", frame.Kind)
	assert.Equal(t, []int{0, 1}, frame.Counts)
	assert.Equal(t, 1, frame.Stats.Count)
	assert.False(t, frame.Removed)

	require.True(t, env.bandits.Remove(id))

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		if err := ws.ReadJSON(&frame); err != nil {
			t.Fatalf("expected a removal frame, got %v", err)
		}
		if frame.Removed {
			break
		}
	}

	_, _, err = ws.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}
