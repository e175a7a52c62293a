// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

//go:build unix

package handlers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/AleutianAI/AleutianTune/services/tuner/handlers"
	"github.com/AleutianAI/AleutianTune/services/tuner/training"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shutdownOnCleanup(t *testing.T, env *testEnv) {
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = env.ctrl.Shutdown(ctx)
	})
}

func TestTrainingLifecycle(t *testing.T) {
	env := setupTestRouter(t)
	shutdownOnCleanup(t, env)

	bid := decode[handlers.CreateResponse](t, env.do(t, http.MethodPost, "/v1/bandit",
		handlers.CreateBanditRequest{Strategy: "ucb1", Param: 1, NumArms: 2})).ID

	w := env.do(t, http.MethodPost, "/v1/train/start", handlers.StartTrainingRequest{Cmd: "sleep 30", BanditID: bid})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	jobID := decode[handlers.CreateResponse](t, w).ID

	w = env.do(t, http.MethodPost, "/v1/train/metrics", map[string]interface{}{"loss": 0.4, "reward": 0.6})
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[training.MetricsResult](t, w)
	assert.Equal(t, 1, res.Jobs)
	assert.Equal(t, 0.5, res.Normalized[jobID])

	w = env.do(t, http.MethodGet, "/v1/train/"+jobID+"/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	js := decode[training.JobStats](t, w)
	assert.Equal(t, 1, js.Count)
	assert.Equal(t, 0.6, js.Mean)
	assert.Equal(t, training.JobRunning, js.State)
	assert.Equal(t, bid, js.BanditID)

	w = env.do(t, http.MethodPost, "/v1/train/stop", handlers.StopTrainingRequest{ID: jobID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[handlers.StopTrainingResponse](t, w).Stopped)

	// The bound bandit is torn down with the job.
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/v1/bandit/"+bid+"/stats", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/v1/train/"+jobID+"/stats", nil).Code)
}

func TestHandleStopTraining_UnknownIDIsOK(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(t, http.MethodPost, "/v1/train/stop", handlers.StopTrainingRequest{ID: "fake-job-id"})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[handlers.StopTrainingResponse](t, w)
	assert.Equal(t, "fake-job-id", resp.ID)
	assert.False(t, resp.Stopped)
}

func TestTrainingEndpoints_Errors(t *testing.T) {
	env := setupTestRouter(t)

	tests := []struct {
		name   string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{"start without cmd", "/v1/train/start", map[string]interface{}{}, http.StatusBadRequest, handlers.CodeInvalidRequest},
		{"start blank cmd", "/v1/train/start", handlers.StartTrainingRequest{Cmd: "   "}, http.StatusBadRequest, handlers.CodeInvalidArgument},
		{"start unknown bandit", "/v1/train/start", handlers.StartTrainingRequest{Cmd: "true", BanditID: "nope"}, http.StatusNotFound, handlers.CodeNotFound},
		{"metrics without reward", "/v1/train/metrics", map[string]interface{}{"loss": 1}, http.StatusBadRequest, handlers.CodeInvalidRequest},
		{"start malformed bandit id", "/v1/train/start", handlers.StartTrainingRequest{Cmd: "true", BanditID: "../x"}, http.StatusBadRequest, handlers.CodeInvalidArgument},
		{"stop without id", "/v1/train/stop", map[string]interface{}{}, http.StatusBadRequest, handlers.CodeInvalidRequest},
		{"stop malformed id", "/v1/train/stop", handlers.StopTrainingRequest{ID: "job 1"}, http.StatusBadRequest, handlers.CodeInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decode[handlers.ErrorResponse](t, w).Code)
		})
	}

	w := env.do(t, http.MethodGet, "/v1/train/nope/stats", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
