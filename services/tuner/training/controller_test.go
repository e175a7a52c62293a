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

package training

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBandits records Remove calls.
type fakeBandits struct {
	mu      sync.Mutex
	live    map[string]bool
	removed []string
}

func newFakeBandits(ids ...string) *fakeBandits {
	f := &fakeBandits{live: make(map[string]bool)}
	for _, id := range ids {
		f.live[id] = true
	}
	return f
}

func (f *fakeBandits) Exists(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.live[id]
}

func (f *fakeBandits) Remove(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, id)
	existed := f.live[id]
	delete(f.live, id)
	return existed
}

func newTestController(t *testing.T, bandits BanditOwner) *Controller {
	t.Helper()
	c := NewController(Config{
		StopTimeout: 2 * time.Second,
		Stdout:      io.Discard,
		Stderr:      io.Discard,
	}, bandits, nil)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = c.Shutdown(ctx)
	})
	return c
}

func waitForState(t *testing.T, c *Controller, id string, want JobState) JobStats {
	t.Helper()
	var s JobStats
	require.Eventually(t, func() bool {
		var err error
		s, err = c.Stats(id)
		return err == nil && s.State == want
	}, 5*time.Second, 10*time.Millisecond)
	return s
}

func TestApplyDefaults(t *testing.T) {
	cfg := applyDefaults(Config{})
	assert.Equal(t, "sh", cfg.Shell)
	assert.Equal(t, 5*time.Second, cfg.StopTimeout)
	assert.Equal(t, 50, cfg.TrackerWindow)
	assert.Equal(t, 50, cfg.NormalizerWindow)
	assert.NotNil(t, cfg.Stdout)
	assert.NotNil(t, cfg.Stderr)
}

func TestController_StartValidation(t *testing.T) {
	c := newTestController(t, newFakeBandits("b1"))

	_, err := c.Start(StartRequest{Command: "   "})
	assert.ErrorIs(t, err, ErrEmptyCommand)

	_, err = c.Start(StartRequest{Command: "true", BanditID: "missing"})
	assert.ErrorIs(t, err, ErrBanditNotFound)

	assert.Equal(t, 0, c.Len())
}

func TestController_StartWithoutRegistryRejectsBinding(t *testing.T) {
	c := newTestController(t, nil)
	_, err := c.Start(StartRequest{Command: "true", BanditID: "b1"})
	assert.ErrorIs(t, err, ErrBanditNotFound)
}

func TestController_HappyPath(t *testing.T) {
	c := newTestController(t, nil)

	id, err := c.Start(StartRequest{Command: "echo 'training mock job'"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, 1, c.Len())

	s := waitForState(t, c, id, JobExited)
	assert.Empty(t, s.ExitError)

	res := c.Metrics(0.3, 0.7)
	assert.Equal(t, 1, res.Jobs)
	assert.Equal(t, 0.5, res.Normalized[id])

	found, err := c.Stop(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 0, c.Len())
}

func TestController_FailedCommand(t *testing.T) {
	c := newTestController(t, nil)

	id, err := c.Start(StartRequest{Command: "exit 3"})
	require.NoError(t, err)

	s := waitForState(t, c, id, JobFailed)
	assert.NotEmpty(t, s.ExitError)
}

func TestController_StopUnknownIsNotAnError(t *testing.T) {
	c := newTestController(t, nil)

	found, err := c.Stop(context.Background(), "fake-job-id")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestController_StopTerminatesLongRunningJob(t *testing.T) {
	c := newTestController(t, nil)

	id, err := c.Start(StartRequest{Command: "sleep 30"})
	require.NoError(t, err)
	waitForState(t, c, id, JobRunning)

	start := time.Now()
	found, err := c.Stop(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Less(t, time.Since(start), 5*time.Second)

	_, err = c.Stats(id)
	assert.ErrorIs(t, err, ErrJobNotFound)

	found, err = c.Stop(context.Background(), id)
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestController_StopRemovesBoundBandit(t *testing.T) {
	bandits := newFakeBandits("bandit-1", "bandit-2")
	c := newTestController(t, bandits)

	id, err := c.Start(StartRequest{Command: "sleep 30", BanditID: "bandit-1"})
	require.NoError(t, err)

	s, err := c.Stats(id)
	require.NoError(t, err)
	assert.Equal(t, "bandit-1", s.BanditID)

	_, err = c.Stop(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, []string{"bandit-1"}, bandits.removed)
	assert.False(t, bandits.Exists("bandit-1"))
	assert.True(t, bandits.Exists("bandit-2"))
}

func TestController_MetricsAccumulate(t *testing.T) {
	c := newTestController(t, nil)

	a, err := c.Start(StartRequest{Command: "echo a"})
	require.NoError(t, err)
	b, err := c.Start(StartRequest{Command: "echo b"})
	require.NoError(t, err)

	for _, r := range []float64{0.1, 0.5, 0.9} {
		res := c.Metrics(1-r, r)
		assert.Equal(t, 2, res.Jobs)
	}

	for _, id := range []string{a, b} {
		s, err := c.Stats(id)
		require.NoError(t, err)
		assert.Equal(t, 3, s.Count)
		assert.InDelta(t, 0.5, s.Mean, 1e-12)
		assert.Equal(t, 0.1, s.Min)
		assert.Equal(t, 0.9, s.Max)
	}

	// A reward above the history normalizes above the midpoint.
	res := c.Metrics(0, 2.0)
	assert.Greater(t, res.Normalized[a], 0.5)
	assert.Equal(t, res.Normalized[a], res.Normalized[b])
}

func TestController_MetricsWithNoJobs(t *testing.T) {
	c := newTestController(t, nil)
	res := c.Metrics(0.2, 0.8)
	assert.Equal(t, 0, res.Jobs)
	assert.Empty(t, res.Normalized)
}

func TestController_ShutdownStopsAllAndRejectsStart(t *testing.T) {
	bandits := newFakeBandits("bandit-1")
	c := NewController(Config{StopTimeout: 2 * time.Second, Stdout: io.Discard, Stderr: io.Discard}, bandits, nil)

	_, err := c.Start(StartRequest{Command: "sleep 30", BanditID: "bandit-1"})
	require.NoError(t, err)
	_, err = c.Start(StartRequest{Command: "sleep 30"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, c.Shutdown(ctx))

	assert.Equal(t, 0, c.Len())
	assert.False(t, bandits.Exists("bandit-1"))

	_, err = c.Start(StartRequest{Command: "true"})
	assert.ErrorIs(t, err, ErrShuttingDown)
}
