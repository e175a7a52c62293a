// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package training launches and supervises external training jobs.
//
// # Description
//
// A job is a shell command (run as `<shell> -c <command>`) together with a
// RewardTracker and a RewardNormalizer. Metrics posted to the controller
// are fanned out to every registered job. Stopping a job terminates its
// process group and tears down the bandit bound to it, if any.
//
// # Thread Safety
//
// Controller is safe for concurrent use. The job map is guarded by a single
// mutex that is never held while waiting on a process.
//
// # Limitations
//
//   - Job output goes to the configured writers; it is not captured.
//   - Jobs are not persisted and do not survive a restart.
package training

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/AleutianAI/AleutianTune/services/tuner/stats"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// Configuration
// =============================================================================

// Config controls how jobs are run.
type Config struct {
	// Shell is the interpreter invoked with "-c". Default: "sh".
	Shell string

	// StopTimeout is how long Stop waits after SIGTERM before killing the
	// process group. Default: 5s.
	StopTimeout time.Duration

	// TrackerWindow sizes each job's RewardTracker. Default: 50.
	TrackerWindow int

	// NormalizerWindow sizes each job's RewardNormalizer. Default: 50.
	NormalizerWindow int

	// Stdout and Stderr receive job output. Default: the process's own.
	Stdout io.Writer
	Stderr io.Writer
}

// DefaultConfig returns the defaults documented on Config.
func DefaultConfig() Config {
	return Config{
		Shell:            "sh",
		StopTimeout:      5 * time.Second,
		TrackerWindow:    stats.DefaultWindow,
		NormalizerWindow: stats.DefaultWindow,
		Stdout:           os.Stdout,
		Stderr:           os.Stderr,
	}
}

func applyDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.Shell == "" {
		cfg.Shell = def.Shell
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = def.StopTimeout
	}
	if cfg.TrackerWindow < 1 {
		cfg.TrackerWindow = def.TrackerWindow
	}
	if cfg.NormalizerWindow < 1 {
		cfg.NormalizerWindow = def.NormalizerWindow
	}
	if cfg.Stdout == nil {
		cfg.Stdout = def.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = def.Stderr
	}
	return cfg
}

// BanditOwner is the subset of the bandit registry the controller needs
// to bind jobs to bandits and tear them down.
type BanditOwner interface {
	Exists(id string) bool
	Remove(id string) bool
}

// =============================================================================
// Types
// =============================================================================

// JobState is the lifecycle state of a job's process.
type JobState string

const (
	// JobRunning means the process has started and not exited.
	JobRunning JobState = "running"

	// JobExited means the process exited with status 0.
	JobExited JobState = "exited"

	// JobFailed means the process exited non-zero or could not be waited on.
	JobFailed JobState = "failed"
)

// StartRequest describes a job to launch.
type StartRequest struct {
	// Command is passed to the shell with "-c". Required.
	Command string

	// BanditID optionally binds an existing bandit to the job. The bandit
	// is removed when the job is stopped.
	BanditID string
}

// JobStats is a point-in-time view of a job.
type JobStats struct {
	stats.Summary
	ID        string    `json:"id"`
	State     JobState  `json:"state"`
	BanditID  string    `json:"bandit_id,omitempty"`
	StartedAt time.Time `json:"started_at"`
	ExitError string    `json:"exit_error,omitempty"`
}

// MetricsResult reports how a metrics update was applied.
type MetricsResult struct {
	// Jobs is the number of jobs that received the reward.
	Jobs int `json:"jobs"`

	// Normalized maps job id to the reward normalized against that job's
	// history before this reward was added.
	Normalized map[string]float64 `json:"normalized"`
}

type job struct {
	id        string
	command   string
	banditID  string
	startedAt time.Time

	cmd    *exec.Cmd
	cancel context.CancelFunc
	done   chan struct{}

	// Guarded by Controller.mu.
	state      JobState
	exitErr    error
	tracker    *stats.RewardTracker
	normalizer *stats.RewardNormalizer
}

// =============================================================================
// Controller
// =============================================================================

// Controller owns the set of running training jobs.
type Controller struct {
	cfg     Config
	bandits BanditOwner
	newID   func() string
	logger  *slog.Logger

	mu     sync.Mutex
	jobs   map[string]*job
	closed bool
}

// NewController creates a controller.
//
// # Inputs
//
//   - cfg: Job configuration. Zero fields take defaults.
//   - bandits: Registry for bandit binding and teardown. May be nil, in
//     which case StartRequest.BanditID must be empty.
//   - logger: Destination for lifecycle logs. May be nil.
func NewController(cfg Config, bandits BanditOwner, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		cfg:     applyDefaults(cfg),
		bandits: bandits,
		newID:   uuid.NewString,
		logger:  logger.With("component", "training"),
		jobs:    make(map[string]*job),
	}
}

// Start launches req.Command and registers the job.
//
// # Description
//
// The process runs in its own process group, detached from any request
// context. A reaper goroutine records its exit state. The job stays
// registered after the process exits until Stop is called, so metrics and
// stats remain available.
//
// # Outputs
//
//   - string: The job id.
//   - error: ErrEmptyCommand, ErrBanditNotFound, ErrShuttingDown, or a
//     wrapped exec error if the process could not start.
func (c *Controller) Start(req StartRequest) (string, error) {
	command := strings.TrimSpace(req.Command)
	if command == "" {
		return "", ErrEmptyCommand
	}
	if req.BanditID != "" && (c.bandits == nil || !c.bandits.Exists(req.BanditID)) {
		return "", fmt.Errorf("%w: %q", ErrBanditNotFound, req.BanditID)
	}

	tracker, err := stats.NewRewardTracker(c.cfg.TrackerWindow)
	if err != nil {
		return "", err
	}
	normalizer, err := stats.NewRewardNormalizer(c.cfg.NormalizerWindow)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, c.cfg.Shell, "-c", command)
	cmd.Stdout = c.cfg.Stdout
	cmd.Stderr = c.cfg.Stderr
	cmd.WaitDelay = c.cfg.StopTimeout
	configureProcess(cmd)

	j := &job{
		id:         c.newID(),
		command:    command,
		banditID:   req.BanditID,
		startedAt:  time.Now(),
		cmd:        cmd,
		cancel:     cancel,
		done:       make(chan struct{}),
		state:      JobRunning,
		tracker:    tracker,
		normalizer: normalizer,
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		cancel()
		return "", ErrShuttingDown
	}
	if err := cmd.Start(); err != nil {
		c.mu.Unlock()
		cancel()
		return "", fmt.Errorf("start job: %w", err)
	}
	c.jobs[j.id] = j
	c.mu.Unlock()

	c.logger.Info("Training job started",
		"job_id", j.id,
		"pid", cmd.Process.Pid,
		"bandit_id", j.banditID)

	go c.reap(j)
	return j.id, nil
}

// reap waits for the process and records how it ended.
func (c *Controller) reap(j *job) {
	err := j.cmd.Wait()

	c.mu.Lock()
	if err != nil {
		j.state = JobFailed
		j.exitErr = err
	} else {
		j.state = JobExited
	}
	c.mu.Unlock()

	close(j.done)
	c.logger.Info("Training job exited", "job_id", j.id, "error", err)
}

// Metrics fans a reward out to every registered job.
//
// # Description
//
// For each job the reward is first normalized against the job's existing
// history and then recorded into both its tracker and normalizer. loss is
// accepted for wire compatibility and logged, but not tracked.
func (c *Controller) Metrics(loss, reward float64) MetricsResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := MetricsResult{Normalized: make(map[string]float64, len(c.jobs))}
	for id, j := range c.jobs {
		res.Normalized[id] = j.normalizer.Normalized(reward)
		j.normalizer.Update(reward)
		j.tracker.Update(reward)
		res.Jobs++
	}

	c.logger.Debug("Training metrics recorded", "loss", loss, "reward", reward, "jobs", res.Jobs)
	return res
}

// Stats returns the job's tracker summary and process state.
func (c *Controller) Stats(id string) (JobStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	j, ok := c.jobs[id]
	if !ok {
		return JobStats{}, fmt.Errorf("%w: %q", ErrJobNotFound, id)
	}
	out := JobStats{
		Summary:   j.tracker.Summary(),
		ID:        j.id,
		State:     j.state,
		BanditID:  j.banditID,
		StartedAt: j.startedAt,
	}
	if j.exitErr != nil {
		out.ExitError = j.exitErr.Error()
	}
	return out, nil
}

// Stop terminates a job and unregisters it.
//
// # Description
//
// The job is removed from the map first, then its process group receives
// SIGTERM. If it has not exited after StopTimeout the group is killed.
// Any bandit bound to the job is removed from the registry.
//
// Stopping an unknown or already-stopped id is not an error; the boolean
// reports whether a job was found.
func (c *Controller) Stop(ctx context.Context, id string) (bool, error) {
	c.mu.Lock()
	j, ok := c.jobs[id]
	if ok {
		delete(c.jobs, id)
	}
	c.mu.Unlock()

	if !ok {
		return false, nil
	}
	return true, c.terminate(ctx, j)
}

// terminate cancels j's process and waits for the reaper.
func (c *Controller) terminate(ctx context.Context, j *job) error {
	j.cancel()

	timer := time.NewTimer(c.cfg.StopTimeout + time.Second)
	defer timer.Stop()

	var err error
	select {
	case <-j.done:
	case <-timer.C:
		killGroup(j.cmd)
		err = fmt.Errorf("job %s did not exit within %s", j.id, c.cfg.StopTimeout)
	case <-ctx.Done():
		killGroup(j.cmd)
		err = ctx.Err()
	}

	if j.banditID != "" && c.bandits != nil {
		removed := c.bandits.Remove(j.banditID)
		c.logger.Info("Removed bandit bound to stopped job",
			"job_id", j.id, "bandit_id", j.banditID, "removed", removed)
	}

	c.logger.Info("Training job stopped", "job_id", j.id, "error", err)
	return err
}

// Len returns the number of registered jobs.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.jobs)
}

// Shutdown stops every job concurrently and rejects further Starts.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	jobs := make([]*job, 0, len(c.jobs))
	for id, j := range c.jobs {
		jobs = append(jobs, j)
		delete(c.jobs, id)
	}
	c.mu.Unlock()

	g, gCtx := errgroup.WithContext(ctx)
	for _, j := range jobs {
		g.Go(func() error {
			return c.terminate(gCtx, j)
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("shutdown training jobs: %w", err)
	}
	return nil
}
