// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the tuner service.
//
// # Description
//
// TunerMetrics counts bandit, optimizer, and training operations, records
// their latency, tracks live instance counts, and observes reward values.
// Metrics are exposed on /metrics through the service's registry.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
// Every Record method is a no-op on a nil *TunerMetrics so callers need not
// check whether metrics are enabled.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

// Namespace for all metrics
const metricsNamespace = "aleutian"

// Subsystem for tuner metrics
const tunerSubsystem = "tuner"

// Component labels a metric with the subsystem that produced it.
type Component string

const (
	// ComponentBandit covers the bandit registry.
	ComponentBandit Component = "bandit"

	// ComponentOptimizer covers the optimizer registry.
	ComponentOptimizer Component = "optimizer"

	// ComponentTraining covers the training controller.
	ComponentTraining Component = "training"
)

// TunerMetrics holds all Prometheus metrics for the tuner.
//
// # Fields
//
//   - OperationsTotal: Counter of operations by component, operation, status
//   - OperationDurationSeconds: Histogram of operation latency
//   - ActiveInstances: Gauge of live bandits, optimizers, and jobs
//   - RewardValues: Histogram of rewards reported to each component
//   - ArmSelectionsTotal: Counter of selected arms by strategy kind
type TunerMetrics struct {
	// OperationsTotal counts operations.
	// Labels: component, operation (create, select, update, ...), status (success, error)
	OperationsTotal *prometheus.CounterVec

	// OperationDurationSeconds measures operation latency.
	// Labels: component, operation
	OperationDurationSeconds *prometheus.HistogramVec

	// ActiveInstances tracks live instances.
	// Labels: component
	ActiveInstances *prometheus.GaugeVec

	// RewardValues observes reported rewards.
	// Labels: component
	RewardValues *prometheus.HistogramVec

	// ArmSelectionsTotal counts arm selections.
	// Labels: kind (epsilon_greedy, ucb1)
	ArmSelectionsTotal *prometheus.CounterVec
}

// NewTunerMetrics creates and registers all tuner metrics with reg.
//
// # Inputs
//
//   - reg: Registerer to register with. Use prometheus.NewRegistry() in
//     tests to avoid collisions with the default registry.
//
// # Outputs
//
//   - *TunerMetrics: The registered metrics.
//
// # Limitations
//
//   - Panics if the same registerer is used twice (duplicate registration).
func NewTunerMetrics(reg prometheus.Registerer) *TunerMetrics {
	factory := promauto.With(reg)

	return &TunerMetrics{
		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: tunerSubsystem,
				Name:      "operations_total",
				Help:      "Total tuner operations by component, operation and status",
			},
			[]string{"component", "operation", "status"},
		),

		OperationDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: tunerSubsystem,
				Name:      "operation_duration_seconds",
				Help:      "Tuner operation latency in seconds",
				Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
			},
			[]string{"component", "operation"},
		),

		ActiveInstances: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: tunerSubsystem,
				Name:      "active_instances",
				Help:      "Number of live bandits, optimizers and training jobs",
			},
			[]string{"component"},
		),

		RewardValues: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: tunerSubsystem,
				Name:      "reward_values",
				Help:      "Distribution of reported rewards",
				Buckets:   []float64{-10, -1, -0.5, 0, 0.25, 0.5, 0.75, 1, 10},
			},
			[]string{"component"},
		),

		ArmSelectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: tunerSubsystem,
				Name:      "arm_selections_total",
				Help:      "Total arm selections by strategy kind",
			},
			[]string{"kind"},
		),
	}
}

// =============================================================================
// Helper Methods
// =============================================================================

// RecordOperation records one completed operation.
//
// # Inputs
//
//   - component: Subsystem that handled the operation.
//   - operation: Operation name, e.g. "create" or "select".
//   - success: Whether the operation succeeded.
//   - seconds: Elapsed time in seconds.
func (m *TunerMetrics) RecordOperation(component Component, operation string, success bool, seconds float64) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "error"
	}
	m.OperationsTotal.WithLabelValues(string(component), operation, status).Inc()
	m.OperationDurationSeconds.WithLabelValues(string(component), operation).Observe(seconds)
}

// SetActive sets the live instance count for component.
func (m *TunerMetrics) SetActive(component Component, n int) {
	if m == nil {
		return
	}
	m.ActiveInstances.WithLabelValues(string(component)).Set(float64(n))
}

// RecordReward observes a reward reported to component.
func (m *TunerMetrics) RecordReward(component Component, reward float64) {
	if m == nil {
		return
	}
	m.RewardValues.WithLabelValues(string(component)).Observe(reward)
}

// RecordSelection counts an arm selection for a strategy kind.
func (m *TunerMetrics) RecordSelection(kind string) {
	if m == nil {
		return
	}
	m.ArmSelectionsTotal.WithLabelValues(kind).Inc()
}
