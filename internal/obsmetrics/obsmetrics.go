// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package obsmetrics declares the Prometheus collectors the
// orchestrator and worker pool report through: stage transition counts,
// stage durations, and worker-dispatch counts per bank.
package obsmetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// StageTransitions counts every orchestrator state transition,
	// labeled by the state entered.
	StageTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aero_prover",
			Name:      "stage_transitions_total",
			Help:      "Number of times the proving orchestrator entered each state.",
		},
		[]string{"state"},
	)

	// StageDuration records how long the orchestrator spent in each
	// state before transitioning out of it.
	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aero_prover",
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each proving-pipeline state.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"state"},
	)

	// WorkerDispatches counts messages dispatched to each worker bank.
	WorkerDispatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aero_prover",
			Name:      "worker_dispatches_total",
			Help:      "Number of messages dispatched to each worker bank.",
		},
		[]string{"bank"},
	)
)

func init() {
	prometheus.MustRegister(StageTransitions, StageDuration, WorkerDispatches)
}

// StageTimer starts a timer that, on Stop, both records
// StageDuration for state and returns the elapsed time.
func StageTimer(state string) func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		elapsed := time.Since(start)
		StageDuration.WithLabelValues(state).Observe(elapsed.Seconds())
		return elapsed
	}
}

// RecordDispatch increments the dispatch counter for bank ("hashing"
// or "constraints").
func RecordDispatch(bank string) {
	WorkerDispatches.WithLabelValues(bank).Inc()
}
