//
// nose - an automated schema and index advisor for wide-column stores
//
//  Copyright (c) 2026 The NoSE Authors. All rights reserved.
//

// Package metrics instruments a single advisor run: candidate counts,
// planning duration, and the solver's outcome. Grounded on the
// teacher's operator/internal/metrics/collector.go — a Collector type
// wrapping a client, exposing a typed result per collection — adapted
// from a Kubernetes metrics-server client to a direct
// github.com/prometheus/client_golang registry, since the advisor has
// no cluster to poll.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector registers and updates the advisor's Prometheus metrics.
type Collector struct {
	CandidateIndexes prometheus.Gauge
	PlannerDuration  prometheus.Histogram
	SolverDuration   prometheus.Histogram
	SolverOutcome    *prometheus.CounterVec
	ChosenIndexes    prometheus.Gauge
	ChosenStorage    prometheus.Gauge
}

// NewCollector builds a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		CandidateIndexes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nose",
			Name:      "candidate_indexes",
			Help:      "Number of candidate indexes enumerated in the current run.",
		}),
		PlannerDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "nose",
			Name:      "planner_duration_seconds",
			Help:      "Wall-clock time spent planning all queries in a run.",
			Buckets:   prometheus.DefBuckets,
		}),
		SolverDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "nose",
			Name:      "solver_duration_seconds",
			Help:      "Wall-clock time spent in SearchMILP.",
			Buckets:   prometheus.DefBuckets,
		}),
		SolverOutcome: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nose",
			Name:      "solver_outcome_total",
			Help:      "SearchMILP outcomes by result (solved, no_solution).",
		}, []string{"result"}),
		ChosenIndexes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nose",
			Name:      "chosen_indexes",
			Help:      "Number of indexes in the last chosen schema.",
		}),
		ChosenStorage: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nose",
			Name:      "chosen_storage_bytes",
			Help:      "Total storage in bytes of the last chosen schema.",
		}),
	}

	reg.MustRegister(c.CandidateIndexes, c.PlannerDuration, c.SolverDuration, c.SolverOutcome, c.ChosenIndexes, c.ChosenStorage)
	// Create both outcome series up front so the counter vec is gathered
	// (at zero) before the first solve.
	c.SolverOutcome.WithLabelValues("solved")
	c.SolverOutcome.WithLabelValues("no_solution")
	return c
}

// ObservePlanner records the duration of a full PlanAll call.
func (c *Collector) ObservePlanner(d time.Duration) {
	c.PlannerDuration.Observe(d.Seconds())
}

// ObserveSolver records the duration and outcome of a SearchMILP call.
func (c *Collector) ObserveSolver(d time.Duration, solved bool) {
	c.SolverDuration.Observe(d.Seconds())
	result := "solved"
	if !solved {
		result = "no_solution"
	}
	c.SolverOutcome.WithLabelValues(result).Inc()
}

// ObserveRun records the shape of the chosen schema once a run
// completes successfully.
func (c *Collector) ObserveRun(candidateIndexes, chosenIndexes int, chosenStorageBytes int64) {
	c.CandidateIndexes.Set(float64(candidateIndexes))
	c.ChosenIndexes.Set(float64(chosenIndexes))
	c.ChosenStorage.Set(float64(chosenStorageBytes))
}
