// Package metric exposes the prometheus instrumentation for the question
// pipeline. Counters are registered on the default registry; the web front
// end serves them at /metrics.
package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	questionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netintel",
		Subsystem: "pipeline",
		Name:      "questions_total",
		Help:      "Questions processed, by outcome (answered, refused, failed).",
	}, []string{"outcome"})

	stageVisits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netintel",
		Subsystem: "pipeline",
		Name:      "stage_visits_total",
		Help:      "Visits per pipeline stage, correction loops included.",
	}, []string{"stage"})

	correctionAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "netintel",
		Subsystem: "pipeline",
		Name:      "correction_attempts_total",
		Help:      "Statement regeneration passes triggered by validation.",
	})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "netintel",
		Subsystem: "pipeline",
		Name:      "run_duration_seconds",
		Help:      "End-to-end pipeline run latency.",
		Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
	})
)

const (
	OutcomeAnswered = "answered"
	OutcomeRefused  = "refused"
	OutcomeFailed   = "failed"
)

func ObserveStage(stage string) {
	stageVisits.WithLabelValues(stage).Inc()
}

func ObserveCorrection() {
	correctionAttempts.Inc()
}

func ObserveRun(outcome string, start time.Time) {
	questionsTotal.WithLabelValues(outcome).Inc()
	runDuration.Observe(time.Since(start).Seconds())
}
