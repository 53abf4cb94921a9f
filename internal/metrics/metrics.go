// Package metrics exposes Prometheus instruments for the outbreak service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels operations that completed.
	OutcomeSuccess = "success"
	// OutcomeError labels operations that failed.
	OutcomeError = "error"
)

var (
	reconcilerRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "praevita",
			Name:      "reconciler_runs_total",
			Help:      "Total reconciler runs, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	reconcilerRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "praevita",
			Name:      "reconciler_rows_total",
			Help:      "Rows processed by the reconciler, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	reconcilerRunSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "praevita",
			Name:      "reconciler_run_seconds",
			Help:      "Reconciler run latency in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	ingestedRecordsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "praevita",
			Name:      "ingested_records_total",
			Help:      "Records inserted through the ingestion boundary.",
		},
	)

	synthesisRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "praevita",
			Name:      "synthesis_requests_total",
			Help:      "Narrative synthesis requests, partitioned by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register attaches the service collectors to the supplied registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		reconcilerRunsTotal,
		reconcilerRowsTotal,
		reconcilerRunSeconds,
		ingestedRecordsTotal,
		synthesisRequestsTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveReconcilerRun records one run's duration, outcome, and row counts.
func ObserveReconcilerRun(duration time.Duration, succeeded, failed int, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	reconcilerRunsTotal.WithLabelValues(outcome).Inc()
	reconcilerRowsTotal.WithLabelValues(OutcomeSuccess).Add(float64(succeeded))
	reconcilerRowsTotal.WithLabelValues(OutcomeError).Add(float64(failed))
	if duration < 0 {
		duration = 0
	}
	reconcilerRunSeconds.Observe(duration.Seconds())
}

// ObserveIngestion records inserted record counts.
func ObserveIngestion(inserted int) {
	ingestedRecordsTotal.Add(float64(inserted))
}

// ObserveSynthesis records the outcome of one synthesis request.
func ObserveSynthesis(err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	synthesisRequestsTotal.WithLabelValues(outcome).Inc()
}
