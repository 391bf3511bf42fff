package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// jobRuns counts job executions. Labels: job, status (success, failure, cancelled)
	jobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coursewatch",
		Subsystem: "scheduler",
		Name:      "job_runs_total",
		Help:      "Total scheduled job executions",
	}, []string{"job", "status"})

	// jobDuration measures job run time. Labels: job
	jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "coursewatch",
		Subsystem: "scheduler",
		Name:      "job_duration_seconds",
		Help:      "Scheduled job duration in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"job"})

	// jobLastSuccess is the unix time of the last successful run. Labels: job
	jobLastSuccess = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "coursewatch",
		Subsystem: "scheduler",
		Name:      "job_last_success_timestamp_seconds",
		Help:      "Unix time of the last successful job run",
	}, []string{"job"})
)
