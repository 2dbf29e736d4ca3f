package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // package-level collectors registered once
var (
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Total number of pipeline runs by outcome",
		},
		[]string{"status"},
	)
	runDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pipeline_run_duration_seconds",
			Help:    "Duration of full pipeline runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
	stageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_stage_duration_seconds",
			Help:    "Duration of individual pipeline stages in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage", "status"},
	)
)

func observeRun(d time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	runsTotal.WithLabelValues(status).Inc()
	runDuration.Observe(d.Seconds())
}

func observeStage(stage Stage, d time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	stageDuration.WithLabelValues(string(stage), status).Observe(d.Seconds())
}
