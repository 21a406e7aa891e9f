// Package metrics provides Prometheus metrics for the duplicate detector.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal counts detection runs by outcome: computed, cached or failed.
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dupguard",
			Subsystem: "detection",
			Name:      "runs_total",
			Help:      "Total number of detection runs by outcome",
		},
		[]string{"outcome"},
	)

	// RunDuration tracks how long a detection run takes.
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "dupguard",
			Subsystem: "detection",
			Name:      "run_duration_seconds",
			Help:      "Duration of detection runs in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	// RowsSkippedTotal counts report rows dropped as noise.
	RowsSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dupguard",
			Subsystem: "ingestion",
			Name:      "rows_skipped_total",
			Help:      "Total number of report rows skipped by reason",
		},
		[]string{"reason"},
	)

	// FindingsTotal counts emitted rows per result table.
	FindingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dupguard",
			Subsystem: "detection",
			Name:      "findings_total",
			Help:      "Total number of duplicate rows emitted by table and priority",
		},
		[]string{"table", "priority"},
	)
)
