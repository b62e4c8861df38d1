package import_service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rowsStagedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inventory_import",
		Name:      "rows_staged_total",
		Help:      "Source rows staged, by validation status.",
	}, []string{"status"})

	reconcileTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inventory_import",
		Name:      "reconcile_total",
		Help:      "Reconciliation attempts, by action.",
	}, []string{"action"})

	reconcileDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "inventory_import",
		Name:      "reconcile_duration_seconds",
		Help:      "Time spent upserting one row into the inventory store.",
		Buckets:   prometheus.DefBuckets,
	})

	batchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "inventory_import",
		Name:      "batch_duration_seconds",
		Help:      "Time spent processing one batch.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inventory_import",
		Name:      "runs_total",
		Help:      "Run worker exits, by outcome.",
	}, []string{"outcome"})

	activeRuns = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "inventory_import",
		Name:      "active_runs",
		Help:      "Runs with a worker in this process.",
	})

	massCorrectedRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inventory_import",
		Name:      "mass_corrected_rows_total",
		Help:      "Rows changed by mass correction, by type.",
	}, []string{"type"})
)
