package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// submissionsTotal counts evaluated and rejected submissions by verdict
	submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "problem_submissions_total",
		Help: "Total answer submissions by verdict",
	}, []string{"verdict"})

	rotationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "problem_rotations_total",
		Help: "Total completed problem rotations",
	})

	rotationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "problem_rotation_failures_total",
		Help: "Rotations aborted because the attempt ledger could not be cleared",
	})

	activeIndexGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "problem_active_index",
		Help: "Index of the problem currently served",
	})

	// persistFailures counts index ledger writes that failed; in-memory state stays authoritative
	persistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "problem_index_persist_failures_total",
		Help: "Total failed writes to the problem index ledger",
	})

	problemLoadFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "problem_load_failures_total",
		Help: "Total failed loads of the active problem bundle",
	})
)
