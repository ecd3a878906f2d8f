package simrun

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsQueued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "beosim",
		Subsystem: "simrun",
		Name:      "jobs_queued_total",
		Help:      "Total simulation jobs submitted to the dispatcher.",
	})
	jobsSucceeded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "beosim",
		Subsystem: "simrun",
		Name:      "jobs_succeeded_total",
		Help:      "Total simulation jobs that completed successfully.",
	})
	jobsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "beosim",
		Subsystem: "simrun",
		Name:      "jobs_failed_total",
		Help:      "Total simulation jobs that failed.",
	})
	jobsTimedOut = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "beosim",
		Subsystem: "simrun",
		Name:      "jobs_timed_out_total",
		Help:      "Total simulation jobs killed for exceeding their timeout.",
	})
	jobsRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "beosim",
		Subsystem: "simrun",
		Name:      "jobs_running",
		Help:      "Simulation jobs currently executing.",
	})
)
