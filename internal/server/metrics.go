package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minsearch_jobs_started_total",
		Help: "Jobs accepted and handed to a worker, by problem.",
	}, []string{"problem"})

	jobsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minsearch_jobs_finished_total",
		Help: "Jobs that reached a terminal state, by problem and state.",
	}, []string{"problem", "state"})

	runningJobs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "minsearch_running_jobs",
		Help: "Jobs currently in the running state.",
	})

	generationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minsearch_generations_total",
		Help: "Completed generations across all jobs, by problem.",
	}, []string{"problem"})

	resultCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "minsearch_result_cache_hits_total",
		Help: "Jobs answered from the memoized result cache.",
	})
)
