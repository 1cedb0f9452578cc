package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the coordinator's Prometheus collectors. Each Server carries
// its own registry so tests can spin up multiple instances.
type metrics struct {
	jobsCreated  prometheus.Counter
	jobsClaimed  prometheus.Counter
	jobsFinished *prometheus.CounterVec
	logChunks    prometheus.Counter
	heartbeats   prometheus.Counter
}

func newMetrics(reg *prometheus.Registry) *metrics {
	m := &metrics{
		jobsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "deborgen_jobs_created_total",
			Help: "Total number of jobs submitted",
		}),
		jobsClaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "deborgen_jobs_claimed_total",
			Help: "Total number of successful job claims",
		}),
		jobsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deborgen_jobs_finished_total",
			Help: "Total number of finished jobs by terminal status",
		}, []string{"status"}),
		logChunks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "deborgen_log_chunks_total",
			Help: "Total number of appended log chunks",
		}),
		heartbeats: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "deborgen_node_heartbeats_total",
			Help: "Total number of node heartbeats",
		}),
	}

	reg.MustRegister(
		m.jobsCreated,
		m.jobsClaimed,
		m.jobsFinished,
		m.logChunks,
		m.heartbeats,
	)
	return m
}
