package server

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes registers all HTTP routes and applies the global middleware
// chain. Method-and-pattern registration keeps dispatch in the ServeMux;
// "/jobs/next" is more specific than "/jobs/{id}" so the mux routes it first.
func (s *Server) RegisterRoutes() {
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	s.router.HandleFunc("POST /jobs", s.handleCreateJob)
	s.router.HandleFunc("GET /jobs", s.handleListJobs)
	s.router.HandleFunc("GET /jobs/next", s.handleNextJob)
	s.router.HandleFunc("GET /jobs/{id}", s.handleGetJob)
	s.router.HandleFunc("POST /jobs/{id}/finish", s.handleFinishJob)
	s.router.HandleFunc("POST /jobs/{id}/logs", s.handleAppendLogs)
	s.router.HandleFunc("GET /jobs/{id}/logs", s.handleReadLogs)
	s.router.HandleFunc("POST /nodes/{node_id}/heartbeat", s.handleHeartbeat)

	// Middleware chain: RequestID -> Logger -> bearer auth -> mux.
	s.handler = RequestID(Logger(s.bearerAuth(s.router)))
}
