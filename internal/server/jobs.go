package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/deborgen/deborgen/internal/jobs"
)

// handleCreateJob handles POST /jobs.
// Request JSON: {"command":"...","timeout_seconds":3600,"max_attempts":1}
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Command        string `json:"command"`
		TimeoutSeconds *int64 `json:"timeout_seconds"`
		MaxAttempts    *int64 `json:"max_attempts"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Command == "" {
		writeError(w, http.StatusUnprocessableEntity, "command is required")
		return
	}

	create := jobs.CreateJobRequest{
		Command:        req.Command,
		TimeoutSeconds: 3600,
		MaxAttempts:    1,
	}
	if req.TimeoutSeconds != nil {
		create.TimeoutSeconds = *req.TimeoutSeconds
	}
	if req.MaxAttempts != nil {
		create.MaxAttempts = *req.MaxAttempts
	}

	job, err := s.manager.CreateJob(r.Context(), create)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	s.metrics.jobsCreated.Inc()
	writeJSON(w, http.StatusCreated, job)
}

// handleListJobs handles GET /jobs?status=&limit=. Jobs come back newest
// first; limit, when present, must be in [1,1000].
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !jobs.IsValidStatus(status) {
		writeError(w, http.StatusUnprocessableEntity, "invalid status filter")
		return
	}

	var limit int64
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 || n > 1000 {
			writeError(w, http.StatusUnprocessableEntity, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}

	list, err := s.manager.ListJobs(r.Context(), status, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]*jobs.Job{"jobs": list})
}

// handleGetJob handles GET /jobs/{id}.
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.manager.GetJob(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// handleNextJob handles GET /jobs/next?node_id=. In one atomic step the
// oldest eligible queued job moves to running, stamped with the caller's
// node id and a fresh lease token. 204 when the queue is empty.
func (s *Server) handleNextJob(w http.ResponseWriter, r *http.Request) {
	nodeID := r.URL.Query().Get("node_id")
	if nodeID == "" {
		writeError(w, http.StatusUnprocessableEntity, "node_id is required")
		return
	}

	assignment, err := s.manager.ClaimNext(r.Context(), nodeID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if assignment == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.metrics.jobsClaimed.Inc()
	writeJSON(w, http.StatusOK, assignment)
}

// handleFinishJob handles POST /jobs/{id}/finish.
// Request JSON: {"node_id":"...","lease_token":"...","exit_code":0,"failure_reason":null}
func (s *Server) handleFinishJob(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NodeID        string  `json:"node_id"`
		LeaseToken    string  `json:"lease_token"`
		ExitCode      *int64  `json:"exit_code"`
		FailureReason *string `json:"failure_reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.NodeID == "" || req.LeaseToken == "" || req.ExitCode == nil {
		writeError(w, http.StatusUnprocessableEntity, "node_id, lease_token, and exit_code are required")
		return
	}

	job, err := s.manager.Finish(r.Context(), r.PathValue("id"), jobs.FinishRequest{
		NodeID:        req.NodeID,
		LeaseToken:    req.LeaseToken,
		ExitCode:      *req.ExitCode,
		FailureReason: req.FailureReason,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	s.metrics.jobsFinished.WithLabelValues(job.Status).Inc()
	writeJSON(w, http.StatusOK, job)
}
