package server

import (
	"encoding/json"
	"net/http"

	"github.com/deborgen/deborgen/internal/labels"
)

// handleHeartbeat handles POST /nodes/{node_id}/heartbeat.
// Request JSON: {"name":"...","labels":{"gpu":"rtx3060","cpu_cores":12}}
func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   *string       `json:"name"`
		Labels labels.Labels `json:"labels"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// Label values are restricted to scalars; anything else fails the
		// decode and is a validation error, not a bad request.
		writeError(w, http.StatusUnprocessableEntity, "invalid heartbeat body: "+err.Error())
		return
	}

	node, err := s.manager.Heartbeat(r.Context(), r.PathValue("node_id"), req.Name, req.Labels)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	s.metrics.heartbeats.Inc()
	writeJSON(w, http.StatusOK, node)
}
