package server

import (
	"encoding/json"
	"net/http"
)

// handleAppendLogs handles POST /jobs/{id}/logs. The append runs under the
// same lease validation as finish: only the worker holding the live lease
// may write.
func (s *Server) handleAppendLogs(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NodeID     string `json:"node_id"`
		LeaseToken string `json:"lease_token"`
		Text       string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.NodeID == "" || req.LeaseToken == "" {
		writeError(w, http.StatusUnprocessableEntity, "node_id and lease_token are required")
		return
	}

	if err := s.manager.AppendLogs(r.Context(), r.PathValue("id"), req.NodeID, req.LeaseToken, req.Text); err != nil {
		writeServiceError(w, err)
		return
	}

	s.metrics.logChunks.Inc()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReadLogs handles GET /jobs/{id}/logs. Reads need no lease; the
// response is the exact concatenation of appended chunks in insertion order.
func (s *Server) handleReadLogs(w http.ResponseWriter, r *http.Request) {
	text, err := s.manager.ReadLogs(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}
