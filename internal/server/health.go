package server

import "net/http"

// handleHealth handles GET /health. Always open, even when bearer auth is
// configured.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
