package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/deborgen/deborgen/internal/jobs"
)

// errorBody is the error envelope used on every non-2xx response.
type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

// writeServiceError maps lifecycle-service errors onto the wire contract:
// unknown or malformed ids are 404, state conflicts are 409 with their
// stable detail strings, validation failures are 422, anything else is a
// bug and maps to 500.
func writeServiceError(w http.ResponseWriter, err error) {
	var conflict *jobs.ConflictError
	var invalid *jobs.ValidationError
	switch {
	case errors.Is(err, jobs.ErrNotFound):
		writeError(w, http.StatusNotFound, "job not found")
	case errors.As(err, &conflict):
		writeError(w, http.StatusConflict, conflict.Detail)
	case errors.As(err, &invalid):
		writeError(w, http.StatusUnprocessableEntity, invalid.Detail)
	default:
		log.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
