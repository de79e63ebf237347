package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/quizdeck/backend/internal/httperr"
)

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, httpErr *httperr.Error) {
	writeJSON(w, httpErr.Status, httpErr)
}

// respondError writes a user-visible error as-is and collapses
// everything else to a generic 500; internal detail goes to the log,
// never to the caller.
func respondError(w http.ResponseWriter, err error) {
	var httpErr *httperr.Error
	if errors.As(err, &httpErr) {
		writeError(w, httpErr)
		return
	}
	log.Printf("internal error: %v", err)
	writeError(w, httperr.Internal())
}

// Health returns the liveness handler shared by all services; ping
// checks the service's backing dependency (database or peer service).
func Health(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ping(r.Context()); err != nil {
			log.Printf("health check failed: %v", err)
			writeError(w, httperr.Internal())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "healthy"})
	}
}
