package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/rbuysse/quizbox/internal/service"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps a service error kind to its status code. Unclassified
// and persistence failures are logged and reported without their cause.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("%s %s failed [%s]: %v", r.Method, r.URL.Path, requestID(r.Context()), err)
	}
	writeError(w, status, service.Message(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
