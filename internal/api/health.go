package api

import (
	"fmt"
	"net/http"

	"github.com/rbuysse/quizbox/internal/store"
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := store.Ping(r.Context(), s.db); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) livez(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "200")
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if err := store.Ping(r.Context(), s.db); err != nil {
		http.Error(w, "database unavailable", http.StatusInternalServerError)
		return
	}
	fmt.Fprintf(w, "200")
}
