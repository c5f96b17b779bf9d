package api

import (
	"net/http"
	"time"

	"github.com/rbuysse/quizbox/internal/service"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) setSessionCookie(w http.ResponseWriter, userID uint, r *http.Request) bool {
	session, err := s.sessions.Create(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return false
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    session.ID,
		Path:     "/",
		MaxAge:   int(service.SessionTTL / time.Second),
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return true
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
	})
}

func (s *Server) setupStatus(w http.ResponseWriter, r *http.Request) {
	needsSetup, err := s.auth.NeedsSetup(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"needs_setup": needsSetup})
}

// setup creates the first admin and logs them in.
func (s *Server) setup(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, apiKey, err := s.auth.BootstrapAdmin(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if !s.setSessionCookie(w, user.ID, r) {
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "Admin user created successfully",
		"api_key": apiKey,
	})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	_, apiKey, err := s.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "User registered successfully",
		"api_key": apiKey,
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := s.auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if !s.setSessionCookie(w, user.ID, r) {
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged in successfully"})
}

// logout always succeeds; an unknown or missing session is already logged out.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		if err := s.sessions.Delete(r.Context(), cookie.Value); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}

	s.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	user, err := s.auth.GetUser(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
	})
}

func (s *Server) apiKey(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	key, err := s.keys.Get(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"api_key": key})
}

func (s *Server) refreshAPIKey(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	key, err := s.keys.Rotate(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"api_key": key})
}
