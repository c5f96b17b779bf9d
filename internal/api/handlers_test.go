package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rbuysse/quizbox/internal/service"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind     error
		expected int
	}{
		{service.ErrValidation, http.StatusBadRequest},
		{service.ErrConflict, http.StatusBadRequest},
		{service.ErrAuth, http.StatusUnauthorized},
		{service.ErrForbidden, http.StatusForbidden},
		{service.ErrNotFound, http.StatusNotFound},
		{service.ErrPersistence, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		err := &service.Error{Kind: tt.kind, Message: "x"}
		if got := statusFor(err); got != tt.expected {
			t.Errorf("statusFor(%v) = %d, expected %d", tt.kind, got, tt.expected)
		}
	}
}

func TestQuizHandlerErrors(t *testing.T) {
	handler, _ := setupTestServer(t)
	cookie, _ := registerAndLogin(t, handler, "A", "a@x")

	tests := []struct {
		name     string
		method   string
		path     string
		body     any
		expected int
		message  string
	}{
		{"Malformed body", "POST", "/quizzes", `{"quiz_type":`, http.StatusBadRequest, "invalid request body"},
		{"Invalid quiz type", "POST", "/quizzes", map[string]any{"quiz_type": "essay", "question_text": "Q", "answer_text": "A"}, http.StatusBadRequest, "invalid quiz type"},
		{"Missing answer", "POST", "/quizzes", map[string]any{"quiz_type": "text", "question_text": "Q"}, http.StatusBadRequest, "missing required field: answer_text"},
		{"Missing theme", "POST", "/quizzes", map[string]any{"quiz_type": "text", "question_text": "Q", "answer_text": "A", "theme_id": 999}, http.StatusInternalServerError, "failed to create quiz"},
		{"Unknown quiz", "GET", "/quizzes/999", nil, http.StatusNotFound, "quiz not found"},
		{"Non-numeric quiz id", "GET", "/quizzes/abc", nil, http.StatusNotFound, "quiz not found"},
		{"Unknown theme", "GET", "/themes/999/quiz", nil, http.StatusNotFound, "theme not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, handler, tt.method, tt.path, tt.body, withCookie(cookie))
			if w.Code != tt.expected {
				t.Fatalf("Expected status %d, got %d: %s", tt.expected, w.Code, w.Body.String())
			}
			var resp map[string]string
			decodeResponse(t, w, &resp)
			if resp["error"] != tt.message {
				t.Errorf("Expected error %q, got %q", tt.message, resp["error"])
			}
		})
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	handler, _ := setupTestServer(t)

	routes := []struct{ method, path string }{
		{"GET", "/me"},
		{"GET", "/me/api-key"},
		{"POST", "/me/api-key/refresh"},
		{"GET", "/quizzes"},
		{"POST", "/quizzes"},
		{"GET", "/quizzes/1"},
		{"GET", "/themes/1/quiz"},
	}

	for _, route := range routes {
		w := doRequest(t, handler, route.method, route.path, nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401, got %d", route.method, route.path, w.Code)
		}
	}
}

func TestLoginErrors(t *testing.T) {
	handler, _ := setupTestServer(t)
	registerAndLogin(t, handler, "A", "a@x")

	w := doRequest(t, handler, "POST", "/login", map[string]string{"email": "a@x", "password": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for wrong password, got %d", w.Code)
	}
	w = doRequest(t, handler, "POST", "/login", map[string]string{"email": "a@x"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing password, got %d", w.Code)
	}
	w = doRequest(t, handler, "POST", "/register", map[string]string{"name": "A2", "email": "a@x", "password": "p"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for duplicate email, got %d", w.Code)
	}
}

func TestPublicRoutes(t *testing.T) {
	handler, _ := setupTestServer(t)

	w := doRequest(t, handler, "GET", "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected health 200, got %d", w.Code)
	}
	var health map[string]string
	decodeResponse(t, w, &health)
	if health["status"] != "healthy" {
		t.Errorf("Expected healthy, got %v", health)
	}

	for _, path := range []string{"/livez", "/readyz"} {
		w = doRequest(t, handler, "GET", path, nil)
		if w.Code != http.StatusOK || w.Body.String() != "200" {
			t.Errorf("%s: expected 200, got %d %q", path, w.Code, w.Body.String())
		}
	}

	w = doRequest(t, handler, "GET", "/themes", nil)
	if w.Code != http.StatusOK || w.Body.String() != "[]\n" {
		t.Errorf("Expected empty theme list, got %d %q", w.Code, w.Body.String())
	}

	w = doRequest(t, handler, "GET", "/quizzes/default", nil)
	if w.Code != http.StatusOK || w.Body.String() != "[]\n" {
		t.Errorf("Expected empty default list, got %d %q", w.Code, w.Body.String())
	}

	w = doRequest(t, handler, "GET", "/logout", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Logout without a session should succeed, got %d", w.Code)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	handler, _ := setupTestServer(t)

	w := doRequest(t, handler, "GET", "/livez", nil)
	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("Expected a generated request id")
	}

	req := httptest.NewRequest("GET", "/livez", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("Expected incoming request id to be echoed, got %q", got)
	}
}

func TestRecoverMiddleware(t *testing.T) {
	handler := Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500 after panic, got %d", w.Code)
	}
}
