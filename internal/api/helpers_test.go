package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rbuysse/quizbox/internal/service"
	"github.com/rbuysse/quizbox/internal/store"
	"gorm.io/gorm"
)

func setupTestServer(t *testing.T) (http.Handler, *gorm.DB) {
	t.Helper()

	db, err := store.Open(store.DriverSQLite, filepath.Join(t.TempDir(), "quizbox.db"), false)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(func() { store.Close(db) })

	server := NewServer(db, service.NewDBSessionStore(db), Options{})
	return server.Handler(), db
}

type requestOption func(*http.Request)

func withCookie(cookie *http.Cookie) requestOption {
	return func(r *http.Request) {
		if cookie != nil {
			r.AddCookie(cookie)
		}
	}
}

func withAPIKey(key string) requestOption {
	return func(r *http.Request) {
		r.Header.Set(APIKeyHeader, key)
	}
}

func doRequest(t *testing.T, handler http.Handler, method, path string, body any, opts ...requestOption) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()

	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == SessionCookie {
			return cookie
		}
	}
	return nil
}

// registerAndLogin creates a user over HTTP and returns its session cookie and API key.
func registerAndLogin(t *testing.T, handler http.Handler, name, email string) (*http.Cookie, string) {
	t.Helper()

	w := doRequest(t, handler, "POST", "/register", map[string]string{
		"name": name, "email": email, "password": "p1",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Registration failed with status %d: %s", w.Code, w.Body.String())
	}
	var registered map[string]string
	decodeResponse(t, w, &registered)

	w = doRequest(t, handler, "POST", "/login", map[string]string{"email": email, "password": "p1"})
	if w.Code != http.StatusOK {
		t.Fatalf("Login failed with status %d: %s", w.Code, w.Body.String())
	}
	cookie := sessionCookie(w)
	if cookie == nil {
		t.Fatal("No session cookie returned after login")
	}

	return cookie, registered["api_key"]
}
