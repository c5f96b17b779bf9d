package config

import (
	"testing"
)

func TestDefaultEdgeConfig(t *testing.T) {
	config := DefaultEdgeConfig()

	if config.Bind != "0.0.0.0:5151" {
		t.Errorf("Expected Bind to be '0.0.0.0:5151', got '%s'", config.Bind)
	}
	if config.BackendURL != "http://localhost:5050" {
		t.Errorf("Expected BackendURL to be 'http://localhost:5050', got '%s'", config.BackendURL)
	}
}

func TestGenerateEdge(t *testing.T) {
	t.Run("Random secret when none configured", func(t *testing.T) {
		clearQBEnvVars(t)

		first, err := GenerateEdge(nil)
		if err != nil {
			t.Fatalf("GenerateEdge failed: %v", err)
		}
		second, err := GenerateEdge(nil)
		if err != nil {
			t.Fatalf("GenerateEdge failed: %v", err)
		}
		if first.SessionSecret == "" || first.SessionSecret == second.SessionSecret {
			t.Errorf("Expected distinct random secrets, got %q and %q", first.SessionSecret, second.SessionSecret)
		}
	})

	t.Run("Environment and flags", func(t *testing.T) {
		clearQBEnvVars(t)
		t.Setenv("QB_EDGE_BACKEND_URL", "http://backend:5050")
		t.Setenv("QB_EDGE_SESSION_SECRET", "env-secret")
		t.Setenv("QB_EDGE_COOKIE_SECURE", "true")

		config, err := GenerateEdge([]string{"--bind", "127.0.0.1:8000", "--secret", "flag-secret"})
		if err != nil {
			t.Fatalf("GenerateEdge failed: %v", err)
		}
		if config.Bind != "127.0.0.1:8000" {
			t.Errorf("Expected Bind from flag, got '%s'", config.Bind)
		}
		if config.BackendURL != "http://backend:5050" {
			t.Errorf("Expected BackendURL from env, got '%s'", config.BackendURL)
		}
		if config.SessionSecret != "flag-secret" {
			t.Errorf("Expected secret from flag, got '%s'", config.SessionSecret)
		}
		if !config.CookieSecure {
			t.Error("Expected CookieSecure from env")
		}
	})

	t.Run("YAML config file", func(t *testing.T) {
		clearQBEnvVars(t)
		path := writeFile(t, "edge.yml", "backend_url: https://api.quiz.example\nsession_secret: file-secret\n")

		config, err := GenerateEdge([]string{"-c", path})
		if err != nil {
			t.Fatalf("GenerateEdge failed: %v", err)
		}
		if config.BackendURL != "https://api.quiz.example" || config.SessionSecret != "file-secret" {
			t.Errorf("Unexpected config %+v", config)
		}
	})

	t.Run("Invalid backend URL", func(t *testing.T) {
		clearQBEnvVars(t)

		for _, backend := range []string{"ftp://backend", "localhost:5050", "http://"} {
			if _, err := GenerateEdge([]string{"--backend", backend}); err == nil {
				t.Errorf("Expected error for backend %q", backend)
			}
		}
	})
}
