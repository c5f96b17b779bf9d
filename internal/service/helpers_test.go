package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rbuysse/quizbox/internal/models"
	"github.com/rbuysse/quizbox/internal/store"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := store.Open(store.DriverSQLite, filepath.Join(t.TempDir(), "quizbox.db"), false)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(func() { store.Close(db) })

	return db
}

func mustRegister(t *testing.T, authSvc *AuthService, name, email string) (*models.User, string) {
	t.Helper()

	user, key, err := authSvc.Register(context.Background(), name, email, "password123")
	if err != nil {
		t.Fatalf("Failed to register %s: %v", email, err)
	}
	return user, key
}

func mustBootstrapAdmin(t *testing.T, authSvc *AuthService) *models.User {
	t.Helper()

	user, _, err := authSvc.BootstrapAdmin(context.Background(), "Admin", "admin@example.com", "adminpass")
	if err != nil {
		t.Fatalf("Failed to create admin: %v", err)
	}
	return user
}

func assertKind(t *testing.T, err, kind error) {
	t.Helper()

	if err == nil {
		t.Fatalf("Expected %v error but got none", kind)
	}
	if !errors.Is(err, kind) {
		t.Fatalf("Expected %v error, got %v", kind, err)
	}
}
