package service

import (
	"context"
	"testing"

	"github.com/rbuysse/quizbox/internal/models"
)

func TestThemeService_SeedDefaults(t *testing.T) {
	testDB := setupTestDB(t)
	themeSvc := NewThemeService(testDB)
	ctx := context.Background()

	inserted, err := themeSvc.SeedDefaults(ctx)
	if err != nil {
		t.Fatalf("SeedDefaults failed: %v", err)
	}
	if inserted != len(defaultThemes) {
		t.Errorf("Expected %d themes, got %d", len(defaultThemes), inserted)
	}

	inserted, err = themeSvc.SeedDefaults(ctx)
	if err != nil {
		t.Fatalf("SeedDefaults failed: %v", err)
	}
	if inserted != 0 {
		t.Errorf("Expected second seed to insert nothing, got %d", inserted)
	}

	themes, err := themeSvc.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(themes) != len(defaultThemes) {
		t.Fatalf("Expected %d themes, got %d", len(defaultThemes), len(themes))
	}
	if themes[0].Name != "Python Basics" {
		t.Errorf("Expected themes ordered by id, first is %s", themes[0].Name)
	}
}

func TestThemeService_Create(t *testing.T) {
	testDB := setupTestDB(t)
	themeSvc := NewThemeService(testDB)
	ctx := context.Background()

	_, err := themeSvc.Create(ctx, "  ", "blank")
	assertKind(t, err, ErrValidation)

	theme, err := themeSvc.Create(ctx, " Rust ", "Systems programming")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if theme.Name != "Rust" {
		t.Errorf("Expected trimmed name, got %q", theme.Name)
	}

	exists, err := themeSvc.Exists(ctx, theme.ID)
	if err != nil || !exists {
		t.Errorf("Expected theme %d to exist (err %v)", theme.ID, err)
	}
	exists, err = themeSvc.Exists(ctx, 9999)
	if err != nil || exists {
		t.Errorf("Expected theme 9999 to be absent (err %v)", err)
	}
}

func TestAdminService_SeedDefaultQuizzes(t *testing.T) {
	testDB := setupTestDB(t)
	authSvc := NewAuthService(testDB)
	adminSvc := NewAdminService(testDB)
	quizSvc := NewQuizService(testDB)
	ctx := context.Background()

	_, err := adminSvc.SeedDefaultQuizzes(ctx)
	assertKind(t, err, ErrNotFound)

	admin := mustBootstrapAdmin(t, authSvc)

	inserted, err := adminSvc.SeedDefaultQuizzes(ctx)
	if err != nil {
		t.Fatalf("SeedDefaultQuizzes failed: %v", err)
	}
	if inserted != len(defaultQuizzes) {
		t.Errorf("Expected %d quizzes, got %d", len(defaultQuizzes), inserted)
	}

	inserted, err = adminSvc.SeedDefaultQuizzes(ctx)
	if err != nil {
		t.Fatalf("SeedDefaultQuizzes failed: %v", err)
	}
	if inserted != 0 {
		t.Errorf("Expected second run to insert nothing, got %d", inserted)
	}

	var programming int64
	testDB.Model(&models.Theme{}).Where("name = ?", "Programming").Count(&programming)
	if programming != 1 {
		t.Errorf("Expected one Programming theme, got %d", programming)
	}

	quizzes, err := quizSvc.ListDefault(ctx)
	if err != nil {
		t.Fatalf("ListDefault failed: %v", err)
	}
	if len(quizzes) != len(defaultQuizzes) {
		t.Fatalf("Expected %d default quizzes, got %d", len(defaultQuizzes), len(quizzes))
	}
	for _, quiz := range quizzes {
		if quiz.UserID != admin.ID {
			t.Errorf("Quiz %d not owned by admin", quiz.ID)
		}
		if quiz.QuizType == QuizTypeMultipleChoice {
			if _, ok := quiz.Answer.(ChoiceAnswer); !ok {
				t.Errorf("Expected ChoiceAnswer for %q, got %T", quiz.QuestionText, quiz.Answer)
			}
		}
	}
}

func TestAdminService_CreateTheme(t *testing.T) {
	testDB := setupTestDB(t)
	authSvc := NewAuthService(testDB)
	adminSvc := NewAdminService(testDB)
	ctx := context.Background()

	admin := mustBootstrapAdmin(t, authSvc)
	user, _ := mustRegister(t, authSvc, "Alice", "alice@example.com")

	isAdmin, err := adminSvc.IsAdmin(ctx, admin.ID)
	if err != nil || !isAdmin {
		t.Errorf("Expected admin %d to be admin (err %v)", admin.ID, err)
	}
	isAdmin, err = adminSvc.IsAdmin(ctx, user.ID)
	if err != nil || isAdmin {
		t.Errorf("Expected user %d not to be admin (err %v)", user.ID, err)
	}

	_, err = adminSvc.CreateTheme(ctx, user.ID, "Nope", "")
	assertKind(t, err, ErrForbidden)

	theme, err := adminSvc.CreateTheme(ctx, admin.ID, "History", "Dates and people")
	if err != nil {
		t.Fatalf("CreateTheme failed: %v", err)
	}
	if theme.ID == 0 || theme.Description != "Dates and people" {
		t.Errorf("Unexpected theme %+v", theme)
	}
}
