package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/rbuysse/quizbox/internal/models"
	"gorm.io/gorm"
)

type defaultQuiz struct {
	quizType QuizType
	question string
	answer   Answer
	theme    string
}

var defaultQuizzes = []defaultQuiz{
	{QuizTypeText, "What is the capital of France?", TextAnswer("Paris"), "Geography"},
	{QuizTypeText, "What is the largest planet in our solar system?", TextAnswer("Jupiter"), "Science"},
	{
		QuizTypeMultipleChoice,
		"Which of these are programming languages?",
		NewChoiceAnswer([]any{"Python", "Java", "HTML", "CSS"}, []any{"Python", "Java"}),
		"Programming",
	},
	{
		QuizTypeMultipleChoice,
		"Which of these are data structures?",
		NewChoiceAnswer([]any{"List", "Dictionary", "Function", "Class"}, []any{"List", "Dictionary"}),
		"Programming",
	},
}

type AdminService struct {
	db *gorm.DB
}

func NewAdminService(database *gorm.DB) *AdminService {
	return &AdminService{db: database}
}

func (s *AdminService) IsAdmin(ctx context.Context, userID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND is_admin = ?", userID, true).
		Count(&count).Error
	if err != nil {
		return false, persistenceError("failed to check admin status", err)
	}
	return count > 0, nil
}

// SeedDefaultQuizzes adds the stock example quizzes under the admin account.
// Themes are looked up by name and created when missing. Quizzes the admin
// already has are skipped, so running it twice inserts nothing new.
func (s *AdminService) SeedDefaultQuizzes(ctx context.Context) (int, error) {
	inserted := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var admin models.User
		err := tx.Where("is_admin = ?", true).Order("id").First(&admin).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundError("no admin user found, run setup first")
		}
		if err != nil {
			return err
		}

		themeIDs := make(map[string]uint)
		for _, quiz := range defaultQuizzes {
			themeID, ok := themeIDs[quiz.theme]
			if !ok {
				themeID, err = findOrCreateTheme(tx, quiz.theme)
				if err != nil {
					return err
				}
				themeIDs[quiz.theme] = themeID
			}

			var count int64
			err := tx.Model(&models.Quiz{}).
				Where("user_id = ? AND question_text = ?", admin.ID, quiz.question).
				Count(&count).Error
			if err != nil {
				return err
			}
			if count > 0 {
				continue
			}

			answerText, err := EncodeAnswer(quiz.answer)
			if err != nil {
				return err
			}
			row := &models.Quiz{
				UserID:       admin.ID,
				QuizType:     string(quiz.quizType),
				QuestionText: quiz.question,
				AnswerText:   answerText,
				ThemeID:      &themeID,
			}
			if err := tx.Create(row).Error; err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		log.Printf("Error seeding default quizzes: %v", err)
		return 0, classified("failed to seed default quizzes", err)
	}
	return inserted, nil
}

func findOrCreateTheme(tx *gorm.DB, name string) (uint, error) {
	var theme models.Theme
	err := tx.Where("name = ?", name).Order("id").First(&theme).Error
	if err == nil {
		return theme.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	theme = models.Theme{Name: name, Description: fmt.Sprintf("Default theme for %s", name)}
	if err := tx.Create(&theme).Error; err != nil {
		return 0, err
	}
	return theme.ID, nil
}

// CreateTheme adds a theme on behalf of actorID, who must be an admin.
func (s *AdminService) CreateTheme(ctx context.Context, actorID uint, name, description string) (*Theme, error) {
	admin, err := s.IsAdmin(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, forbiddenError("admin access required")
	}
	return NewThemeService(s.db).Create(ctx, name, description)
}
