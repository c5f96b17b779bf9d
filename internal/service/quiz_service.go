package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/rbuysse/quizbox/internal/models"
	"gorm.io/gorm"
)

type Quiz struct {
	ID           uint      `json:"id"`
	UserID       uint      `json:"user_id"`
	QuizType     QuizType  `json:"quiz_type"`
	QuestionText string    `json:"question_text"`
	Answer       Answer    `json:"answer_text"`
	ThemeID      *uint     `json:"theme_id"`
	ThemeName    *string   `json:"theme_name"`
	CreatedBy    string    `json:"created_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type CreateQuizInput struct {
	QuizType     QuizType
	QuestionText string
	Answer       json.RawMessage
	ThemeID      *uint
}

// quizRow is a quiz joined with its theme name and, for default quizzes, its author.
type quizRow struct {
	ID           uint
	UserID       uint
	QuizType     string
	QuestionText string
	AnswerText   string
	ThemeID      *uint
	ThemeName    *string
	CreatedBy    *string
	CreatedAt    time.Time
}

const quizColumns = "q.id, q.user_id, q.quiz_type, q.question_text, q.answer_text, q.theme_id, q.created_at, t.name AS theme_name"

type QuizService struct {
	db *gorm.DB
}

func NewQuizService(database *gorm.DB) *QuizService {
	return &QuizService{db: database}
}

func (s *QuizService) Create(ctx context.Context, ownerID uint, in CreateQuizInput) (uint, error) {
	if in.QuizType == "" {
		return 0, validationError("missing required field: quiz_type")
	}
	if !in.QuizType.Valid() {
		return 0, validationError("invalid quiz type")
	}

	question := strings.TrimSpace(in.QuestionText)
	if question == "" {
		return 0, validationError("missing required field: question_text")
	}

	answer, err := ParseAnswer(in.QuizType, in.Answer)
	if err != nil {
		return 0, err
	}
	answerText, err := EncodeAnswer(answer)
	if err != nil {
		return 0, persistenceError("failed to encode answer", err)
	}

	quiz := &models.Quiz{
		UserID:       ownerID,
		QuizType:     string(in.QuizType),
		QuestionText: question,
		AnswerText:   answerText,
		ThemeID:      in.ThemeID,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if quiz.ThemeID != nil {
			exists, err := themeExists(tx, *quiz.ThemeID)
			if err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("theme %d does not exist", *quiz.ThemeID)
			}
		}
		return tx.Create(quiz).Error
	})
	if err != nil {
		log.Printf("Error creating quiz for user %d: %v", ownerID, err)
		return 0, classified("failed to create quiz", err)
	}

	return quiz.ID, nil
}

func (s *QuizService) baseQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("quizzes AS q").
		Select(quizColumns).
		Joins("LEFT JOIN themes t ON t.id = q.theme_id")
}

// ListOwned returns every quiz created by ownerID.
func (s *QuizService) ListOwned(ctx context.Context, ownerID uint) ([]Quiz, error) {
	var rows []quizRow
	err := s.baseQuery(ctx).Where("q.user_id = ?", ownerID).Order("q.id").Scan(&rows).Error
	if err != nil {
		return nil, persistenceError("failed to retrieve quizzes", err)
	}
	return toQuizzes(rows), nil
}

// ListDefault returns the quizzes authored by admins, shown to everyone as examples.
func (s *QuizService) ListDefault(ctx context.Context) ([]Quiz, error) {
	var rows []quizRow
	err := s.baseQuery(ctx).
		Select(quizColumns+", u.name AS created_by").
		Joins("JOIN users u ON u.id = q.user_id").
		Where("u.is_admin = ?", true).
		Order("q.id").
		Scan(&rows).Error
	if err != nil {
		return nil, persistenceError("failed to retrieve default quizzes", err)
	}
	return toQuizzes(rows), nil
}

// Get fetches a single quiz. Any authenticated caller may read any quiz.
func (s *QuizService) Get(ctx context.Context, quizID uint) (*Quiz, error) {
	var rows []quizRow
	err := s.baseQuery(ctx).Where("q.id = ?", quizID).Limit(1).Scan(&rows).Error
	if err != nil {
		return nil, persistenceError("failed to retrieve quiz", err)
	}
	if len(rows) == 0 {
		return nil, notFoundError("quiz not found")
	}

	quiz := toQuiz(rows[0])
	return &quiz, nil
}

func (s *QuizService) ListByTheme(ctx context.Context, themeID uint) ([]Quiz, error) {
	exists, err := themeExists(s.db.WithContext(ctx), themeID)
	if err != nil {
		return nil, persistenceError("failed to retrieve theme", err)
	}
	if !exists {
		return nil, notFoundError("theme not found")
	}

	var rows []quizRow
	err = s.baseQuery(ctx).Where("q.theme_id = ?", themeID).Order("q.id").Scan(&rows).Error
	if err != nil {
		return nil, persistenceError("failed to retrieve quizzes", err)
	}
	return toQuizzes(rows), nil
}

func toQuizzes(rows []quizRow) []Quiz {
	quizzes := make([]Quiz, 0, len(rows))
	for _, row := range rows {
		quizzes = append(quizzes, toQuiz(row))
	}
	return quizzes
}

func toQuiz(row quizRow) Quiz {
	quizType := QuizType(row.QuizType)
	quiz := Quiz{
		ID:           row.ID,
		UserID:       row.UserID,
		QuizType:     quizType,
		QuestionText: row.QuestionText,
		Answer:       DecodeAnswer(quizType, row.AnswerText),
		ThemeID:      row.ThemeID,
		ThemeName:    row.ThemeName,
		CreatedAt:    row.CreatedAt,
	}
	if row.CreatedBy != nil {
		quiz.CreatedBy = *row.CreatedBy
	}
	return quiz
}
