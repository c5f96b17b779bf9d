package models

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey"`
	Name         string    `gorm:"not null"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	IsAdmin      bool      `gorm:"not null;default:false;uniqueIndex:idx_users_bootstrap_admin,where:is_admin"` // one admin at most
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

type APIKey struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"uniqueIndex;not null"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Key       string    `gorm:"column:api_key;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

type Theme struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"not null"`
	Description string
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

// Quiz is the stored row. AnswerText holds either the raw answer or, for
// multiple choice quizzes, the canonical JSON encoding of the choice object.
type Quiz struct {
	ID           uint      `gorm:"primaryKey"`
	UserID       uint      `gorm:"not null;index"`
	User         User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	QuizType     string    `gorm:"size:20;not null"`
	QuestionText string    `gorm:"type:text;not null"`
	AnswerText   string    `gorm:"type:text;not null"`
	ThemeID      *uint     `gorm:"index"`
	Theme        *Theme    `gorm:"foreignKey:ThemeID"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

type Session struct {
	ID        string    `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;index"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// All lists every model in migration order.
func All() []interface{} {
	return []interface{}{&User{}, &Theme{}, &APIKey{}, &Quiz{}, &Session{}}
}
