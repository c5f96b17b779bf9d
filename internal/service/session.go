package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/rbuysse/quizbox/internal/models"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const SessionTTL = 30 * 24 * time.Hour

// SessionStore keeps server-side login state keyed by an opaque token.
type SessionStore interface {
	Create(ctx context.Context, userID uint) (*models.Session, error)
	Resolve(ctx context.Context, token string) (uint, error)
	Delete(ctx context.Context, token string) error
}

func generateSessionID() (string, error) {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// DBSessionStore keeps sessions in the sessions table.
type DBSessionStore struct {
	db *gorm.DB
}

func NewDBSessionStore(database *gorm.DB) *DBSessionStore {
	return &DBSessionStore{db: database}
}

func (s *DBSessionStore) Create(ctx context.Context, userID uint) (*models.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, persistenceError("failed to create session", err)
	}

	session := &models.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: time.Now().Add(SessionTTL),
	}

	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, persistenceError("failed to create session", err)
	}

	return session, nil
}

func (s *DBSessionStore) Resolve(ctx context.Context, token string) (uint, error) {
	if token == "" {
		return 0, authError("login required")
	}

	var session models.Session
	err := s.db.WithContext(ctx).Where("id = ? AND expires_at > ?", token, time.Now()).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, authError("invalid or expired session")
	}
	if err != nil {
		return 0, persistenceError("failed to look up session", err)
	}

	return session.UserID, nil
}

func (s *DBSessionStore) Delete(ctx context.Context, token string) error {
	if err := s.db.WithContext(ctx).Where("id = ?", token).Delete(&models.Session{}).Error; err != nil {
		return persistenceError("failed to delete session", err)
	}
	return nil
}

func (s *DBSessionStore) CleanupExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Where("expires_at < ?", time.Now()).Delete(&models.Session{})
	return result.RowsAffected, result.Error
}

// RedisSessionStore keeps sessions as expiring redis keys.
type RedisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func redisSessionKey(token string) string {
	return fmt.Sprintf("quizbox:session:%s", token)
}

func (s *RedisSessionStore) Create(ctx context.Context, userID uint) (*models.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, persistenceError("failed to create session", err)
	}

	now := time.Now()
	if err := s.client.Set(ctx, redisSessionKey(sessionID), userID, SessionTTL).Err(); err != nil {
		return nil, persistenceError("failed to create session", err)
	}

	return &models.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: now.Add(SessionTTL),
		CreatedAt: now,
	}, nil
}

func (s *RedisSessionStore) Resolve(ctx context.Context, token string) (uint, error) {
	if token == "" {
		return 0, authError("login required")
	}

	userID, err := s.client.Get(ctx, redisSessionKey(token)).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, authError("invalid or expired session")
	}
	if err != nil {
		return 0, persistenceError("failed to look up session", err)
	}

	return uint(userID), nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, redisSessionKey(token)).Err(); err != nil {
		return persistenceError("failed to delete session", err)
	}
	return nil
}
