package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log"

	"github.com/rbuysse/quizbox/internal/models"
	"gorm.io/gorm"
)

type APIKeyService struct {
	db *gorm.DB
}

func NewAPIKeyService(database *gorm.DB) *APIKeyService {
	return &APIKeyService{db: database}
}

// generateAPIKey returns 32 random bytes as unpadded URL-safe base64.
func generateAPIKey() (string, error) {
	keyBytes := make([]byte, 32)
	if _, err := rand.Read(keyBytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(keyBytes), nil
}

// createAPIKey inserts a fresh key for userID. It must run inside the caller's transaction.
func createAPIKey(tx *gorm.DB, userID uint) (*models.APIKey, error) {
	keyString, err := generateAPIKey()
	if err != nil {
		return nil, err
	}

	apiKey := &models.APIKey{
		Key:    keyString,
		UserID: userID,
	}
	if err := tx.Create(apiKey).Error; err != nil {
		return nil, err
	}

	return apiKey, nil
}

// Lookup resolves an API key to the id of its owner.
func (s *APIKeyService) Lookup(ctx context.Context, keyString string) (uint, error) {
	if keyString == "" {
		return 0, authError("invalid API key")
	}

	var apiKey models.APIKey
	err := s.db.WithContext(ctx).Where("api_key = ?", keyString).First(&apiKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, authError("invalid API key")
	}
	if err != nil {
		return 0, persistenceError("failed to look up API key", err)
	}

	return apiKey.UserID, nil
}

func (s *APIKeyService) Get(ctx context.Context, userID uint) (string, error) {
	var apiKey models.APIKey
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&apiKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", notFoundError("API key not found")
	}
	if err != nil {
		return "", persistenceError("failed to fetch API key", err)
	}

	return apiKey.Key, nil
}

// Rotate replaces the user's key in place, inserting one if the user has none.
// The previous key stops resolving as soon as the transaction commits.
func (s *APIKeyService) Rotate(ctx context.Context, userID uint) (string, error) {
	newKey, err := generateAPIKey()
	if err != nil {
		return "", persistenceError("failed to generate API key", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.APIKey{}).Where("user_id = ?", userID).Update("api_key", newKey)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			return nil
		}
		return tx.Create(&models.APIKey{UserID: userID, Key: newKey}).Error
	})
	if err != nil {
		log.Printf("Failed to refresh API key for user %d: %v", userID, err)
		return "", persistenceError("failed to refresh API key", err)
	}

	return newKey, nil
}
