package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rbuysse/quizbox/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService owns user accounts and their credentials.
type AuthService struct {
	db *gorm.DB

	// compared against when the email is unknown so both failures cost a bcrypt round
	dummyHash []byte
}

func NewAuthService(database *gorm.DB) *AuthService {
	dummyHash, _ := bcrypt.GenerateFromPassword([]byte("quizbox-no-such-user"), bcrypt.DefaultCost)
	return &AuthService{db: database, dummyHash: dummyHash}
}

// Register creates a regular user together with its API key.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*models.User, string, error) {
	return s.createUser(ctx, name, email, password, false)
}

// BootstrapAdmin creates the first admin. It fails with ErrConflict once any
// admin exists.
func (s *AuthService) BootstrapAdmin(ctx context.Context, name, email, password string) (*models.User, string, error) {
	return s.createUser(ctx, name, email, password, true)
}

func (s *AuthService) createUser(ctx context.Context, name, email, password string, admin bool) (*models.User, string, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return nil, "", validationError("missing required fields")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, "", validationError("password must be at most 72 bytes")
	}
	if err != nil {
		return nil, "", persistenceError("failed to hash password", err)
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
		IsAdmin:      admin,
	}

	var apiKey *models.APIKey
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if admin {
			exists, err := adminExists(tx)
			if err != nil {
				return err
			}
			if exists {
				return conflictError("admin already exists")
			}
		}

		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return conflictError("email already registered")
		}

		if err := tx.Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				if admin {
					return conflictError("admin already exists")
				}
				return conflictError("email already registered")
			}
			return err
		}

		var err error
		apiKey, err = createAPIKey(tx, user.ID)
		return err
	})
	if err != nil {
		return nil, "", classified("failed to create user", err)
	}

	return user, apiKey.Key, nil
}

func adminExists(tx *gorm.DB) (bool, error) {
	var count int64
	if err := tx.Model(&models.User{}).Where("is_admin = ?", true).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// NeedsSetup reports whether no admin has been created yet.
func (s *AuthService) NeedsSetup(ctx context.Context) (bool, error) {
	exists, err := adminExists(s.db.WithContext(ctx))
	if err != nil {
		return false, persistenceError("failed to check setup status", err)
	}
	return !exists, nil
}

func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, validationError("missing email or password")
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, authError("invalid email or password")
	}
	if err != nil {
		return nil, persistenceError("failed to look up user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, authError("invalid email or password")
	}

	return &user, nil
}

func (s *AuthService) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("user not found")
	}
	if err != nil {
		return nil, persistenceError("failed to fetch user", err)
	}
	return &user, nil
}
