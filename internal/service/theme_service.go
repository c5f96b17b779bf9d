package service

import (
	"context"
	"strings"

	"github.com/rbuysse/quizbox/internal/models"
	"gorm.io/gorm"
)

type Theme struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var defaultThemes = []Theme{
	{Name: "Python Basics", Description: "Basic Python concepts and syntax"},
	{Name: "Data Structures", Description: "Python data structures and their usage"},
	{Name: "Functions", Description: "Function definitions and usage"},
	{Name: "Object-Oriented Programming", Description: "Classes and objects in Python"},
	{Name: "Error Handling", Description: "Exception handling and debugging"},
	{Name: "File Operations", Description: "Working with files in Python"},
	{Name: "Modules and Packages", Description: "Importing and using Python modules"},
	{Name: "Web Development", Description: "Python web frameworks and concepts"},
}

type ThemeService struct {
	db *gorm.DB
}

func NewThemeService(database *gorm.DB) *ThemeService {
	return &ThemeService{db: database}
}

func (s *ThemeService) List(ctx context.Context) ([]Theme, error) {
	var rows []models.Theme
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, persistenceError("failed to fetch themes", err)
	}

	themes := make([]Theme, 0, len(rows))
	for _, row := range rows {
		themes = append(themes, toTheme(row))
	}
	return themes, nil
}

func (s *ThemeService) Exists(ctx context.Context, themeID uint) (bool, error) {
	return themeExists(s.db.WithContext(ctx), themeID)
}

func themeExists(tx *gorm.DB, themeID uint) (bool, error) {
	var count int64
	if err := tx.Model(&models.Theme{}).Where("id = ?", themeID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *ThemeService) Create(ctx context.Context, name, description string) (*Theme, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("missing required field: name")
	}

	row := models.Theme{Name: name, Description: strings.TrimSpace(description)}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, persistenceError("failed to create theme", err)
	}

	theme := toTheme(row)
	return &theme, nil
}

// SeedDefaults inserts the stock themes into an empty catalog.
func (s *ThemeService) SeedDefaults(ctx context.Context) (int, error) {
	inserted := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Theme{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		rows := make([]models.Theme, 0, len(defaultThemes))
		for _, theme := range defaultThemes {
			rows = append(rows, models.Theme{Name: theme.Name, Description: theme.Description})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		inserted = len(rows)
		return nil
	})
	if err != nil {
		return 0, persistenceError("failed to seed themes", err)
	}
	return inserted, nil
}

func toTheme(row models.Theme) Theme {
	return Theme{ID: row.ID, Name: row.Name, Description: row.Description}
}
