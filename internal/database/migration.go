package database

import (
	"fmt"

	"fintrack/internal/models"

	"gorm.io/gorm"
)

// AutoMigrate runs database schema migrations for all models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Account{},
		&models.Transaction{},
		&models.Category{},
		&models.Budget{},
		&models.PlaidItem{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

type defaultCategory struct {
	Name  string
	Type  string
	Color string
	Icon  string
}

var defaultCategories = []defaultCategory{
	{"Groceries", "expense", "#4caf50", "shopping-cart"},
	{"Dining", "expense", "#ff9800", "utensils"},
	{"Transportation", "expense", "#2196f3", "car"},
	{"Housing", "expense", "#795548", "home"},
	{"Utilities", "expense", "#607d8b", "bolt"},
	{"Entertainment", "expense", "#9c27b0", "film"},
	{"Healthcare", "expense", "#f44336", "heart"},
	{"Shopping", "expense", "#e91e63", "bag"},
	{"Travel", "expense", "#00bcd4", "plane"},
	{"Salary", "income", "#8bc34a", "briefcase"},
	{"Other", "expense", "#9e9e9e", "dots"},
}

// SeedDefaultCategories inserts the shared system categories. Idempotent:
// existing defaults are left untouched.
func SeedDefaultCategories(db *gorm.DB) error {
	for _, dc := range defaultCategories {
		icon := dc.Icon
		cat := models.Category{
			Name:         dc.Name,
			CategoryType: dc.Type,
			Color:        dc.Color,
			Icon:         &icon,
			IsDefault:    true,
		}
		err := db.Where("name = ? AND is_default = ?", dc.Name, true).
			FirstOrCreate(&cat).Error
		if err != nil {
			return fmt.Errorf("seed category %q: %w", dc.Name, err)
		}
	}
	return nil
}
