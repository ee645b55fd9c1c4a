package util

import (
	"fmt"
	"regexp"
	"time"
)

var (
	emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	colorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

// ParseDate parses a YYYY-MM-DD string into a UTC midnight time.
func ParseDate(dateStr string) (time.Time, error) {
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}
	t, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %w", err)
	}
	return t.UTC(), nil
}

// ValidateEmail checks the basic shape of an email address.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is empty")
	}
	if len(email) > 255 || !emailRe.MatchString(email) {
		return fmt.Errorf("invalid email address")
	}
	return nil
}

// ValidateColor checks a #RRGGBB hex color.
func ValidateColor(color string) error {
	if !colorRe.MatchString(color) {
		return fmt.Errorf("color must be a #RRGGBB hex value")
	}
	return nil
}

// ValidateCategoryType allows the two known category types.
func ValidateCategoryType(t string) error {
	if t != "income" && t != "expense" {
		return fmt.Errorf("category_type must be income or expense")
	}
	return nil
}
