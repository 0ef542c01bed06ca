// Package validation provides input validation utilities
package validation

import (
	"regexp"
	"strings"
	"unicode"

	"careline/internal/models"
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	codeRegex     = regexp.MustCompile(`^[A-Za-z0-9]{8}$`)
)

// NormalizeEmail trims and lower-cases an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeUsername trims and lower-cases a login handle. Handles are stored
// in this form so the unique index also rejects case variants.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// ValidatePassword checks if a password meets security requirements
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return models.NewValidationError("password must be at least 8 characters long")
	}

	// bcrypt ignores everything past 72 bytes.
	if len(password) > 72 {
		return models.NewValidationError("password must not exceed 72 characters")
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper {
		return models.NewValidationError("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return models.NewValidationError("password must contain at least one lowercase letter")
	}
	if !hasDigit {
		return models.NewValidationError("password must contain at least one digit")
	}
	return nil
}

// ValidateUsername checks if a username meets requirements
func ValidateUsername(username string) error {
	if len(username) < 3 {
		return models.NewValidationError("username must be at least 3 characters long")
	}

	if len(username) > 30 {
		return models.NewValidationError("username must not exceed 30 characters")
	}

	if !usernameRegex.MatchString(username) {
		return models.NewValidationError("username can only contain letters, numbers, dots, underscores, and hyphens")
	}

	first, last := username[0], username[len(username)-1]
	if strings.ContainsRune("._-", rune(first)) || strings.ContainsRune("._-", rune(last)) {
		return models.NewValidationError("username must start and end with a letter or number")
	}

	return nil
}

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if email == "" {
		return models.NewValidationError("email is required")
	}
	if len(email) > 254 {
		return models.NewValidationError("email must not exceed 254 characters")
	}
	if !emailRegex.MatchString(email) {
		return models.NewValidationError("invalid email format")
	}
	return nil
}

// ValidateName checks a given or family name.
func ValidateName(field, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return models.NewValidationError(field + " is required")
	}
	if len(value) > 100 {
		return models.NewValidationError(field + " must not exceed 100 characters")
	}
	return nil
}

// ValidateActivationCode checks the shape of an activation code before any
// hash comparison is attempted.
func ValidateActivationCode(code string) error {
	if !codeRegex.MatchString(code) {
		return models.NewValidationError("activation code must be 8 letters or digits")
	}
	return nil
}
