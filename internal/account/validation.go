package account

import (
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/feral-file/carbon-marketplace/internal/domain"
)

var validate = validator.New()

// ValidatePassword enforces the password strength policy
func ValidatePassword(password string) error {
	if len(password) < domain.MinPasswordLength {
		return domain.NewValidationError("password must be at least %d characters long", domain.MinPasswordLength)
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(domain.PasswordSpecialCharacters, r):
			special = true
		}
	}

	switch {
	case !upper:
		return domain.NewValidationError("password must contain at least one uppercase letter")
	case !lower:
		return domain.NewValidationError("password must contain at least one lowercase letter")
	case !digit:
		return domain.NewValidationError("password must contain at least one digit")
	case !special:
		return domain.NewValidationError("password must contain at least one special character (%s)", domain.PasswordSpecialCharacters)
	}

	return nil
}

// NormalizeEmail trims and lower-cases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks the address format
func ValidateEmail(email string) error {
	if err := validate.Var(email, "required,email"); err != nil {
		return domain.NewValidationError("invalid email: %s", email)
	}
	return nil
}
