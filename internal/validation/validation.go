// Package validation holds the local input checks run before any form is
// submitted to the backend.
package validation

import (
	stderrors "errors"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/felixgeelhaar/memorymap/internal/errors"
)

var (
	// Whitespace includes \v, Unicode separators and the BOM.
	emailPattern    = regexp.MustCompile(`^[^\s\v\p{Z}\x{FEFF}@]+@[^\s\v\p{Z}\x{FEFF}@]+\.[^\s\v\p{Z}\x{FEFF}@]+$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,20}$`)

	alphanumeric = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	hasLower     = regexp.MustCompile(`[a-z]`)
	hasUpper     = regexp.MustCompile(`[A-Z]`)
	hasDigit     = regexp.MustCompile(`[0-9]`)
)

const (
	msgEmail    = "must be a valid email address"
	msgUsername = "must be 3-20 letters, numbers, underscores or hyphens"
	msgPassword = "must be at least 8 letters and numbers, with an uppercase letter, a lowercase letter and a number"
	msgMismatch = "passwords do not match"
)

// EmailRules validate an email address.
func EmailRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.Match(emailPattern).Error(msgEmail),
	}
}

// UsernameRules validate a username.
func UsernameRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.Match(usernamePattern).Error(msgUsername),
	}
}

// PasswordRules validate a new password.
func PasswordRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.Length(8, 0).Error(msgPassword),
		validation.Match(alphanumeric).Error(msgPassword),
		validation.Match(hasLower).Error(msgPassword),
		validation.Match(hasUpper).Error(msgPassword),
		validation.Match(hasDigit).Error(msgPassword),
	}
}

// Email checks s against EmailRules.
func Email(s string) error { return validation.Validate(s, EmailRules()...) }

// Username checks s against UsernameRules.
func Username(s string) error { return validation.Validate(s, UsernameRules()...) }

// Password checks s against PasswordRules.
func Password(s string) error { return validation.Validate(s, PasswordRules()...) }

// ValidateEmail reports whether s looks like an email address.
func ValidateEmail(s string) bool { return Email(s) == nil }

// ValidatePassword reports whether s is an acceptable password: at least eight
// characters, only letters and digits, with at least one lowercase letter, one
// uppercase letter and one digit.
func ValidatePassword(s string) bool { return Password(s) == nil }

// ValidateUsername reports whether s is 3 to 20 characters of letters, digits,
// underscores and hyphens.
func ValidateUsername(s string) bool { return Username(s) == nil }

// Equals fails unless the value equals other.
func Equals(other string) validation.Rule {
	return validation.By(func(value interface{}) error {
		s, _ := value.(string)
		if s != other {
			return stderrors.New(msgMismatch)
		}
		return nil
	})
}

// Check runs v.Validate and wraps a failure as a coded validation error.
func Check(v validation.Validatable) error {
	if err := v.Validate(); err != nil {
		return errors.NewValidationError(err.Error())
	}
	return nil
}
