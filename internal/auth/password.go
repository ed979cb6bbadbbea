package auth

import (
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/branchline/todotree/internal/apperrors"
)

const (
	// MinPasswordLength is the minimum accepted password length.
	MinPasswordLength = 8
	// MaxPasswordLength is the maximum accepted password length.
	MaxPasswordLength = 50
)

const weakPasswordMessage = "Password must contain at least one capital letter and at least one digit and must not contain spaces"

// ValidatePassword enforces the account password policy: present, at most
// 50 characters, at least 8, with at least one capital letter, at least one
// digit, and no whitespace.
func ValidatePassword(plaintext string) error {
	if plaintext == "" {
		return apperrors.NewValidation("Your user needs a password")
	}
	if len([]rune(plaintext)) > MaxPasswordLength {
		return apperrors.NewValidation("Your password must be 50 characters or fewer")
	}
	if len([]rune(plaintext)) < MinPasswordLength {
		return apperrors.NewValidation("Password must be at least 8 characters long")
	}
	var hasUpper, hasDigit bool
	for _, r := range plaintext {
		switch {
		case unicode.IsSpace(r):
			return apperrors.NewValidation(weakPasswordMessage)
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper || !hasDigit {
		return apperrors.NewValidation(weakPasswordMessage)
	}
	return nil
}

// HashPassword validates the plaintext against the password policy and
// returns its bcrypt hash. The plaintext is never persisted.
func HashPassword(plaintext string) (string, error) {
	if err := ValidatePassword(plaintext); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext matches the stored hash.
func CheckPassword(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
