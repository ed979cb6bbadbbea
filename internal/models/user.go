package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/branchline/todotree/internal/apperrors"
)

// MaxUserFieldLength is the maximum length for user name fields.
const MaxUserFieldLength = 50

// User is an account holder. ID is the internal surrogate key and is never
// exposed externally; PublicID is the stable external identity used as the
// subject of issued tokens. PasswordHash holds a one-way bcrypt hash; the
// plaintext is never stored.
type User struct {
	ID           int64     `json:"-"`
	PublicID     string    `json:"public_id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUser constructs a validated User. The caller supplies an
// already-hashed credential; password policy lives in the auth package
// where the plaintext is handled.
func NewUser(publicID, firstName, lastName, username, passwordHash string) (*User, error) {
	for field, value := range map[string]string{
		"first_name": firstName,
		"last_name":  lastName,
		"username":   username,
	} {
		if err := ValidateUserField(field, value); err != nil {
			return nil, err
		}
	}
	return &User{
		PublicID:     publicID,
		FirstName:    firstName,
		LastName:     lastName,
		Username:     username,
		PasswordHash: passwordHash,
	}, nil
}

// ValidateUserField checks presence and length of a required user field.
// Field names use snake_case and are rewritten for the user-facing message
// ("first_name" reads as "first name").
func ValidateUserField(field, value string) error {
	nice := strings.ReplaceAll(field, "_", " ")
	if value == "" {
		return apperrors.NewValidation(fmt.Sprintf("Your user needs a %s", nice))
	}
	if len([]rune(value)) > MaxUserFieldLength {
		return apperrors.NewValidation(fmt.Sprintf("Your %s must be %d characters or fewer", nice, MaxUserFieldLength))
	}
	return nil
}

// Public projects the user into the externally visible shape. The internal
// id and credential hash never appear here.
func (u *User) Public() map[string]any {
	return map[string]any{
		"public_id":  u.PublicID,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"username":   u.Username,
	}
}
