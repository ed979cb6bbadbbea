package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/branchline/todotree/internal/apperrors"
	"github.com/branchline/todotree/internal/auth"
	"github.com/branchline/todotree/internal/database"
	"github.com/branchline/todotree/internal/models"
)

// UserService implements signup, login, identity resolution, and account
// deletion over a UserStore.
type UserService struct {
	users  database.UserStore
	tokens *auth.TokenIssuer
	logger *zap.Logger
}

// NewUserService creates a UserService.
func NewUserService(users database.UserStore, tokens *auth.TokenIssuer, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, tokens: tokens, logger: logger}
}

// SignupInput carries the fields of a signup request.
type SignupInput struct {
	FirstName       string
	LastName        string
	Username        string
	Password        string
	ConfirmPassword string
}

// Signup validates the account fields and password policy, creates the
// user with a freshly generated public id, and issues a token for it.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, string, error) {
	if in.Password != "" && in.Password != in.ConfirmPassword {
		return nil, "", apperrors.NewValidation("Passwords must match")
	}

	if in.Username != "" {
		if _, err := s.users.GetByUsername(ctx, in.Username); err == nil {
			return nil, "", apperrors.NewValidation("Username is already taken")
		} else if !errors.Is(err, database.ErrNotFound) {
			return nil, "", err
		}
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, "", err
	}

	user, err := models.NewUser(uuid.NewString(), in.FirstName, in.LastName, in.Username, hash)
	if err != nil {
		return nil, "", err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, "", apperrors.NewValidation("Username is already taken")
		}
		return nil, "", err
	}

	token, err := s.tokens.Issue(user.PublicID)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("user_signed_up", zap.String("public_id", user.PublicID))
	return user, token, nil
}

// Login verifies Basic credentials and issues a token. A missing username
// or password is an auth failure; an unknown username is a not-found, so a
// client can tell a typo'd account from a wrong password.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", apperrors.NewAuth("Username and password required")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return "", apperrors.NewNotFound("User not found")
		}
		return "", err
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return "", apperrors.NewAuth("Incorrect password")
	}

	return s.tokens.Issue(user.PublicID)
}

// Resolve looks up the account behind a verified token subject. A deleted
// account resolves to not-found rather than an auth failure: the credential
// was valid at issuance, its subject just no longer exists.
func (s *UserService) Resolve(ctx context.Context, publicID string) (*models.User, error) {
	user, err := s.users.GetByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperrors.NewNotFound("User not found")
		}
		return nil, err
	}
	return user, nil
}

// DeleteAccount removes the user and, transitively, every todo they own.
func (s *UserService) DeleteAccount(ctx context.Context, user *models.User) error {
	if err := s.users.Delete(ctx, user.ID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return apperrors.NewNotFound("User not found")
		}
		return err
	}
	s.logger.Info("user_deleted", zap.String("public_id", user.PublicID))
	return nil
}
