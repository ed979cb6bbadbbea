package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/branchline/todotree/internal/apperrors"
	"github.com/branchline/todotree/internal/service"
	"github.com/branchline/todotree/internal/validation"
)

// AuthHandler handles signup, login, and account deletion.
type AuthHandler struct {
	users  *service.UserService
	logger *zap.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(users *service.UserService, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{users: users, logger: logger}
}

type signupRequest struct {
	FirstName       string `json:"first_name" validate:"required,max=50"`
	LastName        string `json:"last_name" validate:"required,max=50"`
	Username        string `json:"username" validate:"required,max=50"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password"`
}

// Signup creates an account and returns the new user with a fresh token.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondAppError(w, h.logger, apperrors.NewValidation("Request body must be valid JSON"))
		return
	}
	if err := validation.CheckStruct(req); err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	user, token, err := h.users.Signup(r.Context(), service.SignupInput{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Username:        req.Username,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"user":  user.Public(),
		"token": token,
	})
}

// Login exchanges HTTP Basic credentials for a bearer token. On a 401 the
// WWW-Authenticate challenge is set so browser clients re-prompt.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	username, password, _ := r.BasicAuth()

	token, err := h.users.Login(r.Context(), username, password)
	if err != nil {
		if apperrors.IsAuth(err) {
			w.Header().Set("WWW-Authenticate", `Basic realm="Login required"`)
		}
		respondAppError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"token": token})
}

// DeleteAccount removes the authenticated user and all their todos.
func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.users.DeleteAccount(r.Context(), user); err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "User successfully deleted.")
}
