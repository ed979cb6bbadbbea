package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/branchline/todotree/internal/apperrors"
	"github.com/branchline/todotree/internal/models"
	"github.com/branchline/todotree/internal/request"
)

// requireUser returns the identity resolved by the auth middleware. A nil
// user means the route was wired without that middleware; respond as an
// auth failure rather than dereferencing.
func requireUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user := request.User(r)
	if user == nil {
		respondErrorMessage(w, http.StatusUnauthorized, "Token is missing")
		return nil, false
	}
	return user, true
}

// respondJSON writes data as the JSON response body.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondErrorMessage writes a formatted error body: a JSON string of the
// form "Error: <message>.".
func respondErrorMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, fmt.Sprintf("Error: %s.", message))
}

// respondAppError maps a service error onto an HTTP status and the
// formatted error body. Unclassified errors are logged and surface as a
// generic 500 so internals never leak to clients.
func respondAppError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case apperrors.IsValidation(err), apperrors.IsBadParameter(err):
		respondErrorMessage(w, http.StatusBadRequest, err.Error())
	case apperrors.IsNotFound(err):
		respondErrorMessage(w, http.StatusNotFound, err.Error())
	case apperrors.IsAuth(err):
		respondErrorMessage(w, http.StatusUnauthorized, err.Error())
	default:
		log.Error("unhandled_error", zap.Error(err))
		respondErrorMessage(w, http.StatusInternalServerError, "Something went wrong")
	}
}
