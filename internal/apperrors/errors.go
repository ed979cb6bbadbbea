// Package apperrors defines the error taxonomy shared by the service and
// handler layers. Every user-facing failure is one of four kinds, each of
// which maps to exactly one HTTP status at the handler boundary.
package apperrors

import "errors"

// ValidationError indicates caller-supplied data violated a field or
// structural constraint (length, presence, uniqueness, self-parent, cycle).
// Surfaced as 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidation creates a ValidationError with the given user-facing message.
func NewValidation(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// NotFoundError indicates a referenced entity does not exist or was deleted
// concurrently. Surfaced as 404.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// NewNotFound creates a NotFoundError with the given user-facing message.
func NewNotFound(message string) *NotFoundError {
	return &NotFoundError{Message: message}
}

// BadParameterError indicates a route parameter failed syntactic validation.
// Surfaced as 400, distinct from ValidationError so callers can tell a
// malformed URL from malformed body data.
type BadParameterError struct {
	Message string
}

func (e *BadParameterError) Error() string { return e.Message }

// NewBadParameter creates a BadParameterError with the given message.
func NewBadParameter(message string) *BadParameterError {
	return &BadParameterError{Message: message}
}

// AuthError indicates a missing, expired, or invalid credential. Surfaced
// as 401.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// NewAuth creates an AuthError with the given user-facing message.
func NewAuth(message string) *AuthError {
	return &AuthError{Message: message}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsBadParameter reports whether err is (or wraps) a BadParameterError.
func IsBadParameter(err error) bool {
	var bp *BadParameterError
	return errors.As(err, &bp)
}

// IsAuth reports whether err is (or wraps) an AuthError.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}
