package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string   { return e.Message }
func (e *ValidationError) Error() string { return e.Message }

func (e *NotFoundError) StatusCode() int   { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }

func (e *NotFoundError) Is(target error) bool   { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrRateLimited  = errors.New("too many requests")
)

// ConflictError represents a resource conflict with details about the existing resource
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Type of resource (project, task, team)
	ResourceID   string // ID of the existing/conflicting resource
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return e.Message
}

// StatusCode implements the HTTPError interface
func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// AuthErrorCode classifies identity provider failures.
type AuthErrorCode string

const (
	AuthInvalidCredentials AuthErrorCode = "invalid_credentials"
	AuthTooManyAttempts    AuthErrorCode = "too_many_attempts"
	AuthAccountDisabled    AuthErrorCode = "account_disabled"
	AuthEmailInUse         AuthErrorCode = "email_in_use"
	AuthInvalidEmail       AuthErrorCode = "invalid_email"
	AuthWeakPassword       AuthErrorCode = "weak_password"
)

// AuthError is returned by login and registration. Message is safe to show
// to the end user.
type AuthError struct {
	Code    AuthErrorCode
	Message string
}

// NewAuthError builds an AuthError with the user-facing message for code.
func NewAuthError(code AuthErrorCode) *AuthError {
	return &AuthError{Code: code, Message: authMessages[code]}
}

var authMessages = map[AuthErrorCode]string{
	AuthInvalidCredentials: "Invalid email or password",
	AuthTooManyAttempts:    "Too many failed login attempts. Please try again later.",
	AuthAccountDisabled:    "This account has been disabled",
	AuthEmailInUse:         "Email is already in use",
	AuthInvalidEmail:       "Invalid email address",
	AuthWeakPassword:       "Password is too weak",
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// StatusCode implements the HTTPError interface
func (e *AuthError) StatusCode() int {
	switch e.Code {
	case AuthInvalidCredentials:
		return http.StatusUnauthorized
	case AuthTooManyAttempts:
		return http.StatusTooManyRequests
	case AuthAccountDisabled:
		return http.StatusForbidden
	case AuthEmailInUse:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// Is maps auth codes onto the generic sentinels
func (e *AuthError) Is(target error) bool {
	switch e.Code {
	case AuthInvalidCredentials:
		return target == ErrUnauthorized
	case AuthTooManyAttempts:
		return target == ErrRateLimited
	case AuthAccountDisabled:
		return target == ErrForbidden
	case AuthEmailInUse:
		return target == ErrConflict
	case AuthInvalidEmail, AuthWeakPassword:
		return target == ErrValidation
	}
	return false
}
