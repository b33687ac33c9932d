// Package errors defines the error type rendered to API clients.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is an error with a stable machine-readable code and the HTTP
// status it maps to. Internal never reaches clients.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

func (e *AppError) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.Internal != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	default:
		return e.Message
	}
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Internal
}

// Is matches any AppError carrying the same code, so copies made with
// WithInternal still satisfy errors.Is against the catalogue entry.
func (e *AppError) Is(target error) bool {
	var other *AppError
	if e == nil || !errors.As(target, &other) || other == nil {
		return false
	}
	return e.Code == other.Code
}

// WithInternal returns a copy of e carrying err as the hidden cause.
func (e *AppError) WithInternal(err error) *AppError {
	if e == nil {
		return nil
	}
	cpy := *e
	cpy.Internal = err
	return &cpy
}

// New builds an application error.
func New(code, message string, statusCode int) *AppError {
	return &AppError{Code: code, Message: message, StatusCode: statusCode}
}

var (
	ErrBadRequest         = New("BAD_REQUEST", "Invalid request", http.StatusBadRequest)
	ErrUnauthorized       = New("UNAUTHORIZED", "Authentication required", http.StatusUnauthorized)
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", "Invalid email or password", http.StatusUnauthorized)
	ErrForbidden          = New("FORBIDDEN", "Permission denied", http.StatusForbidden)
	ErrNotFound           = New("NOT_FOUND", "Resource not found", http.StatusNotFound)
	ErrConflict           = New("CONFLICT", "Resource already exists", http.StatusConflict)
	ErrPayloadTooLarge    = New("PAYLOAD_TOO_LARGE", "Request payload is too large", http.StatusRequestEntityTooLarge)
	ErrRateLimit          = New("RATE_LIMIT_EXCEEDED", "Too many requests, please slow down", http.StatusTooManyRequests)
	ErrInternalServer     = New("INTERNAL_SERVER_ERROR", "Internal server error", http.StatusInternalServerError)
	ErrUpstream           = New("UPSTREAM_ERROR", "Upstream service unavailable", http.StatusBadGateway)
	ErrServiceDisabled    = New("SERVICE_DISABLED", "Service is not configured", http.StatusServiceUnavailable)
)

// FromError returns the AppError inside err, or a 500 wrapping err.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalServer.WithInternal(err)
}

// NewUpstream reports a failed call to an external provider. The provider
// name is shown to clients; the cause stays internal.
func NewUpstream(provider string, err error) *AppError {
	return &AppError{
		Code:       ErrUpstream.Code,
		Message:    provider + " request failed",
		StatusCode: ErrUpstream.StatusCode,
		Internal:   err,
	}
}

// NewBadRequest is a 400 with a caller supplied message.
func NewBadRequest(message string) *AppError {
	cpy := *ErrBadRequest
	cpy.Message = message
	return &cpy
}
