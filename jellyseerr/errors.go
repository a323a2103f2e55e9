package jellyseerr

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrInvalidConfig indicates invalid client configuration
	ErrInvalidConfig = errors.New("invalid jellyseerr configuration")
	// ErrUnauthorized indicates authentication failure
	ErrUnauthorized = errors.New("unauthorized: invalid API key")
	// ErrNoMatch indicates a search returned no usable movie
	ErrNoMatch = errors.New("no matching movie found")
	// ErrCircuitOpen indicates calls are being short-circuited after repeated failures
	ErrCircuitOpen = errors.New("jellyseerr unavailable: circuit open")
)

// APIError represents a Jellyseerr API error
type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("jellyseerr API error: status %d: %s", e.StatusCode, e.Message)
}

// IsServerError checks if the error was caused by the service rather than the request
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}

// AuthError indicates the service rejected the configured API key
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("jellyseerr rejected API key (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("jellyseerr rejected API key (status %d)", e.StatusCode)
}

// Unwrap allows errors.Is(err, ErrUnauthorized)
func (e *AuthError) Unwrap() error {
	return ErrUnauthorized
}

// IsAuthError reports whether err is, or wraps, an *AuthError
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}
