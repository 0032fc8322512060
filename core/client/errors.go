package client

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnreachable is wrapped by every transport-level failure.
var ErrUnreachable = errors.New("error connecting to server")

// APIError represents a non-2xx response from the inventory service.
type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("inventory API error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("inventory API error (status %d): %s", e.StatusCode, e.Body)
}

// IsNotFound returns true if the error is a 404 Not Found error.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsConflict returns true if the error is a 409 Conflict error.
func IsConflict(err error) bool {
	return hasStatus(err, http.StatusConflict)
}

// IsUnauthorized returns true if the error is a 401 Unauthorized error.
// Callers treat it as an expired session.
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

// IsUnreachable returns true if the service could not be reached at all.
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrUnreachable)
}

// IsRetryable returns true for rate limiting and server-side failures.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	return false
}

// Message returns the user-facing message of an error: the service's own message
// for API errors, the connectivity message for transport failures.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if IsUnreachable(err) {
		return ErrUnreachable.Error()
	}
	return err.Error()
}

func hasStatus(err error, status int) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == status
	}
	return false
}
