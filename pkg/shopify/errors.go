// Package shopify provides the authenticated Admin REST API client used by
// all provisioning steps.
package shopify

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard error classes for Admin API responses. Callers classify; the
// client itself never retries.
var (
	// ErrConflict indicates the target resource already exists. The Admin API
	// reports duplicate handles and topics as 422 and true conflicts as 409.
	ErrConflict = errors.New("resource already exists")

	// ErrUnauthorized indicates the access token was rejected.
	ErrUnauthorized = errors.New("authentication rejected")

	// ErrNotFound indicates the resource does not exist.
	ErrNotFound = errors.New("resource not found")
)

// APIError wraps any non-2xx Admin API response with the status code and
// the platform's error message.
type APIError struct {
	Status  int    // HTTP status code returned by the platform
	Path    string // Resource path of the failed request
	Message string // Error message extracted from the response body
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("shopify: %s returned %d: %s", e.Path, e.Status, e.Message)
	}

	return fmt.Sprintf("shopify: %s returned %d", e.Path, e.Status)
}

// Is maps status classes onto the sentinel errors so callers can use
// errors.Is without inspecting codes themselves.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrConflict:
		return e.Status == http.StatusConflict || e.Status == http.StatusUnprocessableEntity
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}

	return false
}

// IsConflict checks if an error indicates the resource already exists.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsUnauthorized checks if an error indicates the credentials were rejected.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsNotFound checks if an error indicates the resource does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
