// Package storefront consumes the platform-provided cart endpoints. The
// request and response shapes are dictated by the platform and accepted as
// given; prices are integer minor units throughout.
package storefront

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard domain errors.
var (
	ErrCartUnavailable = errors.New("cart endpoint temporarily unavailable")
	ErrRateLimited     = errors.New("cart API rate limit exceeded")
	ErrLineNotFound    = errors.New("cart line not found")
	ErrNotAvailable    = errors.New("item not available for purchase")
	ErrInvalidRequest  = errors.New("invalid cart request")
)

// APIError is a structured error from a cart endpoint. The platform reports
// business failures as 422 with a JSON body; transport failures surface as
// plain HTTP statuses.
type APIError struct {
	StatusCode  int    `json:"-"`
	Status      string `json:"status"`
	Message     string `json:"message"`
	Description string `json:"description"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("storefront [%d]: %s: %s", e.StatusCode, e.Message, e.Description)
	}
	return fmt.Sprintf("storefront [%d]: %s", e.StatusCode, e.Message)
}

// Is implements errors.Is for APIError.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrCartUnavailable:
		return e.StatusCode >= 500
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	case ErrLineNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrNotAvailable, ErrInvalidRequest:
		return e.StatusCode == http.StatusUnprocessableEntity
	default:
		return false
	}
}

// NewAPIError creates an APIError for a bare HTTP status.
func NewAPIError(statusCode int, message string) *APIError {
	return &APIError{StatusCode: statusCode, Message: message}
}
