package feedclient

import (
	"fmt"
	"net/http"
)

// Error codes returned by the feed API.
const (
	CodeUnauthorized = "UNAUTHORIZED"
	CodeBadRequest   = "BAD_REQUEST"
	CodeUnavailable  = "UNAVAILABLE"
	CodeInternal     = "INTERNAL"
)

// APIError represents an error response from the feed API.
type APIError struct {
	StatusCode int    `json:"status"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("feed api %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("feed api %d: %s", e.StatusCode, e.Message)
}

// IsAuthError returns true if the request was rejected for its credentials.
func (e *APIError) IsAuthError() bool {
	return e.Code == CodeUnauthorized || e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// Temporary returns true if retrying the same request may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}
