package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors
var (
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrMalformedResponse = errors.New("malformed response")
)

// APIError is a non-2xx response or an envelope with success=false.
// Message carries the backend's message field verbatim.
type APIError struct {
	Status  int
	Message string
	Method  string
	Path    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("API error: %s %s: HTTP %d - %s", e.Method, e.Path, e.Status, msg)
}

// StatusCode returns the HTTP status carried by err, or 0
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsUnauthorized reports whether err is a 401 from the backend
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 from the backend
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsClientError reports whether err is a 4xx from the backend
func IsClientError(err error) bool {
	status := StatusCode(err)
	return status >= 400 && status < 500
}

// Message returns the backend message for API errors and err.Error() otherwise
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
