package reddit

import (
	"errors"
	"fmt"
	"strings"
)

// HTTPError represents a non-2xx response from the platform.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}

// APIError carries the errors list of an api_type=json response.
type APIError struct {
	Errors [][]string
}

func (e *APIError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, item := range e.Errors {
		parts = append(parts, strings.Join(item, ": "))
	}
	return "reddit api error: " + strings.Join(parts, "; ")
}
