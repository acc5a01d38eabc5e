package directus

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Common errors
var (
	// ErrInvalidConfig indicates invalid client configuration
	ErrInvalidConfig = errors.New("invalid directus configuration")
	// ErrNoConnection indicates connection failure
	ErrNoConnection = errors.New("failed to connect to directus")
)

// Error is returned by every Client operation. Message is safe to show to a user.
type Error struct {
	Op         string
	Message    string
	StatusCode int // 0 for transport failures
	Err        error
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// APIError represents a non-2xx response from the Directus API
type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("directus API error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("directus API error: status %d: %s", e.StatusCode, e.Message)
}

// IsNotFound checks if the error indicates a not found response
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized checks if the error indicates an authentication failure
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// errorEnvelope is the error body Directus sends on failure
type errorEnvelope struct {
	Errors []struct {
		Message    string         `json:"message"`
		Extensions map[string]any `json:"extensions,omitempty"`
	} `json:"errors"`
}

// firstErrorMessage returns the first structured error message in body, if any
func firstErrorMessage(body []byte) string {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	for _, e := range env.Errors {
		if e.Message != "" {
			return e.Message
		}
	}
	return ""
}

// DisplayMessage returns the user-facing message carried by err.
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return err.Error()
}

// IsUnauthorized reports whether err came from a 401 or 403 response.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsUnauthorized()
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// WithFallback relabels err for op. The server's own message is kept when it
// sent one; otherwise fallback becomes the display message.
func WithFallback(err error, op, fallback string) error {
	if err == nil {
		return nil
	}
	message := fallback
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		message = apiErr.Message
	}
	return &Error{Op: op, Message: message, StatusCode: StatusCode(err), Err: err}
}

// WithMessage relabels err for op with a fixed display message, hiding any
// server detail from the user. The cause stays reachable through Unwrap.
func WithMessage(err error, op, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Message: message, StatusCode: StatusCode(err), Err: err}
}
