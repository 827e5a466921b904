package llm

import (
	"errors"
	"fmt"
)

// ErrConfiguration is returned before any request is made when no model is
// selected or no access token is configured. It is never wrapped in APIError.
var ErrConfiguration = errors.New("Missing model configuration. Please set up your model ID and API token.")

// Response-shape errors, checked in this order.
var (
	ErrEmptyResponse        = errors.New("API returned empty response")
	ErrMissingChoices       = errors.New("API response missing choices array or empty choices")
	ErrMissingMessage       = errors.New("API response missing message in first choice")
	ErrInvalidContentFormat = errors.New("API response has invalid message content format")
	ErrMissingText          = errors.New("API response content missing text or text is not a string")
)

// HTTPError is a non-2xx response from the completion service.
type HTTPError struct {
	StatusCode int
	StatusText string
	// Message is the server-provided message, empty when the body had none.
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%d - %s", e.StatusCode, e.StatusText)
}

// APIError is the single outward-facing error for a failed completion.
// Use errors.Is / errors.As to reach the underlying kind.
type APIError struct {
	Err error
}

func (e *APIError) Error() string {
	return "API Error: " + e.Err.Error()
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// wrapAPIError converts internal failures into an APIError. Configuration
// errors and errors that are already APIErrors pass through unchanged.
func wrapAPIError(err error) error {
	if err == nil || errors.Is(err, ErrConfiguration) {
		return err
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return err
	}
	return &APIError{Err: err}
}
