package browserhost

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrMissingAPIKey    = errors.New("browserhost: api key is required")
	ErrMissingProjectID = errors.New("browserhost: project id is required")
	ErrAPI              = errors.New("browserhost: api error")
	ErrInvalidResponse  = errors.New("browserhost: invalid response")
)

// APIError is a non-2xx answer from the hosting API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("browserhost: api error: status %d: %s", e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error { return ErrAPI }

// Retryable reports whether the request may succeed if repeated.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}
