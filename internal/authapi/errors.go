package authapi

import (
	"errors"
	"fmt"
)

// Error is a non-2xx answer from the API.
type Error struct {
	Status int
	Detail string
	Fields map[string]string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("auth api: status %d", e.Status)
	}
	return e.Detail
}

// Message picks the text to show for err: the server detail when there is
// one, otherwise fallback.
func Message(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}

// StatusCode returns the HTTP status of an API error, or 0 for transport
// failures.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
