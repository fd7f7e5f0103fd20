package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a request the backend rejected: an HTTP status plus the
// server-provided message when the response body carried one.
// Transport failures (no response at all) are returned as plain wrapped
// errors, not *Error.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend: %d %s: %s", e.Status, http.StatusText(e.Status), e.Message)
	}
	return fmt.Sprintf("backend: %d %s", e.Status, http.StatusText(e.Status))
}

// StatusOf returns the HTTP status carried by err, or 0 for transport
// failures and non-backend errors.
func StatusOf(err error) int {
	var be *Error
	if errors.As(err, &be) {
		return be.Status
	}
	return 0
}

// UserMessage returns the text a notification should show for err: the
// server-provided message when present, otherwise the caller's fallback.
func UserMessage(err error, fallback string) string {
	var be *Error
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	return fallback
}
