// Package problem renders RFC 7807 Problem Details responses. Every
// error body the portal emits, from the server core or a module route,
// goes through here so clients see one shape.
package problem

import (
	"encoding/json"
	"net/http"
	"strings"
)

const typePrefix = "https://campushub.dev/problems/"

// Problem type URIs for the statuses the portal commonly returns.
const (
	TypeBadRequest   = typePrefix + "bad-request"
	TypeUnauthorized = typePrefix + "unauthorized"
	TypeForbidden    = typePrefix + "forbidden"
	TypeNotFound     = typePrefix + "not-found"
	TypeConflict     = typePrefix + "conflict"
	TypeRateLimited  = typePrefix + "rate-limited"
	TypeInternal     = typePrefix + "internal-error"
)

// Problem represents an RFC 7807 Problem Details response.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// Write writes an RFC 7807 Problem Details JSON response.
func Write(w http.ResponseWriter, p Problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// WriteStatus writes a problem response derived from an HTTP status
// code. Statuses without a named type URI get one slugged from the
// standard status text.
func WriteStatus(w http.ResponseWriter, status int, detail string) {
	Write(w, Problem{
		Type:   TypeFor(status),
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}

// TypeFor returns the problem type URI for an HTTP status code.
func TypeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return TypeBadRequest
	case http.StatusUnauthorized:
		return TypeUnauthorized
	case http.StatusForbidden:
		return TypeForbidden
	case http.StatusNotFound:
		return TypeNotFound
	case http.StatusConflict:
		return TypeConflict
	case http.StatusTooManyRequests:
		return TypeRateLimited
	case http.StatusInternalServerError:
		return TypeInternal
	}
	slug := strings.ReplaceAll(strings.ToLower(http.StatusText(status)), " ", "-")
	return typePrefix + slug
}

// NotFound writes a 404 problem response.
func NotFound(w http.ResponseWriter, detail, instance string) {
	Write(w, Problem{
		Type:     TypeNotFound,
		Title:    "Not Found",
		Status:   http.StatusNotFound,
		Detail:   detail,
		Instance: instance,
	})
}

// BadRequest writes a 400 problem response.
func BadRequest(w http.ResponseWriter, detail, instance string) {
	Write(w, Problem{
		Type:     TypeBadRequest,
		Title:    "Bad Request",
		Status:   http.StatusBadRequest,
		Detail:   detail,
		Instance: instance,
	})
}

// Unauthorized writes a 401 problem response.
func Unauthorized(w http.ResponseWriter, detail, instance string) {
	Write(w, Problem{
		Type:     TypeUnauthorized,
		Title:    "Unauthorized",
		Status:   http.StatusUnauthorized,
		Detail:   detail,
		Instance: instance,
	})
}

// Forbidden writes a 403 problem response.
func Forbidden(w http.ResponseWriter, detail, instance string) {
	Write(w, Problem{
		Type:     TypeForbidden,
		Title:    "Forbidden",
		Status:   http.StatusForbidden,
		Detail:   detail,
		Instance: instance,
	})
}

// InternalError writes a 500 problem response.
func InternalError(w http.ResponseWriter, detail, instance string) {
	Write(w, Problem{
		Type:     TypeInternal,
		Title:    "Internal Server Error",
		Status:   http.StatusInternalServerError,
		Detail:   detail,
		Instance: instance,
	})
}

// RateLimited writes a 429 problem response.
func RateLimited(w http.ResponseWriter, detail, instance string) {
	Write(w, Problem{
		Type:     TypeRateLimited,
		Title:    "Too Many Requests",
		Status:   http.StatusTooManyRequests,
		Detail:   detail,
		Instance: instance,
	})
}
