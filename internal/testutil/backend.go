package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
)

// Response scripts one backend reply.
type Response struct {
	Status int
	Body   any // marshalled to JSON; raw []byte and string pass through
}

// RecordedRequest captures one request the fake backend served.
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Body   []byte
}

// Backend is a scripted stand-in for the university API. Responses are
// keyed by "METHOD /path"; unscripted requests answer 404 with an empty
// problem body.
type Backend struct {
	Server *httptest.Server

	mu        sync.Mutex
	responses map[string]Response
	requests  []RecordedRequest
}

// NewBackend starts a fake backend, closed automatically with the test.
func NewBackend(t *testing.T) *Backend {
	t.Helper()
	b := &Backend{responses: make(map[string]Response)}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.Server.Close)
	return b
}

// URL returns the fake backend's base URL.
func (b *Backend) URL() string {
	return b.Server.URL
}

// Script registers the reply for a method and path.
func (b *Backend) Script(method, path string, status int, body any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.responses[method+" "+path] = Response{Status: status, Body: body}
}

// Requests returns a copy of every request seen so far.
func (b *Backend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]RecordedRequest, len(b.requests))
	copy(out, b.requests)
	return out
}

// LastRequest returns the most recent request, or false when none.
func (b *Backend) LastRequest() (RecordedRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.requests) == 0 {
		return RecordedRequest{}, false
	}
	return b.requests[len(b.requests)-1], true
}

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	b.mu.Lock()
	b.requests = append(b.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Body:   body,
	})
	resp, ok := b.responses[r.Method+" "+r.URL.Path]
	b.mu.Unlock()

	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"not found"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	switch v := resp.Body.(type) {
	case nil:
	case []byte:
		w.Write(v)
	case string:
		w.Write([]byte(v))
	default:
		json.NewEncoder(w).Encode(v)
	}
}
