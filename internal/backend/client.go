// Package backend is the thin HTTP client every screen talks through.
// It attaches the bearer credential, normalizes error shapes into
// *backend.Error, extracts list payloads from bare-array or enveloped
// responses, throttles outgoing calls, and handles credential expiry
// globally so individual screens never special-case a 401.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxBodyBytes caps how much of a response body the client will read.
const maxBodyBytes = 8 << 20

// TokenSource supplies the current bearer token. An empty token means
// the request goes out unauthenticated.
type TokenSource interface {
	Token() string
}

// Client talks to the campus REST backend.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	logger        *zap.Logger
	limiter       *rate.Limiter
	tokens        TokenSource
	onAuthExpired func()
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client (used by tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout on the underlying client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithTokenSource sets where bearer credentials come from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithAuthExpiredHandler sets the global 401 hook. It runs once per
// rejected request, before the error is returned to the caller.
func WithAuthExpiredHandler(fn func()) Option {
	return func(c *Client) { c.onAuthExpired = fn }
}

// WithRateLimit throttles outgoing requests to rps requests per second
// with the given burst.
func WithRateLimit(rps, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// New creates a Client for the given base URL (e.g. "http://host/api").
func New(baseURL string, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
		limiter:    rate.NewLimiter(rate.Limit(20), 40),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get issues a GET with optional query parameters.
func (c *Client) Get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, params, nil)
}

// Post issues a POST with a JSON payload.
func (c *Client) Post(ctx context.Context, path string, payload any) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, nil, payload)
}

// Patch issues a PATCH with a JSON payload.
func (c *Client) Patch(ctx context.Context, path string, payload any) ([]byte, error) {
	return c.do(ctx, http.MethodPatch, path, nil, payload)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// GetList issues a GET and normalizes the response into a record list.
func (c *Client) GetList(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	body, err := c.Get(ctx, path, params)
	if err != nil {
		return nil, err
	}
	return Normalize(body), nil
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, payload any) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s %s: %w", method, path, err)
		}
	}

	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s %s: encode payload: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observe(method, "error", time.Since(start).Seconds())
		c.logger.Warn("backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		observe(method, "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("%s %s: read response: %w", method, path, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		observe(method, "ok", time.Since(start).Seconds())
		return respBody, nil
	}

	observe(method, statusClass(resp.StatusCode), time.Since(start).Seconds())

	apiErr := &Error{
		Status:  resp.StatusCode,
		Message: serverMessage(respBody),
	}

	// Credential expiry is handled here, globally, so screens never need
	// to special-case it.
	if resp.StatusCode == http.StatusUnauthorized && c.onAuthExpired != nil {
		c.onAuthExpired()
	}

	c.logger.Debug("backend rejected request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("message", apiErr.Message),
	)
	return nil, apiErr
}

// serverMessage pulls the human-readable message out of an error body.
// The backend uses "message"; some endpoints use "error".
func serverMessage(body []byte) string {
	var shape struct {
		Message string `json:"message"`
		ErrMsg  string `json:"error"`
	}
	if err := json.Unmarshal(body, &shape); err != nil {
		return ""
	}
	if shape.Message != "" {
		return shape.Message
	}
	return shape.ErrMsg
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	default:
		return "ok"
	}
}
