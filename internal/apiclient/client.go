// Package apiclient is the single configured request pipeline to the
// external REST backend, plus a query cache with freshness and eviction
// policy.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pilotdeck/pilotdeck/internal/shared"
)

// TokenSource yields the bearer token attached to outgoing requests. An
// empty token means no Authorization header.
type TokenSource interface {
	Token() string
}

// APIError is a non-2xx backend response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned status %d", e.Status)
}

// Client wraps interactions with the backend API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger
	retries    int
	// onUnauthorized runs once per 401 response. It is the system's sole
	// forced-logout path from the network layer.
	onUnauthorized func(context.Context)
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetries sets how many times a failed request is retried. Default 1.
func WithRetries(n int) Option {
	return func(c *Client) { c.retries = n }
}

// WithUnauthorizedHook registers the forced-logout hook.
func WithUnauthorizedHook(fn func(context.Context)) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// New constructs a Client for baseURL.
func New(baseURL string, tokens TokenSource, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		tokens:  tokens,
		logger:  logger,
		retries: 1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get issues a GET and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}

// Do runs one request against the backend. Transport errors and 5xx
// responses are retried a bounded number of times before the error
// surfaces. A 401 clears the session via the registered hook and reports
// shared.ErrUnauthorized.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("apiclient: encode body: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			c.logger.Debug("retrying request",
				slog.String("method", method),
				slog.String("path", path),
				slog.Int("attempt", attempt))
		}
		done, err := c.attempt(ctx, method, path, payload, out)
		if done {
			return err
		}
		lastErr = err
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return lastErr
}

// attempt runs a single request. The bool reports whether the outcome is
// final: true for success, 4xx and 401; false for retryable failures.
func (c *Client) attempt(ctx context.Context, method, path string, payload []byte, out any) (bool, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return true, fmt.Errorf("apiclient: build request: %w", err)
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

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("apiclient: %s %s: %w", method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.logger.Warn("backend rejected session token",
			slog.String("method", method),
			slog.String("path", path))
		if c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		return true, shared.ErrUnauthorized
	case resp.StatusCode >= 500:
		return false, &APIError{Status: resp.StatusCode, Body: readBody(resp.Body)}
	case resp.StatusCode >= 400:
		return true, &APIError{Status: resp.StatusCode, Body: readBody(resp.Body)}
	}

	if out == nil {
		return true, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return true, fmt.Errorf("apiclient: decode response: %w", err)
	}
	return true, nil
}

func readBody(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return ""
	}
	return string(data)
}
