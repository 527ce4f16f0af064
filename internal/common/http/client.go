// internal/common/http/client.go
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultMaxBodyBytes = 10 << 20

// ErrNoContent is returned by GetJSON when the server answers 204.
var ErrNoContent = errors.New("no content")

// StatusError is returned for any non-2xx upstream response.
type StatusError struct {
	StatusCode int
	Method     string
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// Response is a fully read upstream response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client is a thin JSON client bound to one base URL and bearer token.
// It is safe for concurrent use.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	bearerToken  string
	maxBodyBytes int64
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithBearerToken(token string) Option {
	return func(c *Client) {
		c.bearerToken = token
	}
}

// WithMaxBodyBytes caps how much of a response body is read.
func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}

func NewClient(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BuildURL joins path and query onto the base URL.
func (c *Client) BuildURL(path string, query url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// Get performs an authenticated GET and reads the whole body. Non-2xx
// statuses are returned as *StatusError.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	target := c.BuildURL(path, query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("GET %s: read body: %w", target, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Method:     http.MethodGet,
			URL:        target,
			Body:       truncate(string(body), 256),
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// GetJSON performs Get and decodes the body into out. A 204 answer yields
// ErrNoContent and leaves out untouched.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	resp, err := c.Get(ctx, path, query)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusNoContent || len(resp.Body) == 0 {
		return ErrNoContent
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("GET %s: decode response: %w", c.BuildURL(path, query), err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
