// Package httpsrc fetches raw records from an HTTP endpoint that serves
// JSONL or a JSON array, e.g. a log export API or a collector's pull
// endpoint. Transient failures (429, 5xx) are retried with backoff.
package httpsrc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/crimson-sun/warden/internal/model"
	"github.com/crimson-sun/warden/internal/source/jsonl"
)

const maxRetries = 3

// APIError represents a non-2xx HTTP response.
type APIError struct {
	StatusCode int
	Body       string // first 512 bytes
	retryAfter string // Retry-After header value for 429s
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets a Bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeout sets the per-request timeout. Default: 30s.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// Client fetches record batches over HTTP.
type Client struct {
	token      string
	httpClient *http.Client
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{httpClient: &http.Client{Timeout: 30 * time.Second}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch retrieves records from the given URL. The response body is parsed
// with the same fail-soft rules as file input: malformed lines become
// payload-only records. Retries on 429 (honoring Retry-After) and on 5xx
// with exponential backoff (1s, 2s, 4s), up to 3 retries.
func (c *Client) Fetch(ctx context.Context, url string) ([]model.RawRecord, error) {
	var lastErr *APIError
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			t := time.NewTimer(backoffDelay(attempt, lastErr))
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, ctx.Err()
			case <-t.C:
			}
		}

		records, apiErr, err := c.fetchOnce(ctx, url)
		if err != nil {
			return nil, err
		}
		if apiErr == nil {
			return records, nil
		}
		if apiErr.StatusCode != http.StatusTooManyRequests && apiErr.StatusCode < 500 {
			return nil, apiErr
		}
		lastErr = apiErr
	}
	return nil, lastErr
}

func (c *Client) fetchOnce(ctx context.Context, url string) ([]model.RawRecord, *APIError, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("httpsrc: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("httpsrc: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			retryAfter: resp.Header.Get("Retry-After"),
		}, nil
	}

	var r jsonl.Reader
	records, err := r.Read(ctx, resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("httpsrc: parse response: %w", err)
	}
	return records, nil, nil
}

func backoffDelay(attempt int, lastErr *APIError) time.Duration {
	if lastErr != nil && lastErr.StatusCode == http.StatusTooManyRequests && lastErr.retryAfter != "" {
		if secs, err := strconv.Atoi(lastErr.retryAfter); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return time.Duration(1<<(attempt-1)) * time.Second
}

// IsURL reports whether an input path should be fetched over HTTP rather
// than opened as a file.
func IsURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}
