// Package ingest provides the HTTP client shared by the catalog loader and the portal fetcher.
// CVM endpoints reject Go's default client identification, so every request carries a
// browser-like User-Agent.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	// UserAgent mimics a desktop browser; the RAD portal answers bare clients with an error page.
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	// DefaultTimeout bounds every request so the interactive surface cannot hang.
	DefaultTimeout = 30 * time.Second
)

// ErrTimeout marks a request that exceeded its deadline.
var ErrTimeout = errors.New("request timed out")

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
}

// Client is a small http client wrapper with a fixed identity and optional rate limit.
type Client struct {
	httpClient  *http.Client
	timeout     time.Duration
	userAgent   string
	rateLimiter *rate.Limiter
}

// ClientOption allows for customization of the client
type ClientOption func(*Client)

// NewClient creates a client with DefaultTimeout and the browser UserAgent.
// Options apply in any order; the timeout is set last, on the client's own copy.
func NewClient(options ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		userAgent:  UserAgent,
	}
	for _, option := range options {
		option(c)
	}
	if c.timeout > 0 {
		c.httpClient.Timeout = c.timeout
	}
	return c
}

// WithHTTPClient uses a copy of httpClient (tests use httptest clients). The caller's
// client is never modified.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient == nil {
			return
		}
		cp := *httpClient
		c.httpClient = &cp
	}
}

// WithTimeout sets the per-request timeout. Zero keeps the default.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithUserAgent sets a custom user agent string
func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithRateLimit spaces requests to at most rps per second. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.rateLimiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.rateLimiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// Timeout returns the configured per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.httpClient.Timeout
}

// Get performs a GET and returns the full body. Non-2xx answers yield *StatusError,
// deadline failures wrap ErrTimeout.
func (c *Client) Get(ctx context.Context, url string, accept string) ([]byte, error) {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			if IsTimeout(err) {
				return nil, fmt.Errorf("rate limiter: %w", ErrTimeout)
			}
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if IsTimeout(err) {
			return nil, fmt.Errorf("GET %s: %w", url, ErrTimeout)
		}
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if IsTimeout(err) {
			return nil, fmt.Errorf("read %s: %w", url, ErrTimeout)
		}
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return body, nil
}

// IsTimeout reports whether err is a deadline or network timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
