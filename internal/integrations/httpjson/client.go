package httpjson

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/fi-advisor/fi/pkg/metrics"
)

// DefaultTimeout bounds every outbound request.
const DefaultTimeout = 15 * time.Second

// maxBodyBytes caps decoded response bodies.
const maxBodyBytes = 8 << 20

// Limiter admits outbound requests under a key.
type Limiter interface {
	Acquire(ctx context.Context, key string) error
}

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	StatusCode int
	Status     string
	Host       string
	Path       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cannot http GET %s%s: %s", e.Host, e.Path, e.Status)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == code
}

// Client issues JSON GET requests on behalf of one provider.
type Client struct {
	provider   string
	http       *http.Client
	limiter    Limiter
	limiterKey string
	pacer      *rate.Limiter
	userAgent  string
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http.Timeout = timeout
		}
	}
}

// WithLimiter gates every request through limiter under key.
func WithLimiter(limiter Limiter, key string) Option {
	return func(c *Client) {
		c.limiter = limiter
		c.limiterKey = key
	}
}

// WithPacing spaces requests to at most rps per second with the given burst.
func WithPacing(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 {
			if burst <= 0 {
				burst = 1
			}
			c.pacer = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New returns a client for provider.
func New(provider string, opts ...Option) *Client {
	c := &Client{
		provider:   provider,
		http:       &http.Client{Timeout: DefaultTimeout},
		limiterKey: provider,
		userAgent:  "fi-advisor/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Provider returns the provider label.
func (c *Client) Provider() string {
	return c.provider
}

// Get fetches base with query parameters and decodes the JSON body into out.
func (c *Client) Get(ctx context.Context, base string, query url.Values, out any) error {
	addr := base
	if len(query) > 0 {
		addr = base + "?" + query.Encode()
	}

	if c.limiter != nil {
		if err := c.limiter.Acquire(ctx, c.limiterKey); err != nil {
			return err
		}
	}
	if c.pacer != nil {
		if err := c.pacer.Wait(ctx); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	err = c.do(req, out)
	result := "success"
	if err != nil {
		result = "error"
	}
	metrics.ExternalLatency.WithLabelValues(c.provider, result).Observe(time.Since(start).Seconds())
	return err
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Host:       req.URL.Host,
			Path:       req.URL.Path,
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.provider, err)
	}
	return nil
}
