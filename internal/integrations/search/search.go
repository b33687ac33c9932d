package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/fi-advisor/fi/internal/integrations/httpjson"
	"github.com/fi-advisor/fi/pkg/metrics"
)

const maxResults = 10

// ErrNotConfigured is returned when the API key or engine id is missing.
var ErrNotConfigured = errors.New("search: api key or engine id not configured")

// Result is one web search hit.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Config configures the Custom Search client.
type Config struct {
	APIKey   string
	EngineID string
	// Endpoint overrides the API base URL, used by tests.
	Endpoint string
}

// Client queries Google Programmable Search.
type Client struct {
	svc      *customsearch.Service
	engineID string
	limiter  httpjson.Limiter
}

// New builds a client. The limiter may be nil.
func New(ctx context.Context, cfg Config, limiter httpjson.Limiter) (*Client, error) {
	if cfg.APIKey == "" || cfg.EngineID == "" {
		return nil, ErrNotConfigured
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("search: create service: %w", err)
	}
	return &Client{svc: svc, engineID: cfg.EngineID, limiter: limiter}, nil
}

// Search returns up to limit results for query; limit is clamped to 1..10.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 5
	}
	if limit > maxResults {
		limit = maxResults
	}
	if c.limiter != nil {
		if err := c.limiter.Acquire(ctx, "search"); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	resp, err := c.svc.Cse.List().Cx(c.engineID).Q(query).Num(int64(limit)).Context(ctx).Do()
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	metrics.ExternalLatency.WithLabelValues("google_search", outcome).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	results := make([]Result, 0, len(resp.Items))
	for _, item := range resp.Items {
		results = append(results, Result{Title: item.Title, Link: item.Link, Snippet: item.Snippet})
	}
	return results, nil
}
