package news

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fi-advisor/fi/internal/integrations/httpjson"
)

// DefaultBaseURL is the NewsAPI endpoint.
const DefaultBaseURL = "https://newsapi.org"

// lookback bounds the age of returned articles.
const lookback = 7 * 24 * time.Hour

// ErrNotConfigured is returned when no API key is available.
var ErrNotConfigured = errors.New("news: api key not configured")

// Article is a news article.
type Article struct {
	Title       string `json:"title"`
	Source      string `json:"source"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
	Description string `json:"description"`
}

// Client queries NewsAPI's everything endpoint.
type Client struct {
	http    *httpjson.Client
	baseURL string
	apiKey  string
	now     func() time.Time
}

// New returns a NewsAPI client.
func New(client *httpjson.Client, baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{http: client, baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, now: time.Now}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// Search returns up to limit English articles from the last seven days, most relevant first.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Article, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}
	if limit <= 0 {
		limit = 5
	}

	params := url.Values{
		"q":        {query},
		"apiKey":   {c.apiKey},
		"language": {"en"},
		"from":     {c.now().Add(-lookback).UTC().Format("2006-01-02")},
		"sortBy":   {"relevancy"},
		"pageSize": {strconv.Itoa(limit)},
	}

	var payload struct {
		Status   string `json:"status"`
		Articles []struct {
			Source struct {
				Name string `json:"name"`
			} `json:"source"`
			Title       string `json:"title"`
			Description string `json:"description"`
			URL         string `json:"url"`
			PublishedAt string `json:"publishedAt"`
		} `json:"articles"`
	}
	if err := c.http.Get(ctx, c.baseURL+"/v2/everything", params, &payload); err != nil {
		return nil, fmt.Errorf("news %q: %w", query, err)
	}

	articles := make([]Article, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		articles = append(articles, Article{
			Title:       a.Title,
			Source:      a.Source.Name,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
			Description: a.Description,
		})
	}
	return articles, nil
}
