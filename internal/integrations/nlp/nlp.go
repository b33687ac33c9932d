package nlp

import (
	"context"
	"errors"
	"fmt"
	"time"

	language "google.golang.org/api/language/v1"
	"google.golang.org/api/option"

	"github.com/fi-advisor/fi/internal/integrations/httpjson"
	"github.com/fi-advisor/fi/pkg/metrics"
)

// maxContentBytes keeps requests under the API document size limit.
const maxContentBytes = 900 * 1024

// ErrNotConfigured is returned when no credentials are configured.
var ErrNotConfigured = errors.New("nlp: credentials not configured")

// Entity is a named entity detected in a document.
type Entity struct {
	Name     string            `json:"name"`
	Type     string            `json:"type"`
	Salience float64           `json:"salience"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Config configures the Natural Language client. Either APIKey or
// CredentialsFile must be set.
type Config struct {
	APIKey          string
	CredentialsFile string
	Endpoint        string
}

// Client runs entity analysis with Google Cloud Natural Language.
type Client struct {
	svc     *language.Service
	limiter httpjson.Limiter
}

// New builds a client. The limiter may be nil.
func New(ctx context.Context, cfg Config, limiter httpjson.Limiter) (*Client, error) {
	var opts []option.ClientOption
	switch {
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	default:
		return nil, ErrNotConfigured
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	svc, err := language.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("nlp: create service: %w", err)
	}
	return &Client{svc: svc, limiter: limiter}, nil
}

// AnalyzeEntities returns the entities found in text.
func (c *Client) AnalyzeEntities(ctx context.Context, text string) ([]Entity, error) {
	if len(text) > maxContentBytes {
		text = text[:maxContentBytes]
	}
	if c.limiter != nil {
		if err := c.limiter.Acquire(ctx, "nlp"); err != nil {
			return nil, err
		}
	}

	req := &language.AnalyzeEntitiesRequest{
		Document: &language.Document{
			Content: text,
			Type:    "PLAIN_TEXT",
		},
		EncodingType: "UTF8",
	}

	start := time.Now()
	resp, err := c.svc.Documents.AnalyzeEntities(req).Context(ctx).Do()
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	metrics.ExternalLatency.WithLabelValues("google_nlp", outcome).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("nlp: analyze entities: %w", err)
	}

	entities := make([]Entity, 0, len(resp.Entities))
	for _, e := range resp.Entities {
		entities = append(entities, Entity{
			Name:     e.Name,
			Type:     e.Type,
			Salience: e.Salience,
			Metadata: e.Metadata,
		})
	}
	return entities, nil
}
