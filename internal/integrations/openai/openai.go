package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/fi-advisor/fi/internal/integrations/httpjson"
	"github.com/fi-advisor/fi/pkg/metrics"
)

// DefaultModel is used when no model is configured.
const DefaultModel = goopenai.GPT4o

// ErrNotConfigured is returned when no API key is configured.
var ErrNotConfigured = errors.New("openai: api key not configured")

// ErrEmptyResponse is returned when the completion has no content.
var ErrEmptyResponse = errors.New("openai: empty response")

// Config configures the OpenAI client.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Client requests JSON completions from the chat completions API.
type Client struct {
	client  *goopenai.Client
	model   string
	limiter httpjson.Limiter
}

// New builds a client. The limiter may be nil.
func New(cfg Config, limiter httpjson.Limiter) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &Client{client: goopenai.NewClientWithConfig(clientCfg), model: cfg.Model, limiter: limiter}, nil
}

// CompleteJSON sends prompt as a single user message in JSON mode and returns the
// raw JSON content. maxTokens <= 0 leaves the limit to the API.
func (c *Client) CompleteJSON(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Acquire(ctx, "openai"); err != nil {
			return "", err
		}
	}

	req := goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
	if maxTokens > 0 {
		req.MaxTokens = maxTokens
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	metrics.ExternalLatency.WithLabelValues("openai", outcome).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
