package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/fi-advisor/fi/internal/integrations/httpjson"
	"github.com/fi-advisor/fi/pkg/metrics"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-1.5-flash"

// ErrNotConfigured is returned when no API key is configured.
var ErrNotConfigured = errors.New("gemini: api key not configured")

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("gemini: empty response")

// Config configures the Gemini client.
type Config struct {
	APIKey string
	Model  string
	// BaseURL overrides the API endpoint, used by tests.
	BaseURL string
}

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client wraps the Gemini API.
type Client struct {
	client  *genai.Client
	model   string
	limiter httpjson.Limiter
}

// New connects to the Gemini API. The limiter may be nil.
func New(ctx context.Context, cfg Config, limiter httpjson.Limiter) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Client{client: client, model: cfg.Model, limiter: limiter}, nil
}

// Generate sends a single prompt and returns the text reply. With jsonMode the
// model is asked for an application/json response.
func (c *Client) Generate(ctx context.Context, prompt string, jsonMode bool) (string, error) {
	if err := c.acquire(ctx); err != nil {
		return "", err
	}

	var cfg *genai.GenerateContentConfig
	if jsonMode {
		cfg = &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
	c.observe(start, err)
	if err != nil {
		return "", fmt.Errorf("gemini: generate: %w", err)
	}
	return responseText(resp)
}

// Chat continues a conversation. History is replayed before message; roles other
// than "user" are sent as model turns.
func (c *Client) Chat(ctx context.Context, system string, history []Message, message string) (string, error) {
	if err := c.acquire(ctx); err != nil {
		return "", err
	}

	var cfg *genai.GenerateContentConfig
	if system != "" {
		cfg = &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
		}
	}

	contents := make([]*genai.Content, 0, len(history))
	for _, turn := range history {
		role := genai.Role(genai.RoleModel)
		if strings.EqualFold(turn.Role, "user") {
			role = genai.RoleUser
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}

	start := time.Now()
	chat, err := c.client.Chats.Create(ctx, c.model, cfg, contents)
	if err != nil {
		c.observe(start, err)
		return "", fmt.Errorf("gemini: start chat: %w", err)
	}
	resp, err := chat.Send(ctx, &genai.Part{Text: message})
	c.observe(start, err)
	if err != nil {
		return "", fmt.Errorf("gemini: chat: %w", err)
	}
	return responseText(resp)
}

func (c *Client) acquire(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Acquire(ctx, "gemini")
}

func (c *Client) observe(start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	metrics.ExternalLatency.WithLabelValues("gemini", outcome).Observe(time.Since(start).Seconds())
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", ErrEmptyResponse
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
