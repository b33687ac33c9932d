package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRequiresKey(t *testing.T) {
	_, err := New(Config{}, nil)
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestCompleteJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer k", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "gpt-4o", body["model"])
		require.EqualValues(t, 1000, body["max_tokens"])
		format := body["response_format"].(map[string]any)
		require.Equal(t, "json_object", format["type"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"strengths\":[\"diversified\"]}"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	client, err := New(Config{APIKey: "k", BaseURL: srv.URL}, nil)
	require.NoError(t, err)

	content, err := client.CompleteJSON(context.Background(), "swot", 1000)
	require.NoError(t, err)
	require.JSONEq(t, `{"strengths":["diversified"]}`, content)
}

func TestCompleteJSONEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","choices":[]}`))
	}))
	defer srv.Close()

	client, err := New(Config{APIKey: "k", BaseURL: srv.URL}, nil)
	require.NoError(t, err)

	_, err = client.CompleteJSON(context.Background(), "x", 0)
	require.ErrorIs(t, err, ErrEmptyResponse)
}
