package httpjson

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

type denyLimiter struct {
	calls int
}

func (d *denyLimiter) Acquire(context.Context, string) error {
	d.calls++
	return errors.New("denied")
}

func TestGetDecodesJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "stocks", r.URL.Query().Get("q"))
		require.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"status":"ok","count":2}`))
	}))
	defer srv.Close()

	client := New("test")
	var out struct {
		Status string `json:"status"`
		Count  int    `json:"count"`
	}
	err := client.Get(context.Background(), srv.URL, url.Values{"q": {"stocks"}}, &out)
	require.NoError(t, err)
	require.Equal(t, "ok", out.Status)
	require.Equal(t, 2, out.Count)
}

func TestGetReportsStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := New("test").Get(context.Background(), srv.URL+"/v2/everything", nil, nil)
	require.Error(t, err)
	require.True(t, IsStatus(err, http.StatusTooManyRequests))
	require.Contains(t, err.Error(), "/v2/everything")
}

func TestGetHonoursLimiter(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		hits++
	}))
	defer srv.Close()

	limiter := &denyLimiter{}
	err := New("test", WithLimiter(limiter, "global")).Get(context.Background(), srv.URL, nil, nil)
	require.EqualError(t, err, "denied")
	require.Equal(t, 1, limiter.calls)
	require.Zero(t, hits)
}

func TestGetRejectsInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	var out map[string]any
	err := New("test", WithPacing(100, 1)).Get(context.Background(), srv.URL, nil, &out)
	require.ErrorContains(t, err, "decode response")
}
