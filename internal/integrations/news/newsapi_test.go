package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fi-advisor/fi/internal/integrations/httpjson"
)

func TestSearchBuildsQueryAndMapsArticles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/everything", r.URL.Path)
		q := r.URL.Query()
		require.Equal(t, "stocks", q.Get("q"))
		require.Equal(t, "key", q.Get("apiKey"))
		require.Equal(t, "en", q.Get("language"))
		require.Equal(t, "relevancy", q.Get("sortBy"))
		require.Equal(t, "5", q.Get("pageSize"))
		require.Equal(t, "2024-02-23", q.Get("from"))
		_, _ = w.Write([]byte(`{"status":"ok","articles":[{"source":{"name":"Mint"},"title":"Sensex rallies","url":"https://example.com/a","publishedAt":"2024-03-01T08:00:00Z","description":"d"}]}`))
	}))
	defer srv.Close()

	client := New(httpjson.New("newsapi"), srv.URL, "key")
	client.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	articles, err := client.Search(context.Background(), "stocks", 5)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	require.Equal(t, "Mint", articles[0].Source)
	require.Equal(t, "Sensex rallies", articles[0].Title)
}

func TestSearchWithoutKey(t *testing.T) {
	client := New(httpjson.New("newsapi"), "", "")
	require.False(t, client.Enabled())

	_, err := client.Search(context.Background(), "stocks", 5)
	require.ErrorIs(t, err, ErrNotConfigured)
}
