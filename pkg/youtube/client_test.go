package youtube

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finvista/advisor-cli/internal/resilience"
)

func testClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-key", WithBaseURL(srv.URL))
}

func TestSearch(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "snippet", r.URL.Query().Get("part"))
		assert.Equal(t, "TCS stock analysis", r.URL.Query().Get("q"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		fmt.Fprint(w, `{"items":[
			{"id":{"videoId":"abc123"},"snippet":{"title":"TCS Q4 review","description":"earnings breakdown","publishedAt":"2026-04-12T10:00:00Z","channelTitle":"MarketDesk"}}
		]}`)
	})

	videos, err := c.Search(context.Background(), "TCS stock analysis", 5)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, "abc123", videos[0].ID)
	assert.Equal(t, "TCS Q4 review", videos[0].Title)
	assert.Equal(t, "MarketDesk", videos[0].Channel)
	assert.Equal(t, 2026, videos[0].PublishedAt.Year())
}

func TestSearch_APIError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"error":{"code":403,"message":"quotaExceeded"}}`)
	})

	_, err := c.Search(context.Background(), "TCS", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quotaExceeded")
}

func TestSearch_ServerErrorIsTransient(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.Search(context.Background(), "TCS", 5)
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
}

func TestSearch_NoItems(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"items":[]}`)
	})

	videos, err := c.Search(context.Background(), "GHOST", 5)
	require.NoError(t, err)
	assert.Empty(t, videos)
}
