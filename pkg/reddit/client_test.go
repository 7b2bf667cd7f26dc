package reddit

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
	return NewClient(WithBaseURL(srv.URL), WithUserAgent("test-agent"))
}

func TestSearch(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/r/IndianStockMarket/search.json", r.URL.Path)
		assert.Equal(t, "RELIANCE", r.URL.Query().Get("q"))
		assert.Equal(t, "1", r.URL.Query().Get("restrict_sr"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		fmt.Fprint(w, `{"data":{"children":[
			{"data":{"title":"RELIANCE results out","selftext":"strong quarter","score":42}},
			{"data":{"title":"thoughts on RELIANCE?","selftext":"","score":5}}
		]}}`)
	})

	posts, err := c.Search(context.Background(), "IndianStockMarket", "RELIANCE", 10)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "RELIANCE results out", posts[0].Title)
	assert.Equal(t, "strong quarter", posts[0].SelfText)
	assert.Equal(t, 42, posts[0].Score)
}

func TestSearch_EmptyListing(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"data":{"children":[]}}`)
	})

	posts, err := c.Search(context.Background(), "stocks", "GHOST", 5)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestSearch_RateLimitedIsTransient(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.Search(context.Background(), "stocks", "RELIANCE", 5)
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
}

func TestSearch_ForbiddenIsPermanent(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := c.Search(context.Background(), "stocks", "RELIANCE", 5)
	require.Error(t, err)
	assert.False(t, resilience.IsTransient(err))
}
