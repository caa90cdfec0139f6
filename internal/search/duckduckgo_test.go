// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/newsdesk/pkg/types"
)

const resultsPage = `<!DOCTYPE html>
<html><body>
<div id="links" class="results">
  <div class="result results_links results_links_deep result--ad">
    <div class="links_main links_deep result__body">
      <h2 class="result__title"><a class="result__a" href="https://ads.example.com">Sponsored</a></h2>
      <a class="result__snippet" href="https://ads.example.com">Buy now</a>
    </div>
  </div>
  <div class="result results_links results_links_deep web-result ">
    <div class="links_main links_deep result__body">
      <h2 class="result__title">
        <a rel="nofollow" class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fnews.example.com%2Finflation&amp;rut=abc">Iran <b>inflation</b> eases</a>
      </h2>
      <a class="result__snippet" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fnews.example.com%2Finflation">Iran <b>inflation</b>
        eased in March.</a>
    </div>
  </div>
  <div class="result results_links results_links_deep web-result ">
    <div class="links_main links_deep result__body">
      <h2 class="result__title"><a class="result__a" href="https://example.org/rial">Rial steady</a></h2>
    </div>
  </div>
  <div class="result results_links results_links_deep web-result ">
    <div class="links_main links_deep result__body">
      <h2 class="result__title"><a class="result__a" href="https://example.org/oil">Oil exports</a></h2>
      <a class="result__snippet" href="https://example.org/oil">Exports rose.</a>
    </div>
  </div>
</div>
</body></html>`

func TestParseResults(t *testing.T) {
	got, err := parseResults(resultsPage, 10)
	require.NoError(t, err)

	want := []types.Snippet{
		{Title: "Iran inflation eases", URL: "https://news.example.com/inflation", Body: "Iran inflation eased in March."},
		{Title: "Rial steady", URL: "https://example.org/rial"},
		{Title: "Oil exports", URL: "https://example.org/oil", Body: "Exports rose."},
	}
	assert.Equal(t, want, got)
}

func TestParseResultsRespectsMax(t *testing.T) {
	got, err := parseResults(resultsPage, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestParseResultsEmptyPage(t *testing.T) {
	got, err := parseResults(`<html><body><div class="no-results">No results.</div></body></html>`, 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUnwrapRedirect(t *testing.T) {
	tests := []struct {
		href string
		want string
	}{
		{"https://example.com/a", "https://example.com/a"},
		{"//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fa", "https://example.com/a"},
		{"//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fa&rut=xyz", "https://example.com/a"},
		{"//duckduckgo.com/l/?uddg=%zz", "//duckduckgo.com/l/?uddg=%zz"},
	}
	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			assert.Equal(t, tt.want, unwrapRedirect(tt.href))
		})
	}
}

func TestDuckDuckGoSearchRequest(t *testing.T) {
	var captured *http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, resultsPage)
	}))
	defer ts.Close()

	old := duckDuckGoURL
	duckDuckGoURL = ts.URL + "/html/"
	defer func() { duckDuckGoURL = old }()

	d := &DuckDuckGo{Client: ts.Client()}
	got, err := d.Search(context.Background(), Query{Text: "Iran inflation", MaxResults: 5, Region: "wt-wt"})
	require.NoError(t, err)
	assert.Len(t, got, 3)

	q := captured.URL.Query()
	assert.Equal(t, "Iran inflation", q.Get("q"))
	assert.Equal(t, "wt-wt", q.Get("kl"))
	assert.Equal(t, browserUserAgent, captured.Header.Get("User-Agent"))
}

func TestDuckDuckGoSearchErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	old := duckDuckGoURL
	duckDuckGoURL = ts.URL
	defer func() { duckDuckGoURL = old }()

	d := &DuckDuckGo{Client: ts.Client()}

	_, err := d.Search(context.Background(), Query{Text: "x", MaxResults: 5})
	assert.ErrorContains(t, err, "HTTP 403")

	_, err = d.Search(context.Background(), Query{Text: "  "})
	assert.ErrorContains(t, err, "empty search query")
}

func TestCollectorWithDuckDuckGo(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, resultsPage)
	}))
	defer ts.Close()

	old := duckDuckGoURL
	duckDuckGoURL = ts.URL
	defer func() { duckDuckGoURL = old }()

	c := NewCollector(&DuckDuckGo{Client: ts.Client()}, types.SearchConfig{}, nil)
	got := c.Research(context.Background(), "Iran", 0)

	assert.Equal(t, "Iran inflation eased in March. Exports rose.", got.Text)
	assert.Equal(t, 2, got.Snippets)
}

func TestCollectorSingleAttemptOnUnavailable(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	old := duckDuckGoURL
	duckDuckGoURL = ts.URL
	defer func() { duckDuckGoURL = old }()

	provider := NewDuckDuckGo(types.SearchConfig{})
	provider.Client = ts.Client()
	got := NewCollector(provider, types.SearchConfig{}, nil).Research(context.Background(), "Iran", 0)

	assert.True(t, got.Empty())
	assert.ErrorContains(t, got.Err, "HTTP 503")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "research must not retry")
}

func TestNewDuckDuckGo(t *testing.T) {
	d := NewDuckDuckGo(types.SearchConfig{HTTPConfig: types.HTTPConfig{Timeout: 7 * time.Second, UserAgent: "newsdesk/1"}})
	require.NotNil(t, d.Client)
	assert.Equal(t, 7*time.Second, d.Client.Timeout)
	assert.Equal(t, "newsdesk/1", d.UserAgent)
}
