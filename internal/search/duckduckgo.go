// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/pdiddy/newsdesk/internal/httputil"
	"github.com/pdiddy/newsdesk/pkg/types"
)

// duckDuckGoURL is the DuckDuckGo HTML search endpoint. Declared as a var so
// tests can substitute an httptest server.
var duckDuckGoURL = "https://html.duckduckgo.com/html/"

const (
	ddgRedirectPrefix = "//duckduckgo.com/l/?uddg="
	maxPageBytes      = 2 << 20
	browserUserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// DuckDuckGo searches the DuckDuckGo HTML interface. No API key is needed.
// Each Search makes exactly one request; failures are never retried.
type DuckDuckGo struct {
	Client    *http.Client
	UserAgent string
}

// NewDuckDuckGo returns a provider using the timeout and user agent in cfg.
func NewDuckDuckGo(cfg types.SearchConfig) *DuckDuckGo {
	return &DuckDuckGo{
		Client:    httputil.NewClient(cfg.Timeout),
		UserAgent: cfg.UserAgent,
	}
}

// Name returns the provider identifier.
func (d *DuckDuckGo) Name() string { return "duckduckgo" }

// Search fetches one result page and returns up to query.MaxResults snippets.
func (d *DuckDuckGo) Search(ctx context.Context, query Query) ([]types.Snippet, error) {
	if strings.TrimSpace(query.Text) == "" {
		return nil, fmt.Errorf("empty search query")
	}

	params := url.Values{"q": {query.Text}}
	if query.Region != "" {
		params.Set("kl", query.Region)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, duckDuckGoURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	ua := d.UserAgent
	if ua == "" {
		ua = browserUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("DuckDuckGo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("DuckDuckGo returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	return parseResults(string(body), query.MaxResults)
}

// parseResults extracts organic results from a DuckDuckGo HTML page. Ads
// (result--ad) are skipped.
func parseResults(page string, maxResults int) ([]types.Snippet, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	var results []types.Snippet
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if maxResults > 0 && len(results) >= maxResults {
			return
		}
		if n.Type == html.ElementNode && n.Data == "div" {
			classes := classList(n)
			if classes["result"] && !classes["result--ad"] {
				r := extractResult(n)
				if r.Title != "" || r.Body != "" {
					results = append(results, r)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return results, nil
}

// extractResult reads title, link and snippet from one result block.
func extractResult(n *html.Node) types.Snippet {
	var r types.Snippet
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			classes := classList(n)
			switch {
			case classes["result__a"]:
				r.Title = textContent(n)
				r.URL = unwrapRedirect(attr(n, "href"))
				return
			case classes["result__snippet"]:
				r.Body = textContent(n)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return r
}

// unwrapRedirect returns the target of a DuckDuckGo redirect link.
func unwrapRedirect(href string) string {
	if !strings.HasPrefix(href, ddgRedirectPrefix) {
		return href
	}
	decoded, err := url.QueryUnescape(strings.TrimPrefix(href, ddgRedirectPrefix))
	if err != nil {
		return href
	}
	if idx := strings.Index(decoded, "&"); idx > 0 {
		decoded = decoded[:idx]
	}
	return decoded
}

// classList returns the set of class tokens on n.
func classList(n *html.Node) map[string]bool {
	set := make(map[string]bool)
	for _, c := range strings.Fields(attr(n, "class")) {
		set[c] = true
	}
	return set
}

// attr returns the value of attribute key on n.
func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// textContent returns the text beneath n with runs of whitespace collapsed.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
