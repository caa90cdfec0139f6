// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search gathers web search snippets on a topic and flattens them
// into a single research text for the condense stage.
package search

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/newsdesk/pkg/types"
)

// DefaultMaxResults is the result count used when neither the caller nor
// the config sets one.
const DefaultMaxResults = 5

// DefaultRegion asks the provider for results from no particular region.
const DefaultRegion = "wt-wt"

// Provider searches a single web search service.
type Provider interface {
	Name() string
	Search(ctx context.Context, query Query) ([]types.Snippet, error)
}

// Query holds the search parameters sent to a provider.
type Query struct {
	Text       string
	MaxResults int
	Region     string
}

// Collector runs the research step against one provider.
type Collector struct {
	provider Provider
	cfg      types.SearchConfig
	log      *zap.Logger
}

// NewCollector returns a Collector using provider. A nil logger discards output.
func NewCollector(provider Provider, cfg types.SearchConfig, log *zap.Logger) *Collector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Collector{provider: provider, cfg: cfg, log: log}
}

// Research queries the provider once for topic and joins the body of each
// result with single spaces, skipping results without a body. maxResults
// <= 0 falls back to the config, then to DefaultMaxResults.
//
// A provider failure is not propagated: the returned Research has empty
// Text and the cause in Err, which is the signal the pipeline checks to
// abort the run.
func (c *Collector) Research(ctx context.Context, topic string, maxResults int) types.Research {
	if maxResults <= 0 {
		maxResults = c.cfg.MaxResults
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	region := c.cfg.Region
	if region == "" {
		region = DefaultRegion
	}

	log := c.log.With(zap.String("provider", c.provider.Name()), zap.String("topic", topic))
	log.Info("searching", zap.Int("max_results", maxResults))

	snippets, err := c.provider.Search(ctx, Query{Text: topic, MaxResults: maxResults, Region: region})
	if err != nil {
		log.Warn("search failed", zap.Error(err))
		return types.Research{Err: err}
	}

	text, used := flatten(snippets)
	log.Info("search finished", zap.Int("results", len(snippets)), zap.Int("with_body", used))
	return types.Research{Text: text, Snippets: used}
}

// flatten joins non-empty snippet bodies with a single space and reports how
// many contributed.
func flatten(snippets []types.Snippet) (string, int) {
	bodies := make([]string, 0, len(snippets))
	for _, s := range snippets {
		if s.Body == "" {
			continue
		}
		bodies = append(bodies, s.Body)
	}
	return strings.Join(bodies, " "), len(bodies)
}
