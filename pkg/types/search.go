// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the newsdesk pipeline:
// component configuration, search snippets, inference replies, stage
// artifacts and run reports.
package types

// Snippet is one search result returned by a search provider.
type Snippet struct {
	// Title is the result headline.
	Title string `json:"title" yaml:"title"`

	// URL is the result link with provider redirects removed.
	URL string `json:"url" yaml:"url"`

	// Body is the text fragment shown under the result. Results without a
	// body contribute nothing to the research text.
	Body string `json:"body" yaml:"body"`
}

// Research is the flattened output of the research step. An empty Text
// halts the run before any inference call.
type Research struct {
	// Text is the space-joined snippet bodies.
	Text string `json:"text" yaml:"text"`

	// Snippets is the number of results that contributed a body.
	Snippets int `json:"snippets" yaml:"snippets"`

	// Err is the provider failure, if any. Text is empty when Err is set.
	Err error `json:"-" yaml:"-"`
}

// Empty reports whether the research produced nothing to write about.
func (r Research) Empty() bool { return r.Text == "" }
