// Package serp abstracts the search engine used to discover candidate source
// pages for a company.
package serp

import "context"

// Result is one organic search hit.
type Result struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Provider returns up to limit results for a free-text query, in the order
// the engine ranked them. An empty slice is a valid answer.
type Provider interface {
	Search(ctx context.Context, query string, limit int) ([]Result, error)
}
