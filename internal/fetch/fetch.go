// Package fetch retrieves remote pages and hands their raw extracted
// sections to the normalizer. The primary implementation drives a real
// browser through go-rod so JS-rendered pages extract correctly; a plain
// HTTP fallback exists for environments without Chrome.
package fetch

import (
	"context"

	"webnerd/internal/content"
)

// Fetcher retrieves the raw extracted content of one page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (content.RawContent, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string) (content.RawContent, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, url string) (content.RawContent, error) {
	return f(ctx, url)
}
