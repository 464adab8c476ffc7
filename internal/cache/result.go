// Package cache persists page analysis results with a TTL validity
// window and schema migration on read. The whole cache index lives in one
// serialized document in the backing store, so every write is a full
// read-modify-write.
package cache

import (
	"fmt"
	"time"

	"webnerd/internal/content"
)

// AnalysisResult is the normalized outcome of analyzing one page.
// Produced once, then shared read-only between the cache and callers;
// the only sanctioned mutation path is Cache.Update.
type AnalysisResult struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Snippet  string `json:"snippet,omitempty"`
	Position int    `json:"position,omitempty"`
	Summary  string `json:"summary,omitempty"`

	Sections       []content.Section  `json:"sections"`
	RelevanceScore int                `json:"relevanceScore"`
	Extracted      *content.Extracted `json:"extractedContent,omitempty"`

	Timestamp    time.Time `json:"timestamp"`
	Error        bool      `json:"error"`
	ErrorMessage string    `json:"errorMessage,omitempty"`

	// Cache annotations, set on read.
	FromCache bool      `json:"fromCache"`
	CachedAt  time.Time `json:"cachedAt,omitempty"`
	CacheAge  string    `json:"cacheAge,omitempty"`
}

// ErrorResult builds the stub result recorded when a page cannot be
// analyzed. Error results carry no sections and a zero relevance score.
func ErrorResult(url, title, message string) AnalysisResult {
	return AnalysisResult{
		URL:            url,
		Title:          title,
		RelevanceScore: 0,
		Timestamp:      time.Now(),
		Error:          true,
		ErrorMessage:   message,
	}
}

// hasFullContent reports whether the result already carries the migrated
// extractedContent wrapper with usable per-section text.
func (r AnalysisResult) hasFullContent() bool {
	if r.Extracted == nil || len(r.Extracted.Sections) == 0 {
		return false
	}
	for _, s := range r.Extracted.Sections {
		if s.Content != "" {
			return true
		}
	}
	return false
}

// hasLegacySections reports whether any pre-migration section carries
// text in either shape.
func (r AnalysisResult) hasLegacySections() bool {
	for _, s := range r.Sections {
		if s.Content != "" || s.Text != "" {
			return true
		}
	}
	return false
}

// AgeBucket renders a cache age as a coarse human-readable label.
func AgeBucket(age time.Duration) string {
	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(age.Hours()/24))
	}
}
