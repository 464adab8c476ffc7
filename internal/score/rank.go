package score

import (
	"math"
	"sort"

	"webnerd/internal/content"
)

// Default top-K values used by the answer pipeline.
const (
	TopKSinglePage = 3
	TopKMultiPage  = 5
)

// Passage is a candidate section paired with its ranking score.
// Passages are ephemeral: produced per-query, never persisted.
type Passage struct {
	Section     content.Section
	Score       float64
	SourceURL   string
	SourceTitle string
}

// RankPassages scores each passage against the query and returns the top
// k in descending score order. Ties keep input order (stable sort); there
// is no secondary tie-break key.
func RankPassages(passages []Passage, query string, k int) []Passage {
	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 || len(passages) == 0 {
		if k > 0 && len(passages) > k {
			return passages[:k]
		}
		return passages
	}

	distinct := make(map[string]bool, len(queryTokens))
	for _, t := range queryTokens {
		distinct[t] = true
	}

	ranked := make([]Passage, len(passages))
	copy(ranked, passages)
	for i := range ranked {
		ranked[i].Score = passageScore(ranked[i].Section, distinct)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

// passageScore rewards distinct-term coverage first and term frequency
// second, mirroring the page-level Score weighting.
func passageScore(s content.Section, queryTerms map[string]bool) float64 {
	text := s.Heading + " " + s.Content
	freq := make(map[string]int)
	for _, t := range Tokenize(text) {
		if queryTerms[t] {
			freq[t]++
		}
	}
	if len(freq) == 0 {
		return 0
	}

	coverage := float64(len(freq)) / float64(len(queryTerms))
	var raw float64
	for _, f := range freq {
		raw += math.Log(1 + float64(f))
	}
	return coverage*50 + raw*10
}
