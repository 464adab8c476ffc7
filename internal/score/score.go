// Package score implements BM25-style term-overlap relevance scoring.
// It is used two ways: whole-page relevance during crawling (bounded
// 0-100 score against the query) and passage ranking for question
// answering (top-K over a multi-section corpus).
package score

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// NeutralScore is returned when scoring cannot produce a signal
// (empty query or corpus). Relevance is advisory, not correctness-critical,
// so the neutral midpoint is preferred over an error.
const NeutralScore = 50

// Tokenize lowercases, strips non-word runes, splits on whitespace, and
// discards tokens of length <= 2.
func Tokenize(s string) []string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || unicode.IsSpace(r) {
			sb.WriteRune(r)
		} else {
			sb.WriteRune(' ')
		}
	}

	fields := strings.Fields(sb.String())
	tokens := fields[:0]
	for _, f := range fields {
		// Length is measured in runes, not bytes, so short non-ASCII
		// tokens are dropped like their ASCII counterparts.
		if utf8.RuneCountInString(f) > 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// Score rates how relevant corpus text is to a query, in [0, 100].
// Broad query-term coverage (matchRatio) is rewarded more heavily than
// raw frequency, and the result is capped at 100.
func Score(corpus, query string) int {
	queryTokens := Tokenize(query)
	corpusTokens := Tokenize(corpus)
	if len(queryTokens) == 0 || len(corpusTokens) == 0 {
		return NeutralScore
	}

	freq := make(map[string]int, len(corpusTokens))
	for _, t := range corpusTokens {
		freq[t]++
	}

	var raw float64
	matched := 0
	seen := make(map[string]bool, len(queryTokens))
	for _, qt := range queryTokens {
		if seen[qt] {
			continue
		}
		seen[qt] = true
		if f := freq[qt]; f > 0 {
			raw += math.Log(1 + float64(f))
			matched++
		}
	}

	// The denominator is the total query token count, duplicates
	// included, so repeating a term in the query cannot inflate coverage.
	matchRatio := float64(matched) / float64(len(queryTokens))
	s := int(math.Round(matchRatio*50 + raw*10))
	if s > 100 {
		s = 100
	}
	if s < 0 {
		s = 0
	}
	return s
}
