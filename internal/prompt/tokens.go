// Package prompt assembles token-budgeted context windows from ranked
// passages. Token costs are estimated, not measured: the heuristic is
// calibrated at ~4 characters per token.
package prompt

import "unicode/utf8"

// charsPerToken is the estimation calibration factor.
const charsPerToken = 4

// TokenCounter estimates token costs for text ingredients.
type TokenCounter struct{}

// NewTokenCounter creates a token counter.
func NewTokenCounter() *TokenCounter {
	return &TokenCounter{}
}

// Count estimates tokens in a string as ceil(runes / 4).
func (tc *TokenCounter) Count(s string) int {
	if s == "" {
		return 0
	}
	runes := utf8.RuneCountInString(s)
	return (runes + charsPerToken - 1) / charsPerToken
}

// Message is one prior conversation message counted against the budget.
type Message struct {
	Role    string
	Content string
}

// CountMessages estimates tokens across prior messages.
func (tc *TokenCounter) CountMessages(msgs []Message) int {
	total := 0
	for _, m := range msgs {
		total += tc.Count(m.Content)
	}
	return total
}
