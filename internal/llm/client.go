// Package llm defines the language-model collaborator interface used by
// the answer pipeline, plus the Gemini implementation.
package llm

import (
	"context"
	"errors"
	"strings"
)

// ErrOverflow marks a prompt the downstream model rejected as too large.
// The answer pipeline retries exactly once with aggressive truncation
// before surfacing it.
var ErrOverflow = errors.New("prompt exceeds model input limit")

// Delta is one increment of a streamed response. Consumers accumulate
// Text into a running total; they never replace it. The producer closes
// the channel when the stream ends, setting Done on the final delta.
type Delta struct {
	Text string
	Err  error
	Done bool
}

// Client is the answer-generation collaborator.
type Client interface {
	// Complete returns the full response for a bare prompt.
	Complete(ctx context.Context, prompt string) (string, error)

	// CompleteWithSystem returns the full response for a system + user
	// prompt pair.
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// Stream emits the response as incremental text deltas. The returned
	// channel is closed by the producer; cancel ctx to stop early.
	Stream(ctx context.Context, systemPrompt, userPrompt string) (<-chan Delta, error)
}

// overflowMarkers are the substrings that identify an input-too-large
// rejection across providers.
var overflowMarkers = []string{"too long", "too large", "exceeds", "limit", "quota"}

// IsOverflow reports whether err looks like an input-size rejection.
func IsOverflow(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrOverflow) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range overflowMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Accumulate folds a delta stream into the final text. Each delta is
// appended to the running total; the first error ends the fold.
func Accumulate(deltas <-chan Delta) (string, error) {
	var sb strings.Builder
	for d := range deltas {
		if d.Err != nil {
			return sb.String(), d.Err
		}
		sb.WriteString(d.Text)
	}
	return sb.String(), nil
}
