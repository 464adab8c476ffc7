// Package answer turns crawled page analyses into grounded responses:
// it ranks the most relevant passages, assembles them into a budgeted
// context block, and asks the model to answer from that context alone.
package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"webnerd/internal/cache"
	"webnerd/internal/content"
	"webnerd/internal/llm"
	"webnerd/internal/prompt"
	"webnerd/internal/score"
)

// ErrNoContent means no crawled page yielded usable passages.
var ErrNoContent = errors.New("no analyzed content to answer from")

// ErrContextTooLarge means even aggressive truncation could not fit the
// prompt; the user should narrow the question.
var ErrContextTooLarge = errors.New("context still too large after truncation; ask a more specific question")

const systemPrompt = `You are a research assistant. Answer the question using only the
provided sources. Cite sources inline as [Source N]. If the sources do
not contain the answer, say so instead of guessing.`

// Engine answers questions over a set of analyzed pages.
type Engine struct {
	client    llm.Client
	assembler *prompt.Assembler
	logger    *zap.Logger
}

// NewEngine creates an answer engine.
func NewEngine(client llm.Client, assembler *prompt.Assembler, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{client: client, assembler: assembler, logger: logger.Named("answer")}
}

// Answer produces a grounded answer to question from the given analyses.
// If the model rejects the prompt as too large, it retries exactly once
// with aggressively truncated passages before giving up.
func (e *Engine) Answer(ctx context.Context, question string, results []cache.AnalysisResult, history []prompt.Message) (string, error) {
	passages, sources := collectPassages(results)
	if len(passages) == 0 {
		return "", ErrNoContent
	}

	ranked := score.RankPassages(passages, question, topK(sources))
	contextBlock := e.assembler.Assemble(ranked, systemPrompt, history, question, sources)

	answer, err := e.client.CompleteWithSystem(ctx, systemPrompt, userPrompt(contextBlock, question))
	if err == nil {
		return answer, nil
	}
	if !llm.IsOverflow(err) {
		return "", fmt.Errorf("generate answer: %w", err)
	}

	e.logger.Warn("prompt rejected as too large, retrying with aggressive truncation",
		zap.Int("passages", len(ranked)))

	contextBlock = e.assembler.AssembleAggressive(ranked)
	answer, err = e.client.CompleteWithSystem(ctx, systemPrompt, userPrompt(contextBlock, question))
	if err == nil {
		return answer, nil
	}
	if llm.IsOverflow(err) {
		return "", ErrContextTooLarge
	}
	return "", fmt.Errorf("generate answer: %w", err)
}

// AnswerStream is Answer with incremental delivery. Providers report
// prompt rejections as the first delta of the stream rather than a
// synchronous error, so the stream is primed before it is handed out and
// an overflow on the first delta gets the same single aggressive retry
// as Answer.
func (e *Engine) AnswerStream(ctx context.Context, question string, results []cache.AnalysisResult, history []prompt.Message) (<-chan llm.Delta, error) {
	passages, sources := collectPassages(results)
	if len(passages) == 0 {
		return nil, ErrNoContent
	}

	ranked := score.RankPassages(passages, question, topK(sources))
	contextBlock := e.assembler.Assemble(ranked, systemPrompt, history, question, sources)

	deltas, err := e.primedStream(ctx, contextBlock, question)
	if err == nil {
		return deltas, nil
	}
	if !llm.IsOverflow(err) {
		return nil, fmt.Errorf("stream answer: %w", err)
	}

	e.logger.Warn("prompt rejected as too large, retrying with aggressive truncation",
		zap.Int("passages", len(ranked)))

	contextBlock = e.assembler.AssembleAggressive(ranked)
	deltas, err = e.primedStream(ctx, contextBlock, question)
	if err != nil {
		if llm.IsOverflow(err) {
			return nil, ErrContextTooLarge
		}
		return nil, fmt.Errorf("stream answer: %w", err)
	}
	return deltas, nil
}

// primedStream opens a stream and waits for its first delta, so a prompt
// rejection arriving mid-channel still surfaces as a plain error.
func (e *Engine) primedStream(ctx context.Context, contextBlock, question string) (<-chan llm.Delta, error) {
	deltas, err := e.client.Stream(ctx, systemPrompt, userPrompt(contextBlock, question))
	if err != nil {
		return nil, err
	}

	select {
	case first, ok := <-deltas:
		if !ok {
			// Empty response. Hand back an already-closed channel so the
			// consumer's range loop still terminates.
			closed := make(chan llm.Delta)
			close(closed)
			return closed, nil
		}
		if first.Err != nil && llm.IsOverflow(first.Err) {
			return nil, first.Err
		}
		return relay(ctx, first, deltas), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// relay replays the already-consumed first delta ahead of the rest of
// the stream.
func relay(ctx context.Context, first llm.Delta, rest <-chan llm.Delta) <-chan llm.Delta {
	out := make(chan llm.Delta, 1)
	out <- first
	go func() {
		defer close(out)
		for d := range rest {
			select {
			case out <- d:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Summarize produces a short digest of one analyzed page, biased toward
// the query when given. LLM failures degrade to the extractive fallback
// rather than erroring: a worse summary beats none.
func (e *Engine) Summarize(ctx context.Context, result cache.AnalysisResult, query string) string {
	sections := resultSections(result)
	if len(sections) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Summarize the following page in 2-3 sentences")
	if query != "" {
		fmt.Fprintf(&sb, ", focusing on what matters for: %s", query)
	}
	sb.WriteString(".\n\n")
	fmt.Fprintf(&sb, "Title: %s\n\n", result.Title)
	for _, s := range sections {
		if s.Heading != "" {
			sb.WriteString(s.Heading)
			sb.WriteString("\n")
		}
		sb.WriteString(content.TruncateAtSentence(s.Content, 600))
		sb.WriteString("\n\n")
	}

	summary, err := e.client.Complete(ctx, sb.String())
	if err != nil {
		e.logger.Warn("llm summary failed, using extractive fallback",
			zap.String("url", result.URL), zap.Error(err))
		return content.ExtractiveSummary(sections)
	}
	return strings.TrimSpace(summary)
}

// collectPassages flattens non-error results into ranking candidates and
// counts the distinct pages that contributed.
func collectPassages(results []cache.AnalysisResult) ([]score.Passage, int) {
	var passages []score.Passage
	sources := 0
	for _, r := range results {
		if r.Error {
			continue
		}
		sections := resultSections(r)
		if len(sections) == 0 {
			continue
		}
		sources++
		for _, s := range sections {
			passages = append(passages, score.Passage{
				Section:     s,
				SourceURL:   r.URL,
				SourceTitle: r.Title,
			})
		}
	}
	return passages, sources
}

// resultSections prefers the migrated content wrapper over the legacy
// section list.
func resultSections(r cache.AnalysisResult) []content.Section {
	if r.Extracted != nil && len(r.Extracted.Sections) > 0 {
		return r.Extracted.Sections
	}
	return r.Sections
}

func topK(sources int) int {
	if sources <= 1 {
		return score.TopKSinglePage
	}
	return score.TopKMultiPage
}

func userPrompt(contextBlock, question string) string {
	return fmt.Sprintf("Sources:\n\n%s\n\nQuestion: %s", contextBlock, question)
}
