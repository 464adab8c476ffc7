package prompt

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"webnerd/internal/config"
	"webnerd/internal/content"
	"webnerd/internal/score"
)

// Fixed overheads, in tokens unless noted.
const (
	// sourceOverheadTokens covers the citation line per mentioned source.
	sourceOverheadTokens = 75
	// formatOverheadTokens covers headers, separators, and instructions.
	formatOverheadTokens = 225
	// passageOverheadChars covers the per-passage source header, in chars.
	passageOverheadChars = 75
	// passageFloorChars keeps every passage useful even when N is large.
	passageFloorChars = 300
	// aggressiveCapChars is the flat per-passage cap for the retry mode.
	aggressiveCapChars = 400
)

// Assembler computes per-passage character allowances under a hard token
// budget and renders the context block handed to the model.
type Assembler struct {
	cfg     config.ContextConfig
	counter *TokenCounter
	logger  *zap.Logger
}

// NewAssembler creates an assembler with the given budget configuration.
func NewAssembler(cfg config.ContextConfig, logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{cfg: cfg, counter: NewTokenCounter(), logger: logger.Named("prompt")}
}

// Assemble renders ranked passages into a context string sized to fit the
// remaining token budget after system prompt, history, question, and
// fixed overheads. The budget never drops below the configured floor, so
// callers always receive some context.
func (a *Assembler) Assemble(passages []score.Passage, systemPrompt string, history []Message, question string, extraOverheadItems int) string {
	if len(passages) == 0 {
		return ""
	}

	used := a.counter.Count(systemPrompt) +
		a.counter.CountMessages(history) +
		a.counter.Count(question) +
		extraOverheadItems*sourceOverheadTokens +
		formatOverheadTokens +
		a.cfg.AnswerReserve

	availableTokens := a.cfg.TotalBudget - used
	if availableTokens < a.cfg.FloorTokens {
		availableTokens = a.cfg.FloorTokens
	}

	availableChars := availableTokens * charsPerToken
	perPassage := availableChars/len(passages) - passageOverheadChars
	if perPassage < passageFloorChars {
		perPassage = passageFloorChars
	}

	a.logger.Debug("context budget",
		zap.Int("used_tokens", used),
		zap.Int("available_tokens", availableTokens),
		zap.Int("per_passage_chars", perPassage),
		zap.Int("passages", len(passages)))

	return a.render(passages, perPassage)
}

// AssembleAggressive is the retry mode invoked after the model rejects
// the first prompt as too large: a flat per-passage cap, no budget math.
func (a *Assembler) AssembleAggressive(passages []score.Passage) string {
	if len(passages) == 0 {
		return ""
	}
	a.logger.Debug("aggressive truncation", zap.Int("cap_chars", aggressiveCapChars))
	return a.render(passages, aggressiveCapChars)
}

func (a *Assembler) render(passages []score.Passage, allowance int) string {
	var sb strings.Builder
	for i, p := range passages {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(fmt.Sprintf("[Source %d] %s", i+1, sourceLabel(p)))
		if p.Section.Heading != "" {
			sb.WriteString(fmt.Sprintf(" - %s", p.Section.Heading))
		}
		sb.WriteString("\n")
		sb.WriteString(content.TruncateAtSentence(p.Section.Content, allowance))
	}
	return sb.String()
}

func sourceLabel(p score.Passage) string {
	switch {
	case p.SourceTitle != "" && p.SourceURL != "":
		return fmt.Sprintf("%s (%s)", p.SourceTitle, p.SourceURL)
	case p.SourceTitle != "":
		return p.SourceTitle
	case p.SourceURL != "":
		return p.SourceURL
	default:
		return "untitled"
	}
}
