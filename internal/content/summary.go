package content

import "strings"

// summaryMaxLen bounds the extractive fallback summary.
const summaryMaxLen = 800

// ExtractiveSummary builds a heuristic digest when no summarizer is
// available. An "introduction"/"overview"-labeled section wins outright;
// otherwise leading excerpts from several sections are concatenated up to
// the length cap, breaking at sentence boundaries.
func ExtractiveSummary(sections []Section) string {
	if len(sections) == 0 {
		return ""
	}

	for _, s := range sections {
		h := strings.ToLower(s.Heading)
		if strings.Contains(h, "introduction") || strings.Contains(h, "overview") {
			return TruncateAtSentence(s.Content, summaryMaxLen)
		}
	}

	var sb strings.Builder
	perSection := summaryMaxLen / min(len(sections), 4)
	for _, s := range sections {
		if sb.Len() >= summaryMaxLen {
			break
		}
		excerpt := TruncateAtSentence(s.Content, perSection)
		if excerpt == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(excerpt)
	}
	return TruncateAtSentence(sb.String(), summaryMaxLen)
}

// TruncateAtSentence cuts s to at most maxLen runes, preferring the last
// sentence-ending punctuation at or after 70% of the allowance. When no
// boundary exists the cut is hard and an ellipsis marker is appended.
func TruncateAtSentence(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}

	cut := runes[:maxLen]
	minBoundary := maxLen * 70 / 100
	for i := len(cut) - 1; i >= minBoundary; i-- {
		switch cut[i] {
		case '.', '?', '!':
			return string(cut[:i+1])
		}
	}
	return strings.TrimRight(string(cut), " ") + "..."
}
