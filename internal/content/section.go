// Package content defines the canonical page-content model: heading-scoped
// sections extracted from a page, plus the normalizer that reconciles
// legacy section shapes into it.
package content

import "strings"

// Section is a heading-scoped chunk of extracted page text, the atomic
// unit of retrieval and context assembly.
type Section struct {
	ID      string `json:"id"`
	Heading string `json:"heading"`
	Content string `json:"content"`
	// Text mirrors Content for readers of the pre-migration shape.
	Text    string `json:"text,omitempty"`
	Level   int    `json:"level"`
	HasCode bool   `json:"hasCode"`
	HasList bool   `json:"hasList"`
}

// WordCount counts whitespace-delimited tokens in the section content.
func (s Section) WordCount() int {
	return len(strings.Fields(s.Content))
}

// RawSection is the shape produced by the extraction collaborator. Older
// extractors populated Text, current ones populate Content; either is
// accepted.
type RawSection struct {
	Heading string `json:"heading"`
	Text    string `json:"text"`
	Content string `json:"content"`
	Level   int    `json:"level"`
	HasCode bool   `json:"hasCode"`
	HasList bool   `json:"hasList"`
}

// RawContent is the extraction collaborator's output for one page.
type RawContent struct {
	Title    string       `json:"title"`
	Sections []RawSection `json:"sections"`
}

// Metadata carries derived fields computed during normalization.
type Metadata struct {
	TotalWords   int  `json:"totalWords"`
	HasHeadings  bool `json:"hasHeadings"`
	SectionCount int  `json:"sectionCount"`
}

// Extracted is the canonical normalized form of a page's content.
// FullText is the concatenation of "heading content" across sections and
// is the unit of relevance scoring.
type Extracted struct {
	Sections []Section `json:"sections"`
	FullText string    `json:"fullText"`
	Metadata Metadata  `json:"metadata"`
}
