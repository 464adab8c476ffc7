package content

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyContent is returned when extraction produced no usable sections.
// Callers must treat it as a fetch failure, not a partial success.
var ErrEmptyContent = errors.New("no extractable content")

// Normalize reconciles raw extraction output into the canonical Extracted
// form. Sections with neither text nor content are dropped; if nothing
// survives, ErrEmptyContent is returned.
func Normalize(raw RawContent) (*Extracted, error) {
	sections := make([]Section, 0, len(raw.Sections))

	for i, rs := range raw.Sections {
		body := strings.TrimSpace(rs.Content)
		if body == "" {
			body = strings.TrimSpace(rs.Text)
		}
		if body == "" {
			continue
		}

		sections = append(sections, Section{
			ID:      fmt.Sprintf("s%d", i),
			Heading: strings.TrimSpace(rs.Heading),
			Content: body,
			Text:    body,
			Level:   rs.Level,
			HasCode: rs.HasCode,
			HasList: rs.HasList,
		})
	}

	if len(sections) == 0 {
		return nil, ErrEmptyContent
	}

	ex := &Extracted{Sections: sections}
	ex.FullText = FullText(sections)
	ex.Metadata = Metadata{
		TotalWords:   len(strings.Fields(ex.FullText)),
		HasHeadings:  hasHeadings(sections),
		SectionCount: len(sections),
	}
	return ex, nil
}

// FullText joins "heading content" across sections, preserving order.
// Empty headings contribute only their content.
func FullText(sections []Section) string {
	var sb strings.Builder
	for i, s := range sections {
		if i > 0 {
			sb.WriteString(" ")
		}
		if s.Heading != "" {
			sb.WriteString(s.Heading)
			sb.WriteString(" ")
		}
		sb.WriteString(s.Content)
	}
	return sb.String()
}

func hasHeadings(sections []Section) bool {
	for _, s := range sections {
		if s.Heading != "" {
			return true
		}
	}
	return false
}
