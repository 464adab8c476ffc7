package content

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalize_LegacyAndCurrentShapes(t *testing.T) {
	raw := RawContent{Sections: []RawSection{
		{Heading: "Intro", Text: "legacy body"},
		{Heading: "Details", Content: "current body", Level: 2, HasCode: true},
		{Heading: "Empty", Text: "   "},
	}}

	ex, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if got, want := len(ex.Sections), 2; got != want {
		t.Fatalf("sections = %d, want %d", got, want)
	}
	if got, want := ex.Sections[0].Content, "legacy body"; got != want {
		t.Fatalf("sections[0].Content = %q, want %q", got, want)
	}
	if got, want := ex.Sections[0].Text, "legacy body"; got != want {
		t.Fatalf("sections[0].Text = %q, want %q (legacy mirror)", got, want)
	}
	if !ex.Sections[1].HasCode {
		t.Fatal("sections[1].HasCode = false, want true")
	}
	if !ex.Metadata.HasHeadings {
		t.Fatal("Metadata.HasHeadings = false, want true")
	}
	if got, want := ex.Metadata.TotalWords, len(strings.Fields(ex.FullText)); got != want {
		t.Fatalf("TotalWords = %d, want %d", got, want)
	}
}

func TestNormalize_EmptyContentError(t *testing.T) {
	raw := RawContent{Sections: []RawSection{
		{Heading: "only heading"},
		{Text: "  \n "},
	}}
	_, err := Normalize(raw)
	if !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("Normalize() error = %v, want ErrEmptyContent", err)
	}
}

func TestNormalize_FullTextRoundTrip(t *testing.T) {
	raw := RawContent{Sections: []RawSection{
		{Heading: "A", Content: "first part"},
		{Content: "second part"},
		{Heading: "C", Content: "third part"},
	}}
	ex, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	// FullText must contain every section's content in original order.
	last := -1
	for _, s := range ex.Sections {
		idx := strings.Index(ex.FullText, s.Content)
		if idx < 0 {
			t.Fatalf("FullText missing section content %q", s.Content)
		}
		if idx <= last {
			t.Fatalf("section %q out of order in FullText", s.Content)
		}
		last = idx
	}
}

func TestTruncateAtSentence(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		maxLen int
		want   string
	}{
		{"short passthrough", "hello there.", 100, "hello there."},
		{"sentence boundary kept", "First sentence ends here. Second one is cut off midway", 30, "First sentence ends here."},
		{"hard cut with marker", "nopunctuationatallinthisstringwhatsoever", 20, "nopunctuationatallin..."},
		{"zero allowance", "anything", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateAtSentence(tt.in, tt.maxLen); got != tt.want {
				t.Fatalf("TruncateAtSentence(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestExtractiveSummary_PrefersOverview(t *testing.T) {
	sections := []Section{
		{Heading: "Setup", Content: "Some setup details."},
		{Heading: "Overview", Content: "The big picture lives here."},
	}
	got := ExtractiveSummary(sections)
	if got != "The big picture lives here." {
		t.Fatalf("ExtractiveSummary() = %q, want overview section", got)
	}
}

func TestExtractiveSummary_ConcatenatesExcerpts(t *testing.T) {
	sections := []Section{
		{Heading: "One", Content: "Alpha sentence one. Alpha sentence two."},
		{Heading: "Two", Content: "Beta sentence one. Beta sentence two."},
	}
	got := ExtractiveSummary(sections)
	if !strings.Contains(got, "Alpha") || !strings.Contains(got, "Beta") {
		t.Fatalf("ExtractiveSummary() = %q, want excerpts from both sections", got)
	}
	if len([]rune(got)) > 800 {
		t.Fatalf("summary length = %d, want <= 800", len([]rune(got)))
	}
}
