package answer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"webnerd/internal/cache"
	"webnerd/internal/config"
	"webnerd/internal/content"
	"webnerd/internal/llm"
	"webnerd/internal/prompt"
)

// fakeClient scripts responses per call, recording each prompt it saw.
type fakeClient struct {
	responses []string
	errs      []error
	prompts   []string
	calls     int
}

func (f *fakeClient) next(userPrompt string) (string, error) {
	f.prompts = append(f.prompts, userPrompt)
	i := f.calls
	f.calls++
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	var resp string
	if i < len(f.responses) {
		resp = f.responses[i]
	}
	return resp, err
}

func (f *fakeClient) Complete(_ context.Context, p string) (string, error) {
	return f.next(p)
}

func (f *fakeClient) CompleteWithSystem(_ context.Context, _, p string) (string, error) {
	return f.next(p)
}

func (f *fakeClient) Stream(_ context.Context, _, p string) (<-chan llm.Delta, error) {
	resp, err := f.next(p)
	if err != nil {
		return nil, err
	}
	ch := make(chan llm.Delta, 2)
	ch <- llm.Delta{Text: resp}
	ch <- llm.Delta{Done: true}
	close(ch)
	return ch, nil
}

func testEngine(client llm.Client) *Engine {
	asm := prompt.NewAssembler(config.ContextConfig{
		TotalBudget:   3500,
		AnswerReserve: 500,
		FloorTokens:   500,
	}, nil)
	return NewEngine(client, asm, nil)
}

func analyzedPage(url, title string, sections ...content.Section) cache.AnalysisResult {
	return cache.AnalysisResult{
		URL:   url,
		Title: title,
		Extracted: &content.Extracted{
			Sections: sections,
		},
	}
}

func solarResults() []cache.AnalysisResult {
	return []cache.AnalysisResult{
		analyzedPage("https://a.test", "Solar Basics",
			content.Section{Heading: "Efficiency", Content: "Modern solar panels reach about 22 percent efficiency."},
			content.Section{Heading: "History", Content: "The photovoltaic effect was discovered in 1839."},
		),
		analyzedPage("https://b.test", "Panel Costs",
			content.Section{Heading: "Pricing", Content: "Solar panel prices fell 90 percent over the last decade."},
		),
	}
}

func TestAnswerGroundsPromptInSources(t *testing.T) {
	client := &fakeClient{responses: []string{"Panels reach ~22% efficiency [Source 1]."}}
	e := testEngine(client)

	got, err := e.Answer(context.Background(), "how efficient are solar panels", solarResults(), nil)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if got != "Panels reach ~22% efficiency [Source 1]." {
		t.Fatalf("Answer = %q", got)
	}

	p := client.prompts[0]
	if !strings.Contains(p, "[Source 1]") {
		t.Errorf("prompt missing source header:\n%s", p)
	}
	if !strings.Contains(p, "22 percent efficiency") {
		t.Errorf("prompt missing top passage content:\n%s", p)
	}
	if !strings.Contains(p, "Question: how efficient are solar panels") {
		t.Errorf("prompt missing question:\n%s", p)
	}
}

func TestAnswerSkipsErrorResults(t *testing.T) {
	results := solarResults()
	results = append(results, cache.ErrorResult("https://c.test", "Broken", "could not analyze this page"))

	client := &fakeClient{responses: []string{"ok"}}
	e := testEngine(client)

	if _, err := e.Answer(context.Background(), "solar", results, nil); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if strings.Contains(client.prompts[0], "c.test") {
		t.Errorf("error result leaked into prompt:\n%s", client.prompts[0])
	}
}

func TestAnswerNoContent(t *testing.T) {
	e := testEngine(&fakeClient{})

	results := []cache.AnalysisResult{
		cache.ErrorResult("https://c.test", "Broken", "could not analyze this page"),
	}
	if _, err := e.Answer(context.Background(), "solar", results, nil); !errors.Is(err, ErrNoContent) {
		t.Fatalf("Answer error = %v, want ErrNoContent", err)
	}
}

func TestAnswerRetriesOnceOnOverflow(t *testing.T) {
	client := &fakeClient{
		errs:      []error{llm.ErrOverflow, nil},
		responses: []string{"", "short answer"},
	}
	e := testEngine(client)

	long := strings.Repeat("Solar output varies with irradiance. ", 100)
	results := []cache.AnalysisResult{
		analyzedPage("https://a.test", "Solar Basics",
			content.Section{Heading: "Detail", Content: long},
		),
	}
	got, err := e.Answer(context.Background(), "solar", results, nil)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if got != "short answer" {
		t.Fatalf("Answer = %q, want retry response", got)
	}
	if client.calls != 2 {
		t.Fatalf("llm calls = %d, want 2", client.calls)
	}
	if len(client.prompts[1]) >= len(client.prompts[0]) {
		t.Errorf("retry prompt (%d chars) not smaller than first (%d chars)",
			len(client.prompts[1]), len(client.prompts[0]))
	}
}

func TestAnswerGivesUpAfterSecondOverflow(t *testing.T) {
	client := &fakeClient{errs: []error{llm.ErrOverflow, errors.New("request too large")}}
	e := testEngine(client)

	_, err := e.Answer(context.Background(), "solar", solarResults(), nil)
	if !errors.Is(err, ErrContextTooLarge) {
		t.Fatalf("Answer error = %v, want ErrContextTooLarge", err)
	}
	if client.calls != 2 {
		t.Fatalf("llm calls = %d, want exactly 2 (no third retry)", client.calls)
	}
}

func TestAnswerPropagatesOtherErrors(t *testing.T) {
	client := &fakeClient{errs: []error{errors.New("connection refused")}}
	e := testEngine(client)

	_, err := e.Answer(context.Background(), "solar", solarResults(), nil)
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("Answer error = %v, want wrapped transport error", err)
	}
	if client.calls != 1 {
		t.Fatalf("llm calls = %d, want 1 (no retry for non-overflow)", client.calls)
	}
}

func TestAnswerStream(t *testing.T) {
	client := &fakeClient{responses: []string{"streamed answer"}}
	e := testEngine(client)

	deltas, err := e.AnswerStream(context.Background(), "solar", solarResults(), nil)
	if err != nil {
		t.Fatalf("AnswerStream: %v", err)
	}
	got, err := llm.Accumulate(deltas)
	if err != nil {
		t.Fatalf("Accumulate: %v", err)
	}
	if got != "streamed answer" {
		t.Fatalf("accumulated = %q", got)
	}
}

// midStreamClient delivers scripted errors as the first delta of the
// channel instead of a synchronous return, the way real providers do.
type midStreamClient struct {
	fakeClient
}

func (m *midStreamClient) Stream(_ context.Context, _, p string) (<-chan llm.Delta, error) {
	resp, err := m.next(p)
	ch := make(chan llm.Delta, 2)
	if err != nil {
		ch <- llm.Delta{Err: err}
	} else {
		ch <- llm.Delta{Text: resp}
		ch <- llm.Delta{Done: true}
	}
	close(ch)
	return ch, nil
}

func TestAnswerStreamRetriesOnMidStreamOverflow(t *testing.T) {
	client := &midStreamClient{fakeClient{
		errs:      []error{llm.ErrOverflow, nil},
		responses: []string{"", "short answer"},
	}}
	e := testEngine(client)

	long := strings.Repeat("Solar output varies with irradiance. ", 100)
	results := []cache.AnalysisResult{
		analyzedPage("https://a.test", "Solar Basics",
			content.Section{Heading: "Detail", Content: long},
		),
	}
	deltas, err := e.AnswerStream(context.Background(), "solar", results, nil)
	if err != nil {
		t.Fatalf("AnswerStream: %v", err)
	}
	got, err := llm.Accumulate(deltas)
	if err != nil {
		t.Fatalf("Accumulate: %v", err)
	}
	if got != "short answer" {
		t.Fatalf("accumulated = %q, want retry response", got)
	}
	if client.calls != 2 {
		t.Fatalf("llm calls = %d, want 2", client.calls)
	}
	if len(client.prompts[1]) >= len(client.prompts[0]) {
		t.Errorf("retry prompt (%d chars) not smaller than first (%d chars)",
			len(client.prompts[1]), len(client.prompts[0]))
	}
}

func TestAnswerStreamSecondOverflowSurfaces(t *testing.T) {
	client := &midStreamClient{fakeClient{
		errs: []error{llm.ErrOverflow, errors.New("input exceeds limit")},
	}}
	e := testEngine(client)

	_, err := e.AnswerStream(context.Background(), "solar", solarResults(), nil)
	if !errors.Is(err, ErrContextTooLarge) {
		t.Fatalf("AnswerStream error = %v, want ErrContextTooLarge", err)
	}
	if client.calls != 2 {
		t.Fatalf("llm calls = %d, want exactly 2 (no third retry)", client.calls)
	}
}

func TestSummarizeFallsBackOnLLMError(t *testing.T) {
	client := &fakeClient{errs: []error{errors.New("model unavailable")}}
	e := testEngine(client)

	page := analyzedPage("https://a.test", "Solar Basics",
		content.Section{Heading: "Overview", Content: "Solar power converts sunlight into electricity."},
	)
	got := e.Summarize(context.Background(), page, "solar")
	if !strings.Contains(got, "Solar power converts sunlight") {
		t.Fatalf("fallback summary = %q, want extractive content", got)
	}
}

func TestSummarizeUsesLLM(t *testing.T) {
	client := &fakeClient{responses: []string{"A concise digest."}}
	e := testEngine(client)

	page := analyzedPage("https://a.test", "Solar Basics",
		content.Section{Heading: "Overview", Content: "Solar power converts sunlight into electricity."},
	)
	got := e.Summarize(context.Background(), page, "")
	if got != "A concise digest." {
		t.Fatalf("Summarize = %q", got)
	}
	if !strings.Contains(client.prompts[0], "Solar Basics") {
		t.Errorf("summary prompt missing title:\n%s", client.prompts[0])
	}
}
