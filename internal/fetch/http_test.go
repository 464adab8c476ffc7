package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"webnerd/internal/config"
	"webnerd/internal/content"
)

const samplePage = `<!DOCTYPE html>
<html><head><title>EV Range Guide</title></head>
<body>
<nav><p>skip this navigation text</p></nav>
<h1>Electric Vehicle Range</h1>
<p>Range depends on battery capacity and driving style.</p>
<h2>Charging</h2>
<p>Fast chargers restore most range in under an hour.</p>
<ul><li>Level 1</li><li>Level 2</li></ul>
<h2>Code Sample</h2>
<pre>estimate(range)</pre>
<footer><p>copyright text</p></footer>
</body></html>`

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPFetcher_ExtractsSections(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(samplePage))
	})

	f := NewHTTPFetcher(config.DefaultBrowserConfig(), nil)
	raw, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if got, want := raw.Title, "EV Range Guide"; got != want {
		t.Fatalf("Title = %q, want %q", got, want)
	}

	ex, err := content.Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	var headings []string
	for _, s := range ex.Sections {
		headings = append(headings, s.Heading)
	}
	joined := strings.Join(headings, "|")
	for _, want := range []string{"Electric Vehicle Range", "Charging", "Code Sample"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("headings = %q, missing %q", joined, want)
		}
	}

	if strings.Contains(ex.FullText, "navigation") || strings.Contains(ex.FullText, "copyright") {
		t.Fatalf("FullText includes nav/footer text: %q", ex.FullText)
	}

	var charging, code content.Section
	for _, s := range ex.Sections {
		switch s.Heading {
		case "Charging":
			charging = s
		case "Code Sample":
			code = s
		}
	}
	if !charging.HasList {
		t.Fatal("Charging.HasList = false, want true")
	}
	if !code.HasCode {
		t.Fatal("Code Sample.HasCode = false, want true")
	}
}

func TestHTTPFetcher_HTTPErrorStatus(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	})

	f := NewHTTPFetcher(config.DefaultBrowserConfig(), nil)
	_, err := f.Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("Fetch() error = %v, want ErrFetch", err)
	}
}

func TestHTTPFetcher_Timeout(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})

	cfg := config.DefaultBrowserConfig()
	cfg.LoadTimeoutMs = 20
	f := NewHTTPFetcher(cfg, nil)

	_, err := f.Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Fetch() error = %v, want ErrTimeout", err)
	}
}

func TestHTTPFetcher_EmptyPageNormalizeFails(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>empty</title></head><body></body></html>`))
	})

	f := NewHTTPFetcher(config.DefaultBrowserConfig(), nil)
	raw, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if _, err := content.Normalize(raw); !errors.Is(err, content.ErrEmptyContent) {
		t.Fatalf("Normalize() error = %v, want ErrEmptyContent", err)
	}
}
