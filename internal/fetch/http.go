package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"webnerd/internal/config"
	"webnerd/internal/content"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 1 << 20

// HTTPFetcher retrieves pages over plain HTTP and extracts heading-scoped
// sections from the static HTML. It cannot see JS-rendered content; it is
// the fallback when the browser is disabled or unavailable.
type HTTPFetcher struct {
	cfg    config.BrowserConfig
	client *http.Client
	logger *zap.Logger
}

// NewHTTPFetcher creates the fallback fetcher.
func NewHTTPFetcher(cfg config.BrowserConfig, logger *zap.Logger) *HTTPFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPFetcher{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.LoadTimeout()},
		logger: logger.Named("fetch.http"),
	}
}

// Fetch retrieves url and extracts its sections.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (content.RawContent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return content.RawContent{}, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil || isTimeout(err) {
			return content.RawContent{}, fmt.Errorf("%w: %s", ErrTimeout, url)
		}
		return content.RawContent{}, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return content.RawContent{}, fmt.Errorf("%w: HTTP %d for %s", ErrFetch, resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return content.RawContent{}, fmt.Errorf("%w: read body: %v", ErrFetch, err)
	}

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return content.RawContent{}, fmt.Errorf("%w: parse html: %v", ErrFetch, err)
	}

	return extractFromHTML(doc), nil
}

func isTimeout(err error) bool {
	t, ok := err.(interface{ Timeout() bool })
	return ok && t.Timeout()
}

// extractFromHTML walks the node tree grouping text under the nearest
// preceding heading.
func extractFromHTML(doc *html.Node) content.RawContent {
	raw := content.RawContent{Title: extractTitle(doc)}

	current := content.RawSection{}
	flush := func() {
		current.Content = strings.Join(strings.Fields(current.Content), " ")
		if current.Heading != "" || current.Content != "" {
			raw.Sections = append(raw.Sections, current)
		}
		current = content.RawSection{}
	}

	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "nav", "footer":
				return
			case "h1", "h2", "h3", "h4", "h5", "h6":
				flush()
				current.Heading = textContent(n)
				current.Level = int(n.Data[1] - '0')
				return
			case "pre":
				current.HasCode = true
				current.Content += textContent(n) + " "
				return
			case "code":
				current.HasCode = true
			case "ul", "ol":
				current.HasList = true
			case "p", "li", "td", "th", "blockquote", "dd", "dt", "figcaption":
				current.Content += textContent(n) + " "
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)
	flush()

	return raw
}

func extractTitle(doc *html.Node) string {
	var title string
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = strings.TrimSpace(n.FirstChild.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)
	return title
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var traverse func(*html.Node)
	traverse = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
			sb.WriteString(" ")
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(n)
	return strings.TrimSpace(strings.Join(strings.Fields(sb.String()), " "))
}
