package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"webnerd/internal/config"
	"webnerd/internal/content"
)

// BrowserFetcher opens each page in its own short-lived incognito context.
// Per-page isolation is intentional: every resource gets a clean DOM, and
// contexts are torn down on every exit path.
type BrowserFetcher struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	mu      sync.Mutex
	browser *rod.Browser
}

// NewBrowserFetcher creates a fetcher; the browser connection is
// established lazily on first use.
func NewBrowserFetcher(cfg config.BrowserConfig, logger *zap.Logger) *BrowserFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BrowserFetcher{cfg: cfg, logger: logger.Named("fetch")}
}

// ensureStarted connects to an existing Chrome or launches a new one.
func (f *BrowserFetcher) ensureStarted(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.browser != nil {
		if _, err := f.browser.Version(); err == nil {
			return nil
		}
		f.logger.Warn("stale browser connection, reconnecting")
		_ = f.browser.Close()
		f.browser = nil
	}

	controlURL := f.cfg.DebuggerURL
	if controlURL == "" {
		launch := launcher.New().Headless(f.cfg.Headless)
		if f.cfg.Bin != "" {
			launch = launch.Bin(f.cfg.Bin)
		}
		url, err := launch.Launch()
		if err != nil {
			return fmt.Errorf("launch chrome: %w", err)
		}
		controlURL = url
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect to chrome: %w", err)
	}

	f.browser = browser
	f.logger.Info("browser connected", zap.Bool("headless", f.cfg.Headless))
	return nil
}

// Fetch opens url in an isolated context, waits for load completion or
// timeout, runs the in-page extraction script, and tears the context down
// unconditionally.
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (content.RawContent, error) {
	if err := f.ensureStarted(ctx); err != nil {
		return content.RawContent{}, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	f.mu.Lock()
	browser := f.browser
	f.mu.Unlock()
	if browser == nil {
		return content.RawContent{}, ErrNotInitialized
	}

	incognito, err := browser.Incognito()
	if err != nil {
		return content.RawContent{}, fmt.Errorf("%w: incognito context: %v", ErrFetch, err)
	}

	// Background target: the tab opens without stealing focus from
	// whatever the user is doing.
	page, err := incognito.Page(proto.TargetCreateTarget{URL: url, Background: true})
	if err != nil {
		return content.RawContent{}, fmt.Errorf("%w: create page: %v", ErrFetch, err)
	}
	defer func() { _ = page.Close() }()

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             f.cfg.GetViewportWidth(),
		Height:            f.cfg.GetViewportHeight(),
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}).Call(page); err != nil {
		f.logger.Debug("failed to set viewport", zap.Error(err))
	}

	scoped := page.Context(ctx).Timeout(f.cfg.LoadTimeout())
	if err := scoped.WaitLoad(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return content.RawContent{}, fmt.Errorf("%w after %v: %s", ErrTimeout, f.cfg.LoadTimeout(), url)
		}
		return content.RawContent{}, fmt.Errorf("%w: wait load: %v", ErrFetch, err)
	}

	raw, err := f.extract(ctx, scoped)
	if err != nil {
		return content.RawContent{}, err
	}
	return raw, nil
}

// extract runs the heading-scoped section walker inside the page.
func (f *BrowserFetcher) extract(ctx context.Context, page *rod.Page) (content.RawContent, error) {
	res, err := page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS:           extractionJS,
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil || res == nil {
		return content.RawContent{}, fmt.Errorf("%w: extraction: %v", ErrFetch, err)
	}

	payload, err := res.Value.MarshalJSON()
	if err != nil {
		return content.RawContent{}, fmt.Errorf("%w: marshal extraction: %v", ErrFetch, err)
	}

	var raw content.RawContent
	if err := json.Unmarshal(payload, &raw); err != nil {
		return content.RawContent{}, fmt.Errorf("%w: decode extraction: %v", ErrFetch, err)
	}
	return raw, nil
}

// Close shuts down the browser connection.
func (f *BrowserFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.browser == nil {
		return nil
	}
	err := f.browser.Close()
	f.browser = nil
	return err
}

// extractionJS walks the DOM grouping visible text under the nearest
// preceding heading. Sections with no text are emitted anyway; the
// normalizer drops them.
const extractionJS = `
() => {
	const blockTags = new Set(['P', 'LI', 'TD', 'TH', 'BLOCKQUOTE', 'DD', 'DT', 'FIGCAPTION']);
	const headingLevel = (tag) => {
		const m = /^H([1-6])$/.exec(tag);
		return m ? parseInt(m[1], 10) : 0;
	};

	const sections = [];
	let current = { heading: '', content: '', level: 0, hasCode: false, hasList: false };
	const push = () => {
		current.content = current.content.replace(/\s+/g, ' ').trim();
		if (current.heading || current.content) sections.push(current);
	};

	const walker = document.createTreeWalker(document.body || document.documentElement, NodeFilter.SHOW_ELEMENT);
	let node = walker.currentNode;
	while (node) {
		const tag = node.tagName;
		const style = window.getComputedStyle(node);
		if (style.display === 'none' || style.visibility === 'hidden' ||
			tag === 'SCRIPT' || tag === 'STYLE' || tag === 'NOSCRIPT' ||
			tag === 'NAV' || tag === 'FOOTER') {
			node = walker.nextSibling() || walkUp(walker);
			continue;
		}

		const level = headingLevel(tag);
		if (level > 0) {
			push();
			current = {
				heading: (node.innerText || '').replace(/\s+/g, ' ').trim(),
				content: '',
				level,
				hasCode: false,
				hasList: false
			};
			node = walker.nextSibling() || walkUp(walker);
			continue;
		}

		if (tag === 'PRE' || tag === 'CODE') current.hasCode = true;
		if (tag === 'UL' || tag === 'OL') current.hasList = true;

		if (blockTags.has(tag) || tag === 'PRE') {
			const text = (node.innerText || '').trim();
			if (text) current.content += text + ' ';
			node = walker.nextSibling() || walkUp(walker);
			continue;
		}

		node = walker.nextNode();
	}
	push();

	function walkUp(w) {
		while (w.parentNode()) {
			const sib = w.nextSibling();
			if (sib) return sib;
		}
		return null;
	}

	return { title: document.title || '', sections };
}
`
