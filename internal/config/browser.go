package config

import (
	"fmt"
	"time"
)

// BrowserConfig configures the rod-backed page fetcher.
type BrowserConfig struct {
	// DebuggerURL attaches to an already-running Chrome instead of
	// launching one.
	DebuggerURL string `yaml:"debugger_url"`

	// Bin overrides the Chrome binary used by the launcher.
	Bin string `yaml:"bin"`

	Headless bool `yaml:"headless"`

	// Disabled switches page fetching to the plain HTTP extractor.
	Disabled bool `yaml:"disabled"`

	ViewportWidth  int `yaml:"viewport_width"`
	ViewportHeight int `yaml:"viewport_height"`

	// LoadTimeoutMs bounds the page-load wait per fetch.
	LoadTimeoutMs int `yaml:"load_timeout_ms"`

	UserAgent string `yaml:"user_agent"`
}

// DefaultBrowserConfig returns sensible defaults.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		Headless:       true,
		ViewportWidth:  1280,
		ViewportHeight: 900,
		LoadTimeoutMs:  15000,
		UserAgent:      "webnerd/0.3 (+research assistant)",
	}
}

// LoadTimeout returns the page-load timeout.
func (c BrowserConfig) LoadTimeout() time.Duration {
	if c.LoadTimeoutMs <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.LoadTimeoutMs) * time.Millisecond
}

// GetViewportWidth returns viewport width.
func (c BrowserConfig) GetViewportWidth() int {
	if c.ViewportWidth <= 0 {
		return 1280
	}
	return c.ViewportWidth
}

// GetViewportHeight returns viewport height.
func (c BrowserConfig) GetViewportHeight() int {
	if c.ViewportHeight <= 0 {
		return 900
	}
	return c.ViewportHeight
}

// Validate checks browser settings.
func (c BrowserConfig) Validate() error {
	if c.LoadTimeoutMs < 0 {
		return fmt.Errorf("browser.load_timeout_ms must not be negative, got %d", c.LoadTimeoutMs)
	}
	return nil
}
