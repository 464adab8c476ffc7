// Package config holds all webnerd configuration, loaded from YAML with
// environment overrides for secrets.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all webnerd configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Browser fetcher configuration
	Browser BrowserConfig `yaml:"browser"`

	// Crawl orchestration
	Crawl CrawlConfig `yaml:"crawl"`

	// Analysis result cache
	Cache CacheConfig `yaml:"cache"`

	// LLM configuration
	LLM LLMConfig `yaml:"llm"`

	// Context window budgeting
	Context ContextConfig `yaml:"context"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig controls logger verbosity.
type LoggingConfig struct {
	Verbose bool `yaml:"verbose"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		Name:    "webnerd",
		Version: "0.3.0",
		Browser: DefaultBrowserConfig(),
		Crawl:   DefaultCrawlConfig(),
		Cache:   DefaultCacheConfig(),
		LLM:     DefaultLLMConfig(),
		Context: DefaultContextConfig(),
	}
}

// Load reads configuration from a YAML file, applying defaults for any
// missing section and environment overrides afterwards. A missing file is
// not an error; defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultPath returns the conventional config location under the
// workspace directory.
func DefaultPath(workspace string) string {
	return filepath.Join(workspace, ".webnerd", "config.yaml")
}

// applyEnvOverrides lets the environment supply secrets so they never
// have to live in the YAML file.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("WEBNERD_API_KEY"); key != "" {
		c.LLM.APIKey = key
	} else if key := os.Getenv("GEMINI_API_KEY"); key != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = key
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if err := c.Browser.Validate(); err != nil {
		return err
	}
	if err := c.Crawl.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if err := c.Context.Validate(); err != nil {
		return err
	}
	return nil
}
