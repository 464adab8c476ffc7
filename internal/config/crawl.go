package config

import "fmt"

// CrawlConfig configures the crawl orchestrator.
type CrawlConfig struct {
	// ParallelLimit bounds concurrently pending fetches within a batch.
	ParallelLimit int `yaml:"parallel_limit"`

	// ProgressBuffer sizes the progress event channel. Events beyond the
	// buffer are dropped rather than stalling a unit of work.
	ProgressBuffer int `yaml:"progress_buffer"`
}

// DefaultCrawlConfig returns sensible defaults.
func DefaultCrawlConfig() CrawlConfig {
	return CrawlConfig{
		ParallelLimit:  3,
		ProgressBuffer: 32,
	}
}

// Validate checks crawl settings.
func (c CrawlConfig) Validate() error {
	if c.ParallelLimit < 1 {
		return fmt.Errorf("crawl.parallel_limit must be at least 1, got %d", c.ParallelLimit)
	}
	return nil
}
