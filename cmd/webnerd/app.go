package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"webnerd/internal/cache"
	"webnerd/internal/config"
	"webnerd/internal/crawl"
	"webnerd/internal/fetch"
	"webnerd/internal/llm"
	"webnerd/internal/prompt"
	"webnerd/internal/store"
)

// app bundles the wired components for one command invocation.
type app struct {
	cfg          *config.Config
	store        store.DocumentStore
	cache        *cache.Cache
	fetcher      fetch.Fetcher
	orchestrator *crawl.Orchestrator
	assembler    *prompt.Assembler

	closers []func() error
}

// newApp loads configuration and wires the crawl pipeline. The LLM client
// is built separately because only the ask path needs one.
func newApp() (*app, error) {
	ws := workspace
	if ws == "" {
		var err error
		ws, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve workspace: %w", err)
		}
	}

	cfg, err := config.Load(config.DefaultPath(ws))
	if err != nil {
		return nil, err
	}
	if apiKey != "" {
		cfg.LLM.APIKey = apiKey
	}
	if verbose {
		cfg.Logging.Verbose = true
	}

	a := &app{cfg: cfg}

	dbPath := cfg.Cache.DatabasePath
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(ws, dbPath)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	st, err := store.NewSQLiteStore(dbPath, logger)
	if err != nil {
		return nil, err
	}
	a.store = st
	a.closers = append(a.closers, st.Close)

	a.cache = cache.New(st, cfg.Cache.TTLDuration(), logger)

	if cfg.Browser.Disabled {
		a.fetcher = fetch.NewHTTPFetcher(cfg.Browser, logger)
	} else {
		bf := fetch.NewBrowserFetcher(cfg.Browser, logger)
		a.fetcher = bf
		a.closers = append(a.closers, bf.Close)
	}

	a.orchestrator = crawl.New(a.fetcher, a.cache, cfg.Crawl, logger)
	a.assembler = prompt.NewAssembler(cfg.Context, logger)
	return a, nil
}

// llmClient builds the Gemini client on demand.
func (a *app) llmClient(ctx context.Context) (llm.Client, error) {
	return llm.NewGeminiClient(ctx, a.cfg.LLM, logger)
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

// commandContext derives the standard command context: global timeout
// plus SIGINT/SIGTERM cancellation.
func commandContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

func appVersion() string {
	return config.Default().Version
}
