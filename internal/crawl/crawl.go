// Package crawl coordinates the analysis of a set of search-result pages:
// cache lookup, bounded-parallel fetching, normalization, relevance
// scoring, and persistence. One job runs at a time; progress is reported
// over an advisory event channel.
package crawl

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"webnerd/internal/cache"
	"webnerd/internal/config"
	"webnerd/internal/content"
	"webnerd/internal/fetch"
	"webnerd/internal/score"
)

// ErrJobActive is returned when a job is started while another runs.
var ErrJobActive = errors.New("a crawl job is already running")

// Messages recorded on error stubs so downstream consumers can surface
// something human-readable instead of an internal error chain.
const (
	msgTimeout = "page took too long to load"
	msgGeneric = "could not analyze this page"
)

// Target is one page to analyze, usually a search result.
type Target struct {
	URL      string
	Title    string
	Snippet  string
	Position int
}

// Orchestrator runs crawl jobs. Targets are processed in batches of
// ParallelLimit; a batch always settles in full before the next starts,
// and cancellation takes effect only at batch boundaries, so partial
// results are whole batches. Cancel never aborts an in-flight fetch.
type Orchestrator struct {
	fetcher fetch.Fetcher
	cache   *cache.Cache
	cfg     config.CrawlConfig
	logger  *zap.Logger

	flight singleflight.Group
	events chan Event

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
}

// New creates an orchestrator. The event channel is created once and
// shared across jobs; it is never closed.
func New(fetcher fetch.Fetcher, c *cache.Cache, cfg config.CrawlConfig, logger *zap.Logger) *Orchestrator {
	def := config.DefaultCrawlConfig()
	if cfg.ParallelLimit <= 0 {
		cfg.ParallelLimit = def.ParallelLimit
	}
	if cfg.ProgressBuffer <= 0 {
		cfg.ProgressBuffer = def.ProgressBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		fetcher: fetcher,
		cache:   c,
		cfg:     cfg,
		logger:  logger.Named("crawl"),
		events:  make(chan Event, cfg.ProgressBuffer),
	}
}

// Events exposes the progress channel. Reads are optional.
func (o *Orchestrator) Events() <-chan Event {
	return o.events
}

// State reports the current job state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Cancel requests cancellation of the running job, if any. The signal is
// observed at the next batch boundary; the in-flight batch settles first
// and its fetches run to completion.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel != nil {
		o.cancel()
	}
}

// Analyze runs the crawl pipeline over targets and returns one result per
// target, in input order. Only one job may run at a time; concurrent
// callers get ErrJobActive. On cancellation the results of every settled
// batch are returned along with the context error.
func (o *Orchestrator) Analyze(ctx context.Context, query string, targets []Target) ([]cache.AnalysisResult, error) {
	stop, err := o.acquire()
	if err != nil {
		return nil, err
	}

	jobID := uuid.NewString()
	log := o.logger.With(zap.String("job_id", jobID))
	log.Info("crawl started",
		zap.String("query", query),
		zap.Int("targets", len(targets)),
		zap.Int("parallel_limit", o.cfg.ParallelLimit))

	results := make([]cache.AnalysisResult, len(targets))
	settled := 0

	for start := 0; start < len(targets); start += o.cfg.ParallelLimit {
		if err := cancelled(ctx, stop); err != nil {
			o.release(StateCancelled)
			log.Info("crawl cancelled", zap.Int("settled", settled), zap.Int("targets", len(targets)))
			return results[:settled], err
		}

		end := start + o.cfg.ParallelLimit
		if end > len(targets) {
			end = len(targets)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				// Units of work run on the caller's context, not the
				// stop signal: Cancel must never abort an in-flight
				// fetch.
				results[i] = o.analyzeOne(ctx, query, targets[i], i, len(targets))
			}(i)
		}
		wg.Wait()
		settled = end
	}

	o.release(StateCompleted)
	log.Info("crawl completed", zap.Int("targets", len(targets)))
	return results, nil
}

// cancelled reports whether the job should stop at this batch boundary,
// either because the caller's context ended or Cancel was called.
func cancelled(ctx, stop context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if stop.Err() != nil {
		return context.Canceled
	}
	return nil
}

// Refresh re-analyzes a single target, bypassing the cache. Fresh results
// (including error stubs) replace whatever was cached. Refresh is rejected
// while a job occupies the slot, matching the one-active-analysis rule.
func (o *Orchestrator) Refresh(ctx context.Context, query string, target Target) (cache.AnalysisResult, error) {
	o.mu.Lock()
	busy := o.state == StateRunning
	o.mu.Unlock()
	if busy {
		return cache.AnalysisResult{}, ErrJobActive
	}

	result, err := o.pipeline(ctx, query, target)
	if err != nil {
		stub := errorStub(target, err)
		if cacheable(ctx, err) {
			if perr := o.cache.Put(ctx, target.URL, stub); perr != nil {
				o.logger.Warn("failed to cache error stub", zap.String("url", target.URL), zap.Error(perr))
			}
		}
		return stub, err
	}
	if perr := o.cache.Put(ctx, target.URL, result); perr != nil {
		o.logger.Warn("failed to cache result", zap.String("url", target.URL), zap.Error(perr))
	}
	return result, nil
}

// Refetcher adapts the pipeline for cache schema migration, which needs
// to re-fetch records whose stored sections are unusable.
func (o *Orchestrator) Refetcher(query string) cache.RefetchFunc {
	return func(ctx context.Context, url string) (cache.AnalysisResult, error) {
		return o.pipeline(ctx, query, Target{URL: url})
	}
}

// acquire claims the single job slot and returns the job's stop signal.
// The signal is deliberately detached from any caller context: it only
// gates batch boundaries.
func (o *Orchestrator) acquire() (context.Context, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateRunning {
		return nil, ErrJobActive
	}
	stop, cancel := context.WithCancel(context.Background())
	o.state = StateRunning
	o.cancel = cancel
	return stop, nil
}

func (o *Orchestrator) release(final State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.state = final
}

// analyzeOne is the unit of work for one target. It never returns an
// error: failures become error stubs so one bad page cannot sink the
// batch.
func (o *Orchestrator) analyzeOne(ctx context.Context, query string, target Target, index, total int) cache.AnalysisResult {
	if ctx.Err() != nil {
		return errorStub(target, ctx.Err())
	}

	o.emit(Event{Kind: EventFetching, URL: target.URL, Title: target.Title, Index: index, Total: total})

	if cached, ok := o.cache.Get(ctx, target.URL); ok {
		// Hits are migrated on read; records with unusable sections go
		// back through the live pipeline.
		cached = o.cache.EnsureFullContent(ctx, cached, o.Refetcher(query))
		o.emit(Event{Kind: EventCached, URL: target.URL, Title: cached.Title, Index: index, Total: total})
		return cached
	}

	// Identical URLs in flight share one fetch; every waiter gets the
	// same result value.
	v, _, _ := o.flight.Do(target.URL, func() (interface{}, error) {
		result, err := o.pipeline(ctx, query, target)
		if err == nil {
			if perr := o.cache.Put(ctx, target.URL, result); perr != nil {
				o.logger.Warn("failed to cache result", zap.String("url", target.URL), zap.Error(perr))
			}
			return result, nil
		}

		stub := errorStub(target, err)
		// A failure caused by the caller going away describes this run,
		// not the page: the stub is returned but kept out of the cache.
		if cacheable(ctx, err) {
			if perr := o.cache.Put(ctx, target.URL, stub); perr != nil {
				o.logger.Warn("failed to cache error stub", zap.String("url", target.URL), zap.Error(perr))
			}
		}
		return stub, nil
	})
	result := v.(cache.AnalysisResult)

	kind := EventAnalyzed
	if result.Error {
		kind = EventFailed
	}
	o.emit(Event{Kind: kind, URL: target.URL, Title: result.Title, Index: index, Total: total})
	return result
}

// cacheable reports whether a pipeline failure reflects the page rather
// than a cancelled run.
func cacheable(ctx context.Context, err error) bool {
	return ctx.Err() == nil && !errors.Is(err, context.Canceled)
}

// pipeline runs fetch -> normalize -> score for one target.
func (o *Orchestrator) pipeline(ctx context.Context, query string, target Target) (cache.AnalysisResult, error) {
	raw, err := o.fetcher.Fetch(ctx, target.URL)
	if err != nil {
		o.logger.Warn("fetch failed", zap.String("url", target.URL), zap.Error(err))
		return cache.AnalysisResult{}, err
	}

	extracted, err := content.Normalize(raw)
	if err != nil {
		o.logger.Warn("normalization failed", zap.String("url", target.URL), zap.Error(err))
		return cache.AnalysisResult{}, err
	}

	title := raw.Title
	if title == "" {
		title = target.Title
	}

	return cache.AnalysisResult{
		URL:            target.URL,
		Title:          title,
		Snippet:        target.Snippet,
		Position:       target.Position,
		Summary:        content.ExtractiveSummary(extracted.Sections),
		Sections:       extracted.Sections,
		RelevanceScore: score.Score(extracted.FullText, query),
		Extracted:      extracted,
		Timestamp:      time.Now(),
	}, nil
}

func (o *Orchestrator) emit(ev Event) {
	select {
	case o.events <- ev:
	default:
		o.logger.Debug("progress event dropped", zap.String("kind", string(ev.Kind)), zap.String("url", ev.URL))
	}
}

func errorStub(target Target, err error) cache.AnalysisResult {
	msg := msgGeneric
	if errors.Is(err, fetch.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		msg = msgTimeout
	}
	stub := cache.ErrorResult(target.URL, target.Title, msg)
	stub.Snippet = target.Snippet
	stub.Position = target.Position
	return stub
}
