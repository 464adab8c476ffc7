package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"webnerd/internal/content"
	"webnerd/internal/store"
)

// DefaultTTL is the cache validity window.
const DefaultTTL = 24 * time.Hour

// documentKey is the single backing-store document holding all entries.
const documentKey = "page_cache"

// currentSchemaVersion stamps entries written by this code. Version 1
// entries carry sections without the extractedContent wrapper.
const currentSchemaVersion = 2

// Entry is one cached analysis, version-stamped for migration.
type Entry struct {
	Data          AnalysisResult `json:"data"`
	CachedAt      time.Time      `json:"cachedAt"`
	SchemaVersion int            `json:"schemaVersion"`
}

// indexDocument is the serialized shape of the whole cache.
type indexDocument struct {
	Version int              `json:"version"`
	Entries map[string]Entry `json:"entries"`
}

// RefetchFunc re-runs the live fetch -> normalize -> score pipeline for a URL.
// EnsureFullContent calls it when a record cannot be migrated in place.
type RefetchFunc func(ctx context.Context, url string) (AnalysisResult, error)

// Cache maps canonical URLs to analysis results with TTL-based freshness.
// Writes are serialized by an internal mutex: the backing store only
// supports full-document writes, so interleaved read-modify-write cycles
// would lose updates.
type Cache struct {
	store  store.DocumentStore
	ttl    time.Duration
	logger *zap.Logger
	mu     sync.Mutex

	now func() time.Time // test hook
}

// New creates a cache over the given document store.
func New(st store.DocumentStore, ttl time.Duration, logger *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{store: st, ttl: ttl, logger: logger.Named("cache"), now: time.Now}
}

// Get returns the cached result for url if present and fresh. An entry is
// fresh iff now - cachedAt < TTL; exactly at the boundary it is a miss.
// Stale entries are ignored, not deleted.
func (c *Cache) Get(ctx context.Context, url string) (AnalysisResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, err := c.readIndex(ctx)
	if err != nil {
		c.logger.Warn("cache read failed", zap.Error(err))
		return AnalysisResult{}, false
	}

	entry, ok := idx.Entries[url]
	if !ok {
		return AnalysisResult{}, false
	}

	age := c.now().Sub(entry.CachedAt)
	if age >= c.ttl {
		c.logger.Debug("cache entry stale", zap.String("url", url), zap.Duration("age", age))
		return AnalysisResult{}, false
	}

	result := entry.Data
	result.FromCache = true
	result.CachedAt = entry.CachedAt
	result.CacheAge = AgeBucket(age)
	return result, true
}

// Put overwrites the entry for url. The entire index document is
// rewritten; staleness of other entries is preserved as-is.
func (c *Cache) Put(ctx context.Context, url string, result AnalysisResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.putLocked(ctx, url, result)
}

func (c *Cache) putLocked(ctx context.Context, url string, result AnalysisResult) error {
	idx, err := c.readIndex(ctx)
	if err != nil {
		return err
	}

	result.FromCache = false
	result.CacheAge = ""
	idx.Entries[url] = Entry{
		Data:          result,
		CachedAt:      c.now(),
		SchemaVersion: currentSchemaVersion,
	}
	return c.writeIndex(ctx, idx)
}

// Update applies mutate under a fresh read-modify-write of the whole
// index. This is the only sanctioned way to change an already-cached
// result; unrelated entries are untouched.
func (c *Cache) Update(ctx context.Context, url string, mutate func(*AnalysisResult)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, err := c.readIndex(ctx)
	if err != nil {
		return err
	}
	entry, ok := idx.Entries[url]
	if !ok {
		return fmt.Errorf("no cache entry for %s", url)
	}

	mutate(&entry.Data)
	entry.SchemaVersion = currentSchemaVersion
	idx.Entries[url] = entry
	return c.writeIndex(ctx, idx)
}

// EnsureFullContent migrates a record to the current schema, re-fetching
// when the stored sections are unusable. Calling it on an already-migrated
// record is a no-op (idempotent, no re-fetch).
func (c *Cache) EnsureFullContent(ctx context.Context, result AnalysisResult, refetch RefetchFunc) AnalysisResult {
	// Already migrated with usable content.
	if result.hasFullContent() {
		return result
	}

	// Legacy sections carry text but the wrapper is missing: synthesize
	// it in place and persist the migration.
	if result.hasLegacySections() {
		migrated := result
		migrated.Extracted = synthesizeExtracted(result.Sections)
		if err := c.Put(ctx, result.URL, migrated); err != nil {
			c.logger.Warn("failed to persist migration", zap.String("url", result.URL), zap.Error(err))
		}
		return migrated
	}

	// Sections are structurally empty or absent: only a live re-fetch
	// can recover the record.
	if refetch != nil {
		fresh, err := refetch(ctx, result.URL)
		if err == nil && !fresh.Error {
			if perr := c.Put(ctx, result.URL, fresh); perr != nil {
				c.logger.Warn("failed to persist refetch", zap.String("url", result.URL), zap.Error(perr))
			}
			return fresh
		}
		c.logger.Warn("refetch failed during migration", zap.String("url", result.URL), zap.Error(err))
	}

	// Re-fetch failed: fall back to whatever legacy sections exist, even
	// content-less, rather than losing the record.
	fallback := result
	fallback.Extracted = synthesizeExtracted(result.Sections)
	return fallback
}

// Clear resets the cache to empty. Idempotent.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.store.Delete(ctx, documentKey)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("clear cache: %w", err)
	}
	c.logger.Info("cache cleared")
	return nil
}

// Stats summarizes the cache for diagnostics.
type Stats struct {
	Entries int
	Fresh   int
	Stale   int
	Errors  int
}

// GetStats counts entries by freshness.
func (c *Cache) GetStats(ctx context.Context) (Stats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, err := c.readIndex(ctx)
	if err != nil {
		return Stats{}, err
	}

	var st Stats
	st.Entries = len(idx.Entries)
	now := c.now()
	for _, e := range idx.Entries {
		if now.Sub(e.CachedAt) < c.ttl {
			st.Fresh++
		} else {
			st.Stale++
		}
		if e.Data.Error {
			st.Errors++
		}
	}
	return st, nil
}

// readIndex loads the whole cache document, tolerating absence and
// corruption (both yield an empty index; corruption is logged).
func (c *Cache) readIndex(ctx context.Context) (*indexDocument, error) {
	empty := &indexDocument{Version: currentSchemaVersion, Entries: make(map[string]Entry)}

	doc, err := c.store.Read(ctx, documentKey)
	if errors.Is(err, store.ErrNotFound) {
		return empty, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache index: %w", err)
	}

	var idx indexDocument
	if err := json.Unmarshal(doc, &idx); err != nil {
		c.logger.Warn("cache index corrupt, starting fresh", zap.Error(err))
		return empty, nil
	}
	if idx.Entries == nil {
		idx.Entries = make(map[string]Entry)
	}
	return &idx, nil
}

func (c *Cache) writeIndex(ctx context.Context, idx *indexDocument) error {
	idx.Version = currentSchemaVersion
	doc, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("marshal cache index: %w", err)
	}
	if err := c.store.Write(ctx, documentKey, doc); err != nil {
		return fmt.Errorf("write cache index: %w", err)
	}
	return nil
}

// synthesizeExtracted builds the extractedContent wrapper from legacy
// sections, preserving whichever text field each carries.
func synthesizeExtracted(sections []content.Section) *content.Extracted {
	canonical := make([]content.Section, len(sections))
	copy(canonical, sections)
	for i := range canonical {
		if canonical[i].Content == "" {
			canonical[i].Content = canonical[i].Text
		}
		if canonical[i].Text == "" {
			canonical[i].Text = canonical[i].Content
		}
	}

	full := content.FullText(canonical)
	return &content.Extracted{
		Sections: canonical,
		FullText: full,
		Metadata: content.Metadata{
			TotalWords:   len(strings.Fields(full)),
			HasHeadings:  anyHeading(canonical),
			SectionCount: len(canonical),
		},
	}
}

func anyHeading(sections []content.Section) bool {
	for _, s := range sections {
		if s.Heading != "" {
			return true
		}
	}
	return false
}
